package api

import (
	"net/http"

	"github.com/psychoney/quant-qmt-proxy/pkg/domain"
	"github.com/psychoney/quant-qmt-proxy/pkg/marketdata"
	"github.com/psychoney/quant-qmt-proxy/pkg/subscription"
)

type dataHandlers struct {
	svc *marketdata.Service
	mgr *subscription.Manager
}

func (h *dataHandlers) market(w http.ResponseWriter, r *http.Request) {
	var q domain.CandleQuery
	if err := decodeJSON(r, &q); err != nil {
		writeError(w, err)
		return
	}
	rows, err := h.svc.QueryMarketCandles(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *dataHandlers) financial(w http.ResponseWriter, r *http.Request) {
	var q domain.FinancialQuery
	if err := decodeJSON(r, &q); err != nil {
		writeError(w, err)
		return
	}
	rows, err := h.svc.QueryFinancial(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *dataHandlers) sectorList(w http.ResponseWriter, r *http.Request) {
	sectors, err := h.svc.QuerySectorList(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, sectors)
}

type sectorRequest struct {
	Sector string   `json:"sector"`
	Codes  []string `json:"codes,omitempty"`
}

func (h *dataHandlers) sectorMembers(w http.ResponseWriter, r *http.Request) {
	var req sectorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	members, err := h.svc.QuerySectorMembers(r.Context(), req.Sector)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, members)
}

func (h *dataHandlers) sectorCreate(w http.ResponseWriter, r *http.Request) {
	var req sectorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.SectorCreate(r.Context(), req.Sector); err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, nil)
}

func (h *dataHandlers) sectorAddStocks(w http.ResponseWriter, r *http.Request) {
	var req sectorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.SectorAddStocks(r.Context(), req.Sector, req.Codes); err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, nil)
}

func (h *dataHandlers) sectorRemoveStocks(w http.ResponseWriter, r *http.Request) {
	var req sectorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.SectorRemoveStocks(r.Context(), req.Sector, req.Codes); err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, nil)
}

func (h *dataHandlers) sectorRemove(w http.ResponseWriter, r *http.Request) {
	var req sectorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.SectorRemove(r.Context(), req.Sector); err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, nil)
}

func (h *dataHandlers) sectorReset(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SectorReset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, nil)
}

func (h *dataHandlers) indexWeight(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	weights, err := h.svc.QueryIndexWeight(r.Context(), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, weights)
}

func (h *dataHandlers) tradingCalendar(w http.ResponseWriter, r *http.Request) {
	year := r.PathValue("year")
	days, err := h.svc.QueryTradingCalendar(r.Context(), year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, days)
}

func (h *dataHandlers) instrumentInfo(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	info, err := h.svc.QueryInstrumentInfo(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, info)
}

// tickSeries serves tick/full-tick/full-kline/divid-factors/level-2
// quote/order/transaction (spec.md §6): all are period-labelled history
// queries at the vendor retrieval layer.
func tickSeries(svc *marketdata.Service, period string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Codes []string `json:"codes"`
			Start string   `json:"start,omitempty"`
			End   string   `json:"end,omitempty"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		rows, err := svc.QueryTickSeries(r.Context(), period, domain.CandleQuery{Codes: req.Codes, Start: req.Start, End: req.End})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

func downloadTrigger(svc *marketdata.Service, period string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Codes []string `json:"codes"`
			Start string   `json:"start,omitempty"`
			End   string   `json:"end,omitempty"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		_, err := svc.QueryTickSeries(r.Context(), period, domain.CandleQuery{Codes: req.Codes, Start: req.Start, End: req.End, DisableDownload: false})
		if err != nil {
			writeError(w, err)
			return
		}
		writeEnvelope(w, http.StatusOK, nil)
	}
}

func (h *dataHandlers) subscribe(w http.ResponseWriter, r *http.Request) {
	var req domain.SubscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	info, err := h.mgr.Subscribe(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *dataHandlers) unsubscribe(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.mgr.Unsubscribe(id); err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, nil)
}

func (h *dataHandlers) subscriptionInfo(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	info, err := h.mgr.Info(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *dataHandlers) subscriptionList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.mgr.List())
}
