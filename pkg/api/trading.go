package api

import (
	"net/http"

	"github.com/psychoney/quant-qmt-proxy/pkg/domain"
	"github.com/psychoney/quant-qmt-proxy/pkg/trading"
)

type tradingHandlers struct {
	svc *trading.Service
}

func (h *tradingHandlers) connect(w http.ResponseWriter, r *http.Request) {
	var req domain.ConnectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.svc.Connect(r.Context(), req)
	if err != nil {
		writeJSON(w, httpStatus(kindOf(err)), resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *tradingHandlers) disconnect(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	ok, err := h.svc.Disconnect(sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, map[string]bool{"success": ok})
}

func (h *tradingHandlers) status(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	writeEnvelope(w, http.StatusOK, map[string]bool{"connected": h.svc.IsConnected(sessionID)})
}

func (h *tradingHandlers) account(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	info, err := h.svc.GetAccount(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *tradingHandlers) asset(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	info, err := h.svc.GetAsset(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *tradingHandlers) positions(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	info, err := h.svc.GetPositions(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *tradingHandlers) orders(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	info, err := h.svc.GetOrders(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *tradingHandlers) trades(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	info, err := h.svc.GetTrades(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *tradingHandlers) risk(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	info, err := h.svc.GetRisk(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *tradingHandlers) strategies(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	info, err := h.svc.GetStrategies(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *tradingHandlers) submitOrder(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	var req domain.OrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.svc.SubmitOrder(r.Context(), sessionID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *tradingHandlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	var req domain.CancelOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.svc.CancelOrder(r.Context(), sessionID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *tradingHandlers) submitOrderAsync(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	var req domain.AsyncOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.svc.SubmitOrderAsync(r.Context(), sessionID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *tradingHandlers) cancelOrderAsync(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	var req domain.AsyncCancelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.svc.CancelOrderAsync(r.Context(), sessionID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
