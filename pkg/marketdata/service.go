// Package marketdata implements the data service (spec component C5):
// market-data and reference-data queries over the blocking-call
// executor (C1). Point queries run once; range queries call the
// vendor's download primitive (unless disabled) before retrieval, each
// step bounded by its own timeout budget (spec.md §4.5).
package marketdata

import (
	"context"
	"time"

	"github.com/psychoney/quant-qmt-proxy/pkg/apperr"
	"github.com/psychoney/quant-qmt-proxy/pkg/config"
	"github.com/psychoney/quant-qmt-proxy/pkg/domain"
	"github.com/psychoney/quant-qmt-proxy/pkg/executor"
	"github.com/psychoney/quant-qmt-proxy/pkg/metrics"
	"github.com/psychoney/quant-qmt-proxy/pkg/vendorcore"
)

// Service implements spec.md §4.5's public operations.
type Service struct {
	core     vendorcore.MarketData
	pool     *executor.Pool
	timeouts config.Timeouts
}

func New(core vendorcore.MarketData, pool *executor.Pool, timeouts config.Timeouts) *Service {
	return &Service{core: core, pool: pool, timeouts: timeouts}
}

func validateCodes(codes []string) error {
	if len(codes) == 0 {
		return apperr.New(apperr.InvalidArgument, "codes must not be empty")
	}
	return nil
}

// Transpose widens a per-symbol field matrix (field name -> aligned
// value slice) and its shared timestamp axis into the per-row record
// list of spec.md §4.5. Values are copied as float64; counts and
// booleans are not widened to int64, and a field whose slice is shorter
// than the timestamp axis is left out of the rows it does not reach.
// No code path in this module calls Transpose: pkg/vendorcore.Sim
// returns pre-shaped rows for its synthetic data, and the query methods
// below pass the vendor's rows through unchanged.
func Transpose(symbol string, timestamps []time.Time, fields map[string][]float64) []domain.Row {
	rows := make([]domain.Row, len(timestamps))
	for i, ts := range timestamps {
		f := make(map[string]float64, len(fields))
		for name, values := range fields {
			if i < len(values) {
				f[name] = values[i]
			}
		}
		rows[i] = domain.Row{Symbol: symbol, Timestamp: ts, Fields: f}
	}
	return rows
}

func (s *Service) QueryInstrumentInfo(ctx context.Context, code string) (domain.InstrumentInfo, error) {
	return executor.Execute(ctx, s.pool, "query_instrument_info", func(ctx context.Context) (domain.InstrumentInfo, error) {
		return s.core.QueryInstrumentInfo(ctx, code)
	})
}

func (s *Service) QueryInstrumentType(ctx context.Context, code string) (string, error) {
	return executor.Execute(ctx, s.pool, "query_instrument_type", func(ctx context.Context) (string, error) {
		return s.core.QueryInstrumentType(ctx, code)
	})
}

func (s *Service) QueryTradingCalendar(ctx context.Context, year string) ([]string, error) {
	return executor.Execute(ctx, s.pool, "query_trading_calendar", func(ctx context.Context) ([]string, error) {
		return s.core.QueryTradingCalendar(ctx, year)
	})
}

func (s *Service) QuerySectorList(ctx context.Context) ([]domain.SectorInfo, error) {
	return executor.Execute(ctx, s.pool, "query_sector_list", func(ctx context.Context) ([]domain.SectorInfo, error) {
		return s.core.QuerySectorList(ctx)
	})
}

func (s *Service) QuerySectorMembers(ctx context.Context, sector string) ([]string, error) {
	return executor.Execute(ctx, s.pool, "query_sector_members", func(ctx context.Context) ([]string, error) {
		return s.core.QuerySectorMembers(ctx, sector)
	})
}

func (s *Service) QueryIndexWeight(ctx context.Context, code string) ([]domain.IndexWeight, error) {
	return executor.Execute(ctx, s.pool, "query_index_weight", func(ctx context.Context) ([]domain.IndexWeight, error) {
		return s.core.QueryIndexWeight(ctx, code)
	})
}

func (s *Service) SectorCreate(ctx context.Context, sector string) error {
	_, err := executor.Execute(ctx, s.pool, "sector_create", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.core.SectorCreate(ctx, sector)
	})
	return err
}

func (s *Service) SectorAddStocks(ctx context.Context, sector string, codes []string) error {
	if err := validateCodes(codes); err != nil {
		return err
	}
	_, err := executor.Execute(ctx, s.pool, "sector_add_stocks", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.core.SectorAddStocks(ctx, sector, codes)
	})
	return err
}

func (s *Service) SectorRemoveStocks(ctx context.Context, sector string, codes []string) error {
	if err := validateCodes(codes); err != nil {
		return err
	}
	_, err := executor.Execute(ctx, s.pool, "sector_remove_stocks", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.core.SectorRemoveStocks(ctx, sector, codes)
	})
	return err
}

func (s *Service) SectorRemove(ctx context.Context, sector string) error {
	_, err := executor.Execute(ctx, s.pool, "sector_remove", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.core.SectorRemove(ctx, sector)
	})
	return err
}

func (s *Service) SectorReset(ctx context.Context) error {
	_, err := executor.Execute(ctx, s.pool, "sector_reset", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.core.SectorReset(ctx)
	})
	return err
}

// QueryTickSeries serves the tick/full-tick/full-kline/divid-factors
// and level-2 families (spec.md §6), all of which are, at the vendor
// retrieval layer, the same period-parameterised history query under a
// different period label.
func (s *Service) QueryTickSeries(ctx context.Context, period string, q domain.CandleQuery) ([]domain.SymbolRows, error) {
	q.Period = period
	return s.QueryMarketCandles(ctx, q)
}

// QueryMarketCandles is a range query: download-then-retrieve, each
// step under its own timeout budget.
func (s *Service) QueryMarketCandles(ctx context.Context, q domain.CandleQuery) ([]domain.SymbolRows, error) {
	if err := validateCodes(q.Codes); err != nil {
		return nil, err
	}

	if !q.DisableDownload {
		dctx, cancel := context.WithTimeout(ctx, s.timeouts.Download)
		_, err := executor.Execute(dctx, s.pool, "download_history", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.core.DownloadHistory(ctx, q.Codes, q.Period, q.Start, q.End)
		})
		cancel()
		if err != nil {
			if apperr.KindOf(err) == apperr.Timeout {
				metrics.DataDownloadTimeoutsTotal.Inc()
			}
			return nil, err
		}
	}

	rctx, cancel := context.WithTimeout(ctx, s.timeouts.MarketData)
	defer cancel()
	timer := metrics.NewTimer()
	rows, err := executor.Execute(rctx, s.pool, "query_history", func(ctx context.Context) ([]domain.SymbolRows, error) {
		return s.core.QueryHistory(ctx, q.Codes, q.Period, q.Start, q.End, q.Fields, q.Adjust)
	})
	timer.ObserveDurationVec(metrics.DataQueryDuration, "range")
	return rows, err
}

// QueryFinancial is a range query over financial tables.
func (s *Service) QueryFinancial(ctx context.Context, q domain.FinancialQuery) ([]domain.SymbolTableRows, error) {
	if err := validateCodes(q.Codes); err != nil {
		return nil, err
	}

	dctx, cancel := context.WithTimeout(ctx, s.timeouts.Download)
	_, err := executor.Execute(dctx, s.pool, "download_history", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.core.DownloadHistory(ctx, q.Codes, "financial", q.Start, q.End)
	})
	cancel()
	if err != nil {
		if apperr.KindOf(err) == apperr.Timeout {
			metrics.DataDownloadTimeoutsTotal.Inc()
		}
		return nil, err
	}

	rctx, cancel := context.WithTimeout(ctx, s.timeouts.FinancialData)
	defer cancel()
	timer := metrics.NewTimer()
	rows, err := executor.Execute(rctx, s.pool, "query_financial", func(ctx context.Context) ([]domain.SymbolTableRows, error) {
		return s.core.QueryFinancial(ctx, q.Codes, q.Tables, q.Start, q.End)
	})
	timer.ObserveDurationVec(metrics.DataQueryDuration, "financial")
	return rows, err
}
