package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psychoney/quant-qmt-proxy/pkg/apperr"
	"github.com/psychoney/quant-qmt-proxy/pkg/config"
	"github.com/psychoney/quant-qmt-proxy/pkg/domain"
	"github.com/psychoney/quant-qmt-proxy/pkg/executor"
	"github.com/psychoney/quant-qmt-proxy/pkg/vendorcore"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	pool := executor.New(4)
	t.Cleanup(pool.Close)
	return New(vendorcore.NewSim(), pool, config.DefaultTimeouts())
}

func TestTranspose_WidensFieldMatrixIntoRows(t *testing.T) {
	now := time.Now()
	timestamps := []time.Time{now, now.Add(time.Minute)}
	fields := map[string][]float64{"close": {10.1, 10.2}, "volume": {1000, 2000}}

	rows := Transpose("000001.SZ", timestamps, fields)
	require.Len(t, rows, 2)
	assert.Equal(t, "000001.SZ", rows[0].Symbol)
	assert.Equal(t, 10.1, rows[0].Fields["close"])
	assert.Equal(t, 2000.0, rows[1].Fields["volume"])
}

func TestService_QueryMarketCandles_RejectsEmptyCodes(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.QueryMarketCandles(context.Background(), domain.CandleQuery{})
	require.Error(t, err)
	assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))
}

func TestService_QueryMarketCandles_Succeeds(t *testing.T) {
	svc := newTestService(t)
	rows, err := svc.QueryMarketCandles(context.Background(), domain.CandleQuery{
		Codes: []string{"000001.SZ"}, Period: "1d", Start: "20240101", End: "20240110",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "000001.SZ", rows[0].Symbol)
}

func TestService_QueryFinancial_Succeeds(t *testing.T) {
	svc := newTestService(t)
	rows, err := svc.QueryFinancial(context.Background(), domain.FinancialQuery{
		Codes: []string{"000001.SZ"}, Tables: []string{"balance_sheet"}, Start: "20240101", End: "20240110",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0].Tables, "balance_sheet")
}

func TestService_QueryInstrumentInfo(t *testing.T) {
	svc := newTestService(t)
	info, err := svc.QueryInstrumentInfo(context.Background(), "000001.SZ")
	require.NoError(t, err)
	assert.Equal(t, "000001.SZ", info.Code)
}
