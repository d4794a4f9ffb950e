package vendorcore

import (
	"context"

	"github.com/psychoney/quant-qmt-proxy/pkg/apperr"
	"github.com/psychoney/quant-qmt-proxy/pkg/domain"
)

// Live is the binding point for the real vendor SDK. The vendor core's
// own wire protocol, QMT client, and error codes are out of scope per
// spec.md §1 — this type exists only to give LIVE_RO/LIVE_RW mode a
// concrete Core to construct the rest of the gateway against. Every
// method returns UpstreamUnavailable until a real binding (a cgo
// wrapper around the vendor's client library, built and run only on
// the vendor's supported platform) is linked in.
type Live struct{}

func NewLive() *Live { return &Live{} }

var errNotLinked = apperr.New(apperr.UpstreamUnavailable, "vendor core binding not linked into this build")

func (l *Live) NewClientHandle(context.Context, string, string) (ClientHandle, error) {
	return nil, errNotLinked
}

func (l *Live) QueryInstrumentInfo(context.Context, string) (domain.InstrumentInfo, error) {
	return domain.InstrumentInfo{}, errNotLinked
}

func (l *Live) QueryInstrumentType(context.Context, string) (string, error) {
	return "", errNotLinked
}

func (l *Live) QueryTradingCalendar(context.Context, string) ([]string, error) {
	return nil, errNotLinked
}

func (l *Live) QuerySectorList(context.Context) ([]domain.SectorInfo, error) {
	return nil, errNotLinked
}

func (l *Live) QuerySectorMembers(context.Context, string) ([]string, error) {
	return nil, errNotLinked
}

func (l *Live) QueryIndexWeight(context.Context, string) ([]domain.IndexWeight, error) {
	return nil, errNotLinked
}

func (l *Live) SectorCreate(context.Context, string) error          { return errNotLinked }
func (l *Live) SectorAddStocks(context.Context, string, []string) error { return errNotLinked }
func (l *Live) SectorRemoveStocks(context.Context, string, []string) error {
	return errNotLinked
}
func (l *Live) SectorRemove(context.Context, string) error { return errNotLinked }
func (l *Live) SectorReset(context.Context) error           { return errNotLinked }

func (l *Live) DownloadHistory(context.Context, []string, string, string, string) error {
	return errNotLinked
}

func (l *Live) QueryHistory(context.Context, []string, string, string, string, []string, domain.AdjustMode) ([]domain.SymbolRows, error) {
	return nil, errNotLinked
}

func (l *Live) QueryFinancial(context.Context, []string, []string, string, string) ([]domain.SymbolTableRows, error) {
	return nil, errNotLinked
}

func (l *Live) SubscribePerSymbol(context.Context, []string, string, domain.AdjustMode, func(domain.Tick)) (func() error, error) {
	return nil, errNotLinked
}

func (l *Live) SubscribeWholeMarket(context.Context, func(domain.Tick)) (func() error, error) {
	return nil, errNotLinked
}
