/*
Package log wraps zerolog with the gateway's conventions: a single
global Logger, level/format configured once at startup via Init, and
a handful of With* helpers for the identifiers that show up across
almost every log line in a trading gateway.

# Usage

Initializing at startup (done once in cmd/qmtproxy):

	import "github.com/psychoney/quant-qmt-proxy/pkg/log"

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	log.Logger.Info().Str("mode", "sim").Msg("qmtproxy: starting")

Scoping a logger to a session, account or subscription:

	logger := log.WithSessionID(sessionID)
	logger.Info().Str("stock_code", req.StockCode).Msg("order submitted")

	logger = log.WithAccountID(accountID)
	logger = log.WithSubscriptionID(subID)

Package-level helpers for one-off messages against the global Logger:

	log.Info("qmtproxy: listening")
	log.Errorf("vendor core call failed", err)

Errorf does no printf formatting: its first argument is logged as the
message verbatim and err is attached as the error field.

JSONOutput controls the sink format: JSON for production log
collection, a color console writer otherwise. Fatal logs at fatal
level and then calls os.Exit via zerolog's Fatal event.
*/
package log
