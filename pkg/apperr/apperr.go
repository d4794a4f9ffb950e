// Package apperr defines the kinded-error taxonomy surfaced by the
// gateway's services, independent of transport. Handlers translate a
// Kind into a transport-specific code at the boundary (see pkg/api and
// pkg/rpcapi); the services themselves never know about HTTP or gRPC.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is one of the error kinds a service may raise.
type Kind string

const (
	InvalidArgument    Kind = "invalid-argument"
	Unauthenticated    Kind = "unauthenticated"
	SessionNotFound    Kind = "session-not-found"
	ModeRefused        Kind = "mode-refused"
	UpstreamUnavailable Kind = "upstream-unavailable"
	VendorError        Kind = "vendor-error"
	Timeout            Kind = "timeout"
	Internal           Kind = "internal"
)

// Error is the concrete error type raised by every package under
// pkg/trading, pkg/marketdata, pkg/subscription, pkg/callback and
// pkg/session.
type Error struct {
	Kind Kind
	Msg  string

	// Op is the attempted operation name, set for ModeRefused.
	Op string
	// VendorCode is the verbatim vendor status/error code, set for VendorError.
	VendorCode int
}

func (e *Error) Error() string {
	switch e.Kind {
	case ModeRefused:
		return fmt.Sprintf("mode-refused: %s: %s", e.Op, e.Msg)
	case VendorError:
		return fmt.Sprintf("vendor-error(%d): %s", e.VendorCode, e.Msg)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func ModeRefusedOp(op string) *Error {
	return &Error{Kind: ModeRefused, Op: op, Msg: "operation not permitted in current mode"}
}

func Vendor(code int, msg string) *Error {
	return &Error{Kind: VendorError, VendorCode: code, Msg: msg}
}

// KindOf extracts the Kind of err, defaulting to Internal for errors
// that did not originate in this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
