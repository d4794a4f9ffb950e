package rpcapi

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/psychoney/quant-qmt-proxy/pkg/apperr"
)

// grpcStatus maps an apperr.Kind to a gRPC status (spec.md §4.9/§7),
// the binary-transport twin of pkg/api's httpStatus table.
func grpcStatus(err error) error {
	kind := apperr.KindOf(err)
	var code codes.Code
	switch kind {
	case apperr.InvalidArgument:
		code = codes.InvalidArgument
	case apperr.Unauthenticated:
		code = codes.Unauthenticated
	case apperr.SessionNotFound, apperr.ModeRefused:
		code = codes.FailedPrecondition
	case apperr.Timeout:
		code = codes.DeadlineExceeded
	case apperr.UpstreamUnavailable, apperr.VendorError, apperr.Internal:
		code = codes.Internal
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}
