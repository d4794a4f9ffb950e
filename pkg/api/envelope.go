package api

import (
	"encoding/json"
	"net/http"

	"github.com/psychoney/quant-qmt-proxy/pkg/apperr"
	"github.com/psychoney/quant-qmt-proxy/pkg/log"
)

// Envelope wraps ad-hoc endpoint responses (spec.md §6: "{success,
// code, message, data}"). Typed endpoints write their DTO bare.
type Envelope struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Success: status < 400, Code: status, Message: http.StatusText(status), Data: data})
}

// writeError maps a service error's apperr.Kind to an HTTP status
// (spec.md §4.9 mapping table) and writes an envelope body.
func writeError(w http.ResponseWriter, err error) {
	status := httpStatus(apperr.KindOf(err))
	log.Logger.Debug().Err(err).Int("status", status).Msg("api: request failed")
	writeJSON(w, status, Envelope{Success: false, Code: status, Message: err.Error()})
}

func kindOf(err error) apperr.Kind { return apperr.KindOf(err) }

func httpStatus(kind apperr.Kind) int {
	switch kind {
	case apperr.InvalidArgument:
		return http.StatusBadRequest
	case apperr.Unauthenticated:
		return http.StatusUnauthorized
	case apperr.SessionNotFound, apperr.ModeRefused:
		return http.StatusBadRequest
	case apperr.Timeout:
		return http.StatusGatewayTimeout
	case apperr.UpstreamUnavailable, apperr.VendorError, apperr.Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return apperr.New(apperr.InvalidArgument, "request body required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.New(apperr.InvalidArgument, "malformed request body: "+err.Error())
	}
	return nil
}
