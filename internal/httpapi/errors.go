package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"renderd/internal/manager"
	"renderd/pkg/types"
)

var errShuttingDown = errors.New("server shutting down")

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeErrorResponse(w, types.ErrorResponse{Error: msg, Code: status})
}

func writeErrorResponse(w http.ResponseWriter, resp types.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Code)
	_ = json.NewEncoder(w).Encode(resp)
}

// classStatus maps a manager error class to an HTTP status and a short message.
func classStatus(c manager.ErrorClass) (int, string) {
	switch c {
	case manager.ClassInvalidRequest:
		return http.StatusBadRequest, "invalid render request"
	case manager.ClassTooBusy:
		return http.StatusTooManyRequests, "too many concurrent renders"
	case manager.ClassSpawnBusy, manager.ClassSpawnTimeout, manager.ClassOther:
		return http.StatusServiceUnavailable, "rendering engine unavailable, retry later"
	case manager.ClassDisconnected:
		return http.StatusServiceUnavailable, "rendering engine disconnected, retry the request"
	case manager.ClassShutdown:
		return http.StatusServiceUnavailable, "server shutting down"
	case manager.ClassContentLoadTimeout:
		return http.StatusGatewayTimeout, "document did not load in time"
	case manager.ClassExportTimeout:
		return http.StatusGatewayTimeout, "pdf export timed out"
	case manager.ClassMissingBinary:
		return http.StatusInternalServerError, "rendering engine not installed"
	default:
		return http.StatusInternalServerError, "failed to generate pdf"
	}
}

// errorResponseFor builds the payload for a failed render.
func errorResponseFor(err error) types.ErrorResponse {
	class := manager.ClassOf(err)
	if class == manager.ClassUnknown {
		switch {
		case errors.Is(err, errShuttingDown):
			class = manager.ClassShutdown
		case errors.Is(err, context.DeadlineExceeded):
			return types.ErrorResponse{Error: "render timed out", Details: err.Error(), Code: http.StatusGatewayTimeout}
		}
	}
	status, msg := classStatus(class)
	return types.ErrorResponse{Error: msg, Details: err.Error(), ErrorClass: string(class), Code: status}
}

// writeRenderError writes the classified error and sets Retry-After where a
// retry can succeed.
func writeRenderError(w http.ResponseWriter, err error) types.ErrorResponse {
	resp := errorResponseFor(err)
	switch resp.Code {
	case http.StatusServiceUnavailable, http.StatusTooManyRequests:
		if manager.IsRetryable(err) {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		}
	}
	if resp.Code == http.StatusTooManyRequests {
		IncrementBackpressure("render_slots")
	}
	writeErrorResponse(w, resp)
	return resp
}
