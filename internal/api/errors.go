package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/waveform-core/internal/coordinate"
)

// Error is the JSON body of every error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// Error codes.
const (
	ErrCodeNotFound = "not_found"
	ErrCodeInternal = "internal_error"

	ErrCodeRateLimited = "rate_limited"
)

// kindResponse describes how one failure kind is shown to the caller.
type kindResponse struct {
	status int
	code   string

	// detail exposes the underlying cause in Message.
	detail bool
}

// kindResponses is the complete mapping from failure kind to response.
// Pool failures are the only kind whose cause reaches the caller.
var kindResponses = map[coordinate.Kind]kindResponse{
	coordinate.KindNotFound: {status: http.StatusNotFound, code: ErrCodeNotFound},
	coordinate.KindPool:     {status: http.StatusInternalServerError, code: ErrCodeInternal, detail: true},
	coordinate.KindQuery:    {status: http.StatusInternalServerError, code: ErrCodeInternal},
	coordinate.KindMapping:  {status: http.StatusInternalServerError, code: ErrCodeInternal},
	coordinate.KindUnknown:  {status: http.StatusInternalServerError, code: ErrCodeInternal},
}

// errorResponse maps err to its response body.
func errorResponse(err error) Error {
	resp, ok := kindResponses[coordinate.KindOf(err)]
	if !ok {
		resp = kindResponses[coordinate.KindUnknown]
	}

	body := Error{Status: resp.status, Code: resp.code}
	if resp.detail {
		var ce *coordinate.Error
		if errors.As(err, &ce) {
			body.Message = ce.Detail()
		}
	}
	return body
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeFailure answers with the taxonomy response for err.
func writeFailure(w http.ResponseWriter, err error) {
	body := errorResponse(err)
	writeJSON(w, body.Status, body)
}

// writeInternalError writes an opaque 500 response.
func writeInternalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, Error{
		Status: http.StatusInternalServerError,
		Code:   ErrCodeInternal,
	})
}
