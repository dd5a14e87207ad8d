package kit

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// StatusFunc maps an endpoint error to an HTTP status code.
type StatusFunc func(error) int

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": msg} with the given status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

// HTTPHandler adapts an Endpoint to net/http. decode builds the request from
// r; a decode error is a 400. Endpoint errors go through status, which
// defaults to 500.
func HTTPHandler(endpoint Endpoint, decode func(*http.Request) (any, error), status StatusFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := WithTransport(r.Context(), "http")
		ctx = WithRemoteAddr(ctx, r.RemoteAddr)
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx = WithRequestID(ctx, reqID)
		w.Header().Set("X-Request-ID", reqID)

		req, err := decode(r.WithContext(ctx))
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		resp, err := endpoint(ctx, req)
		if err != nil {
			code := http.StatusInternalServerError
			if status != nil {
				code = status(err)
			}
			WriteError(w, code, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
