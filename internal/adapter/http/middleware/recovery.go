package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/bankledger/internal/adapter/http/dto"
)

// Recovery turns a panicking handler into a 500 response. The stack goes to
// the request logger; the client only sees the request id.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			zerolog.Ctx(r.Context()).Error().
				Interface("panic", rvr).
				Bytes("stack", debug.Stack()).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("panic recovered")

			resp := dto.ErrorResponse{Error: "internal server error"}
			if id := chimiddleware.GetReqID(r.Context()); id != "" {
				resp.Message = "request " + id + " failed"
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(resp)
		}()

		next.ServeHTTP(w, r)
	})
}
