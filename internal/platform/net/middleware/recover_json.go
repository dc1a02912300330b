package middleware

import (
	stdhttp "net/http"
	"runtime/debug"

	perr "phishguard/internal/platform/errors"
	"phishguard/internal/platform/logger"
	pnet "phishguard/internal/platform/net"
	phttp "phishguard/internal/platform/net/http"
)

// RequestContext copies the chi request id onto the logger context and echoes it back
func RequestContext(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		reqID := pnet.RequestID(r.Context())
		if reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
			r = r.WithContext(logger.WithRequest(r.Context(), reqID))
		}
		next.ServeHTTP(w, r)
	})
}

// RecoverJSON converts panics into a JSON 500 envelope and logs the stack
func RecoverJSON(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == stdhttp.ErrAbortHandler {
				panic(v)
			}
			logger.C(r.Context()).Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			phttp.RespondError(w, r, perr.PanicErrf("panic recovered"))
		}()
		next.ServeHTTP(w, r)
	})
}
