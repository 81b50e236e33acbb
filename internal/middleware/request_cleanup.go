package middleware

import (
	"io"
	"net/http"
)

// maxDrainBytes bounds how much of an unread request body is discarded
// before the connection is given up on.
const maxDrainBytes = 256 << 10

// DrainAndCloseRequest drains what the handler left of the request body so
// the keep-alive connection can be reused, then closes it.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body != nil {
				_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, maxDrainBytes))
				_ = r.Body.Close()
			}
		})
	}
}
