package httpx

import (
	"io"
	"net/http"
)

const (
	healthResponse   = `{"status":"ok"}`
	drainingResponse = `{"status":"draining"}`
)

// healthHandler answers readiness/liveness checks. It answers 503 once ready reports false.
func healthHandler(ready func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, body := http.StatusOK, healthResponse
		if ready != nil && !ready() {
			code, body = http.StatusServiceUnavailable, drainingResponse
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := io.WriteString(w, body); err != nil {
			// Nothing more to do if the client connection is gone.
			return
		}
	}
}
