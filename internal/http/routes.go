package httpx

import (
	"log/slog"
	"net/http"
	"time"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Jobs      JobsService
	Retrieval FileRetriever
	Stats     StatsSource
	// MaxWait caps the progress long-poll; 0 disables it.
	MaxWait time.Duration
	// Ready reports readiness for /healthz; nil means always ready.
	Ready func() bool
	// IndexHTML is served at GET /. Nil disables the page.
	IndexHTML []byte
	Logger    *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	h := &DownloadHandlers{
		Jobs:      services.Jobs,
		Retrieval: services.Retrieval,
		Stats:     services.Stats,
		MaxWait:   services.MaxWait,
		Logger:    services.Logger,
	}

	registerDownloadRoutes(mux, h)
	health := healthHandler(services.Ready)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	if len(services.IndexHTML) > 0 {
		mux.Handle("GET /{$}", indexHandler(services.IndexHTML))
	}

	return mux
}

func registerDownloadRoutes(mux *http.ServeMux, h *DownloadHandlers) {
	mux.Handle("POST /download", http.HandlerFunc(h.Submit))
	mux.Handle("GET /progress/{id}", http.HandlerFunc(h.Progress))
	mux.Handle("GET /file/{id}", http.HandlerFunc(h.File))
	if h.Stats != nil {
		mux.Handle("GET /api/stats", http.HandlerFunc(h.StatsSummary))
	}
}

func indexHandler(page []byte) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if _, err := w.Write(page); err != nil {
			return
		}
	})
}
