package config

import "time"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// MaxConnections caps concurrently accepted connections. 0 means unlimited.
	MaxConnections int `env:"HTTP_MAX_CONNECTIONS" envDefault:"0"`

	// ReadTimeout bounds reading a full request.
	ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`

	// WriteTimeout bounds writing a response. File downloads can be large, so
	// this defaults to a generous value; 0 disables the limit.
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10m"`

	// MaxWait caps the long-poll duration accepted by the progress endpoint.
	MaxWait time.Duration `env:"HTTP_PROGRESS_MAX_WAIT" envDefault:"30s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.Addr == "" {
		h.Addr = ":8080"
	}
	if h.MaxConnections < 0 {
		h.MaxConnections = 0
	}
	if h.ReadTimeout < time.Second {
		h.ReadTimeout = time.Second
	}
	if h.WriteTimeout < 0 {
		h.WriteTimeout = 0
	}
	if h.MaxWait < 0 {
		h.MaxWait = 0
	}
	if h.MaxWait > 2*time.Minute {
		h.MaxWait = 2 * time.Minute
	}
}
