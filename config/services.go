package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeSweeper runs the artifact expiry sweeper.
	ServiceModeSweeper ServiceMode = "sweeper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeSweeper,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for part := range strings.SplitSeq(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeSweeper:
			services[mode] = true
		default:
			return nil, fmt.Errorf("invalid service name: %q (valid options: http, sweeper)", serviceName)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// JobsConfig contains job dispatch configuration.
type JobsConfig struct {
	// MaxConcurrent bounds concurrently running engine calls. 0 means unbounded;
	// excess jobs wait with a "Queued..." status.
	MaxConcurrent int `env:"JOBS_MAX_CONCURRENT" envDefault:"0"`

	// ShutdownTimeout bounds how long shutdown waits for running workers.
	ShutdownTimeout time.Duration `env:"JOBS_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Sanitize applies guardrails to job dispatch configuration values.
func (j *JobsConfig) Sanitize() {
	if j.MaxConcurrent < 0 {
		j.MaxConcurrent = 0
	}
	if j.ShutdownTimeout < time.Second {
		j.ShutdownTimeout = time.Second
	}
}

// SweeperConfig contains artifact expiry sweeper configuration.
type SweeperConfig struct {
	// Interval is the sweeper tick interval.
	Interval time.Duration `env:"SWEEPER_INTERVAL" envDefault:"5m"`

	// Retention is how long an artifact is kept after creation.
	Retention time.Duration `env:"SWEEPER_RETENTION" envDefault:"1h"`
}

// Sanitize applies guardrails to sweeper configuration values.
func (s *SweeperConfig) Sanitize() {
	if s.Interval < time.Second {
		s.Interval = time.Second
	}
	if s.Retention < time.Second {
		s.Retention = time.Second
	}
}

// RetrievalConfig contains retrieval gate configuration.
type RetrievalConfig struct {
	// GraceDelay is how long an artifact survives after its first retrieval.
	GraceDelay time.Duration `env:"RETRIEVAL_GRACE_DELAY" envDefault:"5s"`
}

// Sanitize applies guardrails to retrieval configuration values.
func (r *RetrievalConfig) Sanitize() {
	if r.GraceDelay < 0 {
		r.GraceDelay = 0
	}
}
