package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:     "single service - http",
			input:    "http",
			expected: map[ServiceMode]bool{ServiceModeHTTP: true},
		},
		{
			name:     "single service - sweeper",
			input:    "sweeper",
			expected: map[ServiceMode]bool{ServiceModeSweeper: true},
		},
		{
			name:  "services with spaces",
			input: " http , sweeper ",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:    true,
				ServiceModeSweeper: true,
			},
		},
		{
			name:     "duplicate services",
			input:    "http,http",
			expected: map[ServiceMode]bool{ServiceModeHTTP: true},
		},
		{
			name:        "empty string",
			input:       "",
			expectError: true,
		},
		{
			name:        "only commas",
			input:       " , ,",
			expectError: true,
		},
		{
			name:        "invalid service",
			input:       "http,reaper",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseServices(tt.input)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result) != len(tt.expected) {
				t.Fatalf("expected %d services, got %d", len(tt.expected), len(result))
			}
			for service, expected := range tt.expected {
				if result[service] != expected {
					t.Errorf("expected service %s to be %v, got %v", service, expected, result[service])
				}
			}
		})
	}
}

func TestConfig_ServiceEnabledMethods(t *testing.T) {
	tests := []struct {
		name            string
		services        string
		expectedHTTP    bool
		expectedSweeper bool
	}{
		{name: "default", services: "http,sweeper", expectedHTTP: true, expectedSweeper: true},
		{name: "http only", services: "http", expectedHTTP: true},
		{name: "sweeper only", services: "sweeper", expectedSweeper: true},
		{name: "invalid configuration", services: "bogus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AppConfig{Services: tt.services}
			if got := cfg.IsHTTPServerEnabled(); got != tt.expectedHTTP {
				t.Errorf("IsHTTPServerEnabled() = %v, want %v", got, tt.expectedHTTP)
			}
			if got := cfg.IsSweeperEnabled(); got != tt.expectedSweeper {
				t.Errorf("IsSweeperEnabled() = %v, want %v", got, tt.expectedSweeper)
			}
		})
	}
}

func TestValidServiceModes(t *testing.T) {
	modes := ValidServiceModes()
	expected := []ServiceMode{ServiceModeHTTP, ServiceModeSweeper}

	if len(modes) != len(expected) {
		t.Fatalf("expected %d service modes, got %d", len(expected), len(modes))
	}
	for i, mode := range modes {
		if mode != expected[i] {
			t.Errorf("expected service mode %s at index %d, got %s", expected[i], i, mode)
		}
	}
}

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"http addr", cfg.HTTP.Addr, ":8080"},
		{"services", cfg.Services, "http,sweeper"},
		{"max concurrent", cfg.Jobs.MaxConcurrent, 0},
		{"sweeper interval", cfg.Sweeper.Interval, 5 * time.Minute},
		{"sweeper retention", cfg.Sweeper.Retention, time.Hour},
		{"grace delay", cfg.Retrieval.GraceDelay, 5 * time.Second},
		{"engine timeout", cfg.Engine.Timeout, time.Duration(0)},
		{"progress interval", cfg.Engine.ProgressInterval, 500 * time.Millisecond},
		{"log level", cfg.LogLevel, "info"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestAppConfig_ParseEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("HTTP_MAX_CONNECTIONS", "64")
	t.Setenv("SERVICES", "http")
	t.Setenv("JOBS_MAX_CONCURRENT", "4")
	t.Setenv("SWEEPER_INTERVAL", "30s")
	t.Setenv("SWEEPER_RETENTION", "10m")
	t.Setenv("RETRIEVAL_GRACE_DELAY", "1s")
	t.Setenv("ENGINE_OUTPUT_DIR", " /var/lib/mediafetch ")
	t.Setenv("ENGINE_TIMEOUT", "15m")
	t.Setenv("LOG_LEVEL", " DEBUG ")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.HTTP.Addr != "127.0.0.1:9000" || cfg.HTTP.MaxConnections != 64 {
		t.Errorf("unexpected http config: %+v", cfg.HTTP)
	}
	if cfg.IsSweeperEnabled() {
		t.Error("sweeper should be disabled")
	}
	if cfg.Jobs.MaxConcurrent != 4 {
		t.Errorf("MaxConcurrent = %d, want 4", cfg.Jobs.MaxConcurrent)
	}
	if cfg.Sweeper.Interval != 30*time.Second || cfg.Sweeper.Retention != 10*time.Minute {
		t.Errorf("unexpected sweeper config: %+v", cfg.Sweeper)
	}
	if cfg.Retrieval.GraceDelay != time.Second {
		t.Errorf("GraceDelay = %v, want 1s", cfg.Retrieval.GraceDelay)
	}
	if cfg.Engine.OutputDir != "/var/lib/mediafetch" || cfg.Engine.Timeout != 15*time.Minute {
		t.Errorf("unexpected engine config: %+v", cfg.Engine)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestSanitize_Guardrails(t *testing.T) {
	cfg := AppConfig{
		HTTP:      HTTPConfig{MaxConnections: -5, ReadTimeout: 0, MaxWait: time.Hour},
		Jobs:      JobsConfig{MaxConcurrent: -1},
		Sweeper:   SweeperConfig{Interval: time.Millisecond, Retention: 0},
		Retrieval: RetrievalConfig{GraceDelay: -time.Second},
		Engine:    EngineConfig{Timeout: -time.Second, ProgressInterval: time.Millisecond},
	}
	cfg.Sanitize()

	if cfg.HTTP.Addr != ":8080" || cfg.HTTP.MaxConnections != 0 || cfg.HTTP.ReadTimeout != time.Second {
		t.Errorf("unexpected http guardrails: %+v", cfg.HTTP)
	}
	if cfg.HTTP.MaxWait != 2*time.Minute {
		t.Errorf("MaxWait = %v, want 2m", cfg.HTTP.MaxWait)
	}
	if cfg.Jobs.MaxConcurrent != 0 || cfg.Jobs.ShutdownTimeout != time.Second {
		t.Errorf("unexpected jobs guardrails: %+v", cfg.Jobs)
	}
	if cfg.Sweeper.Interval != time.Second || cfg.Sweeper.Retention != time.Second {
		t.Errorf("unexpected sweeper guardrails: %+v", cfg.Sweeper)
	}
	if cfg.Retrieval.GraceDelay != 0 {
		t.Errorf("GraceDelay = %v, want 0", cfg.Retrieval.GraceDelay)
	}
	if cfg.Engine.Timeout != 0 || cfg.Engine.ProgressInterval != 100*time.Millisecond {
		t.Errorf("unexpected engine guardrails: %+v", cfg.Engine)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{Enabled: true, StatsdAddress: " "}
	cfg.Sanitize()
	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{Enabled: true, StatsdAddress: " statsd:1234 "}
	cfg.Sanitize()
	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
}

func TestObservabilityNotificationsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityNotificationsConfig{
		Enabled:    true,
		RetryLimit: -1,
		Slack:      SlackNotificationConfig{Enabled: true, WebhookURL: " "},
		PagerDuty:  PagerDutyNotificationConfig{Enabled: true, RoutingKey: " "},
	}
	cfg.Sanitize()

	if cfg.Timeout <= 0 {
		t.Fatalf("expected timeout to fall back to default, got %v", cfg.Timeout)
	}
	if cfg.RetryLimit != 0 {
		t.Fatalf("expected retry limit to be clamped to 0, got %d", cfg.RetryLimit)
	}
	if cfg.Slack.Enabled || cfg.PagerDuty.Enabled {
		t.Fatal("expected sinks to be disabled without credentials")
	}
	if cfg.Slack.Username != "mediafetch" || cfg.PagerDuty.Source != "mediafetch" {
		t.Fatalf("expected defaults, got %q / %q", cfg.Slack.Username, cfg.PagerDuty.Source)
	}

	cfg = ObservabilityNotificationsConfig{
		Enabled:   false,
		Slack:     SlackNotificationConfig{Enabled: true, WebhookURL: "https://hooks.slack.com/services/test"},
		PagerDuty: PagerDutyNotificationConfig{Enabled: true, RoutingKey: "abc"},
	}
	cfg.Sanitize()

	if cfg.Slack.Enabled || cfg.PagerDuty.Enabled {
		t.Fatal("expected sinks to be disabled when top-level notifications disabled")
	}
}
