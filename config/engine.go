package config

import (
	"strings"
	"time"
)

// EngineConfig contains fetch/transcode engine configuration.
type EngineConfig struct {
	// OutputDir is where per-job working directories are created. Empty uses the OS temp dir.
	OutputDir string `env:"ENGINE_OUTPUT_DIR"`

	// Binary overrides the yt-dlp executable path.
	Binary string `env:"ENGINE_BINARY"`

	// Timeout bounds a single engine run. 0 disables the limit.
	Timeout time.Duration `env:"ENGINE_TIMEOUT" envDefault:"0"`

	// ProgressInterval is how often the engine reports transfer progress.
	ProgressInterval time.Duration `env:"ENGINE_PROGRESS_INTERVAL" envDefault:"500ms"`

	// AutoInstall downloads a yt-dlp binary at startup when none is available.
	AutoInstall bool `env:"ENGINE_AUTO_INSTALL" envDefault:"false"`
}

// Sanitize applies guardrails to engine configuration values.
func (e *EngineConfig) Sanitize() {
	e.OutputDir = strings.TrimSpace(e.OutputDir)
	e.Binary = strings.TrimSpace(e.Binary)
	if e.Timeout < 0 {
		e.Timeout = 0
	}
	if e.ProgressInterval < 100*time.Millisecond {
		e.ProgressInterval = 100 * time.Millisecond
	}
}
