package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressEvent_Terminal(t *testing.T) {
	assert.False(t, Phase(StatusFetching).Terminal())
	assert.False(t, Downloading(1, 2, "").Terminal())
	assert.False(t, Finished().Terminal())
	assert.True(t, Succeeded("/tmp/a.mp4", "a.mp4").Terminal())
	assert.True(t, Failed("boom").Terminal())
}

func TestDownloadingTitle(t *testing.T) {
	t.Run("short title", func(t *testing.T) {
		ev := DownloadingTitle("My Clip")
		assert.Equal(t, EventPhase, ev.Kind)
		assert.Equal(t, "Downloading: My Clip...", ev.Status)
	})

	t.Run("long title is truncated to fifty runes", func(t *testing.T) {
		title := strings.Repeat("é", 80)
		ev := DownloadingTitle(title)
		assert.Equal(t, "Downloading: "+strings.Repeat("é", 50)+"...", ev.Status)
	})

	t.Run("empty title", func(t *testing.T) {
		assert.Equal(t, StatusDownloading, DownloadingTitle("  ").Status)
	})
}

func TestProgressEvent_DownloadProgress(t *testing.T) {
	tests := []struct {
		name       string
		ev         ProgressEvent
		wantPct    float64
		wantStatus string
	}{
		{
			name:       "known total",
			ev:         Downloading(50, 100, ""),
			wantPct:    50,
			wantStatus: "Downloading... 50.0%",
		},
		{
			name:       "complete transfer is capped below one hundred",
			ev:         Downloading(100, 100, ""),
			wantPct:    ProgressCeiling,
			wantStatus: "Downloading... 100.0%",
		},
		{
			name:       "overshooting estimate caps the status text",
			ev:         Downloading(1200, 1000, ""),
			wantPct:    ProgressCeiling,
			wantStatus: "Downloading... 100.0%",
		},
		{
			name:       "unknown total with engine text",
			ev:         Downloading(1024, 0, " 12.5% "),
			wantPct:    0,
			wantStatus: "Downloading... 12.5%",
		},
		{
			name:       "unknown total without text",
			ev:         Downloading(1024, 0, ""),
			wantPct:    0,
			wantStatus: StatusDownloading,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pct, status := tt.ev.DownloadProgress()
			assert.InDelta(t, tt.wantPct, pct, 0.0001)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}
