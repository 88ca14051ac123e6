// Package ytdlp runs fetch jobs through the yt-dlp executable.
package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	goytdlp "github.com/lrstanley/go-ytdlp"

	"github.com/target/mediafetch/internal/core"
	"github.com/target/mediafetch/internal/domain/model"
	apperrors "github.com/target/mediafetch/internal/errors"
)

const (
	defaultProgressInterval = 500 * time.Millisecond
	outputTemplate          = "%(title)s.%(ext)s"
	mp3Quality              = "192"
)

// Options configures the yt-dlp engine.
type Options struct {
	// Binary overrides the yt-dlp executable. Empty means PATH lookup or the managed install.
	Binary string
	// ProgressInterval throttles progress callbacks.
	ProgressInterval time.Duration
	// AutoInstall downloads a managed yt-dlp build on Prepare.
	AutoInstall bool
	Logger      *slog.Logger
}

// Engine implements core.Engine on top of go-ytdlp.
type Engine struct {
	binary      string
	interval    time.Duration
	autoInstall bool
	logger      *slog.Logger
}

var _ core.Engine = (*Engine)(nil)

// New constructs an Engine.
func New(opts Options) *Engine {
	interval := opts.ProgressInterval
	if interval <= 0 {
		interval = defaultProgressInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		binary:      opts.Binary,
		interval:    interval,
		autoInstall: opts.AutoInstall,
		logger:      logger.With("component", "ytdlp_engine"),
	}
}

// Prepare installs the managed yt-dlp build when auto-install is enabled.
func (e *Engine) Prepare(ctx context.Context) error {
	if !e.autoInstall || e.binary != "" {
		return nil
	}
	resolved, err := goytdlp.Install(ctx, nil)
	if err != nil {
		return fmt.Errorf("install yt-dlp: %w", err)
	}
	e.logger.InfoContext(ctx, "yt-dlp ready", "executable", resolved.Executable, "version", resolved.Version)
	return nil
}

// Fetch downloads req.URL into req.OutputDir, converting to the requested format.
// The returned path is empty when the produced file could not be identified.
func (e *Engine) Fetch(ctx context.Context, req core.FetchRequest, reporter core.ProgressReporter) (core.FetchResult, error) {
	cmd := e.command(req)

	tr := &progressTranslator{}
	cmd.ProgressFunc(e.interval, func(update goytdlp.ProgressUpdate) {
		for _, ev := range tr.translate(update) {
			reporter.Report(ev)
		}
	})

	start := time.Now()
	res, err := cmd.Run(ctx, req.URL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return core.FetchResult{}, ctxErr
		}
		msg := err.Error()
		if res != nil {
			msg = failureMessage(res.Stderr, msg)
		}
		e.logger.WarnContext(ctx, "yt-dlp failed", "job_id", req.JobID, "error", err, "elapsed", time.Since(start))
		return core.FetchResult{}, apperrors.Wrap(errors.New(msg), apperrors.ErrCodeWorker, "fetch media")
	}

	e.logger.DebugContext(ctx, "yt-dlp finished", "job_id", req.JobID, "elapsed", time.Since(start))
	return core.FetchResult{Path: producedFile(res, req.OutputDir)}, nil
}

func (e *Engine) command(req core.FetchRequest) *goytdlp.Command {
	cmd := goytdlp.New().
		NoPlaylist().
		ForceOverwrites().
		RestrictFilenames().
		Output(filepath.Join(req.OutputDir, outputTemplate)).
		Format(FormatSelector(req.Format, req.Quality))

	if req.Format.IsAudio() {
		cmd = cmd.ExtractAudio().AudioFormat(string(req.Format))
		if q := AudioQuality(req.Format); q != "" {
			cmd = cmd.AudioQuality(q)
		}
	}
	if e.binary != "" {
		cmd = cmd.SetExecutable(e.binary)
	}
	return cmd
}

// FormatSelector returns the yt-dlp format expression for a request.
// Audio requests take the best audio stream; video requests prefer the requested
// container and, when a quality is set, cap the height.
func FormatSelector(format model.Format, quality model.Quality) string {
	if format.IsAudio() {
		return "bestaudio/best"
	}
	if quality == "" || quality == model.QualityBest {
		return fmt.Sprintf("best[ext=%s]/best", format)
	}
	return fmt.Sprintf("best[height<=%s][ext=%s]/best[height<=%s]", quality, format, quality)
}

// AudioQuality returns the transcoder quality for audio formats, or "" for the default.
func AudioQuality(format model.Format) string {
	if format == model.FormatMP3 {
		return mp3Quality
	}
	return ""
}

// failureMessage picks the last "ERROR:" line yt-dlp wrote to stderr.
func failureMessage(stderr, fallback string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "ERROR:") {
			return line
		}
	}
	return fallback
}

// producedFile returns the extracted filename when it exists on disk inside dir.
func producedFile(res *goytdlp.Result, dir string) string {
	if res == nil {
		return ""
	}
	infos, err := res.GetExtractedInfo()
	if err != nil {
		return ""
	}
	for _, info := range infos {
		if info == nil || info.Filename == nil {
			continue
		}
		path := *info.Filename
		if filepath.Dir(path) != filepath.Clean(dir) {
			continue
		}
		if st, err := os.Stat(path); err == nil && st.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

// progressTranslator turns yt-dlp progress updates into job progress events.
// The title phase is emitted once, the first time a title is seen.
type progressTranslator struct {
	mu        sync.Mutex
	titleSent bool
	finished  bool
}

func (t *progressTranslator) translate(u goytdlp.ProgressUpdate) []model.ProgressEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	var events []model.ProgressEvent
	if !t.titleSent && u.Info != nil && u.Info.Title != nil && *u.Info.Title != "" {
		t.titleSent = true
		events = append(events, model.DownloadingTitle(*u.Info.Title))
	}

	switch u.Status {
	case goytdlp.ProgressStatusDownloading, goytdlp.ProgressStatusStarting:
		pct := ""
		if u.TotalBytes <= 0 {
			pct = u.PercentString()
		}
		events = append(events, model.Downloading(int64(u.DownloadedBytes), int64(u.TotalBytes), pct))
	case goytdlp.ProgressStatusFinished, goytdlp.ProgressStatusPostProcessing:
		if !t.finished {
			t.finished = true
			events = append(events, model.Finished())
		}
	}
	return events
}
