package service

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/target/mediafetch/internal/data"
	domainjob "github.com/target/mediafetch/internal/domain/job"
	"github.com/target/mediafetch/internal/domain/model"
	"github.com/target/mediafetch/internal/observability/statsd"
)

var testEpoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type testStack struct {
	clock    *data.FixedClock
	registry *data.Registry
	files    *data.FileStore
	updates  *domainjob.DefaultNotifier
	metrics  *statsd.Recorder
	progress *ProgressService
	evictor  *Evictor
	logger   *slog.Logger
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	clock := data.NewFixedClock(testEpoch)
	registry := data.NewRegistry(data.RegistryOptions{Clock: clock})
	files, err := data.NewFileStore(t.TempDir())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := &statsd.Recorder{}
	updates := domainjob.NewNotifier()

	progress, err := NewProgressService(ProgressServiceOptions{
		Registry: registry,
		Updates:  updates,
		Logger:   logger,
		Metrics:  rec,
	})
	require.NoError(t, err)

	evictor, err := NewEvictor(EvictorOptions{
		Registry: registry,
		Files:    files,
		Logger:   logger,
		Metrics:  rec,
	})
	require.NoError(t, err)

	return &testStack{
		clock:    clock,
		registry: registry,
		files:    files,
		updates:  updates,
		metrics:  rec,
		progress: progress,
		evictor:  evictor,
		logger:   logger,
	}
}

// addJob registers a running job.
func (s *testStack) addJob(t *testing.T, id string) model.Job {
	t.Helper()
	job := model.NewJob(id, model.SubmitRequest{
		URL:     "https://example.com/watch?v=" + id,
		Format:  model.FormatMP4,
		Quality: model.QualityBest,
	}, s.clock.Now())
	require.NoError(t, s.registry.CreateJob(job))
	return job
}

// addArtifact registers a finished job with a real file in its job dir.
func (s *testStack) addArtifact(t *testing.T, id, content string) string {
	t.Helper()
	s.addJob(t, id)
	dir, err := s.files.CreateJobDir(id)
	require.NoError(t, err)
	path := filepath.Join(dir, id+".mp4")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	s.progress.ReporterFor(id).Report(model.Succeeded(path, id+".mp4"))

	job, err := s.registry.GetJob(id)
	require.NoError(t, err)
	require.True(t, job.Success)
	return path
}
