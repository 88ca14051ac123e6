package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/mediafetch/config"
	"github.com/target/mediafetch/internal/core"
	"github.com/target/mediafetch/internal/domain/model"
	apperrors "github.com/target/mediafetch/internal/errors"
	"github.com/target/mediafetch/internal/mocks"
)

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("job-%d", n.Add(1)) }
}

func newTestJobService(t *testing.T, s *testStack, engine core.Engine, cfg config.JobsConfig) *JobService {
	t.Helper()
	svc := MustNewJobService(JobServiceOptions{
		Registry: s.registry,
		Engine:   engine,
		Files:    s.files,
		Progress: s.progress,
		Updates:  s.updates,
		Config:   cfg,
		Clock:    s.clock,
		Logger:   s.logger,
		Metrics:  s.metrics,
		NewID:    sequentialIDs(),
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})
	return svc
}

func waitCompleted(t *testing.T, svc *JobService, id string) model.Job {
	t.Helper()
	var job model.Job
	require.Eventually(t, func() bool {
		var err error
		job, err = svc.Poll(context.Background(), id)
		return err == nil && job.Completed
	}, 5*time.Second, 5*time.Millisecond)
	return job
}

func writeOutput(req core.FetchRequest, name, content string) (string, error) {
	path := filepath.Join(req.OutputDir, name)
	return path, os.WriteFile(path, []byte(content), 0o600)
}

func TestNewJobService_RequiresDependencies(t *testing.T) {
	s := newTestStack(t)
	ctrl := gomock.NewController(t)

	tests := []struct {
		name string
		opts JobServiceOptions
	}{
		{"registry", JobServiceOptions{Engine: mocks.NewMockEngine(ctrl), Files: s.files, Progress: s.progress}},
		{"engine", JobServiceOptions{Registry: s.registry, Files: s.files, Progress: s.progress}},
		{"files", JobServiceOptions{Registry: s.registry, Engine: mocks.NewMockEngine(ctrl), Progress: s.progress}},
		{"progress", JobServiceOptions{Registry: s.registry, Engine: mocks.NewMockEngine(ctrl), Files: s.files}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJobService(tt.opts)
			require.Error(t, err)
		})
	}
}

func TestJobService_SubmitRejectsInvalidRequests(t *testing.T) {
	s := newTestStack(t)
	ctrl := gomock.NewController(t)
	svc := newTestJobService(t, s, mocks.NewMockEngine(ctrl), config.JobsConfig{})

	tests := []struct {
		name  string
		req   model.SubmitRequest
		field string
	}{
		{"missing url", model.SubmitRequest{}, "url"},
		{"bad scheme", model.SubmitRequest{URL: "ftp://example.com/a"}, "url"},
		{"bad format", model.SubmitRequest{URL: "https://example.com/a", Format: "flac"}, "format"},
		{"bad quality", model.SubmitRequest{URL: "https://example.com/a", Quality: "4k"}, "quality"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := svc.Submit(context.Background(), tt.req)
			require.Error(t, err)
			assert.Empty(t, id)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.field, apperrors.GetField(err))
		})
	}
	assert.Equal(t, 0, s.registry.Stats().Running)
}

func TestJobService_SubmitRunsToSuccess(t *testing.T) {
	s := newTestStack(t)
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)

	engine.EXPECT().
		Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req core.FetchRequest, r core.ProgressReporter) (core.FetchResult, error) {
			assert.Equal(t, "https://example.com/watch?v=1", req.URL)
			assert.Equal(t, model.FormatMP3, req.Format)
			assert.Equal(t, model.QualityBest, req.Quality)
			r.Report(model.DownloadingTitle("A song"))
			r.Report(model.Downloading(50, 100, ""))
			r.Report(model.Finished())
			_, err := writeOutput(req, "A_song.mp3", "ID3")
			return core.FetchResult{}, err
		})

	svc := newTestJobService(t, s, engine, config.JobsConfig{})
	id, err := svc.Submit(context.Background(), model.SubmitRequest{
		URL:    "https://example.com/watch?v=1",
		Format: model.FormatMP3,
	})
	require.NoError(t, err)
	assert.Equal(t, "job-1", id)

	job := waitCompleted(t, svc, id)
	assert.True(t, job.Success)
	assert.Equal(t, model.StatusComplete, job.Status)
	assert.InDelta(t, model.ProgressMax, job.Progress, 0.001)

	a, err := s.registry.GetArtifact(id)
	require.NoError(t, err)
	assert.Equal(t, "A_song.mp3", a.Filename)
	assert.Equal(t, filepath.Join(s.files.JobDir(id), "A_song.mp3"), a.Path)
}

func TestJobService_EngineErrorFailsJob(t *testing.T) {
	s := newTestStack(t)
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)

	engine.EXPECT().
		Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req core.FetchRequest, _ core.ProgressReporter) (core.FetchResult, error) {
			_, _ = writeOutput(req, "partial.mp4.part", "x")
			return core.FetchResult{}, errors.New("ERROR: Unsupported URL")
		})

	svc := newTestJobService(t, s, engine, config.JobsConfig{})
	id, err := svc.Submit(context.Background(), model.SubmitRequest{URL: "https://example.com/nope"})
	require.NoError(t, err)

	job := waitCompleted(t, svc, id)
	assert.False(t, job.Success)
	assert.Equal(t, "ERROR: Unsupported URL", job.Error)
	assert.Equal(t, model.StatusFetching, job.Status)

	_, err = os.Stat(s.files.JobDir(id))
	assert.True(t, os.IsNotExist(err), "job dir should be removed")
	assert.Equal(t, 1, s.registry.Stats().Failed)
}

func TestJobService_NoFileFailsJob(t *testing.T) {
	s := newTestStack(t)
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	engine.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Return(core.FetchResult{}, nil)

	svc := newTestJobService(t, s, engine, config.JobsConfig{})
	id, err := svc.Submit(context.Background(), model.SubmitRequest{URL: "https://example.com/empty"})
	require.NoError(t, err)

	job := waitCompleted(t, svc, id)
	assert.False(t, job.Success)
	assert.Equal(t, noFileMessage, job.Error)
}

func TestJobService_RejectedSuccessDiscardsOutput(t *testing.T) {
	s := newTestStack(t)
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	engine.EXPECT().
		Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req core.FetchRequest, r core.ProgressReporter) (core.FetchResult, error) {
			r.Report(model.Failed("superseded"))
			path, err := writeOutput(req, "late.mp4", "x")
			return core.FetchResult{Path: path}, err
		})

	svc := newTestJobService(t, s, engine, config.JobsConfig{})
	id, err := svc.Submit(context.Background(), model.SubmitRequest{URL: "https://example.com/late"})
	require.NoError(t, err)

	job := waitCompleted(t, svc, id)
	assert.False(t, job.Success)
	assert.Equal(t, "superseded", job.Error)

	require.Eventually(t, func() bool {
		_, statErr := os.Stat(s.files.JobDir(id))
		return os.IsNotExist(statErr)
	}, 5*time.Second, 5*time.Millisecond, "orphaned output should be removed")

	_, err = s.registry.GetArtifact(id)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestJobService_PanicFailsJob(t *testing.T) {
	s := newTestStack(t)
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	engine.EXPECT().
		Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, core.FetchRequest, core.ProgressReporter) (core.FetchResult, error) {
			panic("boom")
		})

	svc := newTestJobService(t, s, engine, config.JobsConfig{})
	id, err := svc.Submit(context.Background(), model.SubmitRequest{URL: "https://example.com/panic"})
	require.NoError(t, err)

	job := waitCompleted(t, svc, id)
	assert.False(t, job.Success)
	assert.Equal(t, "internal error: boom", job.Error)
}

func TestJobService_MaxConcurrentQueuesJobs(t *testing.T) {
	s := newTestStack(t)
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)

	release := make(chan struct{})
	started := make(chan string, 2)
	engine.EXPECT().
		Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req core.FetchRequest, _ core.ProgressReporter) (core.FetchResult, error) {
			started <- req.JobID
			select {
			case <-release:
			case <-ctx.Done():
				return core.FetchResult{}, ctx.Err()
			}
			path, err := writeOutput(req, "out.mp4", "x")
			return core.FetchResult{Path: path}, err
		}).
		Times(2)

	svc := newTestJobService(t, s, engine, config.JobsConfig{MaxConcurrent: 1})

	first, err := svc.Submit(context.Background(), model.SubmitRequest{URL: "https://example.com/1"})
	require.NoError(t, err)
	assert.Equal(t, first, <-started)

	second, err := svc.Submit(context.Background(), model.SubmitRequest{URL: "https://example.com/2"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		job, err := svc.Poll(context.Background(), second)
		return err == nil && job.Status == model.StatusQueued
	}, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, svc.Running())

	close(release)
	assert.True(t, waitCompleted(t, svc, first).Success)
	assert.True(t, waitCompleted(t, svc, second).Success)
}

func TestJobService_ShutdownCancelsWorkers(t *testing.T) {
	s := newTestStack(t)
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)

	started := make(chan struct{})
	engine.EXPECT().
		Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ core.FetchRequest, _ core.ProgressReporter) (core.FetchResult, error) {
			close(started)
			<-ctx.Done()
			return core.FetchResult{}, ctx.Err()
		})

	svc := newTestJobService(t, s, engine, config.JobsConfig{})
	id, err := svc.Submit(context.Background(), model.SubmitRequest{URL: "https://example.com/long"})
	require.NoError(t, err)
	<-started
	assert.True(t, svc.Accepting())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))
	assert.False(t, svc.Accepting())

	job, err := svc.Poll(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, job.Completed)
	assert.Equal(t, context.Canceled.Error(), job.Error)

	_, err = svc.Submit(context.Background(), model.SubmitRequest{URL: "https://example.com/late"})
	assert.ErrorIs(t, err, ErrShuttingDown)
}

func TestJobService_WaitForUpdate(t *testing.T) {
	s := newTestStack(t)
	ctrl := gomock.NewController(t)
	svc := newTestJobService(t, s, mocks.NewMockEngine(ctrl), config.JobsConfig{})
	job := s.addJob(t, "manual")

	t.Run("times out with current snapshot", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		got, err := svc.WaitForUpdate(ctx, job.ID, job.UpdatedAt)
		require.NoError(t, err)
		assert.Equal(t, job.Status, got.Status)
	})

	t.Run("wakes on update", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		go func() {
			time.Sleep(10 * time.Millisecond)
			s.clock.Advance(time.Second)
			s.progress.ReporterFor(job.ID).Report(model.Phase(model.StatusFetching))
		}()

		got, err := svc.WaitForUpdate(ctx, job.ID, job.UpdatedAt)
		require.NoError(t, err)
		assert.Equal(t, model.StatusFetching, got.Status)
	})

	t.Run("unknown job", func(t *testing.T) {
		_, err := svc.WaitForUpdate(context.Background(), "missing", time.Time{})
		assert.True(t, apperrors.IsNotFound(err))
	})
}
