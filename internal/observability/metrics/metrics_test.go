package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/mediafetch/internal/errors"
	"github.com/target/mediafetch/internal/observability/statsd"
)

func TestEmitJobLifecycle(t *testing.T) {
	rec := &statsd.Recorder{}

	EmitJobLifecycle(rec, JobMetric{
		Format:     "mp3",
		Transition: TransitionCompleted,
		Result:     ResultError,
		Duration:   2 * time.Second,
		Err:        apperrors.Wrap(assert.AnError, apperrors.ErrCodeWorker, "engine"),
	})

	transitions := rec.Named("job.transition")
	require.Len(t, transitions, 1)
	assert.Equal(t, map[string]string{
		"format":      "mp3",
		"transition":  TransitionCompleted,
		"result":      ResultError,
		"error_class": "worker",
	}, transitions[0].Tags)

	durations := rec.Named("job.duration")
	require.Len(t, durations, 1)
	assert.InDelta(t, 2000.0, durations[0].Value, 0.001)
}

func TestEmitJobLifecycle_NilSink(t *testing.T) {
	EmitJobLifecycle(nil, JobMetric{})
	EmitJobsRunning(nil, 1)
	EmitSweep(nil, SweepMetric{})
	EmitRetrieval(nil, ReasonServed)
	EmitEviction(nil, "sweeper", nil)
}

func TestEmitSweep(t *testing.T) {
	tests := []struct {
		name       string
		in         SweepMetric
		wantResult string
		wantEvict  float64
	}{
		{name: "noop", in: SweepMetric{}, wantResult: ResultNoop},
		{name: "evicted", in: SweepMetric{Evicted: 3}, wantResult: ResultSuccess, wantEvict: 3},
		{name: "partial failure", in: SweepMetric{Evicted: 1, Failed: 1}, wantResult: ResultError, wantEvict: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &statsd.Recorder{}
			EmitSweep(rec, tt.in)

			cycles := rec.Named("sweeper.cycle")
			require.Len(t, cycles, 1)
			assert.Equal(t, tt.wantResult, cycles[0].Tags["result"])
			assert.InDelta(t, tt.wantEvict, rec.Sum("sweeper.evicted"), 0.001)
		})
	}
}

func TestEmitRetrieval(t *testing.T) {
	rec := &statsd.Recorder{}
	EmitRetrieval(rec, ReasonServed)
	EmitRetrieval(rec, ReasonNotFound)

	fetches := rec.Named("retrieval.fetch")
	require.Len(t, fetches, 2)
	assert.Equal(t, ResultSuccess, fetches[0].Tags["result"])
	assert.Equal(t, ResultError, fetches[1].Tags["result"])
	assert.Equal(t, ReasonNotFound, fetches[1].Tags["reason"])
}

func TestCloneTags(t *testing.T) {
	assert.Nil(t, CloneTags(nil))

	src := map[string]string{"a": "1"}
	cp := CloneTags(src)
	cp["a"] = "2"
	assert.Equal(t, "1", src["a"])
}
