package metrics

import (
	"time"

	obserrors "github.com/target/mediafetch/internal/observability/errors"
	"github.com/target/mediafetch/internal/observability/statsd"
)

// SweepMetric describes one expiry sweep cycle.
type SweepMetric struct {
	Evicted  int
	Failed   int
	Duration time.Duration
	Err      error
}

// EmitSweep emits sweeper.cycle, sweeper.evicted and sweeper.duration.
func EmitSweep(sink statsd.Sink, in SweepMetric) {
	if sink == nil {
		return
	}

	result := ResultSuccess
	switch {
	case in.Err != nil || in.Failed > 0:
		result = ResultError
	case in.Evicted == 0:
		result = ResultNoop
	}

	tags := map[string]string{"result": result}
	if in.Err != nil {
		tags["error_class"] = obserrors.Classify(in.Err)
	}
	sink.Count("sweeper.cycle", 1, tags)
	if in.Evicted > 0 {
		sink.Count("sweeper.evicted", int64(in.Evicted), nil)
	}
	if in.Duration > 0 {
		sink.Timing("sweeper.duration", in.Duration, CloneTags(tags))
	}
}

// Retrieval reasons for tagging retrieval.fetch.
const (
	ReasonServed   = "served"
	ReasonNotFound = "not_found"
	ReasonMissing  = "file_missing"
)

// EmitRetrieval emits the retrieval.fetch counter tagged with the outcome.
func EmitRetrieval(sink statsd.Sink, reason string) {
	if sink == nil {
		return
	}
	result := ResultSuccess
	if reason != ReasonServed {
		result = ResultError
	}
	sink.Count("retrieval.fetch", 1, map[string]string{"result": result, "reason": reason})
}

// EmitEviction emits artifact.evicted tagged with the trigger (sweeper or retrieval).
func EmitEviction(sink statsd.Sink, trigger string, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"trigger": trigger, "result": ResultSuccess}
	if err != nil {
		tags["result"] = ResultError
		tags["error_class"] = obserrors.Classify(err)
	}
	sink.Count("artifact.evicted", 1, tags)
}
