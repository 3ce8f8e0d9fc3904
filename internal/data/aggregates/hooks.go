package aggregates

import (
	"time"

	domainagg "github.com/yungbote/pawclinic-backend/internal/domain/aggregates"
	"github.com/yungbote/pawclinic-backend/internal/observability"
)

// Hooks receives one WriteFinished per aggregate write and one WriteRetried
// per extra attempt. Outcome is "success" or a domainagg.ErrorCode.
type Hooks interface {
	WriteFinished(op, outcome string, dur time.Duration)
	WriteRetried(op string, attempt int, cause error)
}

type noopHooks struct{}

func (noopHooks) WriteFinished(string, string, time.Duration) {}
func (noopHooks) WriteRetried(string, int, error)             {}

type metricsHooks struct {
	metrics *observability.Metrics
}

// NewObservabilityHooks reports aggregate writes to Prometheus. A nil
// metrics registry yields hooks that drop everything.
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return metricsHooks{metrics: metrics}
}

func (h metricsHooks) WriteFinished(op, outcome string, dur time.Duration) {
	h.metrics.ObserveAggregateOperation(op, outcome, dur)
	if outcome == string(domainagg.CodeConflict) {
		h.metrics.IncAggregateConflict(op)
	}
}

func (h metricsHooks) WriteRetried(op string, _ int, _ error) {
	h.metrics.IncAggregateRetry(op)
}
