package usecase

import (
	"context"

	"github.com/nguyentranbao-ct/listing-proxy/internal/metrics"
	"github.com/nguyentranbao-ct/listing-proxy/internal/models"
	"github.com/nguyentranbao-ct/listing-proxy/pkg/logger/logctx"
)

type compensation struct {
	name string
	undo func(ctx context.Context) error
}

// saga records the undo action of every remote step that already committed.
type saga struct {
	enabled bool
	steps   []compensation
}

func newSaga(enabled bool) *saga {
	return &saga{enabled: enabled}
}

func (s *saga) add(name string, undo func(ctx context.Context) error) {
	s.steps = append(s.steps, compensation{name: name, undo: undo})
}

// abort runs the recorded undo actions newest first and returns the error to
// surface for cause. Undo actions outlive a cancelled request context.
func (s *saga) abort(ctx context.Context, cause error) error {
	if !s.enabled || len(s.steps) == 0 {
		return cause
	}
	ctx = context.WithoutCancel(ctx)

	var failed []string
	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]
		err := step.undo(ctx)
		metrics.Compensations.WithLabelValues(step.name, metrics.Result(err)).Inc()
		if err != nil {
			logctx.Errorw(ctx, "compensation failed", "step", step.name, "error", err, "cause", cause)
			failed = append(failed, step.name)
			continue
		}
		logctx.Infow(ctx, "compensation applied", "step", step.name)
	}

	if len(failed) > 0 {
		return &models.PartiallyAppliedError{Cause: cause, FailedCompensation: failed}
	}
	return cause
}
