package app

import (
	"context"
	"time"
)

// ReconcileJob periodically recomputes every trade so snapshots written by
// older code or edited out-of-band converge to the engine's result.
type ReconcileJob struct {
	svc     *JournalService
	ctx     context.Context
	timeout time.Duration
}

// NewReconcileJob creates a job bound to ctx. A zero timeout means no deadline per run.
func NewReconcileJob(ctx context.Context, svc *JournalService, timeout time.Duration) *ReconcileJob {
	return &ReconcileJob{svc: svc, ctx: ctx, timeout: timeout}
}

// Name returns the job name used in logs.
func (j *ReconcileJob) Name() string {
	return "reconcile_trades"
}

// Run recomputes all trades.
func (j *ReconcileJob) Run() error {
	ctx := j.ctx
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}
	return j.svc.RecomputeAll(ctx)
}
