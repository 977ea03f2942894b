package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileJob_Run(t *testing.T) {
	svc, store, _, tradeID := setupService(t)

	tr := store.state.trades[tradeID]
	tr.Snapshot.OrdersCount = 9
	store.state.trades[tradeID] = tr

	job := NewReconcileJob(context.Background(), svc, time.Minute)
	assert.Equal(t, "reconcile_trades", job.Name())
	require.NoError(t, job.Run())
	assert.Zero(t, store.state.trades[tradeID].Snapshot.OrdersCount)
}

func TestReconcileJob_CanceledContext(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewReconcileJob(ctx, svc, 0).Run()
	assert.Error(t, err)
}
