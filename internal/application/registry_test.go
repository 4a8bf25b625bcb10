package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/mailctl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRefreshStoresListAndTimestamp(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	api := newFakeResourceAPI(domain.WorkerResource{ID: "a"}, domain.WorkerResource{ID: "b"})
	reg := NewRegistry(api, fixedClock{now: now}, nil)

	require.NoError(t, reg.Refresh(context.Background()))

	snap := reg.Snapshot()
	assert.Len(t, snap.Resources, 2)
	assert.NoError(t, snap.Err)
	assert.Equal(t, now, snap.RefreshedAt)

	found, ok := reg.Find("b")
	require.True(t, ok)
	assert.Equal(t, domain.ResourceID("b"), found.ID)
}

func TestRegistryRefreshFailureKeepsPreviousList(t *testing.T) {
	t.Parallel()

	api := newFakeResourceAPI(domain.WorkerResource{ID: "a"})
	reg := NewRegistry(api, nil, nil)
	require.NoError(t, reg.Refresh(context.Background()))

	boom := &domain.NetworkError{Op: "list resources", Err: errors.New("connection refused")}
	api.setErr(callList, boom)

	err := reg.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []domain.WorkerResource{{ID: "a"}}, reg.List())
	assert.ErrorIs(t, reg.Err(), boom)

	api.setErr(callList, nil)
	require.NoError(t, reg.Refresh(context.Background()))
	assert.NoError(t, reg.Err())
}

func TestRegistryLastCompletedRefreshWins(t *testing.T) {
	t.Parallel()

	api := newFakeResourceAPI(domain.WorkerResource{ID: "a"})
	reg := NewRegistry(api, nil, nil)

	first := api.hold(t, callList)
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_ = reg.Refresh(context.Background())
	}()
	first.waitArrived(t)

	api.setResources(domain.WorkerResource{ID: "a"}, domain.WorkerResource{ID: "b"})
	require.NoError(t, reg.Refresh(context.Background()))
	assert.Len(t, reg.List(), 2)

	first.Release()
	waitDone(t, firstDone)

	assert.Equal(t, []domain.WorkerResource{{ID: "a"}}, reg.List())
}
