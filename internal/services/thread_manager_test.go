package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learitecnico/learion-glass-sub000/internal/domain"
	"github.com/learitecnico/learion-glass-sub000/internal/infra/storage"
)

func TestThreadManagerEnsureActiveThread(t *testing.T) {
	ctx := context.Background()

	t.Run("creates thread when none exists", func(t *testing.T) {
		gw := &fakeGateway{}
		mgr := NewThreadManager(gw, storage.NewMemoryStorage(), 24*time.Hour)

		threadID, err := mgr.EnsureActiveThread(ctx, "asst_1")
		require.NoError(t, err)
		assert.Equal(t, "thread_1", threadID)
	})

	t.Run("returns same thread on repeated calls", func(t *testing.T) {
		gw := &fakeGateway{}
		mgr := NewThreadManager(gw, storage.NewMemoryStorage(), 24*time.Hour)

		first, err := mgr.EnsureActiveThread(ctx, "asst_1")
		require.NoError(t, err)

		second, err := mgr.EnsureActiveThread(ctx, "asst_1")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, gw.threadsCreated())
	})

	t.Run("agents get independent threads", func(t *testing.T) {
		gw := &fakeGateway{}
		mgr := NewThreadManager(gw, storage.NewMemoryStorage(), 24*time.Hour)

		a, err := mgr.EnsureActiveThread(ctx, "asst_a")
		require.NoError(t, err)
		b, err := mgr.EnsureActiveThread(ctx, "asst_b")
		require.NoError(t, err)

		assert.NotEqual(t, a, b)
	})

	t.Run("expired thread is silently replaced", func(t *testing.T) {
		gw := &fakeGateway{}
		store := storage.NewMemoryStorage()
		mgr := NewThreadManager(gw, store, 24*time.Hour)

		base := time.Now()
		mgr.SetNowFunc(func() time.Time { return base })

		first, err := mgr.EnsureActiveThread(ctx, "asst_1")
		require.NoError(t, err)

		mgr.SetNowFunc(func() time.Time { return base.Add(24*time.Hour + time.Second) })

		second, err := mgr.EnsureActiveThread(ctx, "asst_1")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)

		rec, err := store.LoadThread(ctx, "asst_1")
		require.NoError(t, err)
		assert.Equal(t, second, rec.ThreadID)
	})

	t.Run("thread at exactly the TTL boundary survives", func(t *testing.T) {
		gw := &fakeGateway{}
		mgr := NewThreadManager(gw, storage.NewMemoryStorage(), 24*time.Hour)

		base := time.Now()
		mgr.SetNowFunc(func() time.Time { return base })

		first, err := mgr.EnsureActiveThread(ctx, "asst_1")
		require.NoError(t, err)

		mgr.SetNowFunc(func() time.Time { return base.Add(24 * time.Hour) })

		second, err := mgr.EnsureActiveThread(ctx, "asst_1")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("creation failure leaves prior state untouched", func(t *testing.T) {
		gw := &fakeGateway{}
		store := storage.NewMemoryStorage()
		mgr := NewThreadManager(gw, store, 24*time.Hour)

		base := time.Now()
		mgr.SetNowFunc(func() time.Time { return base })

		first, err := mgr.EnsureActiveThread(ctx, "asst_1")
		require.NoError(t, err)

		gw.createThreadErr = errors.New("gateway down")
		mgr.SetNowFunc(func() time.Time { return base.Add(48 * time.Hour) })

		_, err = mgr.EnsureActiveThread(ctx, "asst_1")
		require.Error(t, err)

		rec, loadErr := store.LoadThread(ctx, "asst_1")
		require.NoError(t, loadErr)
		assert.Equal(t, first, rec.ThreadID)
	})
}

func TestThreadManagerCreateNewThread(t *testing.T) {
	ctx := context.Background()

	gw := &fakeGateway{}
	store := storage.NewMemoryStorage()
	mgr := NewThreadManager(gw, store, 24*time.Hour)

	first, err := mgr.EnsureActiveThread(ctx, "asst_1")
	require.NoError(t, err)

	second, err := mgr.CreateNewThread(ctx, "asst_1")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	rec, err := store.LoadThread(ctx, "asst_1")
	require.NoError(t, err)
	assert.Equal(t, second, rec.ThreadID)
	assert.Zero(t, rec.MessageCount)
}

func TestThreadManagerClearActiveThread(t *testing.T) {
	ctx := context.Background()

	gw := &fakeGateway{}
	store := storage.NewMemoryStorage()
	mgr := NewThreadManager(gw, store, 24*time.Hour)

	_, err := mgr.EnsureActiveThread(ctx, "asst_1")
	require.NoError(t, err)

	require.NoError(t, mgr.ClearActiveThread(ctx, "asst_1"))

	_, err = store.LoadThread(ctx, "asst_1")
	assert.ErrorIs(t, err, domain.ErrThreadNotFound)

	// no remote call happens on clear
	assert.Equal(t, 1, gw.threadsCreated())
}

func TestThreadManagerMetadata(t *testing.T) {
	ctx := context.Background()

	gw := &fakeGateway{}
	store := storage.NewMemoryStorage()
	mgr := NewThreadManager(gw, store, 24*time.Hour)

	_, err := mgr.EnsureActiveThread(ctx, "asst_1")
	require.NoError(t, err)

	require.NoError(t, mgr.IncrementMessageCount(ctx, "asst_1"))
	require.NoError(t, mgr.IncrementMessageCount(ctx, "asst_1"))
	require.NoError(t, mgr.Touch(ctx, "asst_1"))

	rec, err := store.LoadThread(ctx, "asst_1")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.MessageCount)
}

func TestThreadManagerCleanupExpired(t *testing.T) {
	ctx := context.Background()

	gw := &fakeGateway{}
	store := storage.NewMemoryStorage()
	mgr := NewThreadManager(gw, store, 24*time.Hour)

	base := time.Now()

	old := domain.ThreadRecord{
		ThreadID:  "thread_old",
		AgentID:   "asst_old",
		CreatedAt: base.Add(-48 * time.Hour),
	}
	fresh := domain.ThreadRecord{
		ThreadID:  "thread_fresh",
		AgentID:   "asst_fresh",
		CreatedAt: base,
	}
	require.NoError(t, store.SaveThread(ctx, old))
	require.NoError(t, store.SaveThread(ctx, fresh))

	mgr.SetNowFunc(func() time.Time { return base })

	removed, err := mgr.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.LoadThread(ctx, "asst_old")
	assert.ErrorIs(t, err, domain.ErrThreadNotFound)

	_, err = store.LoadThread(ctx, "asst_fresh")
	assert.NoError(t, err)
}

func TestThreadManagerIsExpired(t *testing.T) {
	mgr := NewThreadManager(&fakeGateway{}, storage.NewMemoryStorage(), 24*time.Hour)

	base := time.Now()
	rec := domain.ThreadRecord{ThreadID: "thread_1", AgentID: "asst_1", CreatedAt: base}

	assert.False(t, mgr.IsExpired(rec, base.Add(24*time.Hour)))
	assert.True(t, mgr.IsExpired(rec, base.Add(24*time.Hour+time.Nanosecond)))
}
