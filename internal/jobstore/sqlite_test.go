package jobstore

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sample(id string) Artifact {
	return Artifact{
		ID:           id,
		DownloadName: "docs.zip",
		OriginalName: "docs.zip",
		Path:         "/data/jobs/" + id + "/docs.zip",
		Size:         42,
		Digest:       "abc123",
		Entries:      3,
	}
}

func TestCreateAndGet(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	require.NoError(t, store.Create(ctx, sample("job-1")))
	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)

	assert.Equal(t, "docs.zip", got.DownloadName)
	assert.EqualValues(t, 42, got.Size)
	assert.Equal(t, 3, got.Entries)
	assert.Equal(t, StatusReady, got.Status)
	assert.False(t, got.CreatedAt.IsZero())
	assert.True(t, got.ClaimedAt.IsZero())

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateDuplicate(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Create(t.Context(), sample("dup")))
	assert.ErrorIs(t, store.Create(t.Context(), sample("dup")), ErrDuplicate)
}

func TestGetMissing(t *testing.T) {
	_, err := newStore(t).Get(t.Context(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClaimIsExclusive(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()
	require.NoError(t, store.Create(ctx, sample("job-1")))

	a, err := store.Claim(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StatusServing, a.Status)
	assert.False(t, a.ClaimedAt.IsZero())

	_, err = store.Claim(ctx, "job-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Release(ctx, "job-1"))
	_, err = store.Claim(ctx, "job-1")
	require.NoError(t, err, "released artifact can be claimed again")

	require.NoError(t, store.Delete(ctx, "job-1"))
	_, err = store.Claim(ctx, "job-1")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, store.Delete(ctx, "job-1"))
}

func TestClaimConcurrent(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()
	require.NoError(t, store.Create(ctx, sample("race")))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Claim(ctx, "race"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, wins.Load())
}

func TestExpired(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	old := sample("old")
	old.CreatedAt = base
	fresh := sample("fresh")
	fresh.CreatedAt = base.Add(2 * time.Hour)
	stuck := sample("stuck")
	stuck.CreatedAt = base
	serving := sample("serving")
	serving.CreatedAt = base

	for _, a := range []Artifact{old, fresh, stuck, serving} {
		require.NoError(t, store.Create(ctx, a))
	}

	store.now = func() time.Time { return base.Add(10 * time.Minute) }
	_, err := store.Claim(ctx, "stuck")
	require.NoError(t, err)
	store.now = func() time.Time { return base.Add(3 * time.Hour) }
	_, err = store.Claim(ctx, "serving")
	require.NoError(t, err)

	expired, err := store.Expired(ctx, base.Add(time.Hour))
	require.NoError(t, err)

	var ids []string
	for _, a := range expired {
		ids = append(ids, a.ID)
	}
	assert.ElementsMatch(t, []string{"old", "stuck"}, ids)
}

func TestResetClaims(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()
	require.NoError(t, store.Create(ctx, sample("a")))
	require.NoError(t, store.Create(ctx, sample("b")))
	_, err := store.Claim(ctx, "a")
	require.NoError(t, err)

	n, err := store.ResetClaims(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, got.Status)
}

func TestEvents(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	require.NoError(t, store.AppendEvent(ctx, "job-1", EventSubmitted, "docs.zip"))
	require.NoError(t, store.AppendEvent(ctx, "job-1", EventCompleted, ""))
	require.NoError(t, store.AppendEvent(ctx, "job-2", EventFailed, "invalid archive"))

	events, err := store.Events(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventSubmitted, events[0].Type)
	assert.Equal(t, "docs.zip", events[0].Detail)
	assert.Equal(t, EventCompleted, events[1].Type)

	n, err := store.PruneEvents(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestFileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Create(t.Context(), sample("persisted")))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	_, err = reopened.Get(t.Context(), "persisted")
	require.NoError(t, err)
	require.NoError(t, reopened.Ping(t.Context()))
}
