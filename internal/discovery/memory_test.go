package discovery

import (
    "context"
    "sync"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestMemorySessionStoreCreateAndGet(t *testing.T) {
    ctx := context.Background()
    store := NewMemorySessionStore()

    created, err := store.Create(ctx, 7, Filters{Limit: intPtr(10)}, &Coordinates{Lat: 3.14, Lng: 101.69})
    require.NoError(t, err)
    assert.NotEmpty(t, created.ID)
    assert.Equal(t, int64(7), created.OwnerUserID)
    assert.Empty(t, created.ShownIDs)
    assert.Zero(t, created.TotalShown)

    got, err := store.Get(ctx, created.ID)
    require.NoError(t, err)
    assert.Equal(t, created.ID, got.ID)
    assert.Equal(t, 10, *got.Filters.Limit)
    require.NotNil(t, got.Origin)
    assert.Equal(t, 3.14, got.Origin.Lat)
}

func TestMemorySessionStoreUnknownID(t *testing.T) {
    ctx := context.Background()
    store := NewMemorySessionStore()

    _, err := store.Get(ctx, "nope")
    assert.ErrorIs(t, err, ErrSessionNotFound)

    _, err = store.AppendShown(ctx, "nope", []int64{1})
    assert.ErrorIs(t, err, ErrSessionNotFound)

    assert.ErrorIs(t, store.IncrementSkip(ctx, "nope"), ErrSessionNotFound)
    assert.ErrorIs(t, store.IncrementInterested(ctx, "nope"), ErrSessionNotFound)
}

func TestMemorySessionStoreAppendShownGrowsSet(t *testing.T) {
    ctx := context.Background()
    store := NewMemorySessionStore()

    session, err := store.Create(ctx, 1, Filters{}, nil)
    require.NoError(t, err)

    updated, err := store.AppendShown(ctx, session.ID, []int64{10, 11})
    require.NoError(t, err)
    assert.Len(t, updated.ShownIDs, 2)
    assert.Equal(t, 2, updated.TotalShown)

    // Re-appending an already-shown ID keeps the set deduplicated; the
    // counter stays advisory and may drift from the set's cardinality.
    updated, err = store.AppendShown(ctx, session.ID, []int64{11, 12})
    require.NoError(t, err)
    assert.Len(t, updated.ShownIDs, 3)
    assert.Equal(t, 4, updated.TotalShown)
    assert.True(t, updated.HasShown(10))
    assert.True(t, updated.HasShown(12))
}

func TestMemorySessionStoreCounters(t *testing.T) {
    ctx := context.Background()
    store := NewMemorySessionStore()

    session, err := store.Create(ctx, 1, Filters{}, nil)
    require.NoError(t, err)

    require.NoError(t, store.IncrementSkip(ctx, session.ID))
    require.NoError(t, store.IncrementSkip(ctx, session.ID))
    require.NoError(t, store.IncrementInterested(ctx, session.ID))

    got, err := store.Get(ctx, session.ID)
    require.NoError(t, err)
    assert.Equal(t, 2, got.TotalSkips)
    assert.Equal(t, 1, got.TotalInterested)
}

func TestMemorySessionStoreConcurrentAppend(t *testing.T) {
    ctx := context.Background()
    store := NewMemorySessionStore()

    session, err := store.Create(ctx, 1, Filters{}, nil)
    require.NoError(t, err)

    // N concurrent appends with disjoint ID sets must not lose updates.
    const workers = 32
    const perWorker = 25

    var wg sync.WaitGroup
    for w := 0; w < workers; w++ {
        wg.Add(1)
        go func(w int) {
            defer wg.Done()
            ids := make([]int64, perWorker)
            for i := range ids {
                ids[i] = int64(w*perWorker + i)
            }
            _, err := store.AppendShown(ctx, session.ID, ids)
            assert.NoError(t, err)
        }(w)
    }
    wg.Wait()

    got, err := store.Get(ctx, session.ID)
    require.NoError(t, err)
    assert.Len(t, got.ShownIDs, workers*perWorker)
    assert.Equal(t, workers*perWorker, got.TotalShown)
}

func TestMemorySessionStoreSnapshotIsDetached(t *testing.T) {
    ctx := context.Background()
    store := NewMemorySessionStore()

    session, err := store.Create(ctx, 1, Filters{}, nil)
    require.NoError(t, err)

    snapshot, err := store.Get(ctx, session.ID)
    require.NoError(t, err)
    snapshot.ShownIDs[99] = struct{}{}

    got, err := store.Get(ctx, session.ID)
    require.NoError(t, err)
    assert.False(t, got.HasShown(99))
}

func TestMemorySwipeLogSkipTally(t *testing.T) {
    ctx := context.Background()
    log := NewMemorySwipeLog()

    for i := 1; i <= 3; i++ {
        prior, err := log.LatestSkipCount(ctx, 1, 2)
        require.NoError(t, err)
        require.NoError(t, log.AppendSkip(ctx, &SwipeRecord{SwiperID: 1, TargetID: 2, SkipCount: prior + 1}))
    }

    count, err := log.LatestSkipCount(ctx, 1, 2)
    require.NoError(t, err)
    assert.Equal(t, 3, count)

    // Third skip puts the target past the threshold.
    targets, err := log.SkipThresholdTargets(ctx, 1, SkipThreshold)
    require.NoError(t, err)
    assert.Equal(t, []int64{2}, targets)

    // Other swipers are unaffected.
    targets, err = log.SkipThresholdTargets(ctx, 9, SkipThreshold)
    require.NoError(t, err)
    assert.Empty(t, targets)
}

func TestMemorySwipeLogInterestedIdempotent(t *testing.T) {
    ctx := context.Background()
    log := NewMemorySwipeLog()

    created, err := log.AppendInterested(ctx, &SwipeRecord{SwiperID: 1, TargetID: 2})
    require.NoError(t, err)
    assert.True(t, created)

    created, err = log.AppendInterested(ctx, &SwipeRecord{SwiperID: 1, TargetID: 2})
    require.NoError(t, err)
    assert.False(t, created)

    stats, err := log.Stats(ctx, 1)
    require.NoError(t, err)
    assert.Equal(t, 1, stats.Interested)
}

func TestMemorySwipeLogConcurrentInterested(t *testing.T) {
    ctx := context.Background()
    log := NewMemorySwipeLog()

    const callers = 16
    results := make(chan bool, callers)

    var wg sync.WaitGroup
    for i := 0; i < callers; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            created, err := log.AppendInterested(ctx, &SwipeRecord{SwiperID: 1, TargetID: 2})
            assert.NoError(t, err)
            results <- created
        }()
    }
    wg.Wait()
    close(results)

    wins := 0
    for created := range results {
        if created {
            wins++
        }
    }
    assert.Equal(t, 1, wins, "exactly one INTERESTED record may win")
}

func TestMemorySwipeLogStatsIdentity(t *testing.T) {
    ctx := context.Background()
    log := NewMemorySwipeLog()

    for target := int64(10); target < 15; target++ {
        _, err := log.AppendInterested(ctx, &SwipeRecord{SwiperID: 1, TargetID: target})
        require.NoError(t, err)
    }
    require.NoError(t, log.AppendSkip(ctx, &SwipeRecord{SwiperID: 1, TargetID: 20, SkipCount: 1}))

    require.NoError(t, log.MarkConnectionSent(ctx, 1, 10, 500))
    require.NoError(t, log.MarkConnectionSent(ctx, 1, 11, 501))
    // No-op reconciliation for a pair without an INTERESTED record.
    require.NoError(t, log.MarkConnectionSent(ctx, 1, 99, 502))

    stats, err := log.Stats(ctx, 1)
    require.NoError(t, err)
    assert.Equal(t, 6, stats.TotalSwipes)
    assert.Equal(t, 5, stats.Interested)
    assert.Equal(t, 1, stats.Skipped)
    assert.Equal(t, 2, stats.ConnectionsSent)
    assert.Equal(t, stats.Interested-stats.ConnectionsSent, stats.PendingInterests)
}
