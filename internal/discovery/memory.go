package discovery

import (
    "context"
    "sync"
    "time"

    "github.com/google/uuid"
)

// MemorySessionStore is an in-process SessionStore used in development mode
// and tests. A per-session mutex serializes AppendShown and the counter
// increments, so concurrent calls for the same session cannot lose updates.
type MemorySessionStore struct {
    mu       sync.RWMutex
    sessions map[string]*memorySession
}

type memorySession struct {
    mu      sync.Mutex
    session DiscoverySession
}

func NewMemorySessionStore() *MemorySessionStore {
    return &MemorySessionStore{
        sessions: make(map[string]*memorySession),
    }
}

func (s *MemorySessionStore) Create(ctx context.Context, ownerID int64, filters Filters, origin *Coordinates) (*DiscoverySession, error) {
    now := time.Now().UTC()
    entry := &memorySession{
        session: DiscoverySession{
            ID:          uuid.NewString(),
            OwnerUserID: ownerID,
            Filters:     filters,
            Origin:      origin,
            ShownIDs:    make(map[int64]struct{}),
            CreatedAt:   now,
            UpdatedAt:   now,
        },
    }

    s.mu.Lock()
    s.sessions[entry.session.ID] = entry
    s.mu.Unlock()

    return copySession(&entry.session), nil
}

func (s *MemorySessionStore) Get(ctx context.Context, id string) (*DiscoverySession, error) {
    entry, err := s.lookup(id)
    if err != nil {
        return nil, err
    }

    entry.mu.Lock()
    defer entry.mu.Unlock()
    return copySession(&entry.session), nil
}

func (s *MemorySessionStore) AppendShown(ctx context.Context, id string, newIDs []int64) (*DiscoverySession, error) {
    entry, err := s.lookup(id)
    if err != nil {
        return nil, err
    }

    entry.mu.Lock()
    defer entry.mu.Unlock()

    for _, candidateID := range newIDs {
        entry.session.ShownIDs[candidateID] = struct{}{}
    }
    entry.session.TotalShown += len(newIDs)
    entry.session.UpdatedAt = time.Now().UTC()

    return copySession(&entry.session), nil
}

func (s *MemorySessionStore) IncrementSkip(ctx context.Context, id string) error {
    entry, err := s.lookup(id)
    if err != nil {
        return err
    }

    entry.mu.Lock()
    defer entry.mu.Unlock()
    entry.session.TotalSkips++
    entry.session.UpdatedAt = time.Now().UTC()
    return nil
}

func (s *MemorySessionStore) IncrementInterested(ctx context.Context, id string) error {
    entry, err := s.lookup(id)
    if err != nil {
        return err
    }

    entry.mu.Lock()
    defer entry.mu.Unlock()
    entry.session.TotalInterested++
    entry.session.UpdatedAt = time.Now().UTC()
    return nil
}

func (s *MemorySessionStore) lookup(id string) (*memorySession, error) {
    s.mu.RLock()
    entry, ok := s.sessions[id]
    s.mu.RUnlock()
    if !ok {
        return nil, ErrSessionNotFound
    }
    return entry, nil
}

// copySession returns a snapshot detached from the store's mutable state.
func copySession(src *DiscoverySession) *DiscoverySession {
    dst := *src
    dst.ShownIDs = make(map[int64]struct{}, len(src.ShownIDs))
    for id := range src.ShownIDs {
        dst.ShownIDs[id] = struct{}{}
    }
    return &dst
}

// MemorySwipeLog is an in-process SwipeLog for development mode and tests.
// The idempotency check and the write happen under one lock, matching the
// atomicity the Postgres implementation gets from its partial unique index.
type MemorySwipeLog struct {
    mu      sync.Mutex
    nextID  int64
    records []SwipeRecord
}

func NewMemorySwipeLog() *MemorySwipeLog {
    return &MemorySwipeLog{}
}

func (l *MemorySwipeLog) AppendSkip(ctx context.Context, rec *SwipeRecord) error {
    l.mu.Lock()
    defer l.mu.Unlock()

    l.nextID++
    rec.ID = l.nextID
    rec.Action = ActionSkip
    rec.CreatedAt = time.Now().UTC()
    l.records = append(l.records, *rec)
    return nil
}

func (l *MemorySwipeLog) AppendInterested(ctx context.Context, rec *SwipeRecord) (bool, error) {
    l.mu.Lock()
    defer l.mu.Unlock()

    for _, existing := range l.records {
        if existing.SwiperID == rec.SwiperID &&
            existing.TargetID == rec.TargetID &&
            existing.Action == ActionInterested {
            return false, nil
        }
    }

    l.nextID++
    rec.ID = l.nextID
    rec.Action = ActionInterested
    rec.SkipCount = 0
    rec.CreatedAt = time.Now().UTC()
    l.records = append(l.records, *rec)
    return true, nil
}

func (l *MemorySwipeLog) LatestSkipCount(ctx context.Context, swiperID, targetID int64) (int, error) {
    l.mu.Lock()
    defer l.mu.Unlock()

    count := 0
    for _, rec := range l.records {
        if rec.SwiperID == swiperID && rec.TargetID == targetID && rec.Action == ActionSkip {
            count = rec.SkipCount
        }
    }
    return count, nil
}

func (l *MemorySwipeLog) SkipThresholdTargets(ctx context.Context, swiperID int64, threshold int) ([]int64, error) {
    l.mu.Lock()
    defer l.mu.Unlock()

    latest := make(map[int64]int)
    for _, rec := range l.records {
        if rec.SwiperID == swiperID && rec.Action == ActionSkip {
            latest[rec.TargetID] = rec.SkipCount
        }
    }

    var targets []int64
    for targetID, count := range latest {
        if count >= threshold {
            targets = append(targets, targetID)
        }
    }
    return targets, nil
}

func (l *MemorySwipeLog) MarkConnectionSent(ctx context.Context, swiperID, targetID, connectionID int64) error {
    l.mu.Lock()
    defer l.mu.Unlock()

    for i := range l.records {
        rec := &l.records[i]
        if rec.SwiperID == swiperID && rec.TargetID == targetID && rec.Action == ActionInterested {
            rec.ConnectionSent = true
            rec.ConnectionID = &connectionID
        }
    }
    return nil
}

func (l *MemorySwipeLog) Stats(ctx context.Context, userID int64) (*SwipeStats, error) {
    l.mu.Lock()
    defer l.mu.Unlock()

    stats := &SwipeStats{}
    for _, rec := range l.records {
        if rec.SwiperID != userID {
            continue
        }
        stats.TotalSwipes++
        switch rec.Action {
        case ActionInterested:
            stats.Interested++
            if rec.ConnectionSent {
                stats.ConnectionsSent++
            }
        case ActionSkip:
            stats.Skipped++
        }
    }

    stats.PendingInterests = stats.Interested - stats.ConnectionsSent
    return stats, nil
}
