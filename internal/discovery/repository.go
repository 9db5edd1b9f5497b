package discovery

import (
    "context"
    "database/sql"
    "encoding/json"
    "fmt"

    "github.com/google/uuid"
    "github.com/jmoiron/sqlx"
    "github.com/lib/pq"
)

// SwipeLog is the append-only store of swipe records.
//
// AppendInterested must be atomic with the per-pair idempotency check: two
// live INTERESTED records for the same (swiper, target) pair must be
// impossible regardless of concurrent calls.
type SwipeLog interface {
    AppendSkip(ctx context.Context, rec *SwipeRecord) error
    // AppendInterested stores rec unless an INTERESTED record already exists
    // for the pair. It reports whether a new record was created.
    AppendInterested(ctx context.Context, rec *SwipeRecord) (bool, error)
    // LatestSkipCount returns the skip_count of the most recent SKIP record
    // for the pair, or 0 when none exists.
    LatestSkipCount(ctx context.Context, swiperID, targetID int64) (int, error)
    // SkipThresholdTargets lists targets whose latest skip_count from the
    // swiper has reached the threshold.
    SkipThresholdTargets(ctx context.Context, swiperID int64, threshold int) ([]int64, error)
    // MarkConnectionSent flips connection_sent on the pair's INTERESTED
    // record(s). Silently a no-op when no record matches.
    MarkConnectionSent(ctx context.Context, swiperID, targetID, connectionID int64) error
    Stats(ctx context.Context, userID int64) (*SwipeStats, error)
}

// SessionStore tracks discovery sessions. AppendShown and the counter
// increments must be safe under concurrent calls for the same session;
// implementations use an atomic set-union primitive at the storage layer or
// a per-session lock, so lost updates cannot re-surface shown candidates.
type SessionStore interface {
    Create(ctx context.Context, ownerID int64, filters Filters, origin *Coordinates) (*DiscoverySession, error)
    Get(ctx context.Context, id string) (*DiscoverySession, error)
    // AppendShown unions newIDs into the shown-set and increments TotalShown
    // by len(newIDs), returning the updated session.
    AppendShown(ctx context.Context, id string, newIDs []int64) (*DiscoverySession, error)
    IncrementSkip(ctx context.Context, id string) error
    IncrementInterested(ctx context.Context, id string) error
}

// postgresSwipeLog persists swipes in the swipes table. The per-pair
// INTERESTED uniqueness is enforced by a partial unique index:
//
//	CREATE UNIQUE INDEX swipes_interested_pair ON swipes (swiper_id, target_id)
//	WHERE action = 'INTERESTED';
type postgresSwipeLog struct {
    db *sqlx.DB
}

func NewPostgresSwipeLog(db *sqlx.DB) SwipeLog {
    return &postgresSwipeLog{db: db}
}

func (r *postgresSwipeLog) AppendSkip(ctx context.Context, rec *SwipeRecord) error {
    query := `
        INSERT INTO swipes (swiper_id, target_id, action, skip_count, connection_sent, context)
        VALUES ($1, $2, $3, $4, FALSE, $5)
        RETURNING id, created_at
    `

    return r.db.QueryRowxContext(
        ctx, query,
        rec.SwiperID, rec.TargetID, ActionSkip, rec.SkipCount, rec.Context,
    ).Scan(&rec.ID, &rec.CreatedAt)
}

func (r *postgresSwipeLog) AppendInterested(ctx context.Context, rec *SwipeRecord) (bool, error) {
    query := `
        INSERT INTO swipes (swiper_id, target_id, action, skip_count, connection_sent, context)
        VALUES ($1, $2, $3, 0, FALSE, $4)
        ON CONFLICT (swiper_id, target_id) WHERE action = 'INTERESTED' DO NOTHING
        RETURNING id, created_at
    `

    err := r.db.QueryRowxContext(
        ctx, query,
        rec.SwiperID, rec.TargetID, ActionInterested, rec.Context,
    ).Scan(&rec.ID, &rec.CreatedAt)
    if err == sql.ErrNoRows {
        // Conflict: an INTERESTED record already exists for the pair.
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

func (r *postgresSwipeLog) LatestSkipCount(ctx context.Context, swiperID, targetID int64) (int, error) {
    var count int
    query := `
        SELECT skip_count FROM swipes
        WHERE swiper_id = $1 AND target_id = $2 AND action = 'SKIP'
        ORDER BY created_at DESC, id DESC
        LIMIT 1
    `

    err := r.db.GetContext(ctx, &count, query, swiperID, targetID)
    if err == sql.ErrNoRows {
        return 0, nil
    }
    return count, err
}

func (r *postgresSwipeLog) SkipThresholdTargets(ctx context.Context, swiperID int64, threshold int) ([]int64, error) {
    var targets []int64
    query := `
        SELECT target_id FROM swipes
        WHERE swiper_id = $1 AND action = 'SKIP'
        GROUP BY target_id
        HAVING MAX(skip_count) >= $2
    `

    err := r.db.SelectContext(ctx, &targets, query, swiperID, threshold)
    return targets, err
}

func (r *postgresSwipeLog) MarkConnectionSent(ctx context.Context, swiperID, targetID, connectionID int64) error {
    query := `
        UPDATE swipes
        SET connection_sent = TRUE, connection_id = $3
        WHERE swiper_id = $1 AND target_id = $2 AND action = 'INTERESTED'
    `

    _, err := r.db.ExecContext(ctx, query, swiperID, targetID, connectionID)
    return err
}

func (r *postgresSwipeLog) Stats(ctx context.Context, userID int64) (*SwipeStats, error) {
    var stats SwipeStats
    query := `
        SELECT
            COUNT(*) AS total_swipes,
            COUNT(*) FILTER (WHERE action = 'INTERESTED') AS interested,
            COUNT(*) FILTER (WHERE action = 'SKIP') AS skipped,
            COUNT(*) FILTER (WHERE action = 'INTERESTED' AND connection_sent) AS connections_sent
        FROM swipes
        WHERE swiper_id = $1
    `

    err := r.db.QueryRowxContext(ctx, query, userID).Scan(
        &stats.TotalSwipes, &stats.Interested, &stats.Skipped, &stats.ConnectionsSent,
    )
    if err != nil {
        return nil, err
    }

    stats.PendingInterests = stats.Interested - stats.ConnectionsSent
    return &stats, nil
}

// postgresSessionStore persists sessions across discovery_sessions and
// discovery_session_shown. The shown-set lives as one row per candidate with
// ON CONFLICT DO NOTHING, which gives set-union semantics at the storage
// layer; no read-modify-write cycle exists to lose a race.
type postgresSessionStore struct {
    db *sqlx.DB
}

func NewPostgresSessionStore(db *sqlx.DB) SessionStore {
    return &postgresSessionStore{db: db}
}

func (s *postgresSessionStore) Create(ctx context.Context, ownerID int64, filters Filters, origin *Coordinates) (*DiscoverySession, error) {
    filtersJSON, err := json.Marshal(filters)
    if err != nil {
        return nil, fmt.Errorf("failed to marshal filter snapshot: %w", err)
    }

    session := &DiscoverySession{
        ID:          uuid.NewString(),
        OwnerUserID: ownerID,
        Filters:     filters,
        Origin:      origin,
        ShownIDs:    make(map[int64]struct{}),
    }

    var originLat, originLng *float64
    if origin != nil {
        originLat, originLng = &origin.Lat, &origin.Lng
    }

    query := `
        INSERT INTO discovery_sessions (id, owner_user_id, filters, origin_lat, origin_lng)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at
    `

    err = s.db.QueryRowxContext(
        ctx, query,
        session.ID, ownerID, filtersJSON, originLat, originLng,
    ).Scan(&session.CreatedAt, &session.UpdatedAt)
    if err != nil {
        return nil, err
    }

    return session, nil
}

func (s *postgresSessionStore) Get(ctx context.Context, id string) (*DiscoverySession, error) {
    session := &DiscoverySession{ShownIDs: make(map[int64]struct{})}

    var filtersJSON []byte
    var originLat, originLng *float64

    query := `
        SELECT id, owner_user_id, filters, origin_lat, origin_lng,
               total_shown, total_skips, total_interested, created_at, updated_at
        FROM discovery_sessions
        WHERE id = $1
    `

    err := s.db.QueryRowxContext(ctx, query, id).Scan(
        &session.ID, &session.OwnerUserID, &filtersJSON, &originLat, &originLng,
        &session.TotalShown, &session.TotalSkips, &session.TotalInterested,
        &session.CreatedAt, &session.UpdatedAt,
    )
    if err == sql.ErrNoRows {
        return nil, ErrSessionNotFound
    }
    if err != nil {
        return nil, err
    }

    if err := json.Unmarshal(filtersJSON, &session.Filters); err != nil {
        return nil, fmt.Errorf("failed to unmarshal filter snapshot: %w", err)
    }
    if originLat != nil && originLng != nil {
        session.Origin = &Coordinates{Lat: *originLat, Lng: *originLng}
    }

    var shown []int64
    shownQuery := `SELECT candidate_id FROM discovery_session_shown WHERE session_id = $1`
    if err := s.db.SelectContext(ctx, &shown, shownQuery, id); err != nil {
        return nil, err
    }
    for _, candidateID := range shown {
        session.ShownIDs[candidateID] = struct{}{}
    }

    return session, nil
}

func (s *postgresSessionStore) AppendShown(ctx context.Context, id string, newIDs []int64) (*DiscoverySession, error) {
    res, err := s.db.ExecContext(ctx, `
        UPDATE discovery_sessions
        SET total_shown = total_shown + $2, updated_at = NOW()
        WHERE id = $1
    `, id, len(newIDs))
    if err != nil {
        return nil, err
    }
    if n, err := res.RowsAffected(); err == nil && n == 0 {
        return nil, ErrSessionNotFound
    }

    if len(newIDs) > 0 {
        _, err = s.db.ExecContext(ctx, `
            INSERT INTO discovery_session_shown (session_id, candidate_id)
            SELECT $1, unnest($2::bigint[])
            ON CONFLICT DO NOTHING
        `, id, pq.Array(newIDs))
        if err != nil {
            return nil, err
        }
    }

    return s.Get(ctx, id)
}

func (s *postgresSessionStore) IncrementSkip(ctx context.Context, id string) error {
    return s.increment(ctx, id, "total_skips")
}

func (s *postgresSessionStore) IncrementInterested(ctx context.Context, id string) error {
    return s.increment(ctx, id, "total_interested")
}

func (s *postgresSessionStore) increment(ctx context.Context, id, column string) error {
    query := fmt.Sprintf(`
        UPDATE discovery_sessions
        SET %s = %s + 1, updated_at = NOW()
        WHERE id = $1
    `, column, column)

    res, err := s.db.ExecContext(ctx, query, id)
    if err != nil {
        return err
    }
    if n, err := res.RowsAffected(); err == nil && n == 0 {
        return ErrSessionNotFound
    }
    return nil
}
