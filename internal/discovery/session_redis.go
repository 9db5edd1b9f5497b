package discovery

import (
    "context"
    "encoding/json"
    "fmt"
    "strconv"
    "time"

    "github.com/go-redis/redis/v8"
    "github.com/google/uuid"
)

// RedisSessionStore keeps discovery sessions in Redis. The shown-set is a
// plain Redis set, so SADD is the atomic set-union the concurrency model
// requires; the counters are HINCRBY fields on the session hash.
type RedisSessionStore struct {
    client *redis.Client
    ttl    time.Duration
}

// NewRedisSessionStore creates a store whose sessions expire after ttl.
// A ttl of 0 keeps sessions until external cleanup removes them.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
    return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(id string) string {
    return "discovery:session:" + id
}

func shownKey(id string) string {
    return "discovery:session:" + id + ":shown"
}

func (s *RedisSessionStore) Create(ctx context.Context, ownerID int64, filters Filters, origin *Coordinates) (*DiscoverySession, error) {
    filtersJSON, err := json.Marshal(filters)
    if err != nil {
        return nil, fmt.Errorf("failed to marshal filter snapshot: %w", err)
    }

    now := time.Now().UTC()
    id := uuid.NewString()

    fields := map[string]interface{}{
        "owner_user_id":    ownerID,
        "filters":          string(filtersJSON),
        "total_shown":      0,
        "total_skips":      0,
        "total_interested": 0,
        "created_at":       now.Format(time.RFC3339Nano),
        "updated_at":       now.Format(time.RFC3339Nano),
    }
    if origin != nil {
        fields["origin_lat"] = origin.Lat
        fields["origin_lng"] = origin.Lng
    }

    if err := s.client.HSet(ctx, sessionKey(id), fields).Err(); err != nil {
        return nil, fmt.Errorf("failed to create session: %w", err)
    }
    if s.ttl > 0 {
        s.client.Expire(ctx, sessionKey(id), s.ttl)
    }

    return &DiscoverySession{
        ID:          id,
        OwnerUserID: ownerID,
        Filters:     filters,
        Origin:      origin,
        ShownIDs:    make(map[int64]struct{}),
        CreatedAt:   now,
        UpdatedAt:   now,
    }, nil
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*DiscoverySession, error) {
    fields, err := s.client.HGetAll(ctx, sessionKey(id)).Result()
    if err != nil {
        return nil, err
    }
    if len(fields) == 0 {
        return nil, ErrSessionNotFound
    }

    session := &DiscoverySession{
        ID:       id,
        ShownIDs: make(map[int64]struct{}),
    }

    session.OwnerUserID, _ = strconv.ParseInt(fields["owner_user_id"], 10, 64)
    session.TotalShown, _ = strconv.Atoi(fields["total_shown"])
    session.TotalSkips, _ = strconv.Atoi(fields["total_skips"])
    session.TotalInterested, _ = strconv.Atoi(fields["total_interested"])
    session.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields["created_at"])
    session.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fields["updated_at"])

    if raw, ok := fields["filters"]; ok && raw != "" {
        if err := json.Unmarshal([]byte(raw), &session.Filters); err != nil {
            return nil, fmt.Errorf("failed to unmarshal filter snapshot: %w", err)
        }
    }

    if latStr, ok := fields["origin_lat"]; ok {
        lat, latErr := strconv.ParseFloat(latStr, 64)
        lng, lngErr := strconv.ParseFloat(fields["origin_lng"], 64)
        if latErr == nil && lngErr == nil {
            session.Origin = &Coordinates{Lat: lat, Lng: lng}
        }
    }

    shown, err := s.client.SMembers(ctx, shownKey(id)).Result()
    if err != nil {
        return nil, err
    }
    for _, member := range shown {
        if candidateID, err := strconv.ParseInt(member, 10, 64); err == nil {
            session.ShownIDs[candidateID] = struct{}{}
        }
    }

    return session, nil
}

func (s *RedisSessionStore) AppendShown(ctx context.Context, id string, newIDs []int64) (*DiscoverySession, error) {
    if err := s.exists(ctx, id); err != nil {
        return nil, err
    }

    if len(newIDs) > 0 {
        members := make([]interface{}, len(newIDs))
        for i, candidateID := range newIDs {
            members[i] = candidateID
        }

        pipe := s.client.TxPipeline()
        pipe.SAdd(ctx, shownKey(id), members...)
        pipe.HIncrBy(ctx, sessionKey(id), "total_shown", int64(len(newIDs)))
        pipe.HSet(ctx, sessionKey(id), "updated_at", time.Now().UTC().Format(time.RFC3339Nano))
        if s.ttl > 0 {
            pipe.Expire(ctx, shownKey(id), s.ttl)
        }
        if _, err := pipe.Exec(ctx); err != nil {
            return nil, fmt.Errorf("failed to append shown ids: %w", err)
        }
    }

    return s.Get(ctx, id)
}

func (s *RedisSessionStore) IncrementSkip(ctx context.Context, id string) error {
    return s.increment(ctx, id, "total_skips")
}

func (s *RedisSessionStore) IncrementInterested(ctx context.Context, id string) error {
    return s.increment(ctx, id, "total_interested")
}

func (s *RedisSessionStore) increment(ctx context.Context, id, field string) error {
    if err := s.exists(ctx, id); err != nil {
        return err
    }

    pipe := s.client.TxPipeline()
    pipe.HIncrBy(ctx, sessionKey(id), field, 1)
    pipe.HSet(ctx, sessionKey(id), "updated_at", time.Now().UTC().Format(time.RFC3339Nano))
    _, err := pipe.Exec(ctx)
    return err
}

func (s *RedisSessionStore) exists(ctx context.Context, id string) error {
    n, err := s.client.Exists(ctx, sessionKey(id)).Result()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrSessionNotFound
    }
    return nil
}
