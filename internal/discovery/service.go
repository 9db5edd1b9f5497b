package discovery

import (
    "context"
    "errors"
    "fmt"
    "log"
    "sort"
)

var (
    ErrUserNotFound    = errors.New("user not found")
    ErrSessionNotFound = errors.New("discovery session not found")
    ErrInvalidAction   = errors.New("unsupported swipe action")
    ErrInvalidFilters  = errors.New("invalid discovery filters")
)

type Service interface {
    // GetDiscoveryBatch returns an ordered, size-bounded batch of candidates
    // for the requester. An empty sessionID starts a new session; otherwise
    // the batch is appended to the existing session's shown-set.
    GetDiscoveryBatch(ctx context.Context, requesterID int64, filters Filters, origin *Coordinates, sessionID string) (*DiscoveryBatch, error)

    // RecordSwipe appends a SKIP or INTERESTED action to the swipe log.
    // INTERESTED is idempotent per (swiper, target) pair.
    RecordSwipe(ctx context.Context, swiperID, targetID int64, action SwipeAction, sessionID string) (*SwipeResult, error)

    // MarkConnectionSent reconciles the INTERESTED record after an external
    // flow created the relationship. Best-effort: a missing record is not an
    // error.
    MarkConnectionSent(ctx context.Context, swiperID, targetID, connectionID int64) error

    GetSwipeStats(ctx context.Context, userID int64) (*SwipeStats, error)
}

type service struct {
    directory     UserDirectory
    relationships RelationshipRegistry
    swipes        SwipeLog
    sessions      SessionStore
    exclusions    *ExclusionResolver
}

func NewService(directory UserDirectory, relationships RelationshipRegistry, swipes SwipeLog, sessions SessionStore) Service {
    return &service{
        directory:     directory,
        relationships: relationships,
        swipes:        swipes,
        sessions:      sessions,
        exclusions:    NewExclusionResolver(swipes, relationships, sessions),
    }
}

func (s *service) GetDiscoveryBatch(ctx context.Context, requesterID int64, filters Filters, origin *Coordinates, sessionID string) (*DiscoveryBatch, error) {
    if err := validateFilters(&filters); err != nil {
        return nil, err
    }

    requester, err := s.directory.Get(ctx, requesterID)
    if err != nil {
        return nil, err
    }

    excluded, err := s.exclusions.Resolve(ctx, requesterID, sessionID)
    if err != nil {
        return nil, err
    }

    batchSize := filters.BatchSize()

    pool, err := s.directory.Query(ctx, &CandidateQuery{
        MinAge:        filters.MinAge,
        MaxAge:        filters.MaxAge,
        Gender:        filters.Gender,
        Interests:     filters.Interests,
        City:          filters.City,
        OnlyVerified:  filters.OnlyVerified,
        MinTrustScore: filters.MinTrustScore,
        ExcludeIDs:    setToSlice(excluded),
        Limit:         overFetchFactor * batchSize,
    })
    if err != nil {
        return nil, fmt.Errorf("candidate query failed: %w", err)
    }

    // hasMore is derived from the pre-filter pool, so it is a heuristic
    // signal, not an exact count of remaining candidates.
    hasMore := len(pool) >= batchSize

    ranked := s.scorePool(requester, origin, filters.MaxDistanceKm(), pool)

    // Ties preserve directory fetch order, which keeps batches reproducible
    // for identical snapshots.
    sort.SliceStable(ranked, func(i, j int) bool {
        return ranked[i].Score > ranked[j].Score
    })

    if len(ranked) > batchSize {
        ranked = ranked[:batchSize]
    }

    shownIDs := make([]int64, len(ranked))
    for i, candidate := range ranked {
        shownIDs[i] = candidate.Profile.ID
    }

    if sessionID == "" {
        session, err := s.sessions.Create(ctx, requesterID, filters, origin)
        if err != nil {
            return nil, fmt.Errorf("failed to create discovery session: %w", err)
        }
        sessionID = session.ID
    }

    if len(shownIDs) > 0 {
        if _, err := s.sessions.AppendShown(ctx, sessionID, shownIDs); err != nil {
            return nil, fmt.Errorf("failed to record shown candidates: %w", err)
        }
    }

    RecordBatch(len(ranked))
    for _, candidate := range ranked {
        RecordMatchScore(candidate.Score)
    }

    return &DiscoveryBatch{
        Candidates: ranked,
        SessionID:  sessionID,
        HasMore:    hasMore,
    }, nil
}

// scorePool drops candidates beyond the effective radius and scores the
// rest. The slice keeps the directory's fetch order.
func (s *service) scorePool(requester *CandidateProfile, origin *Coordinates, maxDistance float64, pool []*CandidateProfile) []*RankedCandidate {
    if origin == nil {
        origin = requester.Coords()
    }

    ranked := make([]*RankedCandidate, 0, len(pool))
    for _, candidate := range pool {
        var distance *float64
        if origin != nil {
            if coords := candidate.Coords(); coords != nil {
                d := DistanceKm(origin.Lat, origin.Lng, coords.Lat, coords.Lng)
                if d > maxDistance {
                    continue
                }
                distance = &d
            }
        }

        score, breakdown := Score(requester, candidate)
        ranked = append(ranked, &RankedCandidate{
            Profile:    candidate,
            Score:      score,
            Breakdown:  breakdown,
            DistanceKm: distance,
        })
    }

    return ranked
}

func (s *service) RecordSwipe(ctx context.Context, swiperID, targetID int64, action SwipeAction, sessionID string) (*SwipeResult, error) {
    if action != ActionSkip && action != ActionInterested {
        return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
    }

    if _, err := s.directory.Get(ctx, targetID); err != nil {
        return nil, err
    }

    switch action {
    case ActionSkip:
        return s.recordSkip(ctx, swiperID, targetID, sessionID)
    default:
        return s.recordInterested(ctx, swiperID, targetID, sessionID)
    }
}

func (s *service) recordSkip(ctx context.Context, swiperID, targetID int64, sessionID string) (*SwipeResult, error) {
    prior, err := s.swipes.LatestSkipCount(ctx, swiperID, targetID)
    if err != nil {
        return nil, err
    }

    rec := &SwipeRecord{
        SwiperID:  swiperID,
        TargetID:  targetID,
        Action:    ActionSkip,
        SkipCount: prior + 1,
    }
    if err := s.swipes.AppendSkip(ctx, rec); err != nil {
        return nil, err
    }

    RecordSwipe(string(ActionSkip))
    s.bumpSessionCounter(ctx, sessionID, ActionSkip)

    message := "Skip recorded"
    if rec.SkipCount >= SkipThreshold {
        message = "Skip recorded; candidate will no longer be suggested"
    }

    return &SwipeResult{
        Action:    ActionSkip,
        SkipCount: rec.SkipCount,
        Message:   message,
    }, nil
}

func (s *service) recordInterested(ctx context.Context, swiperID, targetID int64, sessionID string) (*SwipeResult, error) {
    rec := &SwipeRecord{
        SwiperID: swiperID,
        TargetID: targetID,
        Action:   ActionInterested,
    }

    created, err := s.swipes.AppendInterested(ctx, rec)
    if err != nil {
        return nil, err
    }
    if !created {
        return &SwipeResult{
            Action:        ActionInterested,
            AlreadySwiped: true,
            Message:       "Interest already recorded",
        }, nil
    }

    RecordSwipe(string(ActionInterested))
    s.bumpSessionCounter(ctx, sessionID, ActionInterested)

    return &SwipeResult{
        Action:  ActionInterested,
        Message: "Interest recorded",
    }, nil
}

// bumpSessionCounter is best-effort: swipe recording must never be blocked
// by session bookkeeping, so a missing or invalid session only skips the
// counter update.
func (s *service) bumpSessionCounter(ctx context.Context, sessionID string, action SwipeAction) {
    if sessionID == "" {
        return
    }

    var err error
    if action == ActionSkip {
        err = s.sessions.IncrementSkip(ctx, sessionID)
    } else {
        err = s.sessions.IncrementInterested(ctx, sessionID)
    }
    if err != nil {
        log.Printf("discovery: session counter update skipped for %s: %v", sessionID, err)
    }
}

func (s *service) MarkConnectionSent(ctx context.Context, swiperID, targetID, connectionID int64) error {
    return s.swipes.MarkConnectionSent(ctx, swiperID, targetID, connectionID)
}

func (s *service) GetSwipeStats(ctx context.Context, userID int64) (*SwipeStats, error) {
    if _, err := s.directory.Get(ctx, userID); err != nil {
        return nil, err
    }
    return s.swipes.Stats(ctx, userID)
}

func validateFilters(f *Filters) error {
    if f.MinAge != nil && f.MaxAge != nil && *f.MinAge > *f.MaxAge {
        return fmt.Errorf("%w: min_age exceeds max_age", ErrInvalidFilters)
    }
    return nil
}

func setToSlice(set map[int64]struct{}) []int64 {
    ids := make([]int64, 0, len(set))
    for id := range set {
        ids = append(ids, id)
    }
    return ids
}
