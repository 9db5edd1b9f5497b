package discovery

import (
    "context"
)

// ExclusionResolver produces the set of candidate IDs that must never be
// returned for a requester: the requester themselves, every relationship
// counterpart regardless of status, targets past the skip threshold, and
// everything already shown in the active session.
type ExclusionResolver struct {
    swipes        SwipeLog
    relationships RelationshipRegistry
    sessions      SessionStore
}

func NewExclusionResolver(swipes SwipeLog, relationships RelationshipRegistry, sessions SessionStore) *ExclusionResolver {
    return &ExclusionResolver{
        swipes:        swipes,
        relationships: relationships,
        sessions:      sessions,
    }
}

// Resolve returns the full exclusion set for the requester. An empty
// sessionID means no prior session; an unknown sessionID surfaces
// ErrSessionNotFound rather than being treated as absent.
func (r *ExclusionResolver) Resolve(ctx context.Context, requesterID int64, sessionID string) (map[int64]struct{}, error) {
    excluded := map[int64]struct{}{
        requesterID: {},
    }

    related, err := r.relationships.ListRelated(ctx, requesterID)
    if err != nil {
        return nil, err
    }
    for _, id := range related {
        excluded[id] = struct{}{}
    }

    blocked, err := r.swipes.SkipThresholdTargets(ctx, requesterID, SkipThreshold)
    if err != nil {
        return nil, err
    }
    for _, id := range blocked {
        excluded[id] = struct{}{}
    }

    if sessionID != "" {
        session, err := r.sessions.Get(ctx, sessionID)
        if err != nil {
            return nil, err
        }
        for id := range session.ShownIDs {
            excluded[id] = struct{}{}
        }
    }

    return excluded, nil
}
