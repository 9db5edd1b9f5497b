package discovery

import (
    "time"
)

// SwipeAction is the decision a user takes on a presented candidate.
type SwipeAction string

const (
    ActionSkip       SwipeAction = "SKIP"
    ActionInterested SwipeAction = "INTERESTED"
)

// SkipThreshold is the number of SKIP actions against the same target after
// which that target is permanently excluded from the swiper's discovery.
const SkipThreshold = 3

// Coordinates is a WGS84 point. Latitude/longitude are in degrees.
type Coordinates struct {
    Lat float64 `json:"lat" db:"lat"`
    Lng float64 `json:"lng" db:"lng"`
}

// CandidateProfile is a read-only snapshot of a user as seen by the
// discovery engine. It is sourced from the user directory; nothing in this
// package mutates it.
type CandidateProfile struct {
    ID              int64    `json:"id" db:"id"`
    Username        string   `json:"username" db:"username"`
    DisplayName     string   `json:"display_name" db:"display_name"`
    Bio             *string  `json:"bio,omitempty" db:"bio"`
    Age             int      `json:"age" db:"age"`
    Gender          string   `json:"gender" db:"gender"`
    Latitude        *float64 `json:"latitude,omitempty" db:"location_lat"`
    Longitude       *float64 `json:"longitude,omitempty" db:"location_lng"`
    City            *string  `json:"city,omitempty" db:"city"`
    Country         *string  `json:"country,omitempty" db:"country"`
    Interests       []string `json:"interests"`
    Languages       []string `json:"languages"`
    CommunityIDs    []int64  `json:"community_ids"`
    TrustScore      float64  `json:"trust_score" db:"trust_score"`
    IsVerified      bool     `json:"is_verified" db:"is_verified"`
    BadgeCount      int      `json:"badge_count" db:"badge_count"`
    ConnectionCount int      `json:"connection_count" db:"connection_count"`
}

// Coords returns the profile's coordinates, or nil when location is unset.
func (p *CandidateProfile) Coords() *Coordinates {
    if p.Latitude == nil || p.Longitude == nil {
        return nil
    }
    return &Coordinates{Lat: *p.Latitude, Lng: *p.Longitude}
}

// SwipeRecord is one entry in the append-only swipe log. SKIP records form a
// running tally: each new record carries skip_count = previous + 1.
// At most one INTERESTED record exists per (swiper, target) pair.
type SwipeRecord struct {
    ID             int64       `json:"id" db:"id"`
    SwiperID       int64       `json:"swiper_id" db:"swiper_id"`
    TargetID       int64       `json:"target_id" db:"target_id"`
    Action         SwipeAction `json:"action" db:"action"`
    SkipCount      int         `json:"skip_count" db:"skip_count"`
    ConnectionSent bool        `json:"connection_sent" db:"connection_sent"`
    ConnectionID   *int64      `json:"connection_id,omitempty" db:"connection_id"`
    Context        *string     `json:"context,omitempty" db:"context"`
    CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

// DiscoverySession accumulates the candidates shown across a sequence of
// discovery calls so nothing is repeated within the session. ShownIDs is the
// authoritative exclusion source; the counters are advisory telemetry and are
// not guaranteed to equal the set's cardinality.
type DiscoverySession struct {
    ID              string             `json:"id"`
    OwnerUserID     int64              `json:"owner_user_id"`
    Filters         Filters            `json:"filters"`
    Origin          *Coordinates       `json:"origin,omitempty"`
    ShownIDs        map[int64]struct{} `json:"-"`
    TotalShown      int                `json:"total_shown"`
    TotalSkips      int                `json:"total_skips"`
    TotalInterested int                `json:"total_interested"`
    CreatedAt       time.Time          `json:"created_at"`
    UpdatedAt       time.Time          `json:"updated_at"`
}

// HasShown reports whether the candidate was already presented in this session.
func (s *DiscoverySession) HasShown(candidateID int64) bool {
    _, ok := s.ShownIDs[candidateID]
    return ok
}

// RankedCandidate is one scored entry of a discovery batch.
type RankedCandidate struct {
    Profile    *CandidateProfile `json:"profile"`
    Score      float64           `json:"score"`
    Breakdown  *ScoreBreakdown   `json:"breakdown,omitempty"`
    DistanceKm *float64          `json:"distance_km,omitempty"`
}

// DiscoveryBatch is the result of one discovery call. HasMore is a heuristic
// derived from the pre-filter pool size; it can report true even when no
// further distinct candidates exist and must not be treated as a cursor.
type DiscoveryBatch struct {
    Candidates []*RankedCandidate `json:"candidates"`
    SessionID  string             `json:"session_id"`
    HasMore    bool               `json:"has_more"`
}

// SwipeResult is returned by RecordSwipe.
type SwipeResult struct {
    Action        SwipeAction `json:"action"`
    AlreadySwiped bool        `json:"already_swiped,omitempty"`
    SkipCount     int         `json:"skip_count,omitempty"`
    Message       string      `json:"message"`
}

// SwipeStats summarizes a user's historical swipe activity.
type SwipeStats struct {
    TotalSwipes      int `json:"total_swipes"`
    Interested       int `json:"interested"`
    Skipped          int `json:"skipped"`
    ConnectionsSent  int `json:"connections_sent"`
    PendingInterests int `json:"pending_interests"`
}
