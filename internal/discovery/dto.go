package discovery

// DTOs for API requests/responses

// Batch sizing and distance bounds. Filters.Limit is clamped rather than
// rejected; DistanceKm is clamped to [1, maxDistanceKm].
const (
    defaultBatchSize  = 20
    maxBatchSize      = 50
    defaultDistanceKm = 50.0
    maxDistanceKm     = 500.0

    // overFetchFactor compensates for post-filtering losses from the
    // distance drop step.
    overFetchFactor = 2
)

// Filters narrows the candidate pool for a discovery call. All fields are
// optional; absence means "no constraint" except Limit which defaults to 20.
type Filters struct {
    MinAge        *int     `json:"min_age,omitempty" validate:"omitempty,gte=18,lte=120"`
    MaxAge        *int     `json:"max_age,omitempty" validate:"omitempty,gte=18,lte=120"`
    DistanceKm    *float64 `json:"distance_km,omitempty" validate:"omitempty,gt=0"`
    Gender        *string  `json:"gender,omitempty"`
    Interests     []string `json:"interests,omitempty"`
    City          *string  `json:"city,omitempty"`
    OnlyVerified  bool     `json:"only_verified,omitempty"`
    MinTrustScore *float64 `json:"min_trust_score,omitempty" validate:"omitempty,gte=0,lte=100"`
    Limit         *int     `json:"limit,omitempty"`
}

// BatchSize resolves Limit to the effective batch size, clamped to [1, 50].
func (f *Filters) BatchSize() int {
    size := defaultBatchSize
    if f.Limit != nil {
        size = *f.Limit
    }
    if size < 1 {
        size = 1
    }
    if size > maxBatchSize {
        size = maxBatchSize
    }
    return size
}

// MaxDistanceKm resolves DistanceKm to the effective radius, clamped to
// [1, 500]. Absent means the 50 km default.
func (f *Filters) MaxDistanceKm() float64 {
    d := defaultDistanceKm
    if f.DistanceKm != nil {
        d = *f.DistanceKm
    }
    if d < 1 {
        d = 1
    }
    if d > maxDistanceKm {
        d = maxDistanceKm
    }
    return d
}

// RecordSwipeDTO is the request body for recording a swipe.
type RecordSwipeDTO struct {
    TargetID  int64  `json:"target_id" validate:"required,gt=0"`
    Action    string `json:"action" validate:"required,oneof=SKIP INTERESTED"`
    SessionID string `json:"session_id,omitempty"`
}

// MarkConnectionSentDTO is the request body for the connection-sent
// reconciliation touchpoint.
type MarkConnectionSentDTO struct {
    TargetID     int64 `json:"target_id" validate:"required,gt=0"`
    ConnectionID int64 `json:"connection_id" validate:"required,gt=0"`
}

// CandidateQuery is the hard-filter query handed to the user directory.
// ExcludeIDs always contains at least the requester's own ID.
type CandidateQuery struct {
    MinAge        *int
    MaxAge        *int
    Gender        *string
    Interests     []string
    City          *string
    OnlyVerified  bool
    MinTrustScore *float64
    ExcludeIDs    []int64
    Limit         int
}
