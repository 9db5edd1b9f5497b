package discovery

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func strPtr(s string) *string   { return &s }
func intPtr(n int) *int         { return &n }
func f64Ptr(f float64) *float64 { return &f }

func profileWith(mod func(*CandidateProfile)) *CandidateProfile {
    p := &CandidateProfile{
        ID:           1,
        Username:     "requester",
        Age:          28,
        Gender:       "female",
        City:         strPtr("Kuala Lumpur"),
        Country:      strPtr("Malaysia"),
        Interests:    []string{"hiking", "books", "coffee"},
        CommunityIDs: []int64{10, 20},
        TrustScore:   80,
        IsVerified:   true,
    }
    if mod != nil {
        mod(p)
    }
    return p
}

func TestScorePerfectMatchIsHundred(t *testing.T) {
    requester := profileWith(nil)
    candidate := profileWith(func(p *CandidateProfile) {
        p.ID = 2
        p.TrustScore = 100
    })

    score, breakdown := Score(requester, candidate)

    assert.Equal(t, 100.0, score)
    assert.Equal(t, 30.0, breakdown.Location)
    assert.Equal(t, 25.0, breakdown.Interests)
    assert.Equal(t, 20.0, breakdown.Communities)
    assert.Equal(t, 15.0, breakdown.Trust)
    assert.Equal(t, 10.0, breakdown.Verification)
}

func TestScoreLocationFactor(t *testing.T) {
    tests := []struct {
        name     string
        city     *string
        country  *string
        expected float64
    }{
        {"same city", strPtr("Kuala Lumpur"), strPtr("Malaysia"), 30},
        {"same city different case", strPtr("kuala lumpur"), strPtr("Malaysia"), 30},
        {"same country different city", strPtr("Penang"), strPtr("Malaysia"), 15},
        {"different country", strPtr("Singapore"), strPtr("Singapore"), 0},
        {"no location", nil, nil, 0},
        {"empty city falls back to country", strPtr(""), strPtr("Malaysia"), 15},
    }

    requester := profileWith(nil)
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            candidate := profileWith(func(p *CandidateProfile) {
                p.ID = 2
                p.City = tt.city
                p.Country = tt.country
            })
            _, breakdown := Score(requester, candidate)
            assert.Equal(t, tt.expected, breakdown.Location)
        })
    }
}

func TestScoreInterestOverlap(t *testing.T) {
    tests := []struct {
        name      string
        requester []string
        candidate []string
        expected  float64
    }{
        {"full overlap", []string{"a", "b"}, []string{"a", "b"}, 25},
        {"half overlap against larger set", []string{"a", "b"}, []string{"a", "c", "d", "e"}, 25.0 * 1 / 4},
        {"no overlap", []string{"a"}, []string{"b"}, 0},
        {"requester empty", nil, []string{"a"}, 0},
        {"candidate empty", []string{"a"}, nil, 0},
        {"case insensitive", []string{"Hiking"}, []string{"hiking"}, 25},
    }

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            requester := profileWith(func(p *CandidateProfile) { p.Interests = tt.requester })
            candidate := profileWith(func(p *CandidateProfile) {
                p.ID = 2
                p.Interests = tt.candidate
                p.CommunityIDs = nil
            })
            _, breakdown := Score(requester, candidate)
            assert.InDelta(t, tt.expected, breakdown.Interests, 1e-9)
        })
    }
}

func TestScoreCommunityOverlap(t *testing.T) {
    requester := profileWith(func(p *CandidateProfile) { p.CommunityIDs = []int64{1, 2, 3} })
    candidate := profileWith(func(p *CandidateProfile) {
        p.ID = 2
        p.CommunityIDs = []int64{2, 3, 4}
    })

    _, breakdown := Score(requester, candidate)
    // |{2,3}| / max(3,3) = 2/3 of weight 20.
    assert.InDelta(t, 20.0*2/3, breakdown.Communities, 1e-9)
}

func TestScoreTrustAndVerification(t *testing.T) {
    requester := profileWith(nil)
    candidate := profileWith(func(p *CandidateProfile) {
        p.ID = 2
        p.TrustScore = 50
        p.IsVerified = false
    })

    _, breakdown := Score(requester, candidate)
    assert.Equal(t, 7.5, breakdown.Trust)
    assert.Equal(t, 0.0, breakdown.Verification)
}

func TestScoreIsDeterministic(t *testing.T) {
    requester := profileWith(nil)
    candidate := profileWith(func(p *CandidateProfile) {
        p.ID = 2
        p.TrustScore = 63.7
        p.Interests = []string{"coffee", "vinyl"}
    })

    first, _ := Score(requester, candidate)
    for i := 0; i < 100; i++ {
        again, _ := Score(requester, candidate)
        assert.Equal(t, first, again)
    }
}

func TestScoreBounds(t *testing.T) {
    requester := profileWith(nil)

    candidates := []*CandidateProfile{
        profileWith(func(p *CandidateProfile) { p.ID = 2 }),
        profileWith(func(p *CandidateProfile) {
            p.ID = 3
            p.TrustScore = 0
            p.IsVerified = false
            p.Interests = nil
            p.CommunityIDs = nil
            p.City = nil
            p.Country = nil
        }),
        profileWith(func(p *CandidateProfile) {
            p.ID = 4
            p.TrustScore = 100
        }),
    }

    for _, candidate := range candidates {
        score, _ := Score(requester, candidate)
        assert.GreaterOrEqual(t, score, 0.0)
        assert.LessOrEqual(t, score, 100.0)
    }
}

func TestFiltersBatchSizeClamp(t *testing.T) {
    tests := []struct {
        name     string
        limit    *int
        expected int
    }{
        {"default", nil, 20},
        {"explicit", intPtr(5), 5},
        {"above max", intPtr(200), 50},
        {"zero", intPtr(0), 1},
        {"negative", intPtr(-3), 1},
    }

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            f := &Filters{Limit: tt.limit}
            assert.Equal(t, tt.expected, f.BatchSize())
        })
    }
}

func TestFiltersMaxDistanceClamp(t *testing.T) {
    tests := []struct {
        name     string
        distance *float64
        expected float64
    }{
        {"default", nil, 50},
        {"explicit", f64Ptr(10), 10},
        {"above ceiling", f64Ptr(1200), 500},
        {"below floor", f64Ptr(0.2), 1},
    }

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            f := &Filters{DistanceKm: tt.distance}
            assert.Equal(t, tt.expected, f.MaxDistanceKm())
        })
    }
}
