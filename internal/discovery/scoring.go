package discovery

import (
    "strings"
)

// Component weights of the match score. They sum to exactly 100, so the
// final clamp is a safety net rather than a normal path.
const (
    weightLocation     = 30.0
    weightInterests    = 25.0
    weightCommunities  = 20.0
    weightTrust        = 15.0
    weightVerification = 10.0
)

// ScoreBreakdown carries the per-factor contributions of a match score.
type ScoreBreakdown struct {
    Location     float64 `json:"location"`
    Interests    float64 `json:"interests"`
    Communities  float64 `json:"communities"`
    Trust        float64 `json:"trust"`
    Verification float64 `json:"verification"`
}

// Score computes the deterministic compatibility score between a requester
// and a candidate, in [0, 100]. Distance-based radius filtering is a prior
// step handled by the orchestrator, not a score component.
func Score(requester, candidate *CandidateProfile) (float64, *ScoreBreakdown) {
    b := &ScoreBreakdown{
        Location:     locationScore(requester, candidate),
        Interests:    overlapScore(requester.Interests, candidate.Interests, weightInterests),
        Communities:  communityScore(requester.CommunityIDs, candidate.CommunityIDs),
        Trust:        weightTrust * (candidate.TrustScore / 100),
        Verification: verificationScore(candidate),
    }

    total := b.Location + b.Interests + b.Communities + b.Trust + b.Verification
    if total < 0 {
        total = 0
    }
    if total > 100 {
        total = 100
    }
    return total, b
}

// locationScore grants full weight for the same city, half weight for the
// same country in a different city, and nothing otherwise.
func locationScore(requester, candidate *CandidateProfile) float64 {
    if sameTag(requester.City, candidate.City) {
        return weightLocation
    }
    if sameTag(requester.Country, candidate.Country) {
        return weightLocation / 2
    }
    return 0
}

func sameTag(a, b *string) bool {
    if a == nil || b == nil {
        return false
    }
    if *a == "" || *b == "" {
        return false
    }
    return strings.EqualFold(*a, *b)
}

// overlapScore applies weight * |intersection| / max(|a|, |b|), returning 0
// when either set is empty.
func overlapScore(a, b []string, weight float64) float64 {
    if len(a) == 0 || len(b) == 0 {
        return 0
    }

    seen := make(map[string]bool, len(a))
    for _, tag := range a {
        seen[strings.ToLower(tag)] = true
    }

    matches := 0
    for _, tag := range b {
        if seen[strings.ToLower(tag)] {
            matches++
        }
    }

    denom := len(a)
    if len(b) > denom {
        denom = len(b)
    }

    return weight * float64(matches) / float64(denom)
}

// communityScore is the same ratio formula applied to community-ID sets.
func communityScore(a, b []int64) float64 {
    if len(a) == 0 || len(b) == 0 {
        return 0
    }

    seen := make(map[int64]bool, len(a))
    for _, id := range a {
        seen[id] = true
    }

    matches := 0
    for _, id := range b {
        if seen[id] {
            matches++
        }
    }

    denom := len(a)
    if len(b) > denom {
        denom = len(b)
    }

    return weightCommunities * float64(matches) / float64(denom)
}

func verificationScore(candidate *CandidateProfile) float64 {
    if candidate.IsVerified {
        return weightVerification
    }
    return 0
}
