package discovery

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestDistanceKmZeroForSamePoint(t *testing.T) {
    assert.Equal(t, 0.0, DistanceKm(3.1390, 101.6869, 3.1390, 101.6869))
}

func TestDistanceKmKualaLumpurToSingapore(t *testing.T) {
    // Kuala Lumpur -> Singapore is roughly 316 km great-circle.
    d := DistanceKm(3.1390, 101.6869, 1.3521, 103.8198)
    assert.InDelta(t, 316, d, 10)
}

func TestDistanceKmSymmetry(t *testing.T) {
    a := DistanceKm(52.5200, 13.4050, 48.8566, 2.3522)
    b := DistanceKm(48.8566, 2.3522, 52.5200, 13.4050)
    assert.InDelta(t, a, b, 1e-9)
}

func TestDistanceKmNeverNegative(t *testing.T) {
    cases := [][4]float64{
        {0, 0, 0, 0},
        {-90, 0, 90, 0},
        {10, -170, -10, 170},
        {0, 179.9, 0, -179.9},
    }
    for _, c := range cases {
        assert.GreaterOrEqual(t, DistanceKm(c[0], c[1], c[2], c[3]), 0.0)
    }
}

func TestDistanceKmAntipodal(t *testing.T) {
    // Half the Earth's circumference, ~20015 km.
    d := DistanceKm(0, 0, 0, 180)
    assert.InDelta(t, 20015, d, 25)
}
