package discovery

import (
    "math"
)

const earthRadiusKm = 6371

// DistanceKm computes the great-circle distance between two points using the
// haversine formula. Inputs are degrees and assumed to be valid coordinate
// ranges; the result is always >= 0.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
    dLat := (lat2 - lat1) * math.Pi / 180
    dLon := (lon2 - lon1) * math.Pi / 180

    a := math.Sin(dLat/2)*math.Sin(dLat/2) +
        math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
            math.Sin(dLon/2)*math.Sin(dLon/2)

    c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

    return earthRadiusKm * c
}
