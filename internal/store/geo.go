package store

import "math"

const earthRadiusMeters = 6371000.0

// ValidCoordinates checks range and rejects null island, which callers use as
// an "unset" sentinel.
func ValidCoordinates(longitude, latitude float64) bool {
	if longitude < -180 || longitude > 180 {
		return false
	}
	if latitude < -90 || latitude > 90 {
		return false
	}
	if longitude == 0 && latitude == 0 {
		return false
	}
	return true
}

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lng1, lat1, lng2, lat2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// BoundingBox returns a lat/lng window guaranteed to contain the circle of
// radiusMeters around the center. Used as a cheap index-friendly prefilter;
// results still go through the exact Haversine check.
// TODO: wrap the longitude window across the antimeridian instead of clamping.
func BoundingBox(latitude, longitude, radiusMeters float64) (minLat, maxLat, minLng, maxLng float64) {
	dLat := radiusMeters / earthRadiusMeters * 180 / math.Pi
	minLat = math.Max(latitude-dLat, -90)
	maxLat = math.Min(latitude+dLat, 90)

	cos := math.Cos(latitude * math.Pi / 180)
	if cos < 1e-9 {
		// near a pole every longitude is in range
		return minLat, maxLat, -180, 180
	}
	dLng := radiusMeters / (earthRadiusMeters * cos) * 180 / math.Pi
	minLng = math.Max(longitude-dLng, -180)
	maxLng = math.Min(longitude+dLng, 180)
	return minLat, maxLat, minLng, maxLng
}
