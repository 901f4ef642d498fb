package geo

import "math"

const earthRadiusMiles = 3959.0

// HaversineMiles returns the great-circle distance in miles between two
// points given in decimal degrees.
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * c
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
