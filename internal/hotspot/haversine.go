package hotspot

import "math"

// Mean Earth radius in kilometers (IUGG).
const earthRadiusKM = 6371.0088

// haversineKM returns the great-circle distance in kilometers between
// two points given as decimal-degree latitude/longitude pairs.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(a))
}
