package service

import "math"

const (
	earthRadiusMiles = 3959.0
	milesPerDegree   = 69.0
)

// Haversine returns the great-circle distance in miles.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r, lat2r := radians(lat1), radians(lat2)
	dLat := lat2r - lat1r
	dLon := radians(lon2) - radians(lon1)

	sLat, sLon := math.Sin(dLat/2), math.Sin(dLon/2)
	a := sLat*sLat + math.Cos(lat1r)*math.Cos(lat2r)*sLon*sLon
	a = math.Min(1, math.Max(0, a))
	return earthRadiusMiles * 2 * math.Asin(math.Sqrt(a))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// Truncate floors v to precision decimal places (toward negative infinity).
func Truncate(v float64, precision int) float64 {
	m := math.Pow10(precision)
	return math.Floor(v*m) / m
}

// cell is a truncated coordinate pair kept as scaled integers so that map
// keys do not depend on float formatting.
type cell struct{ lat, lon int64 }

func cellOf(lat, lon float64, precision int) cell {
	m := math.Pow10(precision)
	return cell{lat: int64(math.Floor(lat * m)), lon: int64(math.Floor(lon * m))}
}

// BoundingBox is an axis-aligned lat/lon box.
type BoundingBox struct {
	MinLat, MaxLat, MinLon, MaxLon float64
}

// BoundingBoxFor returns the box enclosing a circle of radius miles around
// (lat, lon). Longitude degrees widen with latitude.
func BoundingBoxFor(lat, lon, miles float64) BoundingBox {
	dLat := miles / milesPerDegree
	dLon := miles / (milesPerDegree * math.Cos(radians(lat)))
	if math.IsNaN(dLon) || dLon < 0 {
		dLon = math.Inf(1)
	}
	return BoundingBox{
		MinLat: lat - dLat,
		MaxLat: lat + dLat,
		MinLon: lon - dLon,
		MaxLon: lon + dLon,
	}
}

func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}
