package geocode

import (
	"context"
	"fmt"

	"merchant-recon/internal/reconcile/model"
	"merchant-recon/internal/utils"
)

// Columns appended by Annotate.
const (
	ColCorrectedCity  = "corrected_city"
	ColCorrectedState = "corrected_state"
)

var (
	latColumns = []string{"latitude", "lat", "Latitude", "LATITUDE"}
	lonColumns = []string{"longitude", "lon", "lng", "Lng", "Longitude", "LONGITUDE", "LNG"}
)

// Resolver is satisfied by *Cache.
type Resolver interface {
	Resolve(ctx context.Context, lat, lon float64) (city, region string)
}

// DetectCoordinateColumns finds the latitude and longitude headers.
func DetectCoordinateColumns(headers []string) (latKey, lonKey string, err error) {
	latKey, lonKey = findColumn(headers, latColumns), findColumn(headers, lonColumns)
	if latKey == "" || lonKey == "" {
		return "", "", fmt.Errorf("%w: need one of %v and one of %v", model.ErrNoCoordinates, latColumns, lonColumns)
	}
	return latKey, lonKey, nil
}

func findColumn(headers, candidates []string) string {
	for _, c := range candidates {
		for _, h := range headers {
			if h == c {
				return h
			}
		}
	}
	return ""
}

// Annotate sets corrected_city and corrected_state on every row. Rows with
// missing or unparsable coordinates get empty values. progress, if set, is
// called after each row. On cancellation rows may be partially annotated.
func Annotate(ctx context.Context, headers []string, rows []map[string]string, r Resolver, progress func(done, total int)) (latKey, lonKey string, err error) {
	latKey, lonKey, err = DetectCoordinateColumns(headers)
	if err != nil {
		return "", "", err
	}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return latKey, lonKey, err
		}
		city, region := "", ""
		lat, okLat := utils.ParseFloat(row[latKey])
		lon, okLon := utils.ParseFloat(row[lonKey])
		if okLat && okLon {
			city, region = r.Resolve(ctx, lat, lon)
		}
		row[ColCorrectedCity] = city
		row[ColCorrectedState] = region
		if progress != nil {
			progress(i+1, len(rows))
		}
	}
	return latKey, lonKey, nil
}
