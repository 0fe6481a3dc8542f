// Package geocode turns coordinates into a city/region pair through an
// external reverse-geocoding provider.
package geocode

import (
	"context"
	"strings"
)

// Address is the provider's structured address breakdown, e.g.
// {"city": "Dallas", "state": "Texas", "postcode": "75201"}.
type Address map[string]string

// Locator is the external locality-resolution capability.
type Locator interface {
	Reverse(ctx context.Context, lat, lon float64) (Address, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context, lat, lon float64) (Address, error)

func (f LocatorFunc) Reverse(ctx context.Context, lat, lon float64) (Address, error) {
	return f(ctx, lat, lon)
}

// first non-empty wins
var cityKeys = []string{"city", "town", "village", "hamlet", "municipality", "county"}

var regionKeys = []string{"state", "province"}

// LocalityOf picks city and region out of an address breakdown.
func LocalityOf(a Address) (city, region string) {
	return pick(a, cityKeys), pick(a, regionKeys)
}

func pick(a Address, keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(a[k]); v != "" {
			return v
		}
	}
	return ""
}
