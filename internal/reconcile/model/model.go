package model

import "math"

// Side identifies which catalog a record came from.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// Mapping tells ingestion which columns carry which field. Every key may list
// alternatives separated by "|" (e.g. "state|territory").
type Mapping struct {
	IDKey      string
	NameKey    string
	AddressKey string
	CityKey    string
	StateKey   string
	ZipKey     string
	LatKey     string
	LonKey     string
	HeaderRow  int // 1-based
}

func DefaultMapping() Mapping {
	return Mapping{
		IDKey:      "id|merchant_id|source_id|merchantid",
		NameKey:    "name|merchant|merchant_name",
		AddressKey: "address1|address|street|street_address",
		CityKey:    "city|town",
		StateKey:   "state|territory|region|province",
		ZipKey:     "zip|zip_code|zipcode|postal_code|postcode",
		LatKey:     "latitude|lat",
		LonKey:     "longitude|lon|lng|long",
		HeaderRow:  1,
	}
}

// MerchantRecord is one physical merchant location as loaded from a catalog.
type MerchantRecord struct {
	SourceRowID string  `json:"sourceRowId"`
	Name        string  `json:"name"`
	Address1    string  `json:"address1"`
	City        string  `json:"city"`
	State       string  `json:"state"`
	Zip         string  `json:"zip"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	HasCoords   bool    `json:"hasCoords"`
}

// ValidCoordinates reports whether lat/lon describe a point on the globe.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Store holds one side's records. It is read-only after construction.
type Store struct {
	side    Side
	records []MerchantRecord
	coords  int
}

// NewStore copies records into a new Store. Records whose coordinates are
// out of range are kept but excluded from matching.
func NewStore(side Side, records []MerchantRecord) *Store {
	s := &Store{side: side, records: make([]MerchantRecord, len(records))}
	copy(s.records, records)
	for i := range s.records {
		r := &s.records[i]
		if r.HasCoords && !ValidCoordinates(r.Latitude, r.Longitude) {
			r.HasCoords = false
		}
		if !r.HasCoords {
			r.Latitude, r.Longitude = 0, 0
			continue
		}
		s.coords++
	}
	return s
}

func (s *Store) Side() Side { return s.side }

func (s *Store) Len() int { return len(s.records) }

// At returns a copy of the i-th record.
func (s *Store) At(i int) MerchantRecord { return s.records[i] }

// WithCoords is the number of records that take part in matching.
func (s *Store) WithCoords() int { return s.coords }
