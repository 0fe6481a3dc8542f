package service

// Signals are the per-pair inputs of the confidence score.
type Signals struct {
	DistanceMiles float64
	NameSim       float64
	StreetSim     float64
	CityMatch     bool
	StateMatch    bool
	ZipMatch      bool
	IgnoreName    bool
	IgnoreCity    bool
	IgnoreState   bool
	IgnoreZip     bool
}

var distanceBands = []struct {
	maxMiles float64
	score    float64
}{
	{0.01, 1.0},
	{0.03, 0.95},
	{0.05, 0.85},
	{0.1, 0.7},
	{0.2, 0.5},
	{0.5, 0.3},
}

const farScore = 0.1

const (
	cityBonus  = 0.05
	stateBonus = 0.05
	zipBonus   = 0.02

	farCap       = 0.4 // coordinate score below 0.5
	farCapBelow  = 0.5
	nearCap      = 0.6 // coordinate score below 0.7
	nearCapBelow = 0.7
)

// CoordinateScore maps a distance in miles onto the fixed score bands.
func CoordinateScore(miles float64) float64 {
	for _, b := range distanceBands {
		if miles <= b.maxMiles {
			return b.score
		}
	}
	return farScore
}

// Score combines distance, name, street and geography into one confidence in
// [0,1]. Distance dominates: pairs more than 0.1 mi apart are capped no matter
// how well the other signals agree.
func Score(s Signals) float64 {
	coord := CoordinateScore(s.DistanceMiles)

	name := s.NameSim
	if s.IgnoreName {
		name = 1.0
	}

	usingStreet := s.IgnoreCity || s.IgnoreState || s.IgnoreZip
	street := 0.0
	if usingStreet && s.StreetSim > 0 {
		street = s.StreetSim
	}

	var conf float64
	switch {
	case s.IgnoreName && usingStreet:
		conf = coord*0.7 + street*0.3
	case s.IgnoreName:
		conf = coord
	case usingStreet:
		conf = coord*0.5 + name*0.3 + street*0.2
	default:
		conf = coord*0.6 + name*0.4
	}

	if !s.IgnoreCity && s.CityMatch {
		conf += cityBonus
	}
	if !s.IgnoreState && s.StateMatch {
		conf += stateBonus
	}
	if !s.IgnoreZip && s.ZipMatch {
		conf += zipBonus
	}
	conf = min(conf, 1.0)

	switch {
	case coord < farCapBelow:
		conf = min(conf, farCap)
	case coord < nearCapBelow:
		conf = min(conf, nearCap)
	}
	return max(conf, 0)
}
