package service

import "strings"

// Applied in order to both sides before comparing cities.
var cityAbbreviations = []struct{ full, short string }{
	{"saint", "st"},
	{"mount", "mt"},
	{"fort", "ft"},
	{"north", "n"},
	{"south", "s"},
	{"east", "e"},
	{"west", "w"},
}

var stateCodes = map[string]string{
	"ALABAMA": "AL", "ALASKA": "AK", "ARIZONA": "AZ", "ARKANSAS": "AR",
	"CALIFORNIA": "CA", "COLORADO": "CO", "CONNECTICUT": "CT", "DELAWARE": "DE",
	"FLORIDA": "FL", "GEORGIA": "GA", "HAWAII": "HI", "IDAHO": "ID",
	"ILLINOIS": "IL", "INDIANA": "IN", "IOWA": "IA", "KANSAS": "KS",
	"KENTUCKY": "KY", "LOUISIANA": "LA", "MAINE": "ME", "MARYLAND": "MD",
	"MASSACHUSETTS": "MA", "MICHIGAN": "MI", "MINNESOTA": "MN", "MISSISSIPPI": "MS",
	"MISSOURI": "MO", "MONTANA": "MT", "NEBRASKA": "NE", "NEVADA": "NV",
	"NEW HAMPSHIRE": "NH", "NEW JERSEY": "NJ", "NEW MEXICO": "NM", "NEW YORK": "NY",
	"NORTH CAROLINA": "NC", "NORTH DAKOTA": "ND", "OHIO": "OH", "OKLAHOMA": "OK",
	"OREGON": "OR", "PENNSYLVANIA": "PA", "RHODE ISLAND": "RI", "SOUTH CAROLINA": "SC",
	"SOUTH DAKOTA": "SD", "TENNESSEE": "TN", "TEXAS": "TX", "UTAH": "UT",
	"VERMONT": "VT", "VIRGINIA": "VA", "WASHINGTON": "WA", "WEST VIRGINIA": "WV",
	"WISCONSIN": "WI", "WYOMING": "WY",
}

// CitiesMatch compares city names case-insensitively, abbreviating
// directional and saint/mount/fort words first. Empty input never matches.
func CitiesMatch(city1, city2 string) bool {
	c1 := strings.ToLower(strings.TrimSpace(city1))
	c2 := strings.ToLower(strings.TrimSpace(city2))
	if c1 == "" || c2 == "" {
		return false
	}
	if c1 == c2 {
		return true
	}
	for _, ab := range cityAbbreviations {
		c1 = strings.ReplaceAll(c1, ab.full, ab.short)
		c2 = strings.ReplaceAll(c2, ab.full, ab.short)
	}
	return c1 == c2
}

// StatesMatch compares U.S. states by two-letter code; unknown values compare literally.
func StatesMatch(state1, state2 string) bool {
	s1 := strings.ToUpper(strings.TrimSpace(state1))
	s2 := strings.ToUpper(strings.TrimSpace(state2))
	if s1 == "" || s2 == "" {
		return false
	}
	return stateCode(s1) == stateCode(s2)
}

func stateCode(s string) string {
	if code, ok := stateCodes[s]; ok {
		return code
	}
	return s
}

// ZipCodesMatch compares the 5-digit prefix of both values.
func ZipCodesMatch(zip1, zip2 string) bool {
	z1, z2 := zip5(zip1), zip5(zip2)
	return z1 != "" && z1 == z2 && allDigits(z1)
}

func zip5(z string) string {
	r := []rune(strings.TrimSpace(z))
	if len(r) > 5 {
		r = r[:5]
	}
	return string(r)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
