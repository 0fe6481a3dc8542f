package service

import (
	"strings"
	"unicode"
)

// ExtractStreetAddress keeps the street part of a one-line address: a
// trailing zip segment and then a trailing two-letter state segment are
// dropped, and the first remaining comma segment is returned.
func ExtractStreetAddress(address string) string {
	addr := strings.TrimSpace(address)
	if strings.Contains(addr, ",") {
		parts := strings.Split(addr, ",")
		if looksLikeZip(strings.TrimSpace(parts[len(parts)-1])) {
			parts = parts[:len(parts)-1]
		}
		if len(parts) > 1 && looksLikeState(strings.TrimSpace(parts[len(parts)-1])) {
			parts = parts[:len(parts)-1]
		}
		addr = strings.Join(parts, ",")
	}
	first, _, _ := strings.Cut(addr, ",")
	return strings.TrimSpace(first)
}

// 12345 or 12345-6789
func looksLikeZip(s string) bool {
	if len(s) != 5 && len(s) != 10 {
		return false
	}
	return allDigits(strings.ReplaceAll(s, "-", ""))
}

func looksLikeState(s string) bool {
	r := []rune(s)
	return len(r) == 2 && unicode.IsLetter(r[0]) && unicode.IsLetter(r[1])
}

// StreetAddressSimilarity compares only the street components of two addresses.
func StreetAddressSimilarity(addr1, addr2 string) float64 {
	s1 := normalizeStreet(ExtractStreetAddress(addr1))
	s2 := normalizeStreet(ExtractStreetAddress(addr2))
	if s1 == "" || s2 == "" {
		return 0
	}
	return sequenceRatio(s1, s2)
}
