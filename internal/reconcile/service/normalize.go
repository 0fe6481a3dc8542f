package service

import (
	"regexp"
	"strings"
)

// anything that is not a word character or whitespace
var punct = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s]+`)

// Legal-form tokens dropped from business names.
var nameSuffixes = map[string]struct{}{
	"inc": {}, "llc": {}, "corp": {}, "ltd": {}, "co": {},
	"company": {}, "corporation": {}, "limited": {},
}

// Leading articles, stripped in this order.
var namePrefixes = []string{"the", "a"}

// NormalizeName lowercases a business name, turns punctuation into spaces,
// drops legal suffix tokens and strips a leading article.
func NormalizeName(name string) string {
	s := removePunctToSpaces(strings.ToLower(strings.TrimSpace(name)))
	if s == "" {
		return ""
	}
	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if _, drop := nameSuffixes[w]; !drop {
			kept = append(kept, w)
		}
	}
	for _, p := range namePrefixes {
		if len(kept) > 1 && kept[0] == p {
			kept = kept[1:]
		}
	}
	return strings.Join(kept, " ")
}

// normalizeStreet is NormalizeName without the token rules.
func normalizeStreet(s string) string {
	return removePunctToSpaces(strings.ToLower(s))
}

func removePunctToSpaces(s string) string {
	return collapseSpaces(punct.ReplaceAllString(s, " "))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
