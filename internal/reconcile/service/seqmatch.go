package service

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// sequenceRatio is the Ratcliff/Obershelp similarity 2*M/T over the
// characters of a and b. Two empty strings are identical.
func sequenceRatio(a, b string) float64 {
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}
