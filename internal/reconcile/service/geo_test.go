package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCitiesMatch(t *testing.T) {
	assert.True(t, CitiesMatch("Dallas", " dallas "))
	assert.True(t, CitiesMatch("Saint Louis", "St Louis"))
	assert.True(t, CitiesMatch("Mount Vernon", "Mt Vernon"))
	assert.True(t, CitiesMatch("North Richland Hills", "N Richland Hills"))
	assert.False(t, CitiesMatch("Dallas", "Austin"))
	assert.False(t, CitiesMatch("", ""))
	assert.False(t, CitiesMatch("Dallas", ""))
}

func TestStatesMatch(t *testing.T) {
	assert.True(t, StatesMatch("Texas", "TX"))
	assert.True(t, StatesMatch("tx", "TX"))
	assert.True(t, StatesMatch("New York", "ny"))
	assert.True(t, StatesMatch("Ontario", "ontario"))
	assert.False(t, StatesMatch("CA", "NV"))
	assert.False(t, StatesMatch("", "TX"))
}

func TestZipCodesMatch(t *testing.T) {
	assert.True(t, ZipCodesMatch("75201-1234", "75201"))
	assert.True(t, ZipCodesMatch(" 75201", "752019999"))
	assert.False(t, ZipCodesMatch("75201", "75202"))
	assert.False(t, ZipCodesMatch("", ""))
	assert.False(t, ZipCodesMatch("ABCDE", "ABCDE"))
}

func TestStreetAddress(t *testing.T) {
	assert.Equal(t, "123 Main St", ExtractStreetAddress("123 Main St, Dallas, TX, 75201"))
	assert.Equal(t, "123 Main St", ExtractStreetAddress("123 Main St, Dallas, TX 75201"))
	assert.Equal(t, "456 Elm Ave", ExtractStreetAddress(" 456 Elm Ave "))
	assert.Equal(t, "", ExtractStreetAddress(""))

	assert.Equal(t, 1.0, StreetAddressSimilarity("123 Main St, Dallas, TX", "123 main st."))
	assert.Equal(t, 0.0, StreetAddressSimilarity("", "123 Main St"))
	assert.Less(t, StreetAddressSimilarity("123 Main St", "9 Oak Blvd"), 0.5)
}
