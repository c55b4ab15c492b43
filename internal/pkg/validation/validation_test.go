package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"0", true},
		{"1000", true},
		{"123456789012345678901234567", true},
		{"1.0", true},
		{"1.5", false},
		{"-1", false},
		{"", false},
		{"abc", false},
	}
	for _, tc := range cases {
		_, got := ParseAmount(tc.in)
		assert.Equal(t, tc.ok, got, "input %q", tc.in)
	}
	d, ok := ParseAmount("123456789012345678901234567")
	assert.True(t, ok)
	assert.Equal(t, "123456789012345678901234567", d.String())
}

func TestIsValidComplianceHash(t *testing.T) {
	assert.True(t, IsValidComplianceHash(strings.Repeat("a1", 32)))
	assert.True(t, IsValidComplianceHash(strings.Repeat("A1", 32)))
	assert.False(t, IsValidComplianceHash(strings.Repeat("a1", 31)))
	assert.False(t, IsValidComplianceHash(strings.Repeat("zz", 32)))
}

func TestIsValidCountry(t *testing.T) {
	assert.True(t, IsValidCountry("us"))
	assert.True(t, IsValidCountry("GB"))
	assert.False(t, IsValidCountry("USA"))
	assert.False(t, IsValidCountry("1A"))
}

func TestIsValidPassword(t *testing.T) {
	assert.True(t, IsValidPassword("hunter2!x"))
	assert.False(t, IsValidPassword("short1!"))
	assert.False(t, IsValidPassword("nodigits!!"))
}
