package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectCountryCode(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"+91 98765 43210", "+91"},
		{"+1 202 555 0123", "+1"},
		{"+44 7911 123456", "+44"},
		{"+61 412 345 678", "+61"},
		{"9876543210", "+91"},
		{"12025550123", "+1"},
		{"919876543210", "+91"},
		{"12345", "+91"},
		{"", "+91"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectCountryCode(tt.raw), "raw=%q", tt.raw)
	}
}

func TestNormalizeFormattingInsensitive(t *testing.T) {
	want := "+919876543210"

	variants := []struct {
		raw  string
		code string
	}{
		{"98765 43210", "+91"},
		{"+91-9876543210", ""},
		{"9876543210", ""},
		{"919876543210", ""},
		{"(98765) 43210", "+91"},
	}

	for _, v := range variants {
		assert.Equal(t, want, Normalize(v.raw, v.code), "raw=%q code=%q", v.raw, v.code)
	}
}

func TestNormalizeExplicitCodeWins(t *testing.T) {
	assert.Equal(t, "+447911123456", Normalize("+44 7911 123456", ""))
	assert.Equal(t, "+12025550123", Normalize("1 202 555 0123", ""))
}

func TestNormalizeGarbageStillTotal(t *testing.T) {
	assert.Equal(t, "+91", Normalize("abc", ""))
	assert.Equal(t, "+91", Normalize("", ""))
}
