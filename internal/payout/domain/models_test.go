package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name  string
		in    any
		want  string
		valid bool
	}{
		{"float", 1250.75, "1250.75", true},
		{"int", 40, "40", true},
		{"plain string", "99.10", "99.1", true},
		{"currency and separators", "$1,234.50", "1234.5", true},
		{"euro with space", "€ 12", "12", true},
		{"negative", "-15.25", "-15.25", true},
		{"json number", json.Number("7.5"), "7.5", true},
		{"blank", "  ", "0", true},
		{"nil", nil, "0", true},
		{"words", "n/a", "0", false},
		{"bool", true, "0", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseAmount(tc.in)
			assert.Equal(t, tc.valid, ok)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s", got)
		})
	}
}

func TestCommission(t *testing.T) {
	got := Commission(decimal.RequireFromString("1200.50"), decimal.NewFromInt(10))
	assert.True(t, got.Equal(decimal.RequireFromString("120.05")))

	got = Commission(decimal.RequireFromString("33.33"), decimal.RequireFromString("12.5"))
	assert.Equal(t, "4.1663", got.StringFixed(4))
}
