package tidy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in    string
		state ParseState
		value float64
	}{
		{"5", Parsed, 5},
		{" 10 ", Parsed, 10},
		{"5+", Parsed, 5},
		{"2.5", Parsed, 2.5},
		{"1,250", Parsed, 1250},
		{"-3", Parsed, -3},
		{"approx. 40 bears", Parsed, 40},
		{"", Missing, 0},
		{"   ", Missing, 0},
		{"NA", Missing, 0},
		{"adult", Malformed, 0},
		{"+", Malformed, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n := ParseNumber(tt.in)
			assert.Equal(t, tt.state, n.State)
			assert.Equal(t, tt.in, n.Raw)
			if tt.state == Parsed {
				assert.InDelta(t, tt.value, n.Value, 1e-9)
			}
		})
	}
}

func TestNumber_OrZero(t *testing.T) {
	assert.Equal(t, 7.0, ParseNumber("7").OrZero())
	assert.Equal(t, 0.0, ParseNumber("").OrZero())
	assert.Equal(t, 0.0, ParseNumber("unknown").OrZero())
}

func TestNumber_String(t *testing.T) {
	assert.Equal(t, "12.5", ParseNumber("12.5").String())
	assert.Equal(t, "NA", ParseNumber("").String())
	assert.Equal(t, "NA", ParseNumber("cub").String())
	assert.Equal(t, "malformed", Malformed.String())
}
