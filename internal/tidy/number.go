package tidy

import (
	"regexp"
	"strconv"
	"strings"
)

// ParseState records how a text field converted to a number.
type ParseState int

const (
	// Missing means the field was empty, whitespace or "NA".
	Missing ParseState = iota
	// Parsed means a number was found and converted.
	Parsed
	// Malformed means the field had content but no number in it.
	Malformed
)

func (s ParseState) String() string {
	switch s {
	case Parsed:
		return "parsed"
	case Malformed:
		return "malformed"
	default:
		return "missing"
	}
}

// Number is the result of parsing a text field. Value is only meaningful
// when State is Parsed.
type Number struct {
	Value float64
	State ParseState
	Raw   string
}

// numberRe finds the first number in a field: optional minus, digits with
// optional grouping commas, optional fraction.
var numberRe = regexp.MustCompile(`-?(?:\d[\d,]*(?:\.\d*)?|\.\d+)`)

// ParseNumber extracts the first number in s, ignoring surrounding text such
// as units or a trailing "+". It never fails: see Number.State.
func ParseNumber(s string) Number {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || trimmed == "NA" {
		return Number{State: Missing, Raw: s}
	}
	m := numberRe.FindString(trimmed)
	if m == "" {
		return Number{State: Malformed, Raw: s}
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return Number{State: Malformed, Raw: s}
	}
	return Number{Value: v, State: Parsed, Raw: s}
}

// Valid reports whether the number parsed.
func (n Number) Valid() bool { return n.State == Parsed }

// OrZero returns the value, or 0 when the number did not parse.
func (n Number) OrZero() float64 {
	if n.State != Parsed {
		return 0
	}
	return n.Value
}

func (n Number) String() string {
	if n.State != Parsed {
		return "NA"
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}
