package resultset

import (
	"errors"
	"strconv"
	"strings"
)

// Coerce converts a raw cell according to a column type tag. Null cells
// yield nil for every tag; unknown tags return the text unchanged.
// Coerce has no side effects.
func Coerce(typeTag string, cell *string) (any, error) {
	if cell == nil {
		return nil, nil
	}
	switch typeTag {
	case TypeInt32, TypeInt64:
		v, ok := parseIntPrefix(*cell)
		if !ok {
			return nil, &ConversionError{Type: typeTag, Text: *cell}
		}
		return v, nil
	case TypeFloat32, TypeFloat64:
		v, ok := parseFloatPrefix(*cell)
		if !ok {
			return nil, &ConversionError{Type: typeTag, Text: *cell}
		}
		return v, nil
	case TypeBoolean:
		return parseBool(*cell), nil
	default:
		return *cell, nil
	}
}

const spaces = " \t\n\v\f\r"

// parseIntPrefix reads a base-10 integer from the start of s, skipping
// leading whitespace and ignoring anything after the digits ("12px" is 12).
func parseIntPrefix(s string) (int64, bool) {
	s = strings.TrimLeft(s, spaces)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	// Out of range values saturate, as floats overflow to infinity.
	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return v, true
}

// parseFloatPrefix reads the longest decimal floating point literal at the
// start of s, skipping leading whitespace.
func parseFloatPrefix(s string) (float64, bool) {
	s = strings.TrimLeft(s, spaces)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	if strings.HasPrefix(s[end:], "Infinity") {
		v, err := strconv.ParseFloat(s[:end]+"Inf", 64)
		return v, err == nil
	}
	mantissa := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		mantissa++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
			mantissa++
		}
	}
	if mantissa == 0 {
		return 0, false
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		start := exp
		for exp < len(s) && s[exp] >= '0' && s[exp] <= '9' {
			exp++
		}
		if exp > start {
			end = exp
		}
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		// out of range values still carry a usable ±Inf from ParseFloat
		if errors.Is(err, strconv.ErrRange) {
			return v, true
		}
		return 0, false
	}
	return v, true
}

func parseBool(s string) bool {
	return strings.ToLower(s) == "true"
}
