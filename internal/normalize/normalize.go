// Package normalize converts raw spreadsheet cell text into numeric values
// with reliability flags. Statistical agencies annotate cells with suppression
// markers, low-sample parentheses, error margins and thousands separators;
// this package maps each notation to a (value, reliability) pair.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// Reliability classifies how trustworthy a normalized value is.
type Reliability string

const (
	// Normal is a value parsed without statistical annotation.
	Normal Reliability = "normal"

	// LowReliability marks a value published in parentheses, denoting a
	// small or marginal sample. Parentheses never denote a negative value
	// in these sources.
	LowReliability Reliability = "low_reliability"

	// Suppressed marks a cell the source explicitly withheld. The value is
	// nil, never zero.
	Suppressed Reliability = "suppressed"

	// NonNumeric marks a blank cell, a footnote symbol, or anything no
	// rule matched.
	NonNumeric Reliability = "non_numeric"
)

// Result is the outcome of normalizing one cell.
type Result struct {
	// Value is nil for suppressed and non-numeric cells.
	Value       *float64
	Reliability Reliability
}

// suppressionMarker is the exact token the source uses for withheld cells.
const suppressionMarker = ".."

var (
	parenRe  = regexp.MustCompile(`^\(([0-9][0-9,]*(?:\.[0-9]+)?)\)$`)
	marginRe = regexp.MustCompile(`^([0-9][0-9,]*(?:\.[0-9]+)?)\s*±\s*[0-9][0-9,]*(?:\.[0-9]+)?$`)
	numberRe = regexp.MustCompile(`^[0-9][0-9,]*(?:\.[0-9]+)?$`)
)

// Normalize maps raw cell text to a value and reliability flag.
//
// Rules apply in fixed precedence because later patterns can be substrings
// of earlier ones:
//
//  1. exact suppression marker ".."  -> (nil, suppressed)
//  2. parenthesized number "(42.3)"  -> (42.3, low_reliability)
//  3. error margin "5.8±0.3"         -> (5.8, normal), margin discarded
//  4. thousands separators "1,234.5" -> (1234.5, normal)
//  5. plain numeric text             -> parsed directly
//  6. anything else                  -> (nil, non_numeric)
func Normalize(raw string) Result {
	s := strings.TrimSpace(raw)

	if s == suppressionMarker {
		return Result{Reliability: Suppressed}
	}

	if m := parenRe.FindStringSubmatch(s); m != nil {
		if v, ok := parseNumber(m[1]); ok {
			return Result{Value: &v, Reliability: LowReliability}
		}
		return Result{Reliability: NonNumeric}
	}

	if m := marginRe.FindStringSubmatch(s); m != nil {
		if v, ok := parseNumber(m[1]); ok {
			return Result{Value: &v, Reliability: Normal}
		}
		return Result{Reliability: NonNumeric}
	}

	// Rules 4 and 5 share a parse: separator stripping is a no-op for
	// plain numbers.
	if numberRe.MatchString(s) {
		if v, ok := parseNumber(s); ok {
			return Result{Value: &v, Reliability: Normal}
		}
	}

	return Result{Reliability: NonNumeric}
}

// parseNumber parses a numeric token after stripping thousands separators.
// Negative values are rejected: expenditure values are null or >= 0, and the
// only parenthesized notation in these sources means low reliability, not
// negation.
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
