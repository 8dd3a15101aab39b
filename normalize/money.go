package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberRe  = regexp.MustCompile(`\d+(?:\.\d+)?`)
	kSuffixRe = regexp.MustCompile(`\d\s*k\b`)
)

// Money parses loosely formatted rupee amounts: "7k" -> 7000,
// "2 lakh" -> 200000, "1.2cr" -> 12000000, "12,000" -> 12000.
// Unparseable input yields 0. Suffix precedence is fixed: k, then
// lakh/lac, then cr, then a plain integer.
func Money(raw string) int {
	s := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(raw, ",", "")))
	if s == "" {
		return 0
	}

	switch {
	case kSuffixRe.MatchString(s):
		return scale(numericPrefix(s), 1_000)
	case strings.Contains(s, "lakh") || strings.Contains(s, "lac"):
		return scale(numericPrefix(s), 100_000)
	case strings.Contains(s, "cr"):
		return scale(numericPrefix(s), 10_000_000)
	default:
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0
		}
		return n
	}
}

// scale multiplies and rounds, so "1.2cr" comes out as exactly 12000000.
func scale(val float64, mult int) int {
	return int(math.Round(val * float64(mult)))
}

// numericPrefix extracts the first numeric token as a float, 0 if none.
func numericPrefix(s string) float64 {
	match := numberRe.FindString(s)
	if match == "" {
		return 0
	}
	val, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return val
}
