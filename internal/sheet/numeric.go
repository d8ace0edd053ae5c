package sheet

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// NumberFormat controls how numeric text is parsed.
type NumberFormat struct {
	// DecimalSeparator; 0 auto-detects per value.
	DecimalSeparator rune
	// ThousandsSeparator; 0 accepts any one of ',' '.' or space that differs from the decimal.
	// Either way the separator must group the integer digits in threes.
	ThousandsSeparator rune
}

// missingTokens are cell texts treated as absent values.
var missingTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// IsMissing reports whether the cell text denotes a missing value.
func IsMissing(s string) bool {
	_, ok := missingTokens[strings.TrimSpace(s)]
	return ok
}

// ParseNumber parses s honoring the decimal and thousands separators.
func ParseNumber(s string, nf NumberFormat) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	// fast path for raw workbook values
	if nf.DecimalSeparator != ',' {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f, finite(f)
		}
	}
	dec := nf.DecimalSeparator
	thou := nf.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos >= 0 && dpos >= 0 {
			if cpos > dpos {
				dec = ','
				thou = '.'
			} else {
				dec = '.'
				thou = ','
			}
		} else if cpos >= 0 {
			dec = ','
		} else {
			dec = '.'
		}
	}
	mant, exp := raw, ""
	if i := strings.IndexAny(raw, "eE"); i >= 0 {
		mant, exp = raw[:i], raw[i:]
	}
	if strings.Count(mant, string(dec)) > 1 {
		return 0, false
	}
	intPart, frac, hasFrac := strings.Cut(mant, string(dec))
	seps := []rune{thou}
	if thou == 0 {
		seps = []rune{',', '.', ' '}
	}
	var err error
	if intPart, err = ungroup(intPart, dec, seps); err != nil {
		return 0, false
	}
	clean := intPart
	if hasFrac {
		clean += "." + frac
	}
	f, perr := strconv.ParseFloat(clean+exp, 64)
	if perr != nil {
		return 0, false
	}
	return f, finite(f)
}

var errGrouping = errors.New("bad digit grouping")

// ungroup strips a thousands separator from the integer part of a number.
// The separator must split the digits into groups of three ("12,345,678");
// anything else, like "1,5" read with a '.' decimal, is rejected.
func ungroup(intPart string, dec rune, seps []rune) (string, error) {
	var sep rune
	for _, c := range seps {
		if c == dec || !strings.ContainsRune(intPart, c) {
			continue
		}
		if sep != 0 {
			return "", errGrouping
		}
		sep = c
	}
	if sep == 0 {
		return intPart, nil
	}
	sign := ""
	digits := intPart
	if digits != "" && (digits[0] == '-' || digits[0] == '+') {
		sign, digits = digits[:1], digits[1:]
	}
	groups := strings.Split(digits, string(sep))
	for i, g := range groups {
		if !allDigits(g) || (i == 0 && (len(g) < 1 || len(g) > 3)) || (i > 0 && len(g) != 3) {
			return "", errGrouping
		}
	}
	return sign + strings.Join(groups, ""), nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// FormatFor maps a config decimal setting ("." | "," | "auto") to a NumberFormat.
func FormatFor(decimal string) NumberFormat {
	switch decimal {
	case ",":
		return NumberFormat{DecimalSeparator: ','}
	case "auto":
		return NumberFormat{}
	default:
		return NumberFormat{DecimalSeparator: '.'}
	}
}
