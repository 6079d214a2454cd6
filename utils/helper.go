package utils

import (
	"math"
	"strings"
	"time"
)

func DereferencePtr[T any](ptr *T, defaults ...T) T {
	var defaultValue T
	if len(defaults) > 0 {
		defaultValue = defaults[0]
	}
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

func NewTrue() *bool {
	b := true
	return &b
}

// RoundTo rounds f half-away-from-zero to the given number of decimal places.
func RoundTo(f float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(f*shift) / shift
}

// Percentage of part over whole, rounded to the given places. Zero whole
// yields 0 rather than NaN; partial HR data is the expected common case.
func Percentage(part, whole int, places int) float64 {
	if whole <= 0 {
		return 0
	}
	return RoundTo(float64(part)/float64(whole)*100, places)
}

// YearsBetween returns fractional years from `from` to `to` using the
// 365-day convention the HR reports use.
func YearsBetween(from, to time.Time) float64 {
	if from.IsZero() || to.Before(from) {
		return 0
	}
	return to.Sub(from).Hours() / 24 / 365
}

// EqualFold on trimmed values; HR imports are inconsistent about casing and
// stray whitespace in categorical columns.
func SameCategory(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
