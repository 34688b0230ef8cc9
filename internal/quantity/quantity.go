// Package quantity reads numeric form input the same way for every widget.
package quantity

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Clamp parses raw as a number and clamps it into [1, maxCount]. Fractions
// are truncated; anything that is not a number yields 1.
func Clamp(raw string, maxCount int) int {
	if maxCount < 1 {
		maxCount = 1
	}
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return max(1, min(n, maxCount))
	}
	f, err := strconv.ParseFloat(raw, 64)
	if (err != nil && !errors.Is(err, strconv.ErrRange)) || math.IsNaN(f) {
		return 1
	}
	f = math.Trunc(f)
	if f < 1 {
		return 1
	}
	if f >= float64(maxCount) {
		return maxCount
	}
	return int(f)
}

// AtLeastOne is Clamp without an upper bound.
func AtLeastOne(raw string) int {
	return Clamp(raw, math.MaxInt)
}
