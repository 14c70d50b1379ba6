package utils

import (
	"strconv"
	"strings"
)

// IntRange describes a numeric query parameter: the value used when it is
// absent or malformed, and the inclusive bounds it is clamped to. Max 0
// leaves the upper end open.
type IntRange struct {
	Def, Min, Max int
}

// Parse reads s within the range.
func (r IntRange) Parse(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		n = r.Def
	}
	if n < r.Min {
		n = r.Min
	}
	if r.Max > 0 && n > r.Max {
		n = r.Max
	}
	return n
}
