package util

import "strconv"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageSize parses a size query value. Missing, malformed and out of range
// values fall back to DefaultPageSize.
func PageSize(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > MaxPageSize {
		return DefaultPageSize
	}
	return n
}
