package cleaning

import (
	"strconv"
	"strings"
)

// Day equivalents for the age units accepted by AgeInDays.
const (
	daysPerYear  = 365
	daysPerMonth = 30
	daysPerWeek  = 7
)

// AgeInDays converts a free-text age description (e.g. "2 years", "3 months",
// "10 weeks") into a day count. The boolean is false when the age is unknown:
// empty input, no digits, or no recognized unit word. Malformed input never
// produces a partial value.
//
// The unit is determined by substring containment tested in the order
// year, month, week, day; the first match wins. Inputs containing more than
// one unit word therefore resolve to the earliest unit in that order, which
// matches the behavior of the warehouse clean view.
func AgeInDays(age string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(age))
	if s == "" {
		return 0, false
	}

	// Extract the first contiguous run of decimal digits.
	start := -1
	end := len(s)
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			end = i
			break
		}
	}
	if start == -1 {
		return 0, false
	}

	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		// Digit runs long enough to overflow int are not real ages.
		return 0, false
	}

	switch {
	case strings.Contains(s, "year"):
		return n * daysPerYear, true
	case strings.Contains(s, "month"):
		return n * daysPerMonth, true
	case strings.Contains(s, "week"):
		return n * daysPerWeek, true
	case strings.Contains(s, "day"):
		return n, true
	}

	// A number without a recognized unit word is not a guessable age.
	return 0, false
}
