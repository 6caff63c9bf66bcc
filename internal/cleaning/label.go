package cleaning

import "strings"

// AdoptionLabel maps a categorical outcome type to the binary training label.
// The label is 1 only when the trimmed, case-insensitive outcome type equals
// "adoption"; every other value ("Transfer", "Euthanasia", "Return to Owner",
// "Died", ...) maps to 0. Records with a missing outcome type are excluded
// upstream and never reach this function.
func AdoptionLabel(outcomeType string) int {
	if strings.EqualFold(strings.TrimSpace(outcomeType), "adoption") {
		return 1
	}
	return 0
}
