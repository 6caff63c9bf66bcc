package cleaning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdoptionLabel(t *testing.T) {
	tests := []struct {
		outcomeType string
		expected    int
	}{
		{"Adoption", 1},
		{"ADOPTION", 1},
		{"adoption", 1},
		{"  Adoption  ", 1},
		{"Transfer", 0},
		{"Euthanasia", 0},
		{"Return to Owner", 0},
		{"Died", 0},
		{"Rto-Adopt", 0},
		{"Missing", 0},
	}

	for _, tc := range tests {
		t.Run(tc.outcomeType, func(t *testing.T) {
			label := AdoptionLabel(tc.outcomeType)
			assert.Equal(t, tc.expected, label)
			assert.Contains(t, []int{0, 1}, label)
		})
	}
}
