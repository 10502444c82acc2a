package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestWeightedAverageCost(t *testing.T) {
	tests := []struct {
		name                                        string
		existingQty, existingCost, addQty, addPrice string
		want                                        string
	}{
		{"blend equal quantities", "10", "2", "10", "4", "3"},
		{"blend unequal", "30", "1.50", "10", "2.30", "1.7"},
		{"empty stock takes incoming price", "0", "9.99", "5", "3.25", "3.25"},
		{"negative stock takes incoming price", "-4", "9.99", "5", "3.25", "3.25"},
		{"nothing received keeps cost", "10", "2", "0", "100", "2"},
		{"rounds to four places", "3", "1", "1", "2", "1.25"},
		{"repeating fraction", "1", "1", "2", "1.5", "1.3333"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeightedAverageCost(d(tt.existingQty), d(tt.existingCost), d(tt.addQty), d(tt.addPrice))
			assert.True(t, d(tt.want).Equal(got), "want %s got %s", tt.want, got)
		})
	}
}
