package purchasing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(subtotal, units string) AllocationLine {
	return AllocationLine{Subtotal: dec(subtotal), Units: dec(units)}
}

func sum(ds []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, d := range ds {
		total = total.Add(d)
	}
	return total
}

func TestAllocateShipping_Proportional(t *testing.T) {
	shares := AllocateShipping(dec("30"), []AllocationLine{
		line("100", "10"),
		line("200", "4"),
	})
	require.Len(t, shares, 2)
	assert.True(t, dec("10").Equal(shares[0]))
	assert.True(t, dec("20").Equal(shares[1]))
}

func TestAllocateShipping_RemainderOnLastLine(t *testing.T) {
	shares := AllocateShipping(dec("10"), []AllocationLine{
		line("1", "1"),
		line("1", "1"),
		line("1", "1"),
	})
	assert.True(t, dec("3.33").Equal(shares[0]))
	assert.True(t, dec("3.33").Equal(shares[1]))
	assert.True(t, dec("3.34").Equal(shares[2]))
	assert.True(t, dec("10").Equal(sum(shares)))
}

func TestAllocateShipping_SkipsUndeliveredLines(t *testing.T) {
	shares := AllocateShipping(dec("12"), []AllocationLine{
		line("50", "5"),
		line("0", "0"),
		line("25", "5"),
		line("40", "0"),
	})
	assert.True(t, dec("8").Equal(shares[0]))
	assert.True(t, shares[1].IsZero())
	assert.True(t, dec("4").Equal(shares[2]))
	assert.True(t, shares[3].IsZero())
}

func TestAllocateShipping_ZeroSubtotalsSplitByUnits(t *testing.T) {
	shares := AllocateShipping(dec("9"), []AllocationLine{
		line("0", "1"),
		line("0", "2"),
	})
	assert.True(t, dec("3").Equal(shares[0]))
	assert.True(t, dec("6").Equal(shares[1]))
}

func TestAllocateShipping_NoFeeOrNoEligibleLine(t *testing.T) {
	for _, s := range AllocateShipping(decimal.Zero, []AllocationLine{line("10", "1")}) {
		assert.True(t, s.IsZero())
	}
	for _, s := range AllocateShipping(dec("5"), []AllocationLine{line("10", "0")}) {
		assert.True(t, s.IsZero())
	}
	assert.Empty(t, AllocateShipping(dec("5"), nil))
}

func TestEffectiveUnitPrice(t *testing.T) {
	assert.True(t, dec("11").Equal(EffectiveUnitPrice(dec("10"), dec("10"), dec("10"))))
	assert.True(t, dec("2.3333").Equal(EffectiveUnitPrice(dec("2"), dec("1"), dec("3"))))
	assert.True(t, dec("2").Equal(EffectiveUnitPrice(dec("2"), dec("1"), decimal.Zero)))
}
