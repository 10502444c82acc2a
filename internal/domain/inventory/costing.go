package inventory

import "github.com/shopspring/decimal"

// CostPrecision is the number of decimal places kept for unit costs
const CostPrecision = 4

// WeightedAverageCost blends the value of existing stock with newly received stock:
//
//	newCost = (existingQty*existingCost + addedQty*addedUnitCost) / (existingQty + addedQty)
//
// Stock at or below zero carries no value, so the incoming cost replaces it.
// Nothing received leaves the cost unchanged.
func WeightedAverageCost(existingQty, existingCost, addedQty, addedUnitCost decimal.Decimal) decimal.Decimal {
	if addedQty.LessThanOrEqual(decimal.Zero) {
		return existingCost
	}
	if existingQty.LessThanOrEqual(decimal.Zero) {
		return addedUnitCost.Round(CostPrecision)
	}
	totalValue := existingQty.Mul(existingCost).Add(addedQty.Mul(addedUnitCost))
	totalQty := existingQty.Add(addedQty)
	return totalValue.Div(totalQty).Round(CostPrecision)
}
