package purchasing

import (
	"testing"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPurchaseOrder(t *testing.T, items ...ItemInput) *PurchaseOrder {
	t.Helper()
	po, err := NewPurchaseOrder(uuid.New(), shared.NewLocationID(uuid.New()), "PO-20260101-0001", nil, "Fresh Farms")
	require.NoError(t, err)
	if len(items) > 0 {
		require.NoError(t, po.SetItems(items))
	}
	return po
}

func input(name, qty, price string) ItemInput {
	id := uuid.New()
	return ItemInput{InventoryItemID: &id, Name: name, Unit: "kg", Quantity: dec(qty), UnitPrice: dec(price)}
}

func TestNewPurchaseOrder(t *testing.T) {
	po := createTestPurchaseOrder(t)
	assert.Equal(t, OrderStatusDraft, po.Status)
	assert.True(t, po.Total.IsZero())
	require.Len(t, po.GetDomainEvents(), 1)

	_, err := NewPurchaseOrder(uuid.New(), "main", "PO-1", nil, "")
	assert.ErrorIs(t, err, shared.ErrInvalidLocationID)
}

func TestPurchaseOrder_SetItems(t *testing.T) {
	po := createTestPurchaseOrder(t, input("Flour", "10", "1.20"), input("Sugar", "5", "2"))
	assert.True(t, dec("22").Equal(po.Subtotal))

	require.NoError(t, po.SetShippingFee(dec("3.5")))
	assert.True(t, dec("25.5").Equal(po.Total))

	dup := input("Salt", "1", "1")
	err := po.SetItems([]ItemInput{dup, dup})
	assert.Equal(t, "DUPLICATE_ITEM", shared.ErrorCode(err))

	err = po.SetItems([]ItemInput{input("Salt", "0", "1")})
	assert.Equal(t, "INVALID_QUANTITY", shared.ErrorCode(err))
	assert.Len(t, po.Items, 2)
}

func TestPurchaseOrder_StatusTransitions(t *testing.T) {
	po := createTestPurchaseOrder(t)
	assert.Equal(t, "EMPTY_ORDER", shared.ErrorCode(po.Submit()))

	require.NoError(t, po.SetItems([]ItemInput{input("Flour", "1", "1")}))
	require.NoError(t, po.Submit())
	assert.Equal(t, OrderStatusOrdered, po.Status)
	assert.NotNil(t, po.OrderedAt)

	assert.Error(t, po.SetItems(nil))
	assert.Error(t, po.Submit())

	require.NoError(t, po.Cancel("supplier out of stock"))
	assert.Equal(t, OrderStatusCancelled, po.Status)
	assert.Error(t, po.Cancel("again"))

	_, err := po.Deliver(DeliveryInput{})
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestPurchaseOrder_DeliverDistributesShipping(t *testing.T) {
	flour := input("Flour", "10", "2")
	sugar := input("Sugar", "20", "4")
	po := createTestPurchaseOrder(t, flour, sugar)
	require.NoError(t, po.SetShippingFee(dec("10")))
	require.NoError(t, po.Submit())
	po.ClearDomainEvents()

	lines, err := po.Deliver(DeliveryInput{})
	require.NoError(t, err)
	require.Len(t, lines, 2)

	// subtotals 20 and 80: shipping 2 and 8
	assert.True(t, dec("2").Equal(po.Items[0].AllocatedShipping))
	assert.True(t, dec("8").Equal(po.Items[1].AllocatedShipping))
	assert.True(t, dec("2.2").Equal(lines[0].EffectiveUnitCost))
	assert.True(t, dec("4.4").Equal(lines[1].EffectiveUnitCost))
	assert.Equal(t, flour.InventoryItemID, lines[0].InventoryItemID)

	assert.Equal(t, OrderStatusDelivered, po.Status)
	assert.NotNil(t, po.DeliveredAt)
	assert.True(t, dec("110").Equal(po.Total))
	require.Len(t, po.GetDomainEvents(), 1)
	assert.Equal(t, EventTypePurchaseOrderDelivered, po.GetDomainEvents()[0].EventType())

	_, err = po.Deliver(DeliveryInput{})
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestPurchaseOrder_DeliverPartialQuantities(t *testing.T) {
	po := createTestPurchaseOrder(t, input("Flour", "10", "2"), input("Sugar", "20", "4"), input("Yeast", "1", "5"))
	fee := dec("6")

	lines, err := po.Deliver(DeliveryInput{
		Received: map[uuid.UUID]decimal.Decimal{
			po.Items[1].ID: dec("5"),
			po.Items[2].ID: decimal.Zero,
		},
		ShippingFee: &fee,
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)

	// received subtotals 20 and 20: shipping 3 each
	assert.True(t, dec("3").Equal(po.Items[0].AllocatedShipping))
	assert.True(t, dec("3").Equal(po.Items[1].AllocatedShipping))
	assert.True(t, po.Items[2].AllocatedShipping.IsZero())
	assert.True(t, dec("2.3").Equal(lines[0].EffectiveUnitCost))
	assert.True(t, dec("4.6").Equal(lines[1].EffectiveUnitCost))
	assert.True(t, dec("5").Equal(po.Items[1].ReceivedQuantity))
	assert.True(t, dec("46").Equal(po.Total))
}

func TestPurchaseOrder_DeliverValidation(t *testing.T) {
	po := createTestPurchaseOrder(t, input("Flour", "10", "2"))

	_, err := po.Deliver(DeliveryInput{Received: map[uuid.UUID]decimal.Decimal{po.Items[0].ID: dec("-1")}})
	assert.Equal(t, "INVALID_QUANTITY", shared.ErrorCode(err))

	_, err = po.Deliver(DeliveryInput{Received: map[uuid.UUID]decimal.Decimal{po.Items[0].ID: decimal.Zero}})
	assert.Equal(t, "NOTHING_RECEIVED", shared.ErrorCode(err))

	neg := dec("-1")
	_, err = po.Deliver(DeliveryInput{ShippingFee: &neg})
	assert.Equal(t, "INVALID_SHIPPING_FEE", shared.ErrorCode(err))
	assert.Equal(t, OrderStatusDraft, po.Status)
}

func TestPurchaseOrder_LinkAndUnlinkInventory(t *testing.T) {
	po := createTestPurchaseOrder(t, ItemInput{Name: "Basil", Quantity: dec("1"), UnitPrice: dec("3")})
	assert.Nil(t, po.Items[0].InventoryItemID)

	itemID := uuid.New()
	po.LinkInventoryItem(po.Items[0].ID, itemID)
	require.NotNil(t, po.Items[0].InventoryItemID)
	assert.Equal(t, itemID, *po.Items[0].InventoryItemID)

	assert.True(t, po.UnlinkInventoryItem(itemID))
	assert.Nil(t, po.Items[0].InventoryItemID)
	assert.False(t, po.UnlinkInventoryItem(itemID))
}

func TestNewSupplier(t *testing.T) {
	s, err := NewSupplier(uuid.New(), SupplierDetails{Name: " Fresh Farms ", Email: "Sales@Fresh.io"})
	require.NoError(t, err)
	assert.Equal(t, "Fresh Farms", s.Name)
	assert.Equal(t, "sales@fresh.io", s.Email)
	assert.True(t, s.Active)

	_, err = NewSupplier(uuid.New(), SupplierDetails{Name: ""})
	assert.Error(t, err)
	_, err = NewSupplier(uuid.New(), SupplierDetails{Name: "X", Email: "nope"})
	assert.Error(t, err)
}
