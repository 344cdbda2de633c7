package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCartAddItemMergesLines(t *testing.T) {
	cart := Cart{}
	cart.AddItem(1, 2, 10)
	cart.AddItem(1, 3, 99) // second add must keep the captured price
	cart.AddItem(2, 1, 5)

	require.Len(t, cart.Items, 2)
	require.Equal(t, uint(5), cart.Items[0].Quantity)
	require.Equal(t, float64(10), cart.Items[0].Price)
	require.Equal(t, uint(1), cart.Items[1].Quantity)

	cart.Recalculate()
	require.Equal(t, uint(6), cart.TotalItems)
	require.Equal(t, float64(55), cart.TotalPrice)
}

func TestCartRecalculateMatchesItems(t *testing.T) {
	cart := Cart{Items: []CartItem{
		{ProductID: 1, Quantity: 2, Price: 10},
		{ProductID: 2, Quantity: 1, Price: 5},
	}}
	cart.Recalculate()

	require.Equal(t, uint(3), cart.TotalItems)
	require.Equal(t, float64(25), cart.TotalPrice)
}

func TestCartUpdateItemQuantity(t *testing.T) {
	cart := Cart{}
	cart.AddItem(1, 2, 10)

	cart.UpdateItemQuantity(1, 7)
	require.Equal(t, uint(7), cart.Items[0].Quantity)

	// Updating a product that is not in the cart changes nothing.
	cart.UpdateItemQuantity(99, 3)
	require.Len(t, cart.Items, 1)
	require.Equal(t, uint(7), cart.Items[0].Quantity)
}

func TestCartRemoveItem(t *testing.T) {
	cart := Cart{}
	cart.AddItem(1, 2, 10)
	cart.AddItem(2, 1, 5)

	cart.RemoveItem(1)
	require.Len(t, cart.Items, 1)
	require.Equal(t, uint(2), cart.Items[0].ProductID)

	cart.RemoveItem(42)
	require.Len(t, cart.Items, 1)
}

func TestCartClear(t *testing.T) {
	cart := Cart{}
	cart.AddItem(1, 2, 10)
	cart.Recalculate()

	cart.Clear()
	require.Empty(t, cart.Items)
	require.Zero(t, cart.TotalItems)
	require.Zero(t, cart.TotalPrice)
}

func TestShippingAddressComplete(t *testing.T) {
	addr := ShippingAddress{Street: "1 Main St", City: "Pune", State: "MH", ZipCode: "411001", Country: "India"}
	require.True(t, addr.Complete())

	addr.ZipCode = ""
	require.False(t, addr.Complete())
}

func TestParseOrderStatus(t *testing.T) {
	s, ok := ParseOrderStatus("Shipped")
	require.True(t, ok)
	require.Equal(t, OrderShipped, s)

	_, ok = ParseOrderStatus("shipped")
	require.False(t, ok)
}

func TestParsePaymentMethod(t *testing.T) {
	m, ok := ParsePaymentMethod("Net Banking")
	require.True(t, ok)
	require.Equal(t, PaymentNetBanking, m)

	_, ok = ParsePaymentMethod("Bitcoin")
	require.False(t, ok)
}
