package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslo-shop/backend/internal/models"
)

func item(productID, size string, qty uint, price float64) LineItem {
	return LineItem{
		ProductID: productID,
		Title:     "shirt " + productID,
		Size:      size,
		Quantity:  qty,
		InStock:   10,
		Price:     price,
		Slug:      "shirt-" + productID,
	}
}

func TestReduce_LoadItems_SetsLoaded(t *testing.T) {
	t.Parallel()

	state := Reduce(State{}, LoadItems{Items: []LineItem{item("p1", "M", 1, 50)}})

	assert.True(t, state.IsLoaded)
	require.Len(t, state.Items, 1)
	assert.Equal(t, "p1", state.Items[0].ProductID)
}

func TestReduce_LoadItems_EmptyStillMarksLoaded(t *testing.T) {
	t.Parallel()

	state := Reduce(State{}, LoadItems{})

	assert.True(t, state.IsLoaded)
	assert.Empty(t, state.Items)
}

func TestReduce_UpdateItemQuantity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		update   LineItem
		wantQtys []uint
	}{
		{
			name:     "matching merge key is updated",
			update:   item("p1", "M", 7, 50),
			wantQtys: []uint{7, 2},
		},
		{
			name:     "same id different size is untouched",
			update:   item("p1", "L", 7, 50),
			wantQtys: []uint{1, 7},
		},
		{
			name:     "no match is silently ignored",
			update:   item("p9", "M", 7, 50),
			wantQtys: []uint{1, 2},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			initial := State{Items: []LineItem{
				item("p1", "M", 1, 50),
				item("p1", "L", 2, 50),
			}}

			state := Reduce(initial, UpdateItemQuantity{Item: tt.update})

			require.Len(t, state.Items, 2)
			assert.Equal(t, tt.wantQtys[0], state.Items[0].Quantity)
			assert.Equal(t, tt.wantQtys[1], state.Items[1].Quantity)
			// The input state is never mutated.
			assert.Equal(t, uint(1), initial.Items[0].Quantity)
			assert.Equal(t, uint(2), initial.Items[1].Quantity)
		})
	}
}

func TestReduce_RemoveItem_DropsOnlyMergeKeyMatches(t *testing.T) {
	t.Parallel()

	initial := State{Items: []LineItem{
		item("p1", "M", 1, 50),
		item("p1", "L", 2, 50),
		item("p2", "M", 3, 20),
	}}

	state := Reduce(initial, RemoveItem{Item: item("p1", "M", 1, 50)})

	require.Len(t, state.Items, 2)
	assert.Equal(t, "p1", state.Items[0].ProductID)
	assert.Equal(t, "L", state.Items[0].Size)
	assert.Equal(t, "p2", state.Items[1].ProductID)
	require.Len(t, initial.Items, 3)
}

func TestReduce_UpdateSummary_ReplacesAllFourFields(t *testing.T) {
	t.Parallel()

	initial := State{Summary: Summary{NumberOfItems: 1, Subtotal: 50, Tax: 7.5, Total: 57.5}}
	next := Summary{NumberOfItems: 3, Subtotal: 150, Tax: 22.5, Total: 172.5}

	state := Reduce(initial, UpdateSummary{Summary: next})

	assert.Equal(t, next, state.Summary)
}

func TestReduce_Address(t *testing.T) {
	t.Parallel()

	addr := models.ShippingAddress{FirstName: "Juan", LastName: "Silva", Address: "31-803", City: "Mercedes"}

	loaded := Reduce(State{}, LoadAddress{Address: addr})
	require.NotNil(t, loaded.ShippingAddress)
	assert.Equal(t, addr, *loaded.ShippingAddress)

	updated := Reduce(loaded, UpdateAddress{Address: models.ShippingAddress{FirstName: "Ana"}})
	assert.Equal(t, "Ana", updated.ShippingAddress.FirstName)
}

func TestReduce_UnknownActionIsNoOp(t *testing.T) {
	t.Parallel()

	initial := State{
		IsLoaded: true,
		Items:    []LineItem{item("p1", "M", 1, 50)},
		Summary:  Summary{NumberOfItems: 1, Subtotal: 50, Tax: 7.5, Total: 57.5},
	}

	state := Reduce(initial, nil)

	assert.Equal(t, initial.IsLoaded, state.IsLoaded)
	assert.Equal(t, initial.Items, state.Items)
	assert.Equal(t, initial.Summary, state.Summary)
}
