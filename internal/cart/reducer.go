package cart

import "github.com/teslo-shop/backend/internal/models"

// Action is a closed set of cart state transitions. The marker method keeps
// the set closed to this package, so Reduce can match exhaustively.
type Action interface {
	isCartAction()
}

// LoadItems replaces the line-item list from storage and marks the state
// hydrated.
type LoadItems struct {
	Items []LineItem
}

// LoadAddress sets the shipping address hydrated from storage.
type LoadAddress struct {
	Address models.ShippingAddress
}

// UpdateAddress sets a new shipping address.
type UpdateAddress struct {
	Address models.ShippingAddress
}

// ReplaceItems replaces the line-item list verbatim. Add/merge logic is
// computed by the caller, not here.
type ReplaceItems struct {
	Items []LineItem
}

// UpdateItemQuantity sets the quantity of the line item matching the merge
// key of Item. No match is silently ignored.
type UpdateItemQuantity struct {
	Item LineItem
}

// RemoveItem drops every line item matching the merge key of Item.
type RemoveItem struct {
	Item LineItem
}

// UpdateSummary overwrites the derived aggregate. The caller is responsible
// for the values being consistent with the item list.
type UpdateSummary struct {
	Summary Summary
}

func (LoadItems) isCartAction()          {}
func (LoadAddress) isCartAction()        {}
func (UpdateAddress) isCartAction()      {}
func (ReplaceItems) isCartAction()       {}
func (UpdateItemQuantity) isCartAction() {}
func (RemoveItem) isCartAction()         {}
func (UpdateSummary) isCartAction()      {}

// Reduce is a pure transition function: it never mutates its input and has
// no failure modes. An unknown action is a no-op.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case LoadItems:
		state.Items = append([]LineItem(nil), a.Items...)
		state.IsLoaded = true

	case LoadAddress:
		addr := a.Address
		state.ShippingAddress = &addr

	case UpdateAddress:
		addr := a.Address
		state.ShippingAddress = &addr

	case ReplaceItems:
		state.Items = append([]LineItem(nil), a.Items...)

	case UpdateItemQuantity:
		items := make([]LineItem, len(state.Items))
		for i, it := range state.Items {
			if it.ProductID == a.Item.ProductID && it.Size == a.Item.Size {
				it.Quantity = a.Item.Quantity
			}
			items[i] = it
		}
		state.Items = items

	case RemoveItem:
		items := make([]LineItem, 0, len(state.Items))
		for _, it := range state.Items {
			if it.ProductID == a.Item.ProductID && it.Size == a.Item.Size {
				continue
			}
			items = append(items, it)
		}
		state.Items = items

	case UpdateSummary:
		state.Summary = a.Summary
	}

	return state
}
