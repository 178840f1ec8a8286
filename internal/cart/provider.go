package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/teslo-shop/backend/internal/kvstore"
	"github.com/teslo-shop/backend/internal/models"
)

// OrderRequest is the snapshot the provider submits at checkout: copies of
// the line items, the shipping address and the aggregate totals.
type OrderRequest struct {
	Items           []LineItem             `json:"items"`
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
	Summary         Summary                `json:"summary"`
}

// OrderPlacer persists an order on behalf of the authenticated user and
// returns the generated order id.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, userID string, req OrderRequest) (string, error)
}

// Rejection is a structured backend refusal. Checkout surfaces its message
// verbatim; any other error collapses into a generic fallback.
type Rejection struct {
	Message string
}

func (r *Rejection) Error() string { return r.Message }

// CheckoutResult is discriminated on HasError only: Message holds the order
// id on success and a human-readable reason on failure.
type CheckoutResult struct {
	HasError bool   `json:"has_error"`
	Message  string `json:"message"`
}

const genericCheckoutMessage = "something went wrong, try again later"

var addressFieldKeys = []string{
	"firstName", "lastName", "address", "address2",
	"zipCode", "country", "province", "city", "phone",
}

// Provider owns the lifecycle of one session's cart state. All mutations go
// through Reduce; every change of the item list atomically replaces the four
// summary fields and is synced to the session store, except the very first
// sync right after hydration.
type Provider struct {
	store   kvstore.Store
	placer  OrderPlacer
	session string
	taxRate float64

	state     State
	hydrating bool
}

func NewProvider(store kvstore.Store, placer OrderPlacer, session string, taxRate float64) *Provider {
	return &Provider{
		store:   store,
		placer:  placer,
		session: session,
		taxRate: taxRate,
	}
}

// State returns a copy of the current cart state.
func (p *Provider) State() State {
	st := p.state
	st.Items = append([]LineItem(nil), p.state.Items...)
	if p.state.ShippingAddress != nil {
		addr := *p.state.ShippingAddress
		st.ShippingAddress = &addr
	}
	return st
}

// Hydrate loads the persisted item list and shipping address into the state.
// The sync-back to storage is suppressed for the whole hydration pass, so an
// empty initial state can never clobber a previously stored cart.
func (p *Provider) Hydrate(ctx context.Context) error {
	p.hydrating = true
	defer func() { p.hydrating = false }()

	if v, err := p.store.Get(ctx, p.addressKey("firstName")); err == nil && v != "" {
		addr := models.ShippingAddress{FirstName: v}
		addr.LastName, _ = p.store.Get(ctx, p.addressKey("lastName"))
		addr.Address, _ = p.store.Get(ctx, p.addressKey("address"))
		addr.Address2, _ = p.store.Get(ctx, p.addressKey("address2"))
		addr.ZipCode, _ = p.store.Get(ctx, p.addressKey("zipCode"))
		addr.Country, _ = p.store.Get(ctx, p.addressKey("country"))
		addr.Province, _ = p.store.Get(ctx, p.addressKey("province"))
		addr.City, _ = p.store.Get(ctx, p.addressKey("city"))
		addr.Phone, _ = p.store.Get(ctx, p.addressKey("phone"))
		p.state = Reduce(p.state, LoadAddress{Address: addr})
	}

	var items []LineItem
	raw, err := p.store.Get(ctx, p.itemsKey())
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return err
	}
	if err == nil {
		// A corrupted payload hydrates as an empty cart.
		if jsonErr := json.Unmarshal([]byte(raw), &items); jsonErr != nil {
			items = nil
		}
	}
	return p.apply(ctx, LoadItems{Items: items})
}

// AddProduct merges the candidate into the cart by (product id, size): if a
// line item with the same merge key exists its quantity grows by the
// candidate's quantity, otherwise the candidate is appended as a new line.
func (p *Provider) AddProduct(ctx context.Context, product LineItem) error {
	inCart := false
	for _, it := range p.state.Items {
		if it.ProductID == product.ProductID {
			inCart = true
			break
		}
	}
	if !inCart {
		return p.apply(ctx, ReplaceItems{Items: append(p.State().Items, product)})
	}

	sameSize := false
	for _, it := range p.state.Items {
		if it.ProductID == product.ProductID && it.Size == product.Size {
			sameSize = true
			break
		}
	}
	if !sameSize {
		return p.apply(ctx, ReplaceItems{Items: append(p.State().Items, product)})
	}

	updated := make([]LineItem, len(p.state.Items))
	for i, it := range p.state.Items {
		if it.ProductID == product.ProductID && it.Size == product.Size {
			it.Quantity += product.Quantity
		}
		updated[i] = it
	}
	return p.apply(ctx, ReplaceItems{Items: updated})
}

// UpdateQuantity sets the quantity of the line item matching product's merge
// key. A missing match is silently ignored.
func (p *Provider) UpdateQuantity(ctx context.Context, product LineItem) error {
	return p.apply(ctx, UpdateItemQuantity{Item: product})
}

// Remove drops every line item matching product's merge key.
func (p *Provider) Remove(ctx context.Context, product LineItem) error {
	return p.apply(ctx, RemoveItem{Item: product})
}

// UpdateShippingAddress persists each address field individually and then
// applies the address to the state. This path is independent of the cart
// list sync.
func (p *Provider) UpdateShippingAddress(ctx context.Context, addr models.ShippingAddress) error {
	fields := map[string]string{
		"firstName": addr.FirstName,
		"lastName":  addr.LastName,
		"address":   addr.Address,
		"address2":  addr.Address2,
		"zipCode":   addr.ZipCode,
		"country":   addr.Country,
		"province":  addr.Province,
		"city":      addr.City,
		"phone":     addr.Phone,
	}
	for _, key := range addressFieldKeys {
		if err := p.store.Set(ctx, p.addressKey(key), fields[key]); err != nil {
			return err
		}
	}
	p.state = Reduce(p.state, UpdateAddress{Address: addr})
	return nil
}

// Checkout snapshots the cart into an order request and submits it. The
// caller discriminates on HasError only: Message is the order id on success
// and a displayable reason otherwise. The cart is reset on success.
func (p *Provider) Checkout(ctx context.Context, userID string) CheckoutResult {
	if p.state.ShippingAddress == nil {
		return CheckoutResult{HasError: true, Message: "there is no shipping address"}
	}

	items := make([]LineItem, len(p.state.Items))
	for i, it := range p.state.Items {
		if it.Size == "" {
			return CheckoutResult{HasError: true, Message: fmt.Sprintf("line item %s has no size", it.ProductID)}
		}
		items[i] = it
	}

	req := OrderRequest{
		Items:           items,
		ShippingAddress: *p.state.ShippingAddress,
		Summary:         p.state.Summary,
	}

	orderID, err := p.placer.PlaceOrder(ctx, userID, req)
	if err != nil {
		var rej *Rejection
		if errors.As(err, &rej) {
			return CheckoutResult{HasError: true, Message: rej.Message}
		}
		return CheckoutResult{HasError: true, Message: genericCheckoutMessage}
	}

	if err := p.Reset(ctx); err != nil {
		// The order is already placed, a failed cart reset must not turn
		// the result into an error.
		return CheckoutResult{Message: orderID}
	}
	return CheckoutResult{Message: orderID}
}

// Reset empties the cart list and its stored copy.
func (p *Provider) Reset(ctx context.Context) error {
	return p.apply(ctx, ReplaceItems{Items: nil})
}

func (p *Provider) apply(ctx context.Context, action Action) error {
	p.state = Reduce(p.state, action)

	switch action.(type) {
	case LoadItems, ReplaceItems, UpdateItemQuantity, RemoveItem:
	default:
		return nil
	}

	p.recompute()

	if p.hydrating {
		return nil
	}
	data, err := json.Marshal(p.state.Items)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, p.itemsKey(), string(data))
}

// recompute replaces all four summary fields in one action, so a stale total
// can never be observed next to a fresh subtotal.
func (p *Provider) recompute() {
	var count uint
	var subtotal float64
	for _, it := range p.state.Items {
		count += it.Quantity
		subtotal += float64(it.Quantity) * it.Price
	}

	p.state = Reduce(p.state, UpdateSummary{Summary: Summary{
		NumberOfItems: count,
		Subtotal:      subtotal,
		Tax:           subtotal * p.taxRate,
		Total:         subtotal * (1 + p.taxRate),
	}})
}

func (p *Provider) itemsKey() string {
	return "cart:" + p.session
}

func (p *Provider) addressKey(field string) string {
	return "cart:" + p.session + ":" + field
}
