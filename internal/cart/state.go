package cart

import "github.com/teslo-shop/backend/internal/models"

// LineItem is one (product, size) pairing with a quantity. The merge key for
// cart operations is (ProductID, Size).
type LineItem struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Size      string  `json:"size"`
	Quantity  uint    `json:"quantity"`
	InStock   uint    `json:"in_stock"`
	Price     float64 `json:"price"`
	Slug      string  `json:"slug"`
	Image     string  `json:"image"`
	Gender    string  `json:"gender"`
}

// Summary is the aggregate derived from the line items. The four fields are
// a pure function of the item list and the tax rate and are always replaced
// together, never one at a time.
type Summary struct {
	NumberOfItems uint    `json:"number_of_items"`
	Subtotal      float64 `json:"subtotal"`
	Tax           float64 `json:"tax"`
	Total         float64 `json:"total"`
}

// State is the full cart state. IsLoaded distinguishes "not yet hydrated
// from storage" from "genuinely empty".
type State struct {
	IsLoaded        bool                    `json:"is_loaded"`
	Items           []LineItem              `json:"items"`
	Summary         Summary                 `json:"summary"`
	ShippingAddress *models.ShippingAddress `json:"shipping_address,omitempty"`
}
