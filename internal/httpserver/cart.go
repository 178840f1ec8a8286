package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/teslo-shop/backend/internal/cart"
	"github.com/teslo-shop/backend/internal/events"
	"github.com/teslo-shop/backend/internal/kvstore"
	"github.com/teslo-shop/backend/internal/logging"
	"github.com/teslo-shop/backend/internal/models"
	"github.com/teslo-shop/backend/internal/repo"
	"github.com/teslo-shop/backend/internal/service"
)

type CartHandler struct {
	Store   kvstore.Store
	Repo    *repo.GormRepo
	Placer  cart.OrderPlacer
	TaxRate float64
	Events  service.EventPublisher
}

// provider builds and hydrates the session's cart provider. One provider per
// request: the cart is single-actor by design.
func (h *CartHandler) provider(c echo.Context) (*cart.Provider, string, error) {
	session := cartSession(c)
	p := cart.NewProvider(h.Store, h.Placer, session, h.TaxRate)
	if err := p.Hydrate(c.Request().Context()); err != nil {
		return nil, "", echo.NewHTTPError(http.StatusInternalServerError, "cart unavailable")
	}
	return p, session, nil
}

func (h *CartHandler) GetCart(c echo.Context) error {
	p, _, err := h.provider(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p.State())
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req struct {
		ProductID string `json:"product_id"`
		Size      string `json:"size"`
		Quantity  uint   `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	product, err := h.Repo.GetProduct(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("add_to_cart_error", "status", 404, "reason", "product not found")
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("add_to_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if !hasSize(product.Sizes, req.Size) {
		l.Warn("add_to_cart_error", "status", 400, "reason", "size not offered")
		return echo.NewHTTPError(http.StatusBadRequest, "size not offered for this product")
	}
	if req.Quantity > product.InStock {
		l.Warn("add_to_cart_error", "status", 400, "reason", "not enough stock")
		return echo.NewHTTPError(http.StatusBadRequest, "not enough stock")
	}

	p, session, err := h.provider(c)
	if err != nil {
		return err
	}

	item := cart.LineItem{
		ProductID: product.ID,
		Title:     product.Title,
		Size:      req.Size,
		Quantity:  req.Quantity,
		InStock:   product.InStock,
		Price:     product.Price,
		Slug:      product.Slug,
		Image:     product.Image,
		Gender:    product.Gender,
	}
	if err := p.AddProduct(ctx, item); err != nil {
		l.Error("add_to_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, session, map[string]any{
		"type":       "cart_item_added",
		"session":    session,
		"product_id": product.ID,
		"size":       req.Size,
		"quantity":   req.Quantity,
	})

	l.Info("add_to_cart_success")
	return c.JSON(http.StatusOK, p.State())
}

func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_quantity")

	var req struct {
		ProductID string `json:"product_id"`
		Size      string `json:"size"`
		Quantity  uint   `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("update_quantity_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	p, session, err := h.provider(c)
	if err != nil {
		return err
	}

	item := cart.LineItem{ProductID: req.ProductID, Size: req.Size, Quantity: req.Quantity}
	if err := p.UpdateQuantity(ctx, item); err != nil {
		l.Error("update_quantity_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, session, map[string]any{
		"type":       "cart_quantity_updated",
		"session":    session,
		"product_id": req.ProductID,
		"size":       req.Size,
		"quantity":   req.Quantity,
	})

	return c.JSON(http.StatusOK, p.State())
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	var req struct {
		ProductID string `json:"product_id"`
		Size      string `json:"size"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("remove_from_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, session, err := h.provider(c)
	if err != nil {
		return err
	}

	if err := p.Remove(ctx, cart.LineItem{ProductID: req.ProductID, Size: req.Size}); err != nil {
		l.Error("remove_from_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, session, map[string]any{
		"type":       "cart_item_removed",
		"session":    session,
		"product_id": req.ProductID,
		"size":       req.Size,
	})

	return c.JSON(http.StatusOK, p.State())
}

func (h *CartHandler) UpdateAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_address")

	var addr models.ShippingAddress
	if err := c.Bind(&addr); err != nil {
		l.Warn("update_address_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if addr.FirstName == "" || addr.LastName == "" || addr.Address == "" {
		l.Warn("update_address_error", "status", 400, "reason", "missing required fields")
		return echo.NewHTTPError(http.StatusBadRequest, "first name, last name and address are required")
	}

	p, _, err := h.provider(c)
	if err != nil {
		return err
	}

	if err := p.UpdateShippingAddress(ctx, addr); err != nil {
		l.Error("update_address_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, p.State())
}

// Checkout submits the session cart as an order for the authenticated user.
// The response body is a CheckoutResult either way: callers discriminate on
// has_error, not on the message shape.
func (h *CartHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	userID, err := GetID(c)
	if err != nil {
		l.Warn("checkout_error", "status", 401, "reason", "unauthenticated")
		return echo.NewHTTPError(http.StatusUnauthorized, "you must be authenticated to do this")
	}

	p, session, err := h.provider(c)
	if err != nil {
		return err
	}

	result := p.Checkout(ctx, userID)
	if result.HasError {
		l.Warn("checkout_rejected", "status", 400, "reason", result.Message)
		return c.JSON(http.StatusBadRequest, result)
	}

	h.publish(c, session, map[string]any{
		"type":     "cart_checked_out",
		"session":  session,
		"user_id":  userID,
		"order_id": result.Message,
	})

	l.Info("checkout_success", "order_id", result.Message)
	return c.JSON(http.StatusCreated, result)
}

func (h *CartHandler) publish(c echo.Context, key string, event map[string]any) {
	if h.Events == nil {
		return
	}
	ctx := c.Request().Context()
	if err := h.Events.PublishEvent(ctx, events.TopicCartEvents, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "topic", events.TopicCartEvents, "error", err)
	}
}

func hasSize(sizes, size string) bool {
	if size == "" {
		return false
	}
	for _, s := range strings.Split(sizes, ",") {
		if strings.TrimSpace(s) == size {
			return true
		}
	}
	return false
}
