package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/teslo-shop/backend/internal/cart"
	"github.com/teslo-shop/backend/internal/events"
	"github.com/teslo-shop/backend/internal/logging"
	"github.com/teslo-shop/backend/internal/models"
	"github.com/teslo-shop/backend/internal/repo"
)

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type OrderService struct {
	Repo    *repo.GormRepo
	TaxRate float64
	Events  EventPublisher
}

// CreateOrder recomputes the order total from authoritative product prices
// and rejects the request when the client-claimed total disagrees. The
// comparison is exact float equality: both sides compute
// subtotal * (1 + taxRate) from the same tax rate.
func (svc *OrderService) CreateOrder(ctx context.Context, userID string, req cart.OrderRequest) (*models.Order, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id required", ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}

	ids := make([]string, 0, len(req.Items))
	for i := range req.Items {
		if req.Items[i].ProductID == "" {
			return nil, fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if req.Items[i].Size == "" {
			return nil, fmt.Errorf("%w: size required", ErrValidation)
		}
		if req.Items[i].Quantity == 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		ids = append(ids, req.Items[i].ProductID)
	}

	prices, err := svc.Repo.PricesByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	var subtotal float64
	for _, it := range req.Items {
		price, ok := prices[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: check your cart again, a product no longer exists", ErrIntegrity)
		}
		subtotal += float64(it.Quantity) * price
	}

	backendTotal := subtotal * (1 + svc.TaxRate)
	if req.Summary.Total != backendTotal {
		return nil, fmt.Errorf("%w: the total does not match the amount", ErrIntegrity)
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, models.OrderItem{
			ProductID: it.ProductID,
			Title:     it.Title,
			Size:      it.Size,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Slug:      it.Slug,
			Image:     it.Image,
			Gender:    it.Gender,
		})
	}

	order := &models.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		NumberOfItems:   req.Summary.NumberOfItems,
		Subtotal:        req.Summary.Subtotal,
		Tax:             req.Summary.Tax,
		Total:           req.Summary.Total,
		IsPaid:          false,
		CreatedAt:       time.Now().Unix(),
	}

	if _, err := svc.Repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	svc.publish(ctx, events.TopicOrderEvents, order.ID, map[string]any{
		"type":     "order_created",
		"order_id": order.ID,
		"user_id":  userID,
		"total":    order.Total,
	})

	return order, nil
}

// PlaceOrder implements cart.OrderPlacer. Classed rejections keep their
// message for the checkout caller, everything else stays opaque.
func (svc *OrderService) PlaceOrder(ctx context.Context, userID string, req cart.OrderRequest) (string, error) {
	order, err := svc.CreateOrder(ctx, userID, req)
	if err != nil {
		if errors.Is(err, ErrValidation) || errors.Is(err, ErrIntegrity) || errors.Is(err, ErrNotFound) {
			return "", &cart.Rejection{Message: err.Error()}
		}
		return "", err
	}
	return order.ID, nil
}

func (svc *OrderService) publish(ctx context.Context, topic, key string, event map[string]any) {
	if svc.Events == nil {
		return
	}
	if err := svc.Events.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "topic", topic, "error", err)
	}
}
