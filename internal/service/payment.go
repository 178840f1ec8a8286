package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teslo-shop/backend/internal/events"
	"github.com/teslo-shop/backend/internal/logging"
	"github.com/teslo-shop/backend/internal/paypal"
	"github.com/teslo-shop/backend/internal/repo"
)

// statusCompleted is what the provider must report, case-sensitive, before
// an order can be marked paid.
const statusCompleted = "COMPLETED"

type PaymentProvider interface {
	BearerToken(ctx context.Context) (string, error)
	GetTransactionStatus(ctx context.Context, bearer, transactionID string) (*paypal.TransactionStatus, error)
}

type PaymentService struct {
	Repo     *repo.GormRepo
	Provider PaymentProvider
	Events   EventPublisher
}

// ConfirmPayment validates a provider transaction against the stored order
// and marks the order paid. Every step is a hard precondition, nothing is
// written until all of them pass, so no rollback is needed.
func (svc *PaymentService) ConfirmPayment(ctx context.Context, transactionID, orderID string) error {
	bearer, err := svc.Provider.BearerToken(ctx)
	if err != nil {
		return fmt.Errorf("%w: could not confirm the provider token", ErrProvider)
	}

	status, err := svc.Provider.GetTransactionStatus(ctx, bearer, transactionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if status.Status != statusCompleted {
		return fmt.Errorf("%w: payment not recognized", ErrIntegrity)
	}

	order, err := svc.Repo.FindOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order does not exist", ErrNotFound)
		}
		return err
	}

	if _, err := uuid.Parse(order.ID); err != nil {
		return fmt.Errorf("%w: invalid order id", ErrValidation)
	}

	amount, err := strconv.ParseFloat(status.Amount, 64)
	if err != nil {
		return fmt.Errorf("%w: unreadable amount %q", ErrProvider, status.Amount)
	}
	// Exact equality, the same comparison the order creation path uses.
	if order.Total != amount {
		return fmt.Errorf("%w: provider and order amounts do not match", ErrIntegrity)
	}

	if err := svc.Repo.MarkOrderPaid(ctx, orderID, transactionID, time.Now().UTC()); err != nil {
		return err
	}

	svc.publishPaid(ctx, orderID, transactionID)
	return nil
}

func (svc *PaymentService) publishPaid(ctx context.Context, orderID, transactionID string) {
	if svc.Events == nil {
		return
	}
	event := map[string]any{
		"type":           "order_paid",
		"order_id":       orderID,
		"transaction_id": transactionID,
	}
	if err := svc.Events.PublishEvent(ctx, events.TopicOrderEvents, orderID, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "topic", events.TopicOrderEvents, "error", err)
	}
}
