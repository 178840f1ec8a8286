package service

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/teslo-shop/backend/internal/cart"
	"github.com/teslo-shop/backend/internal/models"
	"github.com/teslo-shop/backend/internal/repo"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.User{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, price float64) models.Product {
	t.Helper()
	p := models.Product{
		ID:      uuid.NewString(),
		Title:   "Cybertruck Tee",
		Price:   price,
		InStock: 10,
		Slug:    "cybertruck-tee-" + uuid.NewString()[:8],
		Sizes:   "S,M,L",
		Gender:  "men",
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func orderRequest(p models.Product, qty uint, taxRate float64) cart.OrderRequest {
	subtotal := float64(qty) * p.Price
	return cart.OrderRequest{
		Items: []cart.LineItem{{
			ProductID: p.ID,
			Title:     p.Title,
			Size:      "M",
			Quantity:  qty,
			Price:     p.Price,
			Slug:      p.Slug,
		}},
		ShippingAddress: models.ShippingAddress{
			FirstName: "Juan",
			LastName:  "Silva",
			Address:   "31-803",
			City:      "Mercedes",
		},
		Summary: cart.Summary{
			NumberOfItems: qty,
			Subtotal:      subtotal,
			Tax:           subtotal * taxRate,
			Total:         subtotal * (1 + taxRate),
		},
	}
}

func TestOrderService_CreateOrder_AcceptsMatchingTotal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := initTestDB(t)
	svc := &OrderService{Repo: repo.New(db), TaxRate: 0.15}
	product := seedProduct(t, db, 50)
	userID := uuid.NewString()

	order, err := svc.CreateOrder(ctx, userID, orderRequest(product, 2, 0.15))

	require.NoError(t, err)
	assert.Equal(t, userID, order.UserID)
	assert.False(t, order.IsPaid)
	assert.Equal(t, 115.0, order.Total)
	require.Len(t, order.Items, 1)
	assert.Equal(t, product.ID, order.Items[0].ProductID)

	stored, err := svc.Repo.FindOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsPaid)
	assert.Empty(t, stored.TransactionID)
	require.Len(t, stored.Items, 1)
}

func TestOrderService_CreateOrder_RejectsMismatchedTotal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := initTestDB(t)
	svc := &OrderService{Repo: repo.New(db), TaxRate: 0.15}
	product := seedProduct(t, db, 50)

	req := orderRequest(product, 2, 0.15)
	req.Summary.Total += 0.01

	_, err := svc.CreateOrder(ctx, uuid.NewString(), req)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIntegrity)
	assert.Contains(t, err.Error(), "the total does not match the amount")

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestOrderService_CreateOrder_UsesStoredPricesNotClaimedOnes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := initTestDB(t)
	svc := &OrderService{Repo: repo.New(db), TaxRate: 0}
	product := seedProduct(t, db, 50)

	// The claimed per-item price is tampered, the claimed total matches it.
	req := orderRequest(product, 2, 0)
	req.Items[0].Price = 1
	req.Summary.Subtotal = 2
	req.Summary.Total = 2

	_, err := svc.CreateOrder(ctx, uuid.NewString(), req)

	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestOrderService_CreateOrder_RejectsUnknownProduct(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := initTestDB(t)
	svc := &OrderService{Repo: repo.New(db), TaxRate: 0.15}

	ghost := models.Product{ID: uuid.NewString(), Title: "gone", Price: 50, Slug: "gone"}
	_, err := svc.CreateOrder(ctx, uuid.NewString(), orderRequest(ghost, 1, 0.15))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIntegrity)
	assert.Contains(t, err.Error(), "a product no longer exists")
}

func TestOrderService_CreateOrder_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := initTestDB(t)
	svc := &OrderService{Repo: repo.New(db), TaxRate: 0.15}
	product := seedProduct(t, db, 50)

	tests := []struct {
		name   string
		userID string
		mutate func(*cart.OrderRequest)
	}{
		{name: "missing user id", userID: "", mutate: func(*cart.OrderRequest) {}},
		{name: "empty items", userID: uuid.NewString(), mutate: func(r *cart.OrderRequest) { r.Items = nil }},
		{name: "item without size", userID: uuid.NewString(), mutate: func(r *cart.OrderRequest) { r.Items[0].Size = "" }},
		{name: "item without product id", userID: uuid.NewString(), mutate: func(r *cart.OrderRequest) { r.Items[0].ProductID = "" }},
		{name: "zero quantity", userID: uuid.NewString(), mutate: func(r *cart.OrderRequest) { r.Items[0].Quantity = 0 }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := orderRequest(product, 2, 0.15)
			tt.mutate(&req)

			_, err := svc.CreateOrder(ctx, tt.userID, req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestOrderService_PlaceOrder_WrapsClassedErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := initTestDB(t)
	svc := &OrderService{Repo: repo.New(db), TaxRate: 0.15}
	product := seedProduct(t, db, 50)

	req := orderRequest(product, 2, 0.15)
	req.Summary.Total = 999

	_, err := svc.PlaceOrder(ctx, uuid.NewString(), req)

	var rej *cart.Rejection
	require.True(t, errors.As(err, &rej))
	assert.Contains(t, rej.Message, "the total does not match the amount")
}

func TestOrderService_PlaceOrder_ReturnsOrderID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := initTestDB(t)
	svc := &OrderService{Repo: repo.New(db), TaxRate: 0.15}
	product := seedProduct(t, db, 50)

	id, err := svc.PlaceOrder(ctx, uuid.NewString(), orderRequest(product, 1, 0.15))

	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
}
