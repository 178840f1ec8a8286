package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslo-shop/backend/internal/models"
	"github.com/teslo-shop/backend/internal/paypal"
	"github.com/teslo-shop/backend/internal/service"
)

type stubProvider struct {
	tokenErr error
	status   string
	amount   string
}

func (s *stubProvider) BearerToken(context.Context) (string, error) {
	if s.tokenErr != nil {
		return "", s.tokenErr
	}
	return "token", nil
}

func (s *stubProvider) GetTransactionStatus(context.Context, string, string) (*paypal.TransactionStatus, error) {
	return &paypal.TransactionStatus{Status: s.status, Amount: s.amount}, nil
}

func newOrderHandler(env *testEnv, provider service.PaymentProvider) *OrderHandler {
	return &OrderHandler{
		OrderSvc:   &service.OrderService{Repo: env.repo, TaxRate: 0.15},
		PaymentSvc: &service.PaymentService{Repo: env.repo, Provider: provider},
		Repo:       env.repo,
	}
}

func seedOrder(t *testing.T, env *testEnv, userID string, total float64) models.Order {
	t.Helper()
	order := models.Order{
		ID:            uuid.NewString(),
		UserID:        userID,
		NumberOfItems: 2,
		Subtotal:      total / 1.15,
		Tax:           total - total/1.15,
		Total:         total,
		CreatedAt:     time.Now().Unix(),
	}
	require.NoError(t, env.db.Create(&order).Error)
	return order
}

func TestOrderHandler_CreateOrder_MismatchedTotalIsBadRequest(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	h := newOrderHandler(env, &stubProvider{})
	product := env.seedProduct(t, 50, 10)

	body := map[string]any{
		"items": []map[string]any{{
			"product_id": product.ID,
			"title":      product.Title,
			"size":       "M",
			"quantity":   2,
			"price":      product.Price,
		}},
		"shipping_address": map[string]any{"first_name": "Juan", "last_name": "Silva", "address": "x"},
		"summary": map[string]any{
			"number_of_items": 2,
			"subtotal":        100,
			"tax":             15,
			"total":           999,
		},
	}
	c, _ := env.doJSON(t, http.MethodPost, "/api/v1/orders", body, "", uuid.NewString())

	err := h.CreateOrder(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Contains(t, he.Message, "the total does not match the amount")
}

func TestOrderHandler_CreateOrder_AcceptsExactTotal(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	h := newOrderHandler(env, &stubProvider{})
	product := env.seedProduct(t, 50, 10)

	body := map[string]any{
		"items": []map[string]any{{
			"product_id": product.ID,
			"title":      product.Title,
			"size":       "M",
			"quantity":   2,
			"price":      product.Price,
		}},
		"shipping_address": map[string]any{"first_name": "Juan", "last_name": "Silva", "address": "x"},
		"summary": map[string]any{
			"number_of_items": 2,
			"subtotal":        100,
			"tax":             15,
			"total":           115,
		},
	}
	c, rec := env.doJSON(t, http.MethodPost, "/api/v1/orders", body, "", uuid.NewString())

	require.NoError(t, h.CreateOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.False(t, order.IsPaid)
	assert.Equal(t, 115.0, order.Total)
}

func TestOrderHandler_GetOrder_OwnerOnly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	h := newOrderHandler(env, &stubProvider{})
	owner := uuid.NewString()
	order := seedOrder(t, env, owner, 115)

	c, rec := env.doJSON(t, http.MethodGet, "/api/v1/orders/"+order.ID, nil, "", owner)
	c.SetParamNames("id")
	c.SetParamValues(order.ID)
	require.NoError(t, h.GetOrder(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Another user gets a 404, not a 403: order ids are not probeable.
	c, _ = env.doJSON(t, http.MethodGet, "/api/v1/orders/"+order.ID, nil, "", uuid.NewString())
	c.SetParamNames("id")
	c.SetParamValues(order.ID)
	err := h.GetOrder(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestOrderHandler_PayOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider *stubProvider
		total    float64
		wantCode int
	}{
		{
			name:     "provider token failure is a bad gateway",
			provider: &stubProvider{tokenErr: errors.New("oauth down")},
			total:    115,
			wantCode: http.StatusBadGateway,
		},
		{
			name:     "status other than COMPLETED is rejected",
			provider: &stubProvider{status: "PENDING", amount: "115"},
			total:    115,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "amount mismatch is rejected",
			provider: &stubProvider{status: "COMPLETED", amount: "115.01"},
			total:    115,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			h := newOrderHandler(env, tt.provider)
			userID := uuid.NewString()
			order := seedOrder(t, env, userID, tt.total)

			body := map[string]string{"transaction_id": "TXN-1"}
			c, _ := env.doJSON(t, http.MethodPost, "/api/v1/orders/"+order.ID+"/pay", body, "", userID)
			c.SetParamNames("id")
			c.SetParamValues(order.ID)

			err := h.PayOrder(c)
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, tt.wantCode, he.Code)

			stored, ferr := env.repo.FindOrderByID(c.Request().Context(), order.ID)
			require.NoError(t, ferr)
			assert.False(t, stored.IsPaid)
		})
	}
}

func TestOrderHandler_PayOrder_Success(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	h := newOrderHandler(env, &stubProvider{status: "COMPLETED", amount: "115"})
	userID := uuid.NewString()
	order := seedOrder(t, env, userID, 115)

	body := map[string]string{"transaction_id": "TXN-1"}
	c, rec := env.doJSON(t, http.MethodPost, "/api/v1/orders/"+order.ID+"/pay", body, "", userID)
	c.SetParamNames("id")
	c.SetParamValues(order.ID)

	require.NoError(t, h.PayOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := env.repo.FindOrderByID(c.Request().Context(), order.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPaid)
	assert.Equal(t, "TXN-1", stored.TransactionID)
	require.NotNil(t, stored.PaidAt)
}

func TestOrderHandler_PayOrder_UnknownOrder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	h := newOrderHandler(env, &stubProvider{status: "COMPLETED", amount: "115"})

	body := map[string]string{"transaction_id": "TXN-1"}
	missing := uuid.NewString()
	c, _ := env.doJSON(t, http.MethodPost, "/api/v1/orders/"+missing+"/pay", body, "", uuid.NewString())
	c.SetParamNames("id")
	c.SetParamValues(missing)

	err := h.PayOrder(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusNotFound, he.Code)
}
