package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/teslo-shop/backend/internal/cart"
	"github.com/teslo-shop/backend/internal/logging"
	"github.com/teslo-shop/backend/internal/repo"
	"github.com/teslo-shop/backend/internal/service"
	"github.com/teslo-shop/backend/internal/util"
)

type OrderHandler struct {
	OrderSvc   *service.OrderService
	PaymentSvc *service.PaymentService
	Repo       *repo.GormRepo
}

// CreateOrder accepts a raw order payload, for clients that manage their own
// cart. The session-cart flow goes through CartHandler.Checkout instead;
// both end in the same reconciliation.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	userID, err := GetID(c)
	if err != nil {
		l.Warn("create_order_error", "status", 401, "reason", "unauthenticated")
		return echo.NewHTTPError(http.StatusUnauthorized, "you must be authenticated to do this")
	}

	var req cart.OrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.OrderSvc.CreateOrder(ctx, userID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrIntegrity):
			l.Warn("create_order_rejected", "status", 400, "reason", err.Error())
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotFound):
			l.Warn("create_order_rejected", "status", 404, "reason", err.Error())
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			l.Error("create_order_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	userID, err := GetID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "you must be authenticated to do this")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	offset, limit := util.Paginate(page, size)

	orders, err := h.Repo.ListOrders(ctx, userID, limit, offset)
	if err != nil {
		l.Error("list_orders_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	userID, err := GetID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "you must be authenticated to do this")
	}

	order, err := h.Repo.FindOrderByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("get_order_error", "status", 404, "reason", "order not found")
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		l.Error("get_order_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if order.UserID != userID && c.Get("role") != "admin" {
		l.Warn("get_order_error", "status", 404, "reason", "not owner")
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	return c.JSON(http.StatusOK, order)
}

// PayOrder confirms a provider capture for the order. All rejections carry a
// structured message so the client can show them verbatim.
func (h *OrderHandler) PayOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.pay")

	if _, err := GetID(c); err != nil {
		l.Warn("pay_order_error", "status", 401, "reason", "unauthenticated")
		return echo.NewHTTPError(http.StatusUnauthorized, "you must be authenticated to do this")
	}

	var req struct {
		TransactionID string `json:"transaction_id"`
	}
	if err := c.Bind(&req); err != nil || req.TransactionID == "" {
		l.Warn("pay_order_error", "status", 400, "reason", "invalid body")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	orderID := c.Param("id")
	if err := h.PaymentSvc.ConfirmPayment(ctx, req.TransactionID, orderID); err != nil {
		switch {
		case errors.Is(err, service.ErrProvider):
			l.Error("pay_order_error", "status", 502, "reason", err.Error())
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		case errors.Is(err, service.ErrNotFound):
			l.Warn("pay_order_rejected", "status", 404, "reason", err.Error())
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrIntegrity):
			l.Warn("pay_order_rejected", "status", 400, "reason", err.Error())
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			l.Error("pay_order_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("pay_order_success", "order_id", orderID)
	return c.JSON(http.StatusOK, echo.Map{"message": "order paid"})
}
