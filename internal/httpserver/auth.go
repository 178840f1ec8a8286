package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/teslo-shop/backend/internal/events"
	"github.com/teslo-shop/backend/internal/hash"
	"github.com/teslo-shop/backend/internal/logging"
	"github.com/teslo-shop/backend/internal/models"
	"github.com/teslo-shop/backend/internal/repo"
	"github.com/teslo-shop/backend/internal/service"
	"github.com/teslo-shop/backend/internal/tokens"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

type AuthHandler struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
	Events        service.EventPublisher
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Username == "" || req.Password == "" {
		l.Warn("register_error", "status", 400, "reason", "missing credentials")
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	if _, err := h.Repo.FindUserByUsername(ctx, req.Username); err == nil {
		l.Warn("register_failed", "status", 409, "reason", "user_exists")
		return echo.NewHTTPError(http.StatusConflict, "user already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("register_error", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: pwHash,
		Role:         "user",
	}
	if err := h.Repo.CreateUser(ctx, &user); err != nil {
		l.Error("register_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, user.ID, map[string]any{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})

	l.Info("register_success", "status", 200)
	return c.JSON(http.StatusOK, echo.Map{
		"id": user.ID, "username": user.Username, "role": user.Role,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Repo.FindUserByUsername(ctx, req.Username)
	if err != nil {
		l.Warn("login_failed", "status", 401, "reason", "invalid username or password")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid username or password")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
	}

	accessExp := time.Now().Add(accessTokenTTL)
	accessToken, err := tokens.NewAccessToken(h.JWTSecret, user.ID, user.Role, accessExp)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot create token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create token")
	}

	jti := tokens.NewJTI()
	refreshExp := time.Now().Add(refreshTokenTTL)
	refreshToken, err := tokens.NewRefreshToken(h.RefreshSecret, user.ID, jti, refreshExp)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot create token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create token")
	}

	refreshModel := models.RefreshToken{
		Token:     tokens.Sha256Hex(refreshToken),
		UserID:    user.ID,
		JTI:       jti,
		ExpiresAt: refreshExp.Unix(),
	}
	if err := h.Repo.CreateRefreshToken(ctx, &refreshModel); err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot store refresh token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	c.SetCookie(tokens.CreateCookie("accessToken", accessToken, "/", accessExp))
	c.SetCookie(tokens.CreateCookie("refreshToken", refreshToken, "/", refreshExp))

	h.publish(c, user.ID, map[string]any{
		"type":     "user_logged_in",
		"user_id":  user.ID,
		"username": user.Username,
	})

	l.Info("login_success")
	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"is_admin":      user.Role == "admin",
	})
}

// Refresh rotates the token pair when the access token has expired but the
// refresh token is still valid and not revoked.
func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	refreshCookie, err := c.Cookie("refreshToken")
	if err != nil || refreshCookie.Value == "" {
		l.Warn("refresh_failed", "status", 401, "reason", "missing refresh cookie")
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	claims, err := tokens.RefreshClaimsFromToken(refreshCookie.Value, h.RefreshSecret)
	if err != nil || claims == nil {
		l.Warn("refresh_failed", "status", 401, "reason", "invalid refresh token")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	stored, err := h.Repo.FindRefreshToken(ctx, tokens.Sha256Hex(refreshCookie.Value))
	if err != nil || stored.Revoked {
		l.Warn("refresh_failed", "status", 401, "reason", "revoked or unknown refresh token")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	user, err := h.Repo.FindUserByID(ctx, claims.Subject)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "unknown user")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	accessExp := time.Now().Add(accessTokenTTL)
	accessToken, err := tokens.NewAccessToken(h.JWTSecret, user.ID, user.Role, accessExp)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot create token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create token")
	}

	c.SetCookie(tokens.CreateCookie("accessToken", accessToken, "/", accessExp))

	l.Info("refresh_success")
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": accessToken,
		"access_exp":   accessExp.Unix(),
	})
}

func (h *AuthHandler) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if refreshCookie, err := c.Cookie("refreshToken"); err == nil && refreshCookie.Value != "" {
		if err := h.Repo.RevokeRefreshToken(ctx, tokens.Sha256Hex(refreshCookie.Value)); err != nil {
			l.Error("logout_failed", "status", 500, "reason", "cannot revoke refresh token", "error", err)
		}
	} else {
		l.Warn("logout_warning", "reason", "missing refresh cookie")
	}

	c.SetCookie(tokens.DeleteCookie("refreshToken", "/"))
	c.SetCookie(tokens.DeleteCookie("accessToken", "/"))

	l.Info("logout_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]any) {
	if h.Events == nil {
		return
	}
	ctx := c.Request().Context()
	if err := h.Events.PublishEvent(ctx, events.TopicUserEvents, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "topic", events.TopicUserEvents, "error", err)
	}
}
