package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tresh-api/internal/logging"
	"github.com/iliyamo/tresh-api/internal/middleware"
	"github.com/iliyamo/tresh-api/internal/model"
	"github.com/iliyamo/tresh-api/internal/service"
)

// Authenticator is the part of service.AuthService the handlers use.
type Authenticator interface {
	Register(ctx context.Context, email, username, password string) (model.AuthResult, error)
	Login(ctx context.Context, email, password string) (model.AuthResult, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (model.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userID string) (int64, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth Authenticator
	Log  logging.Logger
}

func NewAuthHandler(auth Authenticator, log logging.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
type refreshReq struct {
	Token        string `json:"token" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}
type logoutReq struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

const requestTimeout = 5 * time.Second

// Register: create the user and return the first token pair.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, model.Failed(service.FailureMessages(err)...))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Auth.Register(ctx, req.Email, req.Username, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Login: verify credentials and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, model.Failed("Invalid payload"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// RefreshToken: redeem an expired access token plus its refresh token.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req refreshReq
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, model.Failed("Invalid payload"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Auth.Refresh(ctx, req.Token, req.RefreshToken)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Logout: revoke the given refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, model.Failed("Invalid payload"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Auth.Logout(ctx, req.RefreshToken); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll: revoke every refresh token of the authenticated user.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, model.Failed("Invalid token"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if _, err := h.Auth.LogoutAll(ctx, uid); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// fail writes 400 for known failure kinds and 500 for everything else.
func (h *AuthHandler) fail(c echo.Context, err error) error {
	if service.IsFailure(err) {
		if errors.Is(err, service.ErrInvalidToken) {
			h.Log.Warn(c.Request().Context(), "auth: invalid token", "err", err)
		}
		return c.JSON(http.StatusBadRequest, model.Failed(service.FailureMessages(err)...))
	}
	h.Log.Error(c.Request().Context(), "auth: request failed", "path", c.Path(), "err", err)
	return c.JSON(http.StatusInternalServerError, model.Failed("Internal server error"))
}

// bindAndValidate decodes the JSON body into dst and runs the registered
// validator.
func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return service.NewValidationError("Invalid payload")
	}
	return c.Validate(dst)
}
