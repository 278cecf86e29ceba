package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mathvisuals/account-api/internal/api/metrics"
	"github.com/mathvisuals/account-api/internal/core/domain"
	"github.com/mathvisuals/account-api/internal/core/ports"
)

// AccountHandler exposes the account lifecycle over HTTP.
type AccountHandler struct {
	service   ports.AccountService
	loginMode string
}

// NewAccountHandler creates an AccountHandler. loginMode names the signin
// key field ("email" or "username").
func NewAccountHandler(service ports.AccountService, loginMode string) *AccountHandler {
	if loginMode == "" {
		loginMode = "email"
	}
	return &AccountHandler{service: service, loginMode: loginMode}
}

// Create registers a new account and triggers the verification email.
//
// @Summary      Create an account
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      createAccountRequest  true  "Signup details"
// @Success      201   {object}  successResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /account/create [post]
func (h *AccountHandler) Create(c echo.Context) error {
	var req createAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	_, err := h.service.Create(c.Request().Context(), ports.CreateAccountInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	metrics.CreatedTotal.Inc()
	return c.JSON(http.StatusCreated, successResponse{Success: true, Message: "Account created"})
}

// Verify consumes a verification token.
//
// @Summary      Verify an account
// @Tags         account
// @Produce      json
// @Param        token  query     string  true  "Verification token"
// @Success      200    {object}  successResponse
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Router       /verify [get]
func (h *AccountHandler) Verify(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		token = c.Param("token")
	}

	account, err := h.service.Verify(c.Request().Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			metrics.VerificationsTotal.WithLabelValues("invalid_token").Inc()
		}
		return err
	}

	metrics.VerificationsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, successResponse{Success: true, Data: account})
}

// SignIn authenticates by login key and password.
//
// @Summary      Sign in
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      signinRequest  true  "Credentials"
// @Success      200   {object}  successResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /signin [post]
func (h *AccountHandler) SignIn(c echo.Context) error {
	var req signinRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	loginKey := req.Email
	if h.loginMode == "username" {
		loginKey = req.Username
	}

	account, err := h.service.SignIn(c.Request().Context(), loginKey, req.Password)
	if err != nil {
		metrics.SigninsTotal.WithLabelValues(signinResult(err)).Inc()
		return err
	}

	metrics.SigninsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, successResponse{Success: true, Data: account})
}

// Get fetches an account by id. Owner or admin only.
//
// @Summary      Get an account
// @Tags         account
// @Produce      json
// @Param        id  path      string  true  "Account id"
// @Success      200 {object}  successResponse
// @Failure      403 {object}  map[string]string
// @Failure      404 {object}  map[string]string
// @Router       /account/{id} [get]
func (h *AccountHandler) Get(c echo.Context) error {
	account, err := h.service.Get(c.Request().Context(), c.Param("id"), ctxCaller(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true, Data: account})
}

// Update applies a partial update to an account. Owner or admin only.
//
// @Summary      Update an account
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        id    path      string                true  "Account id"
// @Param        body  body      updateAccountRequest  true  "Fields to update"
// @Success      200   {object}  successResponse
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /account/{id} [put]
func (h *AccountHandler) Update(c echo.Context) error {
	var req updateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	patch := ports.UpdateAccountInput{
		Name:             req.Name,
		Username:         req.Username,
		Email:            req.Email,
		Password:         req.Password,
		Admin:            req.Admin,
		SubscriptionTier: req.SubscriptionTier,
	}

	if err := h.service.Update(c.Request().Context(), c.Param("id"), ctxCaller(c), patch); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true, Message: "Account has been updated"})
}

// Delete hard-deletes an account. Owner or admin only.
//
// @Summary      Delete an account
// @Tags         account
// @Produce      json
// @Param        id  path      string  true  "Account id"
// @Success      200 {object}  successResponse
// @Failure      403 {object}  map[string]string
// @Failure      404 {object}  map[string]string
// @Router       /account/{id} [delete]
func (h *AccountHandler) Delete(c echo.Context) error {
	account, err := h.service.Delete(c.Request().Context(), c.Param("id"), ctxCaller(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true, Message: "Account deleted", Data: account})
}

func signinResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrWrongCredentials):
		return "wrong_credentials"
	case errors.Is(err, domain.ErrAccountNotVerified):
		return "not_verified"
	case errors.Is(err, domain.ErrValidation):
		return "invalid_input"
	default:
		return "error"
	}
}
