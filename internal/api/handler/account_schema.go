package handler

import "github.com/mathvisuals/account-api/internal/core/domain"

type createAccountRequest struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type signinRequest struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password" validate:"required"`
}

// updateAccountRequest is a partial patch; absent fields stay untouched.
type updateAccountRequest struct {
	Name             *string `json:"name,omitempty"`
	Username         *string `json:"username,omitempty"`
	Email            *string `json:"email,omitempty" validate:"omitempty,email"`
	Password         *string `json:"password,omitempty"`
	Admin            *bool   `json:"admin,omitempty"`
	SubscriptionTier *string `json:"subscription,omitempty"`
}

// successResponse is the envelope for all 2xx bodies.
type successResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    *domain.Account `json:"data,omitempty"`
}
