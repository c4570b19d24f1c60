package dto

import (
	"github.com/bkoseoglu/mallhub/internal/profiles"
	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	DisplayName  string `json:"display_name"`
	BusinessName string `json:"business_name"`
	BusinessType string `json:"business_type"`
	// Role is accepted but ignored: registration always yields a regular
	// user. Promotion is an admin-only operation.
	Role string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	Profile      *profiles.Profile `json:"profile"`
}

type SessionResponse struct {
	SignedIn bool              `json:"signed_in"`
	Loading  bool              `json:"loading"`
	UserID   *uuid.UUID        `json:"user_id,omitempty"`
	Profile  *profiles.Profile `json:"profile,omitempty"`
}

type UpdateProfileRequest struct {
	DisplayName  *string `json:"display_name"`
	BusinessName *string `json:"business_name"`
	BusinessType *string `json:"business_type"`
}

type SetRoleRequest struct {
	Role string `json:"role"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Sessions  int    `json:"sessions"`
}
