package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/bkoseoglu/mallhub/internal/models"
	"github.com/google/uuid"
)

// Identity is the opaque authenticated-user handle issued by the provider.
type Identity struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
}

// Machine-readable failure codes carried by AuthError.
const (
	CodeInvalidCredential = "invalid-credential"
	CodeUserNotFound      = "user-not-found"
	CodeEmailInUse        = "email-in-use"
	CodeWeakPassword      = "weak-password"
	CodeInvalidEmail      = "invalid-email"
	CodeNetworkError      = "network-error"
)

// AuthError is the typed error for every provider call that can fail.
// Callers branch on Code; the underlying cause is preserved for logging.
type AuthError struct {
	Code string
	Op   string
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

func (e *AuthError) Unwrap() error { return e.Err }

// AuthCode extracts the machine-readable code from err, or "" if err is not
// an AuthError.
func AuthCode(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// Sentinel errors returned by AccountStore implementations.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already registered")
)

// AccountStore is the shared credential backend behind provider instances.
type AccountStore interface {
	ByEmail(ctx context.Context, email string) (*models.Account, error)
	ByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
	UpdateDisplayName(ctx context.Context, id uuid.UUID, name string) error
}

func identityOf(a *models.Account) *Identity {
	return &Identity{
		ID:          a.ID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
	}
}
