package handlers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/bkoseoglu/mallhub/internal/config"
	"github.com/bkoseoglu/mallhub/internal/dto"
	"github.com/bkoseoglu/mallhub/internal/identity"
	"github.com/bkoseoglu/mallhub/internal/middleware"
	"github.com/bkoseoglu/mallhub/internal/models"
	"github.com/bkoseoglu/mallhub/internal/profiles"
	"github.com/bkoseoglu/mallhub/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// readyTimeout bounds how long login/registration waits for the session
// resolver to settle before answering.
const readyTimeout = 5 * time.Second

type AuthHandler struct {
	cfg        *config.Config
	registry   *session.Registry
	accounts   identity.AccountStore
	profileSvc *profiles.Service
	refresh    identity.RefreshStore
}

func NewAuthHandler(cfg *config.Config, registry *session.Registry, accounts identity.AccountStore, profileSvc *profiles.Service, refresh identity.RefreshStore) *AuthHandler {
	return &AuthHandler{cfg: cfg, registry: registry, accounts: accounts, profileSvc: profileSvc, refresh: refresh}
}

// Register creates an account plus its profile, opens a client session and
// returns a token pair. The requested role is ignored: every registration
// yields a regular user.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	provider := identity.NewProvider(h.accounts)
	resolver := session.NewResolver(provider, h.profileSvc)
	resolver.Initialize()

	seed := profiles.UpdateParams{}
	if req.DisplayName != "" {
		seed.DisplayName = &req.DisplayName
	}
	if req.BusinessName != "" {
		seed.Business = &profiles.BusinessInfo{Name: req.BusinessName, Type: req.BusinessType}
	}

	profile, err := resolver.Register(c.UserContext(), req.Email, req.Password, seed)
	if err != nil {
		resolver.Close()
		return authErrorResponse(c, err)
	}

	client := h.registry.Create(provider, resolver)
	resp, err := h.issueTokens(c, client, profile)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login authenticates, waits for the profile to resolve and returns a token
// pair bound to a fresh client session.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	provider := identity.NewProvider(h.accounts)
	resolver := session.NewResolver(provider, h.profileSvc)
	resolver.Initialize()

	if err := resolver.Login(c.UserContext(), req.Email, req.Password); err != nil {
		resolver.Close()
		return authErrorResponse(c, err)
	}

	state, err := resolver.WaitReady(c.UserContext(), readyTimeout)
	if err != nil {
		resolver.Close()
		slog.Error("session did not settle after login", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	client := h.registry.Create(provider, resolver)
	resp, err := h.issueTokens(c, client, state.Profile)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Refresh rotates a refresh token and mints a new access token for the same
// client session. The old token is revoked whether or not a live resolver
// still exists.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	stored, err := h.refresh.Find(c.UserContext(), identity.HashToken(req.RefreshToken))
	if err != nil {
		if errors.Is(err, identity.ErrTokenNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid refresh token",
			})
		}
		slog.Error("refresh token lookup failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	if stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid refresh token",
		})
	}

	account, err := h.accounts.ByID(c.UserContext(), stored.AccountID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid refresh token",
		})
	}

	ident := &identity.Identity{ID: account.ID, Email: account.Email, DisplayName: account.DisplayName}
	profile, err := h.profileSvc.Resolve(c.UserContext(), ident)
	if err != nil {
		slog.Error("profile resolution failed on refresh", "user_id", account.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	if err := h.refresh.Revoke(c.UserContext(), stored.TokenHash); err != nil {
		slog.Error("failed to revoke rotated refresh token", "error", err)
	}

	access, err := h.mintAccessToken(ident, profile.Role, stored.SessionID)
	if err != nil {
		slog.Error("failed to sign access token", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	raw, hash, err := identity.NewRefreshToken()
	if err != nil {
		slog.Error("failed to generate refresh token", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	if err := h.refresh.Save(c.UserContext(), &models.RefreshToken{
		SessionID: stored.SessionID,
		AccountID: account.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(h.cfg.JWTRefreshExpiry),
	}); err != nil {
		slog.Error("failed to store refresh token", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(dto.AuthResponse{AccessToken: access, RefreshToken: raw, Profile: profile})
}

// Logout tears down the client session eagerly: published state is cleared
// and the session's refresh tokens revoked before the response goes out.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, err := middleware.ClaimsFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	if claims.SID != uuid.Nil {
		if client := h.registry.Get(claims.SID); client != nil {
			if err := client.Resolver.Logout(c.UserContext()); err != nil {
				slog.Warn("provider sign-out failed after local clear", "error", err)
			}
			h.registry.Remove(claims.SID)
		}
		if err := h.refresh.RevokeSession(c.UserContext(), claims.SID); err != nil {
			slog.Error("failed to revoke session refresh tokens", "sid", claims.SID, "error", err)
		}
	}

	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// Session reports the caller's current session snapshot.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	state := middleware.SessionFromCtx(c)
	resp := dto.SessionResponse{
		SignedIn: state.SignedIn(),
		Loading:  state.Loading,
		Profile:  state.Profile,
	}
	if state.Identity != nil {
		id := state.Identity.ID
		resp.UserID = &id
	}
	return c.JSON(resp)
}

// UpdateProfile patches the caller's own profile. Display-name changes also
// propagate to the account record, best effort.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	claims, err := middleware.ClaimsFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	params := profiles.UpdateParams{DisplayName: req.DisplayName}
	if req.BusinessName != nil {
		business := profiles.BusinessInfo{Name: *req.BusinessName}
		if req.BusinessType != nil {
			business.Type = *req.BusinessType
		}
		params.Business = &business
	}

	profile, err := h.profileSvc.Update(c.UserContext(), claims.UserID, params)
	if err != nil {
		if errors.Is(err, profiles.ErrProfileNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Profile not found",
			})
		}
		slog.Error("profile update failed", "user_id", claims.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	if req.DisplayName != nil {
		if err := h.accounts.UpdateDisplayName(c.UserContext(), claims.UserID, *req.DisplayName); err != nil {
			slog.Warn("failed to sync display name to account", "user_id", claims.UserID, "error", err)
		}
	}

	return c.JSON(profile)
}

func (h *AuthHandler) issueTokens(c *fiber.Ctx, client *session.Client, profile *profiles.Profile) (*dto.AuthResponse, error) {
	ident := client.Provider.Current()
	access, err := h.mintAccessToken(ident, profile.Role, client.SID)
	if err != nil {
		slog.Error("failed to sign access token", "error", err)
		return nil, c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	raw, hash, err := identity.NewRefreshToken()
	if err != nil {
		slog.Error("failed to generate refresh token", "error", err)
		return nil, c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	if err := h.refresh.Save(c.UserContext(), &models.RefreshToken{
		SessionID: client.SID,
		AccountID: ident.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(h.cfg.JWTRefreshExpiry),
	}); err != nil {
		slog.Error("failed to store refresh token", "error", err)
		return nil, c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return &dto.AuthResponse{AccessToken: access, RefreshToken: raw, Profile: profile}, nil
}

func (h *AuthHandler) mintAccessToken(ident *identity.Identity, role profiles.Role, sid uuid.UUID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   ident.ID.String(),
		"email": ident.Email,
		"role":  string(role),
		"sid":   sid.String(),
		"iat":   now.Unix(),
		"exp":   now.Add(h.cfg.JWTAccessExpiry).Unix(),
	})
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// authErrorResponse maps provider failure codes onto HTTP statuses. Unknown
// failures surface as 500 without leaking their cause.
func authErrorResponse(c *fiber.Ctx, err error) error {
	code := identity.AuthCode(err)
	switch code {
	case identity.CodeInvalidCredential, identity.CodeUserNotFound:
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid email or password", Code: code,
		})
	case identity.CodeInvalidEmail:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid email address", Code: code,
		})
	case identity.CodeWeakPassword:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Password must be at least 8 characters", Code: code,
		})
	case identity.CodeEmailInUse:
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: "Email already registered", Code: code,
		})
	}
	slog.Error("authentication failed", "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}
