package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/bkoseoglu/mallhub/internal/config"
	"github.com/bkoseoglu/mallhub/internal/dto"
	"github.com/bkoseoglu/mallhub/internal/identity"
	"github.com/bkoseoglu/mallhub/internal/profiles"
	"github.com/bkoseoglu/mallhub/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionStateKey = "session_state"

// SessionFromCtx returns the state attached by SessionState or
// OptionalSessionState; zero state when neither ran.
func SessionFromCtx(c *fiber.Ctx) session.State {
	if s, ok := c.Locals(sessionStateKey).(session.State); ok {
		return s
	}
	return session.State{}
}

// Claims extracted from a validated access token.
type Claims struct {
	UserID uuid.UUID
	SID    uuid.UUID
	Email  string
}

// ClaimsFromCtx reads the JWT claims set by JWTProtected.
func ClaimsFromCtx(c *fiber.Ctx) (*Claims, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, errors.New("invalid token in context")
	}
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return parseClaims(mapClaims)
}

func parseClaims(mapClaims jwt.MapClaims) (*Claims, error) {
	sub, _ := mapClaims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, errors.New("missing sub claim")
	}
	claims := &Claims{UserID: userID}
	if sid, _ := mapClaims["sid"].(string); sid != "" {
		if parsed, err := uuid.Parse(sid); err == nil {
			claims.SID = parsed
		}
	}
	claims.Email, _ = mapClaims["email"].(string)
	return claims, nil
}

// SessionState attaches the caller's session snapshot after JWTProtected.
// The live client session is preferred; when it is gone (process restart,
// expiry) the state is rebuilt statelessly from the token subject, which
// preserves the profile invariant through the same resolve path.
func SessionState(registry *session.Registry, accounts identity.AccountStore, profileSvc *profiles.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := ClaimsFromCtx(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		if claims.SID != uuid.Nil {
			if client := registry.Get(claims.SID); client != nil {
				c.Locals(sessionStateKey, client.Resolver.Snapshot())
				return c.Next()
			}
		}

		account, err := accounts.ByID(c.UserContext(), claims.UserID)
		if err != nil {
			if errors.Is(err, identity.ErrAccountNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
					Error: true, Message: "Unauthorized",
				})
			}
			slog.Error("account lookup failed", "user_id", claims.UserID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}

		ident := &identity.Identity{ID: account.ID, Email: account.Email, DisplayName: account.DisplayName}
		profile, err := profileSvc.Resolve(c.UserContext(), ident)
		if err != nil {
			slog.Error("profile resolution failed", "user_id", claims.UserID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}

		c.Locals(sessionStateKey, session.State{Identity: ident, Profile: profile})
		return c.Next()
	}
}

// OptionalSessionState builds session state from a bearer token when one is
// present and valid, and an anonymous state otherwise. Used by public-only
// views to redirect already-authenticated users.
func OptionalSessionState(cfg *config.Config, registry *session.Registry, accounts identity.AccountStore, profileSvc *profiles.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if raw == "" || raw == c.Get(fiber.HeaderAuthorization) {
			c.Locals(sessionStateKey, session.State{})
			return c.Next()
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.Locals(sessionStateKey, session.State{})
			return c.Next()
		}

		mapClaims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.Locals(sessionStateKey, session.State{})
			return c.Next()
		}
		claims, err := parseClaims(mapClaims)
		if err != nil {
			c.Locals(sessionStateKey, session.State{})
			return c.Next()
		}

		if claims.SID != uuid.Nil {
			if client := registry.Get(claims.SID); client != nil {
				c.Locals(sessionStateKey, client.Resolver.Snapshot())
				return c.Next()
			}
		}

		account, err := accounts.ByID(c.UserContext(), claims.UserID)
		if err != nil {
			c.Locals(sessionStateKey, session.State{})
			return c.Next()
		}
		ident := &identity.Identity{ID: account.ID, Email: account.Email, DisplayName: account.DisplayName}
		profile, err := profileSvc.Resolve(c.UserContext(), ident)
		if err != nil {
			c.Locals(sessionStateKey, session.State{})
			return c.Next()
		}
		c.Locals(sessionStateKey, session.State{Identity: ident, Profile: profile})
		return c.Next()
	}
}
