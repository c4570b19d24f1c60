package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bkoseoglu/mallhub/internal/access"
	"github.com/bkoseoglu/mallhub/internal/identity"
	"github.com/bkoseoglu/mallhub/internal/profiles"
	"github.com/bkoseoglu/mallhub/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func guardApp(state session.State, req access.Requirement) *fiber.App {
	app := fiber.New()
	app.Get("/gated",
		func(c *fiber.Ctx) error {
			c.Locals(sessionStateKey, state)
			return c.Next()
		},
		Guard(req),
		func(c *fiber.Ctx) error { return c.SendString("ok") },
	)
	return app
}

func TestGuard(t *testing.T) {
	id := uuid.New()
	user := session.State{
		Identity: &identity.Identity{ID: id},
		Profile:  &profiles.Profile{ID: id, Role: profiles.RoleUser},
	}
	admin := session.State{
		Identity: &identity.Identity{ID: id},
		Profile:  &profiles.Profile{ID: id, Role: profiles.RoleAdmin},
	}

	tests := []struct {
		name         string
		state        session.State
		req          access.Requirement
		wantStatus   int
		wantLocation string
	}{
		{"allowed request reaches handler", user, access.RequiresAuth, http.StatusOK, ""},
		{"loading state asks for retry", session.State{Loading: true}, access.RequiresAuth, http.StatusServiceUnavailable, ""},
		{"anonymous gets 401 with login location", session.State{}, access.RequiresAuth, http.StatusUnauthorized, access.LoginPath},
		{"non-admin gets 403", user, access.RequiresAdmin, http.StatusForbidden, ""},
		{"admin blocked from business surface", admin, access.RequiresBusinessOwner, http.StatusForbidden, ""},
		{"signed-in redirected off public-only", user, access.PublicOnly, http.StatusSeeOther, access.HomePath},
		{"admin redirected to dashboard off public-only", admin, access.PublicOnly, http.StatusSeeOther, access.AdminDashboardPath},
		{"anonymous passes public-only", session.State{}, access.PublicOnly, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := guardApp(tt.state, tt.req)
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/gated", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, resp.Header.Get(fiber.HeaderLocation))
			}
			if tt.wantStatus == http.StatusServiceUnavailable {
				assert.Equal(t, "1", resp.Header.Get(fiber.HeaderRetryAfter))
			}
		})
	}
}
