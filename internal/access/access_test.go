package access

import (
	"testing"

	"github.com/bkoseoglu/mallhub/internal/identity"
	"github.com/bkoseoglu/mallhub/internal/profiles"
	"github.com/bkoseoglu/mallhub/internal/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func signedIn(role profiles.Role, business *profiles.BusinessInfo) session.State {
	id := uuid.New()
	return session.State{
		Identity: &identity.Identity{ID: id, Email: "user@example.com"},
		Profile:  &profiles.Profile{ID: id, Email: "user@example.com", Role: role, Business: business},
	}
}

func TestDecide(t *testing.T) {
	retail := &profiles.BusinessInfo{Name: "Bookworm", Type: "retail"}

	tests := []struct {
		name         string
		state        session.State
		req          Requirement
		wantVerdict  Verdict
		wantLocation string
	}{
		{
			name:        "loading always shows loading",
			state:       session.State{Loading: true},
			req:         RequiresAuth,
			wantVerdict: ShowLoading,
		},
		{
			name:        "loading admin check shows loading, never denies",
			state:       session.State{Loading: true},
			req:         RequiresAdmin,
			wantVerdict: ShowLoading,
		},
		{
			name:        "identity without profile is still loading",
			state:       session.State{Identity: &identity.Identity{ID: uuid.New()}},
			req:         RequiresAuth,
			wantVerdict: ShowLoading,
		},
		{
			name:         "anonymous is sent to login",
			state:        session.State{},
			req:          RequiresAuth,
			wantVerdict:  RedirectToLogin,
			wantLocation: LoginPath,
		},
		{
			name:         "anonymous admin route is sent to login, not denied",
			state:        session.State{},
			req:          RequiresAdmin,
			wantVerdict:  RedirectToLogin,
			wantLocation: LoginPath,
		},
		{
			name:        "signed-in user passes plain auth",
			state:       signedIn(profiles.RoleUser, nil),
			req:         RequiresAuth,
			wantVerdict: Allow,
		},
		{
			name:        "regular user denied admin",
			state:       signedIn(profiles.RoleUser, nil),
			req:         RequiresAdmin,
			wantVerdict: Deny,
		},
		{
			name:        "admin passes admin",
			state:       signedIn(profiles.RoleAdmin, nil),
			req:         RequiresAdmin,
			wantVerdict: Allow,
		},
		{
			name:        "business owner passes business surface",
			state:       signedIn(profiles.RoleUser, retail),
			req:         RequiresBusinessOwner,
			wantVerdict: Allow,
		},
		{
			name:        "plain user denied business surface",
			state:       signedIn(profiles.RoleUser, nil),
			req:         RequiresBusinessOwner,
			wantVerdict: Deny,
		},
		{
			name:        "admin denied business surface even with business info",
			state:       signedIn(profiles.RoleAdmin, retail),
			req:         RequiresBusinessOwner,
			wantVerdict: Deny,
		},
		{
			name:        "anonymous allowed on public-only",
			state:       session.State{},
			req:         PublicOnly,
			wantVerdict: Allow,
		},
		{
			name:         "signed-in user redirected off public-only",
			state:        signedIn(profiles.RoleUser, nil),
			req:          PublicOnly,
			wantVerdict:  Redirect,
			wantLocation: HomePath,
		},
		{
			name:         "signed-in admin redirected to dashboard off public-only",
			state:        signedIn(profiles.RoleAdmin, nil),
			req:          PublicOnly,
			wantVerdict:  Redirect,
			wantLocation: AdminDashboardPath,
		},
		{
			name:        "loading public-only shows loading",
			state:       session.State{Loading: true},
			req:         PublicOnly,
			wantVerdict: ShowLoading,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.state, tt.req)
			assert.Equal(t, tt.wantVerdict, got.Verdict)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, got.Location)
			}
			if got.Verdict == Deny {
				assert.NotEmpty(t, got.Message)
			}
		})
	}
}

func TestDecide_IsPure(t *testing.T) {
	state := signedIn(profiles.RoleUser, nil)
	first := Decide(state, RequiresAdmin)
	second := Decide(state, RequiresAdmin)
	assert.Equal(t, first, second)
	assert.Equal(t, profiles.RoleUser, state.Profile.Role, "deciding must not mutate the state")
}
