// Package access decides what a session may do. Decide is a pure function of
// the published session state and the capability a view requires; it never
// mutates state and is re-evaluated on every request.
package access

import (
	"github.com/bkoseoglu/mallhub/internal/session"
)

// Requirement is the capability a protected view declares.
type Requirement int

const (
	// RequiresAuth admits any signed-in profile.
	RequiresAuth Requirement = iota
	// RequiresAdmin admits only the admin role.
	RequiresAdmin
	// RequiresBusinessOwner admits non-admin profiles with business info.
	// Administrators are deliberately excluded from the business surface.
	RequiresBusinessOwner
	// PublicOnly is the inverse guard for login/registration views: a
	// signed-in user is redirected to their default surface by role.
	PublicOnly
)

type Verdict int

const (
	Allow Verdict = iota
	ShowLoading
	RedirectToLogin
	Deny
	Redirect
)

// Default navigation targets.
const (
	LoginPath          = "/login"
	HomePath           = "/"
	AdminDashboardPath = "/admin"
)

type Decision struct {
	Verdict  Verdict
	Message  string
	Location string
}

// Decide evaluates predicates in precedence order; the first match wins.
//
//  1. state still loading (including the window where an identity is
//     resolved but its profile is not yet published) → ShowLoading.
//  2. no identity → RedirectToLogin (PublicOnly allows instead).
//  3. requirement-specific role/business predicate.
//  4. Allow.
func Decide(state session.State, req Requirement) Decision {
	if state.Loading || (state.Identity != nil && state.Profile == nil) {
		return Decision{Verdict: ShowLoading}
	}

	if req == PublicOnly {
		if state.Identity != nil {
			target := HomePath
			if state.Profile.IsAdmin() {
				target = AdminDashboardPath
			}
			return Decision{Verdict: Redirect, Location: target}
		}
		return Decision{Verdict: Allow}
	}

	if state.Identity == nil {
		return Decision{Verdict: RedirectToLogin, Location: LoginPath}
	}

	switch req {
	case RequiresAdmin:
		if !state.Profile.IsAdmin() {
			return Decision{Verdict: Deny, Message: "admin access required"}
		}
	case RequiresBusinessOwner:
		if !state.Profile.IsBusinessOwner() {
			return Decision{Verdict: Deny, Message: "business access required"}
		}
	}

	return Decision{Verdict: Allow}
}
