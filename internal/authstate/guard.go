package authstate

import (
	"github.com/dimitrije/aiden-dashboard/internal/access"
	"github.com/dimitrije/aiden-dashboard/internal/models"
)

type Decision int

const (
	DecisionLoading Decision = iota
	DecisionLogin
	DecisionDenied
	DecisionAllow
)

func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionLogin:
		return "login"
	case DecisionDenied:
		return "denied"
	case DecisionAllow:
		return "allow"
	default:
		return "unknown"
	}
}

// Check decides what a protected view shows for state. An empty required
// set denies every role.
func Check(state AuthState, required []models.Role) Decision {
	if state.IsLoading {
		return DecisionLoading
	}
	if !state.IsAuthenticated || state.User == nil {
		return DecisionLogin
	}
	if !access.Allowed(state.User.Role, required) {
		return DecisionDenied
	}
	return DecisionAllow
}

// Guard gates one protected view behind a required-role set.
type Guard struct {
	Required []models.Role
}

// DefaultGuard admits every role.
func DefaultGuard() Guard {
	return Guard{Required: models.AllRoles()}
}

// GuardFor returns the guard of a named dashboard area.
func GuardFor(area string) Guard {
	return Guard{Required: access.RolesFor(area)}
}

func (g Guard) Decide(state AuthState) Decision {
	return Check(state, g.Required)
}

// Enter runs view only when state is allowed through. Otherwise view is
// never called and the error names what to show instead.
func (g Guard) Enter(state AuthState, view func(user *models.User) error) error {
	switch g.Decide(state) {
	case DecisionLoading:
		return ErrSessionLoading
	case DecisionLogin:
		return ErrLoginRequired
	case DecisionDenied:
		return ErrAccessDenied
	}
	return view(state.User.Clone())
}
