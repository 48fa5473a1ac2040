package service

import (
	"context"
	"sync"

	"github.com/onegat/console/internal/core/domain"
)

const (
	DefaultLoginPath     = "/"
	DefaultForbiddenPath = "/no-autorizado"
)

// Outcome is the result of a gate check.
type Outcome int

const (
	Allow Outcome = iota
	RedirectLogin
	RedirectForbidden
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectForbidden:
		return "redirect_forbidden"
	default:
		return "unknown"
	}
}

// Decision says whether a navigation may render and, if not, where it goes.
type Decision struct {
	Outcome  Outcome `json:"-"`
	Location string  `json:"location,omitempty"`
}

// Gate decides access to guarded screens. It keeps no state between calls.
type Gate struct {
	loginPath     string
	forbiddenPath string
}

func NewGate(loginPath, forbiddenPath string) *Gate {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	if forbiddenPath == "" {
		forbiddenPath = DefaultForbiddenPath
	}
	return &Gate{loginPath: loginPath, forbiddenPath: forbiddenPath}
}

func (g *Gate) LoginPath() string     { return g.loginPath }
func (g *Gate) ForbiddenPath() string { return g.forbiddenPath }

// Decide evaluates one navigation to route.
func (g *Gate) Decide(route domain.RouteAuthSpec, state domain.SessionState) Decision {
	if !state.Authenticated || state.Profile == nil {
		return Decision{Outcome: RedirectLogin, Location: g.loginPath}
	}
	if !route.Allows(state.Profile.Role) {
		return Decision{Outcome: RedirectForbidden, Location: g.forbiddenPath}
	}
	return Decision{Outcome: Allow}
}

// Watch keeps route mounted against auth and delivers the first redirect
// caused by a state change. The channel is closed after that redirect, when
// ctx ends, or without a decision when auth is closed.
func (g *Gate) Watch(ctx context.Context, auth *AuthContext, route domain.RouteAuthSpec) <-chan Decision {
	out := make(chan Decision, 1)
	stop := make(chan struct{})
	var once sync.Once

	finish := func(d *Decision) {
		once.Do(func() {
			if d != nil {
				out <- *d
			}
			close(out)
			close(stop)
		})
	}

	cancel := auth.Subscribe(func(s domain.SessionState) {
		if d := g.Decide(route, s); d.Outcome != Allow {
			finish(&d)
		}
	})

	go func() {
		select {
		case <-ctx.Done():
			finish(nil)
		case <-auth.Done():
			finish(nil)
		case <-stop:
		}
		cancel()
	}()

	if d := g.Decide(route, auth.Snapshot()); d.Outcome != Allow {
		finish(&d)
	}
	return out
}
