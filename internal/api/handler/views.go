package handler

import (
	"time"

	"github.com/onegat/console/internal/core/domain"
)

// screenView is the JSON rendering of a console screen.
type screenView struct {
	Screen string              `json:"screen"`
	Path   string              `json:"path"`
	Params map[string]string   `json:"params,omitempty"`
	Public bool                `json:"public"`
	User   *domain.UserProfile `json:"user,omitempty"`
	Menu   []domain.MenuItem   `json:"menu,omitempty"`
}

type loginView struct {
	Screen        string              `json:"screen"`
	Authenticated bool                `json:"authenticated"`
	User          *domain.UserProfile `json:"user,omitempty"`
	Landing       string              `json:"landing,omitempty"`
}

type sessionView struct {
	Authenticated bool                `json:"authenticated"`
	User          *domain.UserProfile `json:"user,omitempty"`
	ExpiresAt     *time.Time          `json:"expires_at,omitempty"`
	Terms         string              `json:"terms"`
	Menu          []domain.MenuItem   `json:"menu,omitempty"`
	Landing       string              `json:"landing,omitempty"`
}

type loginResponse struct {
	User         *domain.UserProfile `json:"user"`
	Redirect     string              `json:"redirect,omitempty"`
	TermsPending bool                `json:"terms_pending"`
}

// loginErrorResponse lets the login screen tell rejection reasons apart.
type loginErrorResponse struct {
	Error           string `json:"error"`
	Reason          string `json:"reason"`
	MustAcceptTerms bool   `json:"must_accept_terms,omitempty"`
}

type redirectResponse struct {
	Redirect string `json:"redirect"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func menuFor(s domain.SessionState) []domain.MenuItem {
	if !s.Authenticated {
		return nil
	}
	return domain.Menu(s.Role())
}
