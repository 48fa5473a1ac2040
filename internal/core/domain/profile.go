package domain

// UserProfile is the authoritative user record returned by GET /auth/me.
// It is only ever replaced as a whole, never patched locally.
type UserProfile struct {
	ID                int64  `json:"id"`
	Username          string `json:"username"`
	Role              Role   `json:"role"`
	Email             string `json:"email,omitempty"`
	AcceptedTerms     bool   `json:"accepted_terms"`
	AcceptedDemoTerms bool   `json:"accepted_demo_terms"`
}

// Clone returns a copy so callers can never mutate installed state.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
