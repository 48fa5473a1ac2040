package domain

import "time"

// Credential is the bearer token plus the expiry decoded from it.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

// SessionState is what the auth context exposes to the rest of the shell.
//
// Authenticated is true iff Credential is present and unexpired and
// Profile.AcceptedDemoTerms is true. Credential and Profile are set and
// cleared together.
type SessionState struct {
	Credential    *Credential
	Profile       *UserProfile
	Authenticated bool
}

// Token returns the bearer token, or "" when there is no credential.
func (s SessionState) Token() string {
	if s.Credential == nil {
		return ""
	}
	return s.Credential.Token
}

// Role returns the profile role, or "" when there is no profile.
func (s SessionState) Role() Role {
	if s.Profile == nil {
		return ""
	}
	return s.Profile.Role
}

// IsEmpty reports whether nothing is stored.
func (s SessionState) IsEmpty() bool {
	return s.Credential == nil && s.Profile == nil
}
