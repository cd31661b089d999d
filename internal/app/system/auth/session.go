// internal/app/system/auth/session.go
package auth

import "fmt"

// State is where a request's session is in its lifecycle.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Session is the explicit per-request authentication state. It replaces any
// notion of a process-wide "current member": LoadSessionUser creates one per
// request and moves it through
//
//	Unauthenticated → Authenticating → Authenticated
//
// and back to Unauthenticated on any verification failure.
type Session struct {
	state State
	user  *SessionUser
}

// NewSession returns a session in the Unauthenticated state.
func NewSession() *Session {
	return &Session{state: Unauthenticated}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// User returns the authenticated member, or nil unless Authenticated.
func (s *Session) User() *SessionUser {
	if s.state != Authenticated {
		return nil
	}
	return s.user
}

// Begin moves Unauthenticated → Authenticating.
func (s *Session) Begin() error {
	if s.state != Unauthenticated {
		return fmt.Errorf("auth: cannot begin from %s", s.state)
	}
	s.state = Authenticating
	return nil
}

// Succeed moves Authenticating → Authenticated with the verified member.
func (s *Session) Succeed(u *SessionUser) error {
	if s.state != Authenticating {
		return fmt.Errorf("auth: cannot authenticate from %s", s.state)
	}
	if u == nil {
		return fmt.Errorf("auth: cannot authenticate without a member")
	}
	s.state = Authenticated
	s.user = u
	return nil
}

// Fail drops back to Unauthenticated from any state.
func (s *Session) Fail() {
	s.state = Unauthenticated
	s.user = nil
}
