// Package session owns the client's authentication state: a pure state
// transition function and a Manager that drives it from the credential
// store and the remote login call.
package session

import "github.com/dmitrijs2005/gophdrive/internal/client/models"

// State is the client's view of the current session.
// IsAuthenticated holds exactly when User is set and Token is non-empty.
type State struct {
	IsAuthenticated bool
	User            *models.User
	Token           string
	IsLoading       bool
}

// InitialState is the state before the store has been read.
func InitialState() State {
	return State{IsLoading: true}
}

// clone returns a copy that shares no memory with s.
func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Action is one of Initialize, LoginSuccess, Logout or SetLoading.
type Action interface {
	isAction()
}

// Initialize resolves the initial state from stored credentials.
// A nil User or an empty Token resolves to unauthenticated.
type Initialize struct {
	User  *models.User
	Token string
}

// LoginSuccess installs freshly issued credentials.
type LoginSuccess struct {
	User  models.User
	Token string
}

// Logout drops the credentials.
type Logout struct{}

// SetLoading toggles the busy flag and nothing else.
type SetLoading struct {
	Loading bool
}

func (Initialize) isAction()   {}
func (LoginSuccess) isAction() {}
func (Logout) isAction()       {}
func (SetLoading) isAction()   {}

func authenticated(u *models.User, token string) State {
	if u == nil || token == "" {
		return State{}
	}
	user := *u
	return State{IsAuthenticated: true, User: &user, Token: token}
}

// Transition applies a to s and returns the resulting state. It is pure:
// s is not modified and the result shares no memory with a or s.
// Every action except SetLoading clears IsLoading. Unknown actions return
// s unchanged.
func Transition(s State, a Action) State {
	switch a := a.(type) {
	case Initialize:
		return authenticated(a.User, a.Token)
	case LoginSuccess:
		return authenticated(&a.User, a.Token)
	case Logout:
		return State{}
	case SetLoading:
		next := s.clone()
		next.IsLoading = a.Loading
		return next
	default:
		return s.clone()
	}
}
