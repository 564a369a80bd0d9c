// Package models defines the data exchanged between the gophdrive client
// and the storage service.
package models

// User identifies the authenticated account. It is also the schema of the
// user record kept in the credential store.
type User struct {
	ID       int64  `json:"id" yaml:"id"`
	Username string `json:"username" yaml:"username"`
	Email    string `json:"email" yaml:"email"`
}

// Credentials are submitted on login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is submitted to create an account.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by a successful login.
type AuthResponse struct {
	Token    string `json:"token"`
	Type     string `json:"type"`
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// User extracts the account fields of the response.
func (r AuthResponse) User() User {
	return User{ID: r.ID, Username: r.Username, Email: r.Email}
}

// MessageResponse is the generic {"message": "..."} body the service uses
// for acknowledgements and errors.
type MessageResponse struct {
	Message string `json:"message"`
}
