package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophdrive/internal/client/models"
)

// ErrCorruptCredentials reports stored credential data that cannot be used.
// The Manager resolves it locally by clearing the store.
var ErrCorruptCredentials = errors.New("corrupt stored credentials")

// EncodeUser serializes u into the stored user record.
func EncodeUser(u models.User) ([]byte, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	return b, nil
}

// DecodeUser parses a stored user record. The record must be a JSON object
// with a non-zero id and a non-empty username.
func DecodeUser(b []byte) (models.User, error) {
	var u models.User
	if err := json.Unmarshal(b, &u); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrCorruptCredentials, err)
	}
	if err := validateUser(u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func validateUser(u models.User) error {
	if u.ID == 0 {
		return fmt.Errorf("%w: user id is missing", ErrCorruptCredentials)
	}
	if u.Username == "" {
		return fmt.Errorf("%w: username is missing", ErrCorruptCredentials)
	}
	return nil
}
