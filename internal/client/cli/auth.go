package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/common"
)

// getSimpleText, getPassword and confirm are indirections used to
// facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	confirm       = Confirm
)

var errEmptyField = errors.New("value must not be empty")

func (a *App) prompt(label string) (string, error) {
	v, err := getSimpleText(a.reader, label, a.out)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%s: %w", label, errEmptyField)
	}
	return v, nil
}

// Register prompts for a username, email and password and creates the
// account. It does not log in.
func (a *App) Register(ctx context.Context) error {
	username, err := a.prompt("Enter username")
	if err != nil {
		return err
	}
	email, err := a.prompt("Enter email")
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	msg, err := a.api.Register(ctx, models.Registration{
		Username: username,
		Email:    email,
		Password: string(password),
	})
	if err != nil {
		a.log.Warn(ctx, "registration failed", "username", username, "error", err)
		return err
	}

	if msg == "" {
		msg = "Registration successful"
	}
	a.println(msg)
	return nil
}

// Login authenticates and persists the session. When username is empty it
// is read from the prompt. It refuses to run while a session is active.
func (a *App) Login(ctx context.Context, username string) error {
	if a.isLoggedIn() {
		return ErrAlreadyLoggedIn
	}

	if username == "" {
		var err error
		if username, err = a.prompt("Enter username"); err != nil {
			return err
		}
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.session.Login(ctx, models.Credentials{Username: username, Password: string(password)})
	if err != nil {
		a.log.Warn(ctx, "login failed", "username", username, "error", err)
		return err
	}

	a.log.Info(ctx, "login successful", "username", user.Username)
	a.printf("Logged in as %s\n", user.Username)
	return nil
}

// Logout forgets the session. It is a no-op when nobody is logged in.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println("Not logged in")
		return nil
	}
	a.session.Logout(ctx)
	a.println("Logged out")
	return nil
}

// WhoAmI prints the current user and when the token expires.
func (a *App) WhoAmI(ctx context.Context) error {
	st := a.session.State()
	if !st.IsAuthenticated || st.User == nil {
		return ErrNotLoggedIn
	}

	a.printf("Username: %s\n", st.User.Username)
	if st.User.Email != "" {
		a.printf("Email:    %s\n", st.User.Email)
	}
	a.printf("ID:       %d\n", st.User.ID)

	if exp, ok := a.session.TokenExpiry(); ok {
		state := "valid"
		if time.Now().After(exp) {
			state = "expired"
		}
		a.printf("Token:    %s until %s\n", state, exp.Local().Format(time.DateTime))
	}
	return nil
}
