package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sevr/internal/client/client"
)

// getSimpleText, getPassword and getConfirmation are swapped in tests.
var (
	getSimpleText   = GetSimpleText
	getPassword     = GetPassword
	getConfirmation = GetConfirmation
)

// Login asks for an email, sends a code to it and verifies the code.
// The cached email is offered as the default.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		fmt.Fprintf(a.out, "Already logged in as %s\n", a.user.Email)
		return nil
	}

	prompt := "Enter email"
	cached, err := a.session.Email(ctx)
	if err != nil {
		return err
	}
	if cached != "" {
		prompt = fmt.Sprintf("Enter email (empty for %s)", cached)
	}

	email, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return err
	}
	if email == "" {
		email = cached
	}

	if err := a.session.RequestCode(ctx, email); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "A sign-in code has been sent.")

	code, err := getSimpleText(a.reader, "Enter code", a.out)
	if err != nil {
		return err
	}

	res, err := a.session.Login(ctx, email, code)
	if err != nil {
		return err
	}

	a.user = &res.User
	if res.IsNewUser {
		fmt.Fprintf(a.out, "Welcome, %s! Type 'unlock' to set up your vault.\n", res.User.Email)
	} else {
		fmt.Fprintf(a.out, "Logged in as %s\n", res.User.Email)
	}
	return nil
}

// Logout locks the vault and ends the session. The local session is dropped
// even when the server cannot be told.
func (a *App) Logout(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	a.vault.Lock()
	a.items = nil
	a.user = nil

	if err := a.session.Logout(ctx); err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			fmt.Fprintln(a.out, "Logged out locally; server was not reachable")
			return nil
		}
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	u, err := a.session.Me(ctx)
	if err != nil {
		return err
	}
	role := "user"
	if u.IsAdmin {
		role = "admin"
	}
	fmt.Fprintf(a.out, "%s (%s), member since %s\n", u.Email, role, u.CreatedAt.Format("2006-01-02"))
	return nil
}

// DeleteAccount removes the account and everything stored for it.
func (a *App) DeleteAccount(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	ok, err := getConfirmation(a.reader, "Delete your account and all vault data?", a.out)
	if err != nil || !ok {
		return err
	}

	if err := a.session.DeleteAccount(ctx); err != nil {
		return err
	}
	a.vault.Lock()
	a.items = nil
	a.user = nil
	fmt.Fprintln(a.out, "Account deleted")
	return nil
}
