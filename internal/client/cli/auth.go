package cli

import (
	"context"
	"time"

	"github.com/dmitrijs2005/stockkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a username, an email and a password and creates an
// account. On success the new account is signed in.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Register(ctx, userName, email, string(password)); err != nil {
		return a.fail(err, "Registration failed")
	}

	a.claimCart(ctx, userName)
	a.printf("Welcome, %s!\n", userName)
	return nil
}

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Login(ctx, userName, string(password)); err != nil {
		return a.fail(err, "Login failed")
	}

	a.claimCart(ctx, userName)
	a.printf("Login successful\n")
	return nil
}

// Logout ends the session and empties the cart. It always succeeds locally.
func (a *App) Logout(ctx context.Context) error {
	a.authService.Logout(ctx)
	if err := a.orderService.Clear(ctx); err != nil {
		a.log.Warn(ctx, "cart not cleared on logout", "error", err)
	}
	a.printf("Logged out\n")
	return nil
}

// claimCart hands the local cart to the account that just signed in.
func (a *App) claimCart(ctx context.Context, userName string) {
	if u := a.authService.CurrentUser(); u != nil && u.Username != "" {
		userName = u.Username
	}
	if err := a.orderService.Claim(ctx, userName); err != nil {
		a.log.Warn(ctx, "cart not claimed", "error", err)
	}
}

// Status prints who is signed in, until when the access token is valid and
// the connectivity mode.
func (a *App) Status(ctx context.Context) error {
	a.printf("Backend:  %s\n", a.config.APIBaseURL)
	if mode := a.Mode(); mode != "" {
		a.printf("Mode:     %s\n", mode)
	}

	user := a.authService.CurrentUser()
	if user == nil {
		a.printf("Session:  %s\n", a.authService.State())
		return nil
	}

	a.printf("User:     %s <%s>\n", user.Username, user.Email)
	if exp, err := a.authService.TokenExpiry(); err == nil {
		a.printf("Token:    valid until %s\n", exp.Local().Format(time.DateTime))
	}
	return nil
}
