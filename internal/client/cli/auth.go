package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/vidtube/internal/client/models"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for the account fields and image paths and creates the
// account. It does not log in.
func (a *App) Register(ctx context.Context) error {
	var r models.RegisterRequest
	prompts := []struct {
		label string
		dst   *string
	}{
		{"Full name", &r.FullName},
		{"Username", &r.Username},
		{"Email", &r.Email},
		{"Avatar image path", &r.AvatarPath},
		{"Cover image path (optional)", &r.CoverImagePath},
	}
	for _, p := range prompts {
		v, err := getSimpleText(a.reader, p.label, a.out)
		if err != nil {
			return err
		}
		*p.dst = v
	}

	password, err := getPassword("Password", a.out)
	if err != nil {
		return err
	}
	r.Password = password

	user, err := a.authService.Register(ctx, r)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s. You can log in now.\n", user.Username)
	return nil
}

// Login accepts a username or an email address.
func (a *App) Login(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Username or email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Password", a.out)
	if err != nil {
		return err
	}

	user, err := a.authService.Login(ctx, identifier, password)
	if err != nil {
		return err
	}

	a.userName = user.Username
	fmt.Fprintf(a.out, "Logged in as %s\n", user.Username)
	return nil
}

// Logout always forgets the local session, even when the server call fails.
func (a *App) Logout(ctx context.Context) error {
	err := a.authService.Logout(ctx)
	a.userName = ""
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.authService.Refresh(ctx); err != nil {
		a.syncUser(ctx)
		return err
	}
	fmt.Fprintln(a.out, "Session refreshed")
	return nil
}

func (a *App) ChangePassword(ctx context.Context) error {
	oldPassword, err := getPassword("Current password", a.out)
	if err != nil {
		return err
	}
	newPassword, err := getPassword("New password", a.out)
	if err != nil {
		return err
	}

	if err := a.authService.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		a.syncUser(ctx)
		return err
	}
	fmt.Fprintln(a.out, "Password changed")
	return nil
}

// syncUser re-reads the stored username; an expired session clears it.
func (a *App) syncUser(ctx context.Context) {
	if name, err := a.authService.Username(ctx); err == nil {
		a.userName = name
	}
}
