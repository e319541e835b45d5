package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/eventplanner/internal/client/client"
	"github.com/dmitrijs2005/eventplanner/internal/common"
)

var readSecret = ReadSecret

func (a *App) report(err error) error {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		fmt.Fprintf(a.out, "Error: %s\n", apiErr.Message)
		for _, f := range apiErr.Fields {
			fmt.Fprintf(a.out, "  %s: %s\n", f.Path, f.Message)
		}
	case errors.Is(err, client.ErrUnavailable):
		fmt.Fprintln(a.out, "Server unavailable, try again later.")
	default:
		fmt.Fprintf(a.out, "Error: %v\n", err)
	}
	return err
}

// Register prompts for name, email and password and creates an account.
// The activation link is printed so the account can be activated without a
// mailbox in development.
func (a *App) Register(ctx context.Context) error {
	name, err := ReadLine(a.reader, a.out, "Enter name")
	if err != nil {
		return err
	}
	email, err := ReadLine(a.reader, a.out, "Enter email")
	if err != nil {
		return err
	}
	password, err := readSecret(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := a.api.Register(ctx, name, email, password)
	if err != nil {
		return a.report(err)
	}

	fmt.Fprintln(a.out, "Account registered. Check your email, or run 'activate' with this link:")
	fmt.Fprintln(a.out, res.ActivationLink)
	return nil
}

// parseActivation accepts either a bare token or a full activation link
// carrying email and token query parameters.
func parseActivation(input string) (email, token string) {
	if u, err := url.Parse(input); err == nil && u.Scheme != "" {
		q := u.Query()
		return q.Get("email"), q.Get("token")
	}
	return "", input
}

// Activate verifies an email address with the emailed token or link.
func (a *App) Activate(ctx context.Context) error {
	input, err := ReadLine(a.reader, a.out, "Paste activation link or token")
	if err != nil {
		return err
	}

	email, token := parseActivation(input)
	if email == "" {
		if email, err = ReadLine(a.reader, a.out, "Enter email"); err != nil {
			return err
		}
	}

	if _, err := a.api.VerifyEmail(ctx, email, token); err != nil {
		return a.report(err)
	}

	fmt.Fprintln(a.out, "Email verified. You can log in now.")
	return nil
}

// Login runs both factors: password, then the emailed 6-digit code.
func (a *App) Login(ctx context.Context) error {
	email, err := ReadLine(a.reader, a.out, "Enter email")
	if err != nil {
		return err
	}
	password, err := readSecret(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.api.Generate2FA(ctx, email, password); err != nil {
		return a.report(err)
	}

	code, err := ReadCode(a.reader, a.out, "Enter the 6-digit code sent to "+email)
	if err != nil {
		return err
	}

	s, err := a.api.LoginWith2FA(ctx, email, code)
	if err != nil {
		return a.report(err)
	}

	*a.session = *s
	fmt.Fprintf(a.out, "Logged in as %s\n", a.status())
	return nil
}

// Refresh rotates the session tokens.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.api.Refresh(ctx, a.session); err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Tokens refreshed.")
	return nil
}

// WhoAmI prints the current profile.
func (a *App) WhoAmI(ctx context.Context) error {
	u, err := a.api.Me(ctx, a.session)
	if err != nil {
		return a.report(err)
	}
	verified := "unverified"
	if u.IsEmailVerified {
		verified = "verified"
	}
	fmt.Fprintf(a.out, "%s <%s> id=%s (%s)\n", u.Name, u.Email, u.ID, verified)
	return nil
}

// Logout revokes the session on the server. Local state is dropped even if
// the server call fails.
func (a *App) Logout(ctx context.Context) error {
	err := a.api.Logout(ctx, a.session)
	a.session.Clear()
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}
