package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"egadget-storefront/internal/auth"
)

func runLoginCmd(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("login", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var email, password string
	cmd.StringVar(&email, "email", "", "Account email (REQUIRED)")
	cmd.StringVar(&password, "password", "", "Account password (REQUIRED)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	if err := a.session.Login(ctx, email, password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			_, _ = fmt.Fprintln(stderr, "Error: invalid email or password")
			return 1
		}
		return fail(stderr, err)
	}

	u := a.session.User()
	_, _ = fmt.Fprintf(stdout, "Welcome back, %s!\n", u.Name)
	return 0
}

func runRegisterCmd(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("register", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var name, email, password string
	cmd.StringVar(&name, "name", "", "Full name (REQUIRED)")
	cmd.StringVar(&email, "email", "", "Email address (REQUIRED)")
	cmd.StringVar(&password, "password", "", "Password (REQUIRED)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	if err := a.session.Register(ctx, name, email, password); err != nil {
		if errors.Is(err, auth.ErrEmailInUse) {
			_, _ = fmt.Fprintln(stderr, "Error: an account with this email already exists")
			return 1
		}
		return fail(stderr, err)
	}

	_, _ = fmt.Fprintf(stdout, "Account created. Welcome, %s!\n", a.session.User().Name)
	return 0
}

func runLogoutCmd(ctx context.Context, a *app, _ []string, stdout, stderr io.Writer) int {
	if err := a.session.Logout(ctx); err != nil {
		return fail(stderr, err)
	}
	_, _ = fmt.Fprintln(stdout, "Signed out.")
	return 0
}

func runWhoamiCmd(_ context.Context, a *app, _ []string, stdout, stderr io.Writer) int {
	u := a.session.User()
	if u == nil {
		_, _ = fmt.Fprintln(stderr, "Not signed in.")
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "%s <%s>\n", u.Name, u.Email)
	return 0
}

func runProfileCmd(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("profile", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var name, email, phone, address string
	cmd.StringVar(&name, "name", "", "New display name")
	cmd.StringVar(&email, "email", "", "New email")
	cmd.StringVar(&phone, "phone", "", "New phone number")
	cmd.StringVar(&address, "address", "", "New address")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	u := a.session.User()
	if u == nil {
		_, _ = fmt.Fprintln(stderr, "Not signed in.")
		return 1
	}

	if cmd.NFlag() > 0 {
		p := auth.Profile{Name: u.Name, Email: u.Email, Phone: u.Phone, Address: u.Address}
		cmd.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "name":
				p.Name = name
			case "email":
				p.Email = email
			case "phone":
				p.Phone = phone
			case "address":
				p.Address = address
			}
		})
		if err := a.session.UpdateProfile(ctx, p); err != nil {
			return fail(stderr, err)
		}
		_, _ = fmt.Fprintln(stdout, "Profile updated.")
		u = a.session.User()
	}

	_, _ = fmt.Fprintf(stdout, "Name:    %s\n", u.Name)
	_, _ = fmt.Fprintf(stdout, "Email:   %s\n", u.Email)
	_, _ = fmt.Fprintf(stdout, "Phone:   %s\n", u.Phone)
	_, _ = fmt.Fprintf(stdout, "Address: %s\n", u.Address)
	return 0
}

func runResetPasswordCmd(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var email string
	cmd.StringVar(&email, "email", "", "Account email (REQUIRED)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	if err := a.session.RequestPasswordReset(ctx, email); err != nil {
		return fail(stderr, err)
	}
	_, _ = fmt.Fprintf(stdout, "If an account exists for %s, a reset link is on its way.\n", email)
	return 0
}
