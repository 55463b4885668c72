package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codenestai/client/internal/api"
	"github.com/codenestai/client/internal/session"
)

func newLoginCmd(rt *runtime) *cobra.Command {
	var email, password string

	cmd := withSession(&cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long:  "Sign in with email and password. The password is read from stdin when --password is omitted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			auth := session.FromContext(ctx)
			if password == "" {
				secret, err := readSecret(rt.in)
				if err != nil {
					return err
				}
				password = secret
			}
			if err := auth.Login(ctx, email, password); err != nil {
				return err
			}
			return rt.printJSON(auth.User())
		},
	})

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCmd(rt *runtime) *cobra.Command {
	var req api.RegisterRequest

	cmd := withSession(&cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			auth := session.FromContext(ctx)
			if req.Password == "" {
				secret, err := readSecret(rt.in)
				if err != nil {
					return err
				}
				req.Password = secret
			}
			if err := auth.Register(ctx, req); err != nil {
				return err
			}
			return rt.printJSON(auth.User())
		},
	})

	cmd.Flags().StringVar(&req.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Account password")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginGoogleCmd(rt *runtime) *cobra.Command {
	return withSession(&cobra.Command{
		Use:   "login-google <id-token>",
		Short: "Sign in with a Google ID token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			auth := session.FromContext(ctx)
			if err := auth.LoginWithGoogle(ctx, args[0]); err != nil {
				return err
			}
			return rt.printJSON(auth.User())
		},
	})
}

func newLogoutCmd(rt *runtime) *cobra.Command {
	return withSession(&cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := session.FromContext(ctx).Logout(ctx); err != nil {
				return err
			}
			return rt.printStatus("signed out")
		},
	})
}

func newWhoamiCmd(rt *runtime) *cobra.Command {
	return withSession(&cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			auth, err := restore(cmd.Context())
			if err != nil {
				return err
			}
			return rt.printJSON(auth.User())
		},
	})
}

// restore resumes the session in scope and fails when nobody is signed in.
func restore(ctx context.Context) (session.Auth, error) {
	auth := session.FromContext(ctx)
	if err := auth.Restore(ctx); err != nil {
		return nil, err
	}
	if !auth.IsAuthenticated() {
		return nil, errNotSignedIn
	}
	return auth, nil
}

func readSecret(r io.Reader) (string, error) {
	if r == nil {
		return "", errors.New("password is required")
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return "", errors.New("password is required")
	}
	return secret, nil
}
