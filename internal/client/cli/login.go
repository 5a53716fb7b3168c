package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	clientapi "github.com/iudanet/cmsauth/internal/client/api"
	"github.com/iudanet/cmsauth/internal/client/storage"
)

func newLoginCmd(a *app) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session locally",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(ctx context.Context) error {
			return a.runLogin(ctx, username)
		}),
	}

	cmd.Flags().StringVar(&username, "username", "", "username (prompted if empty)")

	return cmd
}

func (a *app) runLogin(ctx context.Context, username string) error {
	var err error
	if username == "" {
		if username, err = a.io.ReadInput("Username: "); err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
	}

	password, err := a.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	client := a.api()
	tokens, err := client.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, clientapi.ErrUnauthorized) {
			return fmt.Errorf("invalid username or password")
		}
		return err
	}

	store, err := a.sessions(ctx)
	if err != nil {
		return err
	}

	sess := &storage.Session{
		Username:         username,
		ServerURL:        client.BaseURL(),
		AccessToken:      tokens.AccessToken,
		RefreshToken:     tokens.RefreshToken,
		AccessExpiresAt:  tokens.AccessExpiresAt,
		RefreshExpiresAt: tokens.RefreshExpiresAt,
		SavedAt:          a.now(),
	}
	if err := store.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	a.io.Printf("Logged in as %s\n", username)
	a.io.Printf("Session valid until %s\n", formatTime(sess.RefreshExpiresAt))
	return nil
}
