package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/cmsauth/internal/client/storage"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(ctx context.Context) error {
			return a.runStatus(ctx)
		}),
	}
}

func (a *app) runStatus(ctx context.Context) error {
	store, err := a.sessions(ctx)
	if err != nil {
		return err
	}

	sess, err := store.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			a.io.Println("Status: not logged in")
			return nil
		}
		return fmt.Errorf("failed to read session: %w", err)
	}

	now := a.now()
	a.io.Println("Status: logged in")
	a.io.Printf("Username: %s\n", sess.Username)
	a.io.Printf("Server: %s\n", sess.ServerURL)
	a.io.Printf("Access token: %s (until %s)\n", validity(sess.AccessValid(now)), formatTime(sess.AccessExpiresAt))
	a.io.Printf("Refresh token: %s (until %s)\n", validity(sess.RefreshValid(now)), formatTime(sess.RefreshExpiresAt))
	return nil
}

func validity(ok bool) string {
	if ok {
		return "valid"
	}
	return "expired"
}
