package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/cmsauth/internal/client/storage"
)

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and remove the local session",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(ctx context.Context) error {
			return a.runLogout(ctx)
		}),
	}
}

func (a *app) runLogout(ctx context.Context) error {
	store, err := a.sessions(ctx)
	if err != nil {
		return err
	}

	// Сервер только очищает cookie, поэтому его недоступность не мешает выходу
	if err := a.api().Logout(ctx); err != nil {
		a.io.Printf("Warning: server logout failed: %v\n", err)
	}

	if err := store.DeleteSession(ctx); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			a.io.Println("Not logged in")
			return nil
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}

	a.io.Println("Logged out")
	return nil
}
