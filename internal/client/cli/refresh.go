package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func newRefreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Get a new access token using the stored refresh token",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(ctx context.Context) error {
			return a.runRefresh(ctx)
		}),
	}
}

func (a *app) runRefresh(ctx context.Context) error {
	store, sess, err := a.currentSession(ctx)
	if err != nil {
		return err
	}

	if err := a.refresh(ctx, store, sess); err != nil {
		return err
	}

	a.io.Printf("Access token valid until %s\n", formatTime(sess.AccessExpiresAt))
	return nil
}
