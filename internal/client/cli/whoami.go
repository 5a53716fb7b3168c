package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	clientapi "github.com/iudanet/cmsauth/internal/client/api"
	"github.com/iudanet/cmsauth/internal/client/storage"
)

func newWhoamiCmd(a *app) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Call a protected endpoint with the stored session",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(ctx context.Context) error {
			return a.runWhoami(ctx, verbose)
		}),
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show the full profile")

	return cmd
}

func (a *app) runWhoami(ctx context.Context, verbose bool) error {
	store, sess, err := a.currentSession(ctx)
	if err != nil {
		return err
	}

	if !sess.AccessValid(a.now()) {
		if err := a.refresh(ctx, store, sess); err != nil {
			return err
		}
	}

	call := func() error {
		if verbose {
			return a.printProfile(ctx, sess)
		}
		greeting, err := a.api().Hello(ctx, sess.AccessToken)
		if err != nil {
			return err
		}
		a.io.Println(greeting)
		return nil
	}

	err = call()
	if !errors.Is(err, clientapi.ErrUnauthorized) {
		return err
	}

	// access token мог истечь раньше, чем считают локальные часы: одна попытка обновления
	if err := a.refresh(ctx, store, sess); err != nil {
		return err
	}
	return call()
}

func (a *app) printProfile(ctx context.Context, sess *storage.Session) error {
	user, err := a.api().Me(ctx, sess.AccessToken)
	if err != nil {
		return err
	}

	a.io.Printf("ID: %d\n", user.ID)
	a.io.Printf("Username: %s\n", user.Username)
	a.io.Printf("Email: %s\n", user.Email)
	a.io.Printf("Name: %s %s\n", user.FirstName, user.LastName)
	a.io.Printf("Active: %t\n", user.IsActive)
	a.io.Printf("Admin: %t\n", user.IsAdmin)
	a.io.Printf("Superuser: %t\n", user.IsSuperuser)
	a.io.Printf("Created: %s\n", formatTime(user.CreatedAt))
	if user.LastLogin != nil {
		a.io.Printf("Last login: %s\n", formatTime(*user.LastLogin))
	}
	return nil
}
