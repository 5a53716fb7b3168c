package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	clientapi "github.com/iudanet/cmsauth/internal/client/api"
	"github.com/iudanet/cmsauth/pkg/api"
)

type registerConfig struct {
	req api.RegisterRequest
}

func newRegisterCmd(a *app) *cobra.Command {
	cfg := &registerConfig{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new user",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(ctx context.Context) error {
			return a.runRegister(ctx, cfg)
		}),
	}

	cmd.Flags().StringVar(&cfg.req.Username, "username", "", "username (prompted if empty)")
	cmd.Flags().StringVar(&cfg.req.Email, "email", "", "email (prompted if empty)")
	cmd.Flags().StringVar(&cfg.req.FirstName, "first-name", "", "first name (prompted if empty)")
	cmd.Flags().StringVar(&cfg.req.LastName, "last-name", "", "last name (prompted if empty)")
	cmd.Flags().BoolVar(&cfg.req.IsAdmin, "admin", false, "request admin flag")
	cmd.Flags().BoolVar(&cfg.req.IsSuperuser, "superuser", false, "request superuser flag")

	return cmd
}

func (a *app) runRegister(ctx context.Context, cfg *registerConfig) error {
	req := cfg.req

	prompts := []struct {
		field  *string
		prompt string
	}{
		{&req.Username, "Username: "},
		{&req.Email, "Email: "},
		{&req.FirstName, "First name: "},
		{&req.LastName, "Last name: "},
	}
	var err error
	for _, p := range prompts {
		if *p.field != "" {
			continue
		}
		if *p.field, err = a.io.ReadInput(p.prompt); err != nil {
			return fmt.Errorf("failed to read %s: %w", strings.ToLower(strings.TrimSuffix(p.prompt, ": ")), err)
		}
	}

	if req.Password, err = a.io.ReadPassword("Password: "); err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := a.io.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if req.Password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	if err := req.Validate(); err != nil {
		a.printFields(api.FieldErrors(err))
		return fmt.Errorf("invalid registration data: %w", err)
	}

	resp, err := a.api().Register(ctx, req)
	if err != nil {
		if apiErr, ok := clientapi.AsError(err); ok {
			a.printFields(apiErr.Fields)
		}
		return err
	}

	a.io.Printf("User %s registered\n", resp.Username)
	a.io.Println("Run 'authctl login' to start a session.")
	return nil
}

func (a *app) printFields(fields map[string]string) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		a.io.Printf("  %s: %s\n", name, fields[name])
	}
}
