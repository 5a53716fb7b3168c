package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/cmsauth/internal/config"
	"github.com/iudanet/cmsauth/internal/crypto"
	"github.com/iudanet/cmsauth/internal/validation"
)

type hashConfig struct {
	special string
	cost    int
}

// newHashPasswordCmd печатает bcrypt хеш пароля для ручного заведения пользователей
func newHashPasswordCmd(a *app) *cobra.Command {
	cfg := &hashConfig{}

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Check a password against the policy and print its bcrypt hash",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(context.Context) error {
			return a.runHashPassword(cfg)
		}),
	}

	cmd.Flags().IntVar(&cfg.cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	cmd.Flags().StringVar(&cfg.special, "special", config.DefaultSpecialCharacters, "allowed special characters")

	return cmd
}

func (a *app) runHashPassword(cfg *hashConfig) error {
	hasher, err := crypto.NewBcryptHasher(cfg.cost)
	if err != nil {
		return err
	}

	password, err := a.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	if err := validation.NewPasswordPolicy(cfg.special).Validate(password); err != nil {
		return err
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	a.io.Println(hash)
	return nil
}
