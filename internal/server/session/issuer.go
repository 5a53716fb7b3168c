package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/iudanet/cmsauth/internal/config"
	"github.com/iudanet/cmsauth/internal/crypto"
	"github.com/iudanet/cmsauth/internal/models"
	"github.com/iudanet/cmsauth/internal/server/storage"
	"github.com/iudanet/cmsauth/internal/server/token"
	"github.com/iudanet/cmsauth/internal/validation"
)

// Settings параметры выдачи сессий
type Settings struct {
	// Now источник времени, по умолчанию time.Now
	Now                   func() time.Time
	AccessTokenTTL        time.Duration
	RefreshTokenTTL       time.Duration
	AllowPrivilegedSignup bool
}

// NewSettings собирает Settings из конфигурации
func NewSettings(cfg *config.Config) Settings {
	return Settings{
		Now:                   time.Now,
		AccessTokenTTL:        cfg.AccessTokenTTL,
		RefreshTokenTTL:       cfg.RefreshTokenTTL,
		AllowPrivilegedSignup: cfg.AllowPrivilegedSignup,
	}
}

func (s Settings) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// TokenPair выданные при входе токены
type TokenPair struct {
	Access   token.IssuedToken
	Refresh  token.IssuedToken
	Identity token.Identity
}

// NewUser данные для регистрации
type NewUser struct {
	Username    string
	Email       string
	FirstName   string
	LastName    string
	Password    string
	IsAdmin     bool
	IsSuperuser bool
}

// Issuer выполняет вход и регистрацию пользователей
type Issuer struct {
	logger   *slog.Logger
	users    storage.UserStorage
	hasher   crypto.PasswordHasher
	codec    *token.Codec
	policy   validation.PasswordPolicy
	settings Settings
}

// NewIssuer создает Issuer
func NewIssuer(logger *slog.Logger, users storage.UserStorage, hasher crypto.PasswordHasher,
	policy validation.PasswordPolicy, codec *token.Codec, settings Settings) *Issuer {
	return &Issuer{
		logger:   logger,
		users:    users,
		hasher:   hasher,
		codec:    codec,
		policy:   policy,
		settings: settings,
	}
}

// Login проверяет учетные данные, выдает пару токенов и обновляет last_login.
// Неизвестный пользователь, неверный пароль и неактивная учетная запись дают ErrInvalidCredentials.
func (i *Issuer) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := i.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// Проверка против пустого хеша занимает столько же времени, сколько настоящая
			i.hasher.Verify(password, "")
			return nil, ErrInvalidCredentials
		}
		return nil, oops.In("session").With("username", username).Wrapf(err, "failed to look up user")
	}

	if !i.hasher.Verify(password, user.HashedPassword) {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		i.logger.WarnContext(ctx, "login attempt for inactive user", slog.Int64("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	identity := token.Identity{Username: user.Username, UserID: user.ID}
	pair, err := i.issuePair(identity)
	if err != nil {
		return nil, oops.In("session").With("user_id", user.ID).Wrapf(err, "failed to issue tokens")
	}

	if err := i.users.UpdateLastLogin(ctx, user.ID, i.settings.now()); err != nil {
		return nil, oops.In("session").With("user_id", user.ID).Wrapf(err, "failed to update last login")
	}

	return pair, nil
}

func (i *Issuer) issuePair(identity token.Identity) (*TokenPair, error) {
	access, err := i.codec.Encode(identity, token.KindAccess, i.settings.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("access token: %w", err)
	}

	refresh, err := i.codec.Encode(identity, token.KindRefresh, i.settings.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	return &TokenPair{Access: access, Refresh: refresh, Identity: identity}, nil
}

// Register создает пользователя.
// Слабый пароль дает ErrWeakPassword, занятые username/email дают ErrDuplicateUser.
func (i *Issuer) Register(ctx context.Context, nu NewUser) (*models.User, error) {
	if err := i.policy.Validate(nu.Password); err != nil {
		return nil, err
	}

	if nu.IsAdmin || nu.IsSuperuser {
		if !i.settings.AllowPrivilegedSignup {
			return nil, ErrPrivilegedSignup
		}
		// TODO: require an authenticated superuser for privileged registration and drop the config switch
		i.logger.WarnContext(ctx, "privileged flags self-assigned at registration",
			slog.String("username", nu.Username),
			slog.Bool("is_admin", nu.IsAdmin),
			slog.Bool("is_superuser", nu.IsSuperuser))
	}

	hash, err := i.hasher.Hash(nu.Password)
	if err != nil {
		if errors.Is(err, crypto.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %w", ErrWeakPassword, err)
		}
		return nil, oops.In("session").With("username", nu.Username).Wrapf(err, "failed to hash password")
	}

	now := i.settings.now()
	user := &models.User{
		Username:       nu.Username,
		Email:          nu.Email,
		FirstName:      nu.FirstName,
		LastName:       nu.LastName,
		HashedPassword: hash,
		IsActive:       true,
		IsAdmin:        nu.IsAdmin,
		IsSuperuser:    nu.IsSuperuser,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = i.users.RunInTx(ctx, func(ctx context.Context, repo storage.UserRepository) error {
		if err := ensureFree(ctx, "username", func() error {
			_, err := repo.GetUserByUsername(ctx, user.Username)
			return err
		}); err != nil {
			return err
		}
		if err := ensureFree(ctx, "email", func() error {
			_, err := repo.GetUserByEmail(ctx, user.Email)
			return err
		}); err != nil {
			return err
		}
		return repo.CreateUser(ctx, user)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateUser):
			return nil, err
		case errors.Is(err, storage.ErrUserAlreadyExists):
			return nil, fmt.Errorf("%w: %v", ErrDuplicateUser, err)
		default:
			return nil, oops.In("session").With("username", nu.Username).Wrapf(err, "failed to create user")
		}
	}

	return user, nil
}

// ensureFree превращает успешный поиск в ErrDuplicateUser
func ensureFree(_ context.Context, field string, lookup func() error) error {
	err := lookup()
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s is taken", ErrDuplicateUser, field)
	case errors.Is(err, storage.ErrUserNotFound):
		return nil
	default:
		return err
	}
}
