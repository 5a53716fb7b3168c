package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	clientapi "github.com/iudanet/cmsauth/internal/client/api"
	"github.com/iudanet/cmsauth/internal/client/iocli"
	"github.com/iudanet/cmsauth/internal/client/storage"
	"github.com/iudanet/cmsauth/internal/client/storage/boltdb"
	"github.com/iudanet/cmsauth/pkg/api"
)

const (
	DefaultServerURL = "http://localhost:8080"
	DefaultDBPath    = "authctl.db"
)

// APIClient операции сервера, которые использует CLI
type APIClient interface {
	BaseURL() string
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)
	Login(ctx context.Context, username, password string) (*clientapi.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (string, time.Time, error)
	Logout(ctx context.Context) error
	Hello(ctx context.Context, accessToken string) (string, error)
	Me(ctx context.Context, accessToken string) (*api.UserResponse, error)
}

// SessionStore локальное хранилище сессии
type SessionStore interface {
	storage.SessionStore
	io.Closer
}

var _ APIClient = (*clientapi.Client)(nil)

// Option настраивает CLI, используется в тестах
type Option func(*app)

// WithIO подменяет ввод-вывод
func WithIO(stdio iocli.IO) Option {
	return func(a *app) { a.io = stdio }
}

// WithAPIClient подменяет фабрику API клиента
func WithAPIClient(factory func(serverURL string) APIClient) Option {
	return func(a *app) { a.newClient = factory }
}

// WithSessionStore подменяет открытие локального хранилища
func WithSessionStore(open func(ctx context.Context, path string) (SessionStore, error)) Option {
	return func(a *app) { a.openStore = open }
}

// WithClock подменяет источник времени
func WithClock(now func() time.Time) Option {
	return func(a *app) { a.now = now }
}

type app struct {
	io        iocli.IO
	client    APIClient
	store     SessionStore
	now       func() time.Time
	newClient func(serverURL string) APIClient
	openStore func(ctx context.Context, path string) (SessionStore, error)
	serverURL string
	dbPath    string
}

// NewRootCmd создает корневую команду authctl
func NewRootCmd(version string, opts ...Option) *cobra.Command {
	a := &app{
		io:  iocli.NewStdio(),
		now: time.Now,
		newClient: func(serverURL string) APIClient {
			return clientapi.NewClient(serverURL)
		},
		openStore: func(ctx context.Context, path string) (SessionStore, error) {
			return boltdb.New(ctx, path)
		},
	}
	for _, opt := range opts {
		opt(a)
	}

	cmd := &cobra.Command{
		Use:   "authctl",
		Short: "authctl - client for the cmsauth authentication service",
		Long: `authctl registers users, logs in and keeps the issued tokens
in a local database so that later commands can call protected endpoints.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&a.serverURL, "server", DefaultServerURL, "server URL")
	cmd.PersistentFlags().StringVar(&a.dbPath, "db", DefaultDBPath, "path to local database")

	cmd.AddCommand(newRegisterCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newRefreshCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newStatusCmd(a))
	cmd.AddCommand(newWhoamiCmd(a))
	cmd.AddCommand(newHashPasswordCmd(a))

	return cmd
}

// runE оборачивает команду: локальная база закрывается и при ошибке
func (a *app) runE(fn func(ctx context.Context) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return errors.Join(fn(cmd.Context()), a.close())
	}
}

func (a *app) api() APIClient {
	if a.client == nil {
		a.client = a.newClient(a.serverURL)
	}
	return a.client
}

func (a *app) sessions(ctx context.Context) (SessionStore, error) {
	if a.store == nil {
		store, err := a.openStore(ctx, a.dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open local database: %w", err)
		}
		a.store = store
	}
	return a.store, nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// currentSession возвращает сохраненную сессию или понятную ошибку
func (a *app) currentSession(ctx context.Context) (SessionStore, *storage.Session, error) {
	store, err := a.sessions(ctx)
	if err != nil {
		return nil, nil, err
	}

	sess, err := store.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, nil, fmt.Errorf("not logged in, run 'authctl login' first")
		}
		return nil, nil, fmt.Errorf("failed to read session: %w", err)
	}
	return store, sess, nil
}

// refresh обновляет access token в сессии и сохраняет ее
func (a *app) refresh(ctx context.Context, store SessionStore, sess *storage.Session) error {
	if !sess.RefreshValid(a.now()) {
		return fmt.Errorf("session expired, run 'authctl login' again")
	}

	access, expiresAt, err := a.api().Refresh(ctx, sess.RefreshToken)
	if err != nil {
		if errors.Is(err, clientapi.ErrUnauthorized) {
			return fmt.Errorf("refresh token rejected, run 'authctl login' again: %w", err)
		}
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	sess.AccessToken = access
	sess.AccessExpiresAt = expiresAt
	sess.SavedAt = a.now()
	if err := store.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.Local().Format(time.DateTime)
}
