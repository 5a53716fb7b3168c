package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// ErrConfiguration возвращается при отсутствии или некорректном значении настройки.
// Процесс не должен стартовать, если Load вернул эту ошибку.
var ErrConfiguration = errors.New("configuration error")

const (
	DefaultAlgorithm          = "HS256"
	DefaultAccessTokenMinutes = 30
	DefaultRefreshTokenDays   = 7
	DefaultSpecialCharacters  = "!@#$%^&*"
	DefaultServerAddress      = ":8080"
	DefaultDatabasePath       = "cmsauth.db"
)

// supportedAlgorithms HMAC алгоритмы, которые умеет token.Codec
var supportedAlgorithms = map[string]struct{}{
	"HS256": {},
	"HS384": {},
	"HS512": {},
}

// Config содержит все настройки сервера.
// Создается один раз при старте и передается по указателю.
type Config struct {
	SecretKey         string
	Algorithm         string
	SpecialCharacters string
	ServerAddress     string
	DatabasePath      string
	LogFormat         string
	AllowedOrigins    []string
	// TrustedProxies адреса прокси, от которых принимаются X-Forwarded-For и X-Real-IP
	TrustedProxies  []netip.Prefix
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	LoginRateWindow time.Duration
	ShutdownTimeout time.Duration
	BcryptCost      int
	LoginRateLimit  int
	LogLevel        slog.Level
	CookieSecure    bool
	// AllowPrivilegedSignup разрешает выставлять is_admin/is_superuser при регистрации
	AllowPrivilegedSignup bool
}

// LoadEnvFile подгружает переменные из .env файла.
// Уже выставленные переменные окружения не перезаписываются.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: failed to load env file %s: %v", ErrConfiguration, path, err)
	}
	return nil
}

// Load читает конфигурацию из переменных окружения
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	env := envReader{getenv: getenv}

	cfg := &Config{
		SecretKey:             getenv("SECRET_KEY"),
		Algorithm:             env.str("ALGORITHM", DefaultAlgorithm),
		SpecialCharacters:     env.str("SPECIAL_CHARACTERS", DefaultSpecialCharacters),
		ServerAddress:         env.str("SERVER_ADDRESS", DefaultServerAddress),
		DatabasePath:          env.str("DATABASE_PATH", DefaultDatabasePath),
		LogFormat:             env.str("LOG_FORMAT", "text"),
		AllowedOrigins:        env.list("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "localhost:5173"}),
		TrustedProxies:        env.prefixes("TRUSTED_PROXIES"),
		AccessTokenTTL:        time.Duration(env.integer("ACCESS_TOKEN_EXPIRE_MINUTES", DefaultAccessTokenMinutes)) * time.Minute,
		RefreshTokenTTL:       time.Duration(env.integer("REFRESH_TOKEN_EXPIRE_DAYS", DefaultRefreshTokenDays)) * 24 * time.Hour,
		LoginRateWindow:       env.duration("LOGIN_RATE_WINDOW", time.Minute),
		ShutdownTimeout:       env.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		BcryptCost:            env.integer("BCRYPT_COST", bcrypt.DefaultCost),
		LoginRateLimit:        env.integer("LOGIN_RATE_LIMIT", 10),
		LogLevel:              env.level("LOG_LEVEL", slog.LevelInfo),
		CookieSecure:          env.boolean("COOKIE_SECURE", true),
		AllowPrivilegedSignup: env.boolean("REGISTRATION_ALLOW_PRIVILEGED", true),
	}

	if len(env.errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, errors.Join(env.errs...))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	var problems []string

	if c.SecretKey == "" {
		problems = append(problems, "SECRET_KEY is required")
	}
	if _, ok := supportedAlgorithms[c.Algorithm]; !ok {
		problems = append(problems, fmt.Sprintf("ALGORITHM %q is not supported (use HS256, HS384 or HS512)", c.Algorithm))
	}
	if c.AccessTokenTTL <= 0 {
		problems = append(problems, "ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.RefreshTokenTTL <= 0 {
		problems = append(problems, "REFRESH_TOKEN_EXPIRE_DAYS must be positive")
	}
	if c.SpecialCharacters == "" {
		problems = append(problems, "SPECIAL_CHARACTERS must not be empty")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, fmt.Sprintf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.LoginRateLimit <= 0 {
		problems = append(problems, "LOGIN_RATE_LIMIT must be positive")
	}
	if c.LoginRateWindow <= 0 {
		problems = append(problems, "LOGIN_RATE_WINDOW must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		problems = append(problems, "SHUTDOWN_TIMEOUT must be positive")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		problems = append(problems, "LOG_FORMAT must be text or json")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

// envReader накапливает ошибки парсинга, чтобы вернуть их все сразу
type envReader struct {
	getenv func(string) string
	errs   []error
}

func (e *envReader) str(key, def string) string {
	if v := e.getenv(key); v != "" {
		return v
	}
	return def
}

func (e *envReader) integer(key string, def int) int {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (e *envReader) boolean(key string, def bool) bool {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}

func (e *envReader) level(key string, def slog.Level) slog.Level {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not a log level", key, v))
		return def
	}
	return lvl
}

func (e *envReader) list(key string, def []string) []string {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// prefixes читает список IP адресов и CIDR подсетей
func (e *envReader) prefixes(key string) []netip.Prefix {
	var out []netip.Prefix
	for _, item := range e.list(key, nil) {
		if p, err := netip.ParsePrefix(item); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %q is not an IP address or CIDR", key, item))
			continue
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out
}
