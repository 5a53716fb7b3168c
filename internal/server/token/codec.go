package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind тип токена
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Identity субъект токена
type Identity struct {
	Username string `json:"username"`
	UserID   int64  `json:"user_id"`
}

// Claims JWT claims нашего приложения.
// Имя пользователя хранится в sub, идентификатор в id.
// ExpiresAt перекрывает одноименное поле RegisteredClaims.
type Claims struct {
	ExpiresAt *Expiry `json:"exp,omitempty"`
	Kind      Kind    `json:"typ"`
	UserID    int64   `json:"id"`
	jwt.RegisteredClaims
}

// GetExpirationTime implements jwt.Claims
func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	return c.ExpiresAt.numericDate(), nil
}

// Identity возвращает субъекта токена
func (c *Claims) Identity() Identity {
	return Identity{Username: c.Subject, UserID: c.UserID}
}

// IssuedToken подписанный токен и момент его истечения
type IssuedToken struct {
	ExpiresAt time.Time
	Value     string
}

// Codec подписывает и проверяет токены.
// Не хранит состояния кроме секрета, поэтому безопасен для конкурентного использования.
type Codec struct {
	method jwt.SigningMethod
	now    func() time.Time
	secret []byte
}

// Option настраивает Codec
type Option func(*Codec)

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec создает Codec для HMAC алгоритма (HS256, HS384, HS512)
func NewCodec(secret []byte, algorithm string, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret cannot be empty")
	}

	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm: %q", algorithm)
	}

	c := &Codec{
		method: method,
		now:    time.Now,
		secret: secret,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encode подписывает токен для субъекта со сроком действия now + ttl
func (c *Codec) Encode(id Identity, kind Kind, ttl time.Duration) (IssuedToken, error) {
	if id.Username == "" || id.UserID == 0 {
		return IssuedToken{}, ErrMissingClaim
	}

	now := c.now()
	claims := Claims{
		ExpiresAt: NewExpiry(now.Add(ttl)),
		Kind:      kind,
		UserID:    id.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  id.Username,
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}

	value, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return IssuedToken{Value: value, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Decode проверяет подпись и срок действия токена.
// Возвращает ErrExpiredToken, ErrMalformedToken или ErrMissingClaim.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMalformedToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrExpiredToken, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}

	if claims.Subject == "" || claims.UserID == 0 {
		return nil, ErrMissingClaim
	}

	return claims, nil
}

// DecodeKind как Decode, но дополнительно требует указанный тип токена
func (c *Codec) DecodeKind(tokenString string, want Kind) (*Claims, error) {
	claims, err := c.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != want {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongKind, claims.Kind, want)
	}
	return claims, nil
}
