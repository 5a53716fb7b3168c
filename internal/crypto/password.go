package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmptyPassword пустой пароль не хешируется
	ErrEmptyPassword = errors.New("password cannot be empty")

	// ErrPasswordTooLong bcrypt учитывает только первые 72 байта пароля
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// dummyPassword используется для выравнивания времени проверки
const dummyPassword = "cmsauth-timing-equalizer"

// PasswordHasher хеширует и проверяет пароли пользователей
type PasswordHasher interface {
	// Hash возвращает соленый bcrypt хеш пароля
	Hash(password string) (string, error)

	// Verify сообщает, соответствует ли пароль хешу.
	// Время проверки не зависит от того, разобрался ли хеш.
	Verify(password, hash string) bool
}

// BcryptHasher реализация PasswordHasher на bcrypt
type BcryptHasher struct {
	dummy []byte
	cost  int
}

// NewBcryptHasher создает hasher с заданной стоимостью.
// Заранее считает dummy хеш той же стоимости.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &BcryptHasher{cost: cost, dummy: dummy}, nil
}

// Hash хеширует пароль
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// Verify проверяет пароль.
// Для пустого или битого хеша сравнение все равно выполняется против dummy хеша.
func (h *BcryptHasher) Verify(password, hash string) bool {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Cost возвращает стоимость, с которой создаются новые хеши
func (h *BcryptHasher) Cost() int {
	return h.cost
}
