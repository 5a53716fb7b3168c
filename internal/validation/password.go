package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrWeakPassword пароль не удовлетворяет политике сложности
var ErrWeakPassword = errors.New("password is too weak")

// MinPasswordLen минимальная длина пароля в символах
const MinPasswordLen = 8

// PasswordPolicy описывает требования к сложности пароля.
// Набор спецсимволов приходит из конфигурации (SPECIAL_CHARACTERS).
type PasswordPolicy struct {
	SpecialCharacters string
	MinLength         int
}

// NewPasswordPolicy создает политику с минимальной длиной по умолчанию
func NewPasswordPolicy(specialCharacters string) PasswordPolicy {
	return PasswordPolicy{
		SpecialCharacters: specialCharacters,
		MinLength:         MinPasswordLen,
	}
}

// IsStrong сообщает, проходит ли пароль все правила
func (p PasswordPolicy) IsStrong(password string) bool {
	return p.Validate(password) == nil
}

// Validate проверяет пароль и возвращает ErrWeakPassword
// со списком невыполненных правил
func (p PasswordPolicy) Validate(password string) error {
	minLen := p.MinLength
	if minLen <= 0 {
		minLen = MinPasswordLen
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
		if strings.ContainsRune(p.SpecialCharacters, r) {
			hasSpecial = true
		}
	}

	var unmet []string
	if utf8.RuneCountInString(password) < minLen {
		unmet = append(unmet, fmt.Sprintf("at least %d characters", minLen))
	}
	if !hasUpper {
		unmet = append(unmet, "an uppercase letter")
	}
	if !hasLower {
		unmet = append(unmet, "a lowercase letter")
	}
	if !hasDigit {
		unmet = append(unmet, "a digit")
	}
	if !hasSpecial {
		unmet = append(unmet, fmt.Sprintf("one of %q", p.SpecialCharacters))
	}

	if len(unmet) > 0 {
		return fmt.Errorf("%w: must contain %s", ErrWeakPassword, strings.Join(unmet, ", "))
	}
	return nil
}
