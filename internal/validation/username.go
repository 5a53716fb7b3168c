package validation

import (
	"strings"
	"unicode"

	ozzo "github.com/go-ozzo/ozzo-validation"
)

// Границы длины username в символах (рунах)
const (
	MinUsernameLen = 3
	MaxUsernameLen = 150
)

// usernameSymbols знаки, разрешенные в username помимо букв и цифр.
// Username с @ выглядит как email и допустим.
const usernameSymbols = "@.+-_"

// Username правило ozzo для поля username при регистрации.
// Пустое значение пропускается, обязательность задается через Required.
var Username ozzo.Rule = usernameRule{
	length: ozzo.RuneLength(MinUsernameLen, MaxUsernameLen),
	chars:  ozzo.NewStringRule(isUsername, "may contain only letters, digits and @.+-_"),
}

type usernameRule struct {
	length ozzo.Rule
	chars  ozzo.Rule
}

func (r usernameRule) Validate(value interface{}) error {
	return ozzo.Validate(value, r.length, r.chars)
}

func isUsername(s string) bool {
	for _, c := range s {
		if unicode.IsLetter(c) || unicode.IsDigit(c) || strings.ContainsRune(usernameSymbols, c) {
			continue
		}
		return false
	}
	return true
}
