package token

import "errors"

// Ошибки декодирования токена. Вызывающий код сравнивает их через errors.Is.
var (
	// ErrExpiredToken срок действия токена истек
	ErrExpiredToken = errors.New("token has expired")

	// ErrMalformedToken неверная структура, подпись или алгоритм
	ErrMalformedToken = errors.New("malformed token")

	// ErrMissingClaim в токене нет имени или идентификатора пользователя
	ErrMissingClaim = errors.New("token is missing a required claim")

	// ErrWrongKind токен другого типа (access вместо refresh и наоборот)
	ErrWrongKind = errors.New("unexpected token kind")
)
