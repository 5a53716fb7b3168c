package api

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	rules "github.com/iudanet/cmsauth/internal/validation"
)

// Имена полей формы входа (application/x-www-form-urlencoded)
const (
	FormUsername = "username"
	FormPassword = "password"
)

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Username    string `json:"username"`     // username пользователя
	Email       string `json:"email"`        // email, уникален без учета регистра
	FirstName   string `json:"first_name"`   // имя
	LastName    string `json:"last_name"`    // фамилия
	Password    string `json:"password"`     // пароль в открытом виде, хранится только bcrypt хеш
	IsAdmin     bool   `json:"is_admin"`     // запрос прав администратора
	IsSuperuser bool   `json:"is_superuser"` // запрос прав суперпользователя
}

// Validate проверяет формат полей. Сложность пароля проверяется при регистрации.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, rules.Username),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.FirstName, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegisterResponse представляет ответ на успешную регистрацию
type RegisterResponse struct {
	Username string `json:"username"` // username созданного пользователя
}

// LoginRequest учетные данные из формы входа
type LoginRequest struct {
	Username string
	Password string
}

// Validate проверяет наличие обоих полей
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// MessageResponse ответ с текстовым сообщением
type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponse публичный профиль пользователя
type UserResponse struct {
	CreatedAt   time.Time  `json:"created_at"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	ID          int64      `json:"id"`
	IsActive    bool       `json:"is_active"`
	IsAdmin     bool       `json:"is_admin"`
	IsSuperuser bool       `json:"is_superuser"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Fields  map[string]string `json:"fields,omitempty"`  // ошибки валидации по полям
	Error   string            `json:"error"`             // описание ошибки
	Message string            `json:"message,omitempty"` // дополнительное сообщение
}

// FieldErrors раскладывает ошибку валидации по полям.
// Для прочих ошибок возвращает nil.
func FieldErrors(err error) map[string]string {
	errs, ok := err.(validation.Errors)
	if !ok {
		return nil
	}
	fields := make(map[string]string, len(errs))
	for field, fieldErr := range errs {
		fields[field] = fieldErr.Error()
	}
	return fields
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
