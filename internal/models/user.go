package models

import "time"

// User представляет пользователя в системе
type User struct {
	CreatedAt      time.Time  `json:"created_at"`           // время создания
	UpdatedAt      time.Time  `json:"updated_at"`           // время последнего обновления
	LastLogin      *time.Time `json:"last_login,omitempty"` // время последнего входа (nil если не входил)
	Username       string     `json:"username"`             // уникальный username
	Email          string     `json:"email"`                // уникальный email
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	HashedPassword string     `json:"-"` // bcrypt хеш, никогда не отдается клиенту
	ID             int64      `json:"id"`
	IsActive       bool       `json:"is_active"`
	IsAdmin        bool       `json:"is_admin"`
	IsSuperuser    bool       `json:"is_superuser"`
}

// HasPrivileges сообщает, запрошены ли административные флаги
func (u *User) HasPrivileges() bool {
	return u.IsAdmin || u.IsSuperuser
}
