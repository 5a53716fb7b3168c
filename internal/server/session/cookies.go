package session

import (
	"net/http"
	"time"
)

const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"

	AccessCookiePath  = "/"
	RefreshCookiePath = "/auth/refresh"
)

// Cookies строит cookie для передачи токенов.
// Оба cookie HttpOnly и SameSite=Strict. Secure отключается только для локальной разработки.
type Cookies struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Secure     bool
}

// Access cookie с access token, доступен на всем сайте
func (c Cookies) Access(value string) *http.Cookie {
	return c.build(AccessCookieName, AccessCookiePath, value, c.AccessTTL)
}

// Refresh cookie с refresh token, отправляется только на /auth/refresh
func (c Cookies) Refresh(value string) *http.Cookie {
	return c.build(RefreshCookieName, RefreshCookiePath, value, c.RefreshTTL)
}

// Session пара cookie для выданных токенов
func (c Cookies) Session(pair *TokenPair) []*http.Cookie {
	return []*http.Cookie{
		c.Access(pair.Access.Value),
		c.Refresh(pair.Refresh.Value),
	}
}

// Clear cookie, удаляющие оба токена в браузере
func (c Cookies) Clear() []*http.Cookie {
	return []*http.Cookie{
		c.expired(AccessCookieName, AccessCookiePath),
		c.expired(RefreshCookieName, RefreshCookiePath),
	}
}

func (c Cookies) build(name, path, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (c Cookies) expired(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// SetCookies записывает cookie в ответ
func SetCookies(w http.ResponseWriter, cookies []*http.Cookie) {
	for _, cookie := range cookies {
		http.SetCookie(w, cookie)
	}
}
