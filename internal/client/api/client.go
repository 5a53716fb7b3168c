package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iudanet/cmsauth/pkg/api"
)

// Имена cookie, в которых сервер передает токены
const (
	accessCookieName  = "access_token"
	refreshCookieName = "refresh_token"
)

// ErrUnauthorized сервер ответил 401
var ErrUnauthorized = errors.New("unauthorized")

// Error ошибка, возвращенная сервером
type Error struct {
	Fields     map[string]string
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error (%d)", e.StatusCode)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Unwrap позволяет проверять 401 через errors.Is(err, ErrUnauthorized)
func (e *Error) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// AsError извлекает ошибку сервера из цепочки
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// Tokens токены, полученные при входе
type Tokens struct {
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	AccessToken      string
	RefreshToken     string
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	now        func() time.Time
	baseURL    string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Ограничиваем количество редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
	}
}

// BaseURL адрес сервера
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	var resp api.RegisterResponse
	if _, err := c.do(ctx, http.MethodPost, "/auth/register", "application/json", bytes.NewReader(body), nil, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет вход и возвращает токены из cookie ответа
func (c *Client) Login(ctx context.Context, username, password string) (*Tokens, error) {
	form := url.Values{}
	form.Set(api.FormUsername, username)
	form.Set(api.FormPassword, password)

	resp, err := c.do(ctx, http.MethodPost, "/auth/token", "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}

	now := c.now()
	tokens := &Tokens{}
	for _, cookie := range resp.Cookies() {
		switch cookie.Name {
		case accessCookieName:
			tokens.AccessToken = cookie.Value
			tokens.AccessExpiresAt = cookieExpiry(cookie, now)
		case refreshCookieName:
			tokens.RefreshToken = cookie.Value
			tokens.RefreshExpiresAt = cookieExpiry(cookie, now)
		}
	}

	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return nil, errors.New("login response did not contain token cookies")
	}
	return tokens, nil
}

// Refresh получает новый access token по refresh token
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	cookie := &http.Cookie{Name: refreshCookieName, Value: refreshToken}

	resp, err := c.do(ctx, http.MethodPost, "/auth/refresh", "", nil, func(r *http.Request) {
		r.AddCookie(cookie)
	}, nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("refresh request failed: %w", err)
	}

	now := c.now()
	for _, cookie := range resp.Cookies() {
		if cookie.Name == accessCookieName && cookie.Value != "" {
			return cookie.Value, cookieExpiry(cookie, now), nil
		}
	}
	return "", time.Time{}, errors.New("refresh response did not contain an access token")
}

// Logout просит сервер очистить cookie. Токены на сервере не хранятся.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodPost, "/auth/logout", "", nil, nil, nil); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// Hello вызывает защищенный корневой маршрут и возвращает приветствие
func (c *Client) Hello(ctx context.Context, accessToken string) (string, error) {
	var resp api.MessageResponse
	if _, err := c.do(ctx, http.MethodGet, "/", "", nil, bearer(accessToken), &resp); err != nil {
		return "", fmt.Errorf("hello request failed: %w", err)
	}
	return resp.Message, nil
}

// Me возвращает профиль текущего пользователя
func (c *Client) Me(ctx context.Context, accessToken string) (*api.UserResponse, error) {
	var resp api.UserResponse
	if _, err := c.do(ctx, http.MethodGet, "/users/me", "", nil, bearer(accessToken), &resp); err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	return &resp, nil
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

// cookieExpiry вычисляет момент истечения cookie
func cookieExpiry(cookie *http.Cookie, now time.Time) time.Time {
	if cookie.MaxAge > 0 {
		return now.Add(time.Duration(cookie.MaxAge) * time.Second)
	}
	return cookie.Expires
}

// do выполняет HTTP запрос и декодирует успешный JSON ответ в result
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader,
	prepare func(*http.Request), result any) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if prepare != nil {
		prepare(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			apiErr.Message = errResp.Message
			apiErr.Fields = errResp.Fields
		} else {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return nil, apiErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp, nil
}
