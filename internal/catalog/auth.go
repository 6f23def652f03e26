// auth.go — auth-операции Catalog API: вход superadmin/admin,
// чтение профиля, трёхшаговый сброс пароля через OTP.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// LoginSuperadmin выполняет POST /superadmin/login.
func (c *Client) LoginSuperadmin(ctx context.Context, email, password string) (*LoginResponse, error) {
	return c.login(ctx, "/superadmin/login", email, password)
}

// LoginAdmin выполняет POST /admin/login.
func (c *Client) LoginAdmin(ctx context.Context, email, password string) (*LoginResponse, error) {
	return c.login(ctx, "/admin/login", email, password)
}

// login выполняет запрос входа и сохраняет сырое тело ответа:
// форма входа использует его для немедленного redirect.
func (c *Client) login(ctx context.Context, path, email, password string) (*LoginResponse, error) {
	payload := map[string]string{"email": email, "password": password}

	resp, err := c.doJSON(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return nil, fmt.Errorf("вход %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		return nil, fmt.Errorf("чтение ответа входа: %w", err)
	}

	var login LoginResponse
	if err := json.Unmarshal(raw, &login); err != nil {
		return nil, fmt.Errorf("декодирование ответа входа: %w", err)
	}
	login.Raw = raw

	return &login, nil
}

// Me возвращает профиль текущего администратора (GET /admin/me).
func (c *Client) Me(ctx context.Context) (*ProfileRecord, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/admin/me", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("профиль admin: %w", err)
	}

	return decodeProfile(resp)
}

// Superadmin возвращает запись суперадминистратора по id (GET /superadmin/:id).
func (c *Client) Superadmin(ctx context.Context, id string) (*ProfileRecord, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/superadmin/"+id, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("профиль superadmin: %w", err)
	}

	return decodeProfile(resp)
}

// decodeProfile декодирует профиль; сервер может завернуть его в data.
func decodeProfile(resp *http.Response) (*ProfileRecord, error) {
	var env struct {
		ProfileRecord
		Data *ProfileRecord `json:"data"`
	}
	if err := decodeResponse(resp, &env); err != nil {
		return nil, err
	}

	if env.Data != nil {
		return env.Data, nil
	}
	return &env.ProfileRecord, nil
}

// UpdateProfile отправляет изменённые поля профиля (PUT /admin/me).
func (c *Client) UpdateProfile(ctx context.Context, fields map[string]any) (*MutationResult, error) {
	resp, err := c.doJSON(ctx, http.MethodPut, "/admin/me", nil, fields)
	if err != nil {
		return nil, fmt.Errorf("обновление профиля: %w", err)
	}

	var result MutationResult
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// SendOTP запускает сброс пароля: PUT /admin/send-otp {email}.
// Метод PUT — так определяет контракт удалённого API.
func (c *Client) SendOTP(ctx context.Context, email string) (*MutationResult, error) {
	return c.authMutation(ctx, http.MethodPut, "/admin/send-otp", map[string]string{
		"email": email,
	})
}

// VerifyOTP проверяет одноразовый код: POST /admin/verify-otp {email, otp}.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*MutationResult, error) {
	return c.authMutation(ctx, http.MethodPost, "/admin/verify-otp", map[string]string{
		"email": email,
		"otp":   otp,
	})
}

// ResetPassword завершает сброс: POST /admin/reset-password.
func (c *Client) ResetPassword(ctx context.Context, email, newPassword, confirmNewPassword string) (*MutationResult, error) {
	return c.authMutation(ctx, http.MethodPost, "/admin/reset-password", map[string]string{
		"email":              email,
		"newPassword":        newPassword,
		"confirmNewPassword": confirmNewPassword,
	})
}

// authMutation выполняет auth-мутацию и декодирует {message}.
func (c *Client) authMutation(ctx context.Context, method, path string, payload any) (*MutationResult, error) {
	resp, err := c.doJSON(ctx, method, path, nil, payload)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	var result MutationResult
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}
