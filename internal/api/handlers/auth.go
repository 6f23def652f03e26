// auth.go — обработчики аутентификации и профиля.
// Вход, выход, текущая сессия, обновление профиля и трёхшаговый
// сброс пароля. Ошибки валидации формируются здесь и до удалённого
// API не доходят.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/arturkryukov/candystore/dashboard-module/internal/api/errors"
	"github.com/arturkryukov/candystore/dashboard-module/internal/api/middleware"
	"github.com/arturkryukov/candystore/dashboard-module/internal/catalog"
	"github.com/arturkryukov/candystore/dashboard-module/internal/session"
)

// sessionRefreshHeader — сигнал SPA "пользователь взаимодействовал":
// сессия перечитывается из cookie заново.
const sessionRefreshHeader = "X-Session-Refresh"

// profileResponse — профиль в ответах аутентификации.
type profileResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Image        string   `json:"image"`
	Role         string   `json:"role"`
	IsActive     bool     `json:"isActive"`
	Capabilities []string `json:"capabilities"`
}

func mapProfileResponse(sess *session.Session) profileResponse {
	return profileResponse{
		ID:           sess.Profile.ID,
		Name:         sess.Profile.Name,
		Email:        sess.Profile.Email,
		Phone:        sess.Profile.Phone,
		Image:        sess.Profile.Image,
		Role:         string(sess.Profile.Role),
		IsActive:     sess.Profile.IsActive,
		Capabilities: sess.Profile.Permissions.Strings(),
	}
}

// sessionResponse — ответ GET /auth/session.
type sessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	Profile       *profileResponse `json:"profile,omitempty"`
}

// signInRequest — тело POST /auth/sign-in.
type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn — POST /auth/sign-in.
// Проверяет форму, выполняет вход через оба endpoint'а удалённого API
// и устанавливает токен-cookie.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса")
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Email) == "" {
		fields["email"] = "укажите email"
	} else if !strings.Contains(req.Email, "@") {
		fields["email"] = "некорректный email"
	}
	if req.Password == "" {
		fields["password"] = "укажите пароль"
	}
	if len(fields) > 0 {
		apierrors.FieldErrors(w, "форма заполнена с ошибками", fields)
		return
	}

	sess, login, err := h.sessions.Login(r.Context(), w, req.Email, req.Password)
	if err != nil {
		var authErr *session.AuthError
		if errors.As(err, &authErr) {
			apierrors.Unauthorized(w, authErr.Error())
			return
		}
		if errors.Is(err, session.ErrAccountDisabled) {
			apierrors.Forbidden(w, "аккаунт деактивирован")
			return
		}
		h.logger.Error("Вход не выполнен", slog.String("error", err.Error()))
		apierrors.APIUnavailable(w, "сервис временно недоступен")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": login.Message,
		"profile": mapProfileResponse(sess),
	})
}

// SignOut — POST /auth/sign-out. Идемпотентен.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "выход выполнен"})
}

// Session — GET /auth/session. Текущее состояние сессии для SPA.
// Заголовок X-Session-Refresh заставляет перечитать cookie заново
// (сигнал первого взаимодействия пользователя).
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromRequest(r)

	if r.Header.Get(sessionRefreshHeader) != "" {
		refreshed, err := h.sessions.Initialize(r.Context(), w, r)
		if err == nil {
			sess = refreshed
		} else {
			sess = session.Empty()
		}
	}

	resp := sessionResponse{Authenticated: sess.IsAuthenticated()}
	if sess.IsAuthenticated() {
		profile := mapProfileResponse(sess)
		resp.Profile = &profile
	}
	writeJSON(w, http.StatusOK, resp)
}

// profileUpdateRequest — тело PUT /auth/profile. nil-поля не меняются.
type profileUpdateRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
	Image *string `json:"image"`
}

// UpdateProfile — PUT /auth/profile.
// Сохраняет изменённые поля на удалённом API и вливает их в сессию
// на месте, без повторной загрузки профиля.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromRequest(r)
	if !sess.IsAuthenticated() {
		apierrors.Unauthorized(w, "требуется вход")
		return
	}

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса")
		return
	}

	fields := map[string]any{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Email != nil {
		if !strings.Contains(*req.Email, "@") {
			apierrors.FieldErrors(w, "форма заполнена с ошибками", map[string]string{"email": "некорректный email"})
			return
		}
		fields["email"] = *req.Email
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.Image != nil {
		fields["image"] = *req.Image
	}
	if len(fields) == 0 {
		apierrors.ValidationError(w, "нет изменённых полей")
		return
	}

	ctx := catalog.ContextWithToken(r.Context(), sess.Token)
	result, err := h.client.UpdateProfile(ctx, fields)
	if err != nil {
		h.writeCatalogError(w, "Обновление профиля не удалось", err)
		return
	}

	sess.ApplyUpdate(session.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Image: req.Image,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"message": result.Message,
		"profile": mapProfileResponse(sess),
	})
}

// forgotPasswordRequest — тело шагов сброса пароля.
type forgotPasswordRequest struct {
	Email              string `json:"email"`
	OTP                string `json:"otp"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

// ForgotPasswordSendOTP — POST /auth/forgot-password/send-otp.
// Первый шаг: удалённый API отправляет код на email.
func (h *Handler) ForgotPasswordSendOTP(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса")
		return
	}
	if strings.TrimSpace(req.Email) == "" || !strings.Contains(req.Email, "@") {
		apierrors.FieldErrors(w, "форма заполнена с ошибками", map[string]string{"email": "некорректный email"})
		return
	}

	result, err := h.client.SendOTP(r.Context(), req.Email)
	if err != nil {
		h.writeCatalogError(w, "Отправка OTP не удалась", err)
		return
	}

	h.resetFlow.start(req.Email)
	writeJSON(w, http.StatusOK, map[string]string{"message": result.Message, "step": "otp"})
}

// ForgotPasswordVerifyOTP — POST /auth/forgot-password/verify-otp.
// Второй шаг: неверный код оставляет состояние на проверке кода,
// верный открывает шаг нового пароля.
func (h *Handler) ForgotPasswordVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса")
		return
	}
	if strings.TrimSpace(req.OTP) == "" {
		apierrors.FieldErrors(w, "форма заполнена с ошибками", map[string]string{"otp": "укажите код"})
		return
	}

	step, ok := h.resetFlow.step(req.Email)
	if !ok || step != stepOTPSent {
		apierrors.Conflict(w, "сначала запросите код на email")
		return
	}

	result, err := h.client.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		// Состояние остаётся на проверке кода — пользователь пробует снова.
		h.writeCatalogError(w, "Проверка OTP не удалась", err)
		return
	}

	h.resetFlow.advance(req.Email)
	writeJSON(w, http.StatusOK, map[string]string{"message": result.Message, "step": "password"})
}

// ForgotPasswordReset — POST /auth/forgot-password/reset.
// Третий шаг: несовпадающие пароли отклоняются до любого сетевого
// вызова; успех завершает сброс и удаляет состояние.
func (h *Handler) ForgotPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса")
		return
	}

	fields := map[string]string{}
	if req.NewPassword == "" {
		fields["newPassword"] = "укажите новый пароль"
	}
	if req.NewPassword != req.ConfirmNewPassword {
		fields["confirmNewPassword"] = "пароли не совпадают"
	}
	if len(fields) > 0 {
		apierrors.FieldErrors(w, "форма заполнена с ошибками", fields)
		return
	}

	step, ok := h.resetFlow.step(req.Email)
	if !ok || step != stepOTPVerified {
		apierrors.Conflict(w, "сначала подтвердите код из письма")
		return
	}

	result, err := h.client.ResetPassword(r.Context(), req.Email, req.NewPassword, req.ConfirmNewPassword)
	if err != nil {
		h.writeCatalogError(w, "Сброс пароля не удался", err)
		return
	}

	h.resetFlow.finish(req.Email)
	writeJSON(w, http.StatusOK, map[string]string{"message": result.Message, "step": "done"})
}

// writeCatalogError переводит ошибку удалённого API в ответ клиенту:
// статус и сообщение сервера сохраняются, сетевые сбои — 502.
func (h *Handler) writeCatalogError(w http.ResponseWriter, logMessage string, err error) {
	var apiErr *catalog.APIError
	if errors.As(err, &apiErr) {
		h.logger.Warn(logMessage,
			slog.Int("status", apiErr.Status),
			slog.String("error", apiErr.Error()),
		)
		code := apierrors.CodeValidationError
		switch {
		case apiErr.Status == http.StatusUnauthorized:
			code = apierrors.CodeUnauthorized
		case apiErr.Status == http.StatusForbidden:
			code = apierrors.CodeForbidden
		case apiErr.Status == http.StatusNotFound:
			code = apierrors.CodeNotFound
		case apiErr.Status == http.StatusConflict:
			code = apierrors.CodeConflict
		case apiErr.Status >= 500:
			code = apierrors.CodeAPIUnavailable
		}
		status := apiErr.Status
		if status >= 500 {
			status = http.StatusBadGateway
		}
		apierrors.WriteError(w, status, code, apiErr.Error())
		return
	}

	h.logger.Error(logMessage, slog.String("error", err.Error()))
	apierrors.APIUnavailable(w, "сервис временно недоступен")
}
