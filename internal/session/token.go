// token.go — декодирование identity из bearer-токена.
// Если настроен DM_JWKS_URL, подпись проверяется через JWKS удалённого API
// (keyfunc с фоновым обновлением ключей); без него claims читаются
// без проверки подписи — токен выдан и проверяется удалённым API,
// дашборд лишь извлекает из него subject и роль.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/arturkryukov/candystore/dashboard-module/internal/domain/rbac"
)

// Identity — субъект, закодированный в токене.
type Identity struct {
	// SubjectID — идентификатор субъекта (sub).
	SubjectID string
	// Role — роль субъекта.
	Role rbac.Role
}

// tokenClaims — claims токена Catalog API.
type tokenClaims struct {
	jwt.RegisteredClaims
	// Role — роль субъекта (admin, superadmin).
	Role string `json:"role"`
}

// TokenDecoder — декодер bearer-токена.
type TokenDecoder struct {
	jwks   keyfunc.Keyfunc
	leeway time.Duration
	logger *slog.Logger
}

// NewTokenDecoder создаёт декодер без проверки подписи.
func NewTokenDecoder(leeway time.Duration, logger *slog.Logger) *TokenDecoder {
	return &TokenDecoder{
		leeway: leeway,
		logger: logger.With(slog.String("component", "token_decoder")),
	}
}

// NewTokenDecoderWithJWKS создаёт декодер с проверкой подписи через JWKS.
// jwksURL — JWKS endpoint удалённого API.
// httpClient — может быть nil (стандартный клиент).
// NoErrorReturnFirstHTTPReq — стартуем даже если API ещё недоступен.
func NewTokenDecoderWithJWKS(
	jwksURL string,
	refreshInterval time.Duration,
	leeway time.Duration,
	httpClient *http.Client,
	logger *slog.Logger,
) (*TokenDecoder, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Client:                    httpClient,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           refreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("Ошибка обновления JWKS",
				slog.String("error", err.Error()),
				slog.String("url", jwksURL),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}

	return &TokenDecoder{
		jwks:   k,
		leeway: leeway,
		logger: logger.With(slog.String("component", "token_decoder")),
	}, nil
}

// Decode извлекает Identity из токена.
// Любая ошибка парсинга, проверки подписи или неизвестная роль —
// токен невалиден; вызывающая сторона деградирует к пустой сессии.
func (d *TokenDecoder) Decode(ctx context.Context, tokenString string) (Identity, error) {
	claims := &tokenClaims{}

	if d.jwks != nil {
		_, err := jwt.ParseWithClaims(tokenString, claims, d.jwks.KeyfuncCtx(ctx),
			jwt.WithLeeway(d.leeway),
		)
		if err != nil {
			return Identity{}, fmt.Errorf("проверка токена: %w", err)
		}
	} else {
		_, _, err := jwt.NewParser(jwt.WithLeeway(d.leeway)).ParseUnverified(tokenString, claims)
		if err != nil {
			return Identity{}, fmt.Errorf("парсинг токена: %w", err)
		}
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return Identity{}, fmt.Errorf("отсутствует sub в токене")
	}

	role, ok := rbac.ParseRole(claims.Role)
	if !ok {
		return Identity{}, fmt.Errorf("неизвестная роль в токене: %q", claims.Role)
	}

	return Identity{SubjectID: subject, Role: role}, nil
}
