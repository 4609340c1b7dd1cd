package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// HeaderUserID заголовок с ID пользователя в режиме header
	HeaderUserID = "X-User-ID"

	msgUnauthorized = "требуется идентификация пользователя"
)

var (
	// ErrMissingCredentials запрос без идентификации
	ErrMissingCredentials = errors.New("middleware: missing credentials")

	// ErrInvalidCredentials идентификация не прошла проверку
	ErrInvalidCredentials = errors.New("middleware: invalid credentials")
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Identifier извлекает ID вызывающего из запроса
type Identifier func(r *http.Request) (int64, error)

// JWTIdentifier проверяет Bearer токен HS256; subject - ID пользователя
func JWTIdentifier(secret []byte) Identifier {
	return func(r *http.Request) (int64, error) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			return 0, ErrMissingCredentials
		}

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}

		return parseUserID(claims.Subject)
	}
}

// HeaderIdentifier доверяет заголовку X-User-ID (за API gateway)
func HeaderIdentifier() Identifier {
	return func(r *http.Request) (int64, error) {
		raw := r.Header.Get(HeaderUserID)
		if raw == "" {
			return 0, ErrMissingCredentials
		}
		return parseUserID(raw)
	}
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad user id %q", ErrInvalidCredentials, raw)
	}
	return id, nil
}

// Auth требует идентификацию вызывающего и кладет его ID в контекст
func Auth(identify Identifier, logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := identify(r)
			if err != nil {
				logger.Warn("%s %s - Unauthorized: %v", r.Method, r.URL.Path, err)
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"code":    "unauthorized",
					"message": msgUnauthorized,
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
