package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/dgrijalva/jwt-go"

	"docforge/internal/api"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserIDFromContext returns the authenticated user's ID placed there by
// JWTMiddleware.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userIDKey).(uint)
	return id, ok
}

// ContextWithUserID is used by tests and the websocket upgrade path.
func ContextWithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// JWTMiddleware authenticates requests via the Authorization header, falling
// back to a "token" query parameter for the websocket upgrade. Requests that
// prefer HTML are redirected to /auth with the original path preserved.
func JWTMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				tokenString = r.URL.Query().Get("token")
			}
			if tokenString == "" {
				denyOrRedirect(w, r)
				return
			}

			userID, err := ParseToken(tokenString, jwtSecret)
			if err != nil {
				denyOrRedirect(w, r)
				return
			}

			ctx := ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ParseToken validates an HS256 token and extracts the user_id claim.
func ParseToken(tokenString, jwtSecret string) (uint, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}

	userID, ok := (*claims)["user_id"].(float64)
	if !ok {
		return 0, ErrInvalidToken
	}
	return uint(userID), nil
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func denyOrRedirect(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		target := r.URL.Path
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		location := "/auth"
		if safe := SafeRedirect(target); safe != "" {
			location += "?redirect=" + url.QueryEscape(safe)
		}
		http.Redirect(w, r, location, http.StatusFound)
		return
	}
	api.WriteUnauthorized(w)
}

// SafeRedirect accepts only path-relative redirect targets. Absolute URLs
// and protocol-relative ("//host") values come back empty.
func SafeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") {
		return ""
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return ""
	}
	return target
}
