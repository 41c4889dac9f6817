package httpapi

import (
	"context"
	"net/http"
	"strings"

	"beacon-guardian/internal/services"
)

type contextKey string

const (
	ctxUserID contextKey = "userID"
	ctxRoles  contextKey = "roles"
)

func WithAuth(tokenService services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication failed")
				return
			}
			userID, roles, ok := verifyAccessToken(tokenService, strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
			if !ok {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication failed")
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserID, userID)
			ctx = context.WithValue(ctx, ctxRoles, roles)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func verifyAccessToken(tokenService services.TokenService, tokenStr string) (string, []string, bool) {
	token, claims, err := tokenService.ParseToken(tokenStr)
	if err != nil || !token.Valid || claims["typ"] != "access" {
		return "", nil, false
	}
	userID, _ := claims["sub"].(string)
	return userID, services.Roles(claims), true
}

func CurrentUserID(r *http.Request) string {
	if value, ok := r.Context().Value(ctxUserID).(string); ok {
		return value
	}
	return ""
}

func CurrentRoles(r *http.Request) []string {
	if value, ok := r.Context().Value(ctxRoles).([]string); ok {
		return value
	}
	return nil
}

func hasRole(roles []string, role string) bool {
	for _, candidate := range roles {
		if strings.EqualFold(candidate, role) {
			return true
		}
	}
	return false
}

func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasRole(CurrentRoles(r), role) {
				WriteError(w, http.StatusForbidden, "FORBIDDEN", "Not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
