package handlers

import (
	"context"
	"net/http"

	"github.com/yovohub/hub/internal/models"
)

type contextKey string

const (
	userContextKey  contextKey = "user"
	tokenContextKey contextKey = "token"
)

// SetUserInContext attaches the session's user, young person or provider.
func SetUserInContext(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func GetUserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

// SetTokenInContext stores the bearer token the request authenticated with,
// so logout can revoke that session only.
func SetTokenInContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}

func GetTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// requireUser returns the authenticated user or answers 401.
func requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return user, true
}
