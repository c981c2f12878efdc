package handler

import (
	"context"
	"errors"
	"go-blog-api/common"
	"go-blog-api/model"
	"go-blog-api/service"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	UserIDKey    contextKey = "userID"
	UserEmailKey contextKey = "userEmail"
	UserNameKey  contextKey = "userName"
)

// AuthMiddleware verifies access tokens. Verification is stateless against
// the signing secret; only the admin gate goes back to the store.
type AuthMiddleware struct {
	authService *service.AuthService
}

func NewAuthMiddleware(authService *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The second return reports whether the header was present at all.
func bearerToken(r *http.Request) (string, bool, *common.AppError) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false, nil
	}

	headerParts := strings.Split(authHeader, " ")
	if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
		return "", true, common.NewAppError(http.StatusUnauthorized, "Invalid authorization header format", nil)
	}
	return headerParts[1], true, nil
}

func (m *AuthMiddleware) withIdentity(r *http.Request, tokenString string) (*http.Request, *common.AppError) {
	claims, err := m.authService.ParseAccessToken(tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.NewAppError(http.StatusUnauthorized, "Token expired", err)
		}
		return nil, common.NewAppError(http.StatusUnauthorized, "Invalid token", err)
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return nil, common.NewAppError(http.StatusUnauthorized, "Invalid token", err)
	}

	ctx := context.WithValue(r.Context(), UserIDKey, userID)
	ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
	ctx = context.WithValue(ctx, UserNameKey, claims.Name)
	return r.WithContext(ctx), nil
}

// RequireAuth rejects the request unless it carries a valid, unexpired access
// token. An expired token is reported distinctly from a malformed one.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, present, appErr := bearerToken(r)
		if appErr != nil {
			appErr.Send(w)
			return
		}
		if !present {
			common.NewAppError(http.StatusUnauthorized, "Authorization header is required", nil).Send(w)
			return
		}

		r, appErr = m.withIdentity(r, tokenString)
		if appErr != nil {
			appErr.Send(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// OptionalAuth attaches the identity when a valid token is present and
// otherwise lets the request through anonymously. Read endpoints use it to
// personalize output without demanding a login.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, present, appErr := bearerToken(r)
		if !present || appErr != nil {
			next.ServeHTTP(w, r)
			return
		}

		if authed, appErr := m.withIdentity(r, tokenString); appErr == nil {
			r = authed
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin composes after RequireAuth. It re-fetches the user record so a
// role change or account deletion takes effect immediately instead of when
// the access token expires.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(UserIDKey).(int)
		if !ok {
			common.NewAppError(http.StatusUnauthorized, "Not authenticated", nil).Send(w)
			return
		}

		user, err := m.authService.CurrentUser(userID)
		if err != nil {
			common.NewAppError(http.StatusUnauthorized, "Not authenticated", err).Send(w)
			return
		}
		if user.Role != string(model.RoleAdmin) {
			common.NewAppError(http.StatusForbidden, "Access denied. Admin privileges required.", nil).Send(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}
