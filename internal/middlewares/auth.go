package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-weather-auth/internal/jwt"
	"github.com/sbilibin2017/gw-weather-auth/internal/models"
	"github.com/sbilibin2017/gw-weather-auth/internal/services"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=mock_middlewares.go -package=middlewares . Tokener,Authenticator,Limiter

// Tokener extracts the bearer token from a request.
type Tokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
}

// Authenticator resolves a token to the user it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.UserDB, error)
}

type userKey struct{}

// AuthMiddleware returns a middleware that resolves the bearer token to a user
// and stores the user in the request context.
func AuthMiddleware(tokener Tokener, auth Authenticator, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tokenString, err := tokener.GetTokenFromRequest(ctx, r)
			if err != nil {
				log.Errorw("authorization failed", "err", err)
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			user, err := auth.Authenticate(ctx, tokenString)
			if err != nil {
				log.Errorw("authorization failed", "err", err)
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					w.Header().Set("WWW-Authenticate", "Bearer")
					writeError(w, http.StatusUnauthorized, "Token has expired")
				case errors.Is(err, jwt.ErrTokenInvalid):
					w.Header().Set("WWW-Authenticate", "Bearer")
					writeError(w, http.StatusUnauthorized, "Invalid token")
				case errors.Is(err, services.ErrUserNotFound):
					writeError(w, http.StatusNotFound, "User not found")
				default:
					writeError(w, http.StatusInternalServerError, "Internal server error")
				}
				return
			}

			ctx = context.WithValue(ctx, userKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the user stored by AuthMiddleware.
func UserFromContext(ctx context.Context) (*models.UserDB, bool) {
	user, ok := ctx.Value(userKey{}).(*models.UserDB)
	return user, ok && user != nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: message})
}
