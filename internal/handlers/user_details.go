package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-weather-auth/internal/middlewares"
	"github.com/sbilibin2017/gw-weather-auth/internal/models"
	"go.uber.org/zap"
)

// UserGetter returns the user resolved by the auth middleware.
type UserGetter func(ctx context.Context) (*models.UserDB, bool)

// NewUserDetailsHandler returns an HTTP handler for the current user's profile.
// @Summary Get user details
// @Description Returns id, username and email of the user the bearer token was issued for
// @Tags auth
// @Produce json
// @Success 200 {object} models.UserDetailsResponse "User details"
// @Failure 401 {object} models.ErrorResponse "Invalid or expired token"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Router /auth/users/get_user_details [get]
// @Security BearerAuth
func NewUserDetailsHandler(userGetter UserGetter, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := userGetter(r.Context())
		if !ok || user == nil {
			log.Errorw("user details requested without an authenticated user", "request_id", middlewares.RequestIDFromContext(r.Context()))
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		log.Infow("user profile retrieved successfully", "id", user.ID, "username", user.Username)

		writeJSON(w, http.StatusOK, models.UserDetailsResponse{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
		})
	}
}
