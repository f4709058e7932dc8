package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-weather-auth/internal/middlewares"
	"github.com/sbilibin2017/gw-weather-auth/internal/models"
	"github.com/sbilibin2017/gw-weather-auth/internal/services"
	"go.uber.org/zap"
)

// Loginer defines the interface that the login service must implement.
type Loginer interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// NewLoginHandler returns an HTTP handler for user login.
// @Summary User login
// @Description Authenticate user and return a JWT token valid for the configured lifetime
// @Tags auth
// @Accept json
// @Produce json
// @Param loginRequest body models.LoginRequest true "Login Request"
// @Success 200 {object} models.LoginResponse "JWT token returned"
// @Failure 400 {object} models.ErrorResponse "Invalid request body"
// @Failure 401 {object} models.ErrorResponse "Invalid username or password"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/users/login [post]
func NewLoginHandler(svc Loginer, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest

		if msg, ok := decodeRequest(r, &req); !ok {
			log.Errorw("invalid login request", "reason", msg, "request_id", middlewares.RequestIDFromContext(r.Context()))
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		token, err := svc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInvalidCredentials),
				errors.Is(err, services.ErrUserDoesNotExist):
				writeError(w, http.StatusUnauthorized, "Invalid username or password")
			default:
				log.Errorw("internal server error", "err", err, "request_id", middlewares.RequestIDFromContext(r.Context()))
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		writeJSON(w, http.StatusOK, models.LoginResponse{
			Token: token,
		})
	}
}
