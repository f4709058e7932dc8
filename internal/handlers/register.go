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

//go:generate mockgen -destination=mock_handlers.go -package=handlers . Registerer,Loginer,WeatherReader

// Registerer defines the interface that the service must implement.
type Registerer interface {
	Register(ctx context.Context, username, email, password string) error
}

// NewRegisterHandler returns an HTTP handler for user registration.
// @Summary Register a new user
// @Description Creates a new user account. Email and username must be unused. Password is hashed before storing.
// @Tags auth
// @Accept json
// @Produce json
// @Param registerRequest body models.RegisterRequest true "User registration request"
// @Success 200 {object} models.RegisterResponse "User successfully registered"
// @Failure 400 {object} models.ErrorResponse "Email or username already exists / invalid request"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/users/register [post]
func NewRegisterHandler(svc Registerer, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest

		if msg, ok := decodeRequest(r, &req); !ok {
			log.Errorw("invalid registration request", "reason", msg, "request_id", middlewares.RequestIDFromContext(r.Context()))
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		err := svc.Register(r.Context(), req.Username, req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrEmailAlreadyExists):
				writeError(w, http.StatusBadRequest, "Email already exists")
			case errors.Is(err, services.ErrUsernameAlreadyExists):
				writeError(w, http.StatusBadRequest, "Username already exists")
			default:
				log.Errorw("internal server error", "err", err, "request_id", middlewares.RequestIDFromContext(r.Context()))
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		writeJSON(w, http.StatusOK, models.RegisterResponse{
			Message: "User registered successfully",
		})
	}
}
