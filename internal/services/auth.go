package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sbilibin2017/gw-weather-auth/internal/jwt"
	"github.com/sbilibin2017/gw-weather-auth/internal/models"
	"github.com/sbilibin2017/gw-weather-auth/internal/password"
	"github.com/sbilibin2017/gw-weather-auth/internal/repositories"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

//go:generate mockgen -source=auth.go -destination=mock_auth.go -package=services

// Error variables
var (
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrUserDoesNotExist      = errors.New("username does not exist")
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrUserNotFound          = errors.New("user not found")
)

// UserReader defines read-only operations for users.
type UserReader interface {
	GetByUsernameOrEmail(ctx context.Context, username *string, email *string) (*models.UserDB, error)
	GetByID(ctx context.Context, id int64) (*models.UserDB, error)
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Save(ctx context.Context, username, email, passwordHash string) (int64, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenManager issues and verifies bearer tokens.
type TokenManager interface {
	Generate(ctx context.Context, userID int64, username, email string) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// AuthService handles registration, login and token authentication.
type AuthService struct {
	reader      UserReader
	writer      UserWriter
	hasher      PasswordHasher
	tokens      TokenManager
	kafkaWriter KafkaWriter
	log         *zap.SugaredLogger
}

// NewAuthService creates a new AuthService instance. kafkaWriter may be nil.
func NewAuthService(
	reader UserReader,
	writer UserWriter,
	hasher PasswordHasher,
	tokens TokenManager,
	kafkaWriter KafkaWriter,
	log *zap.SugaredLogger,
) *AuthService {
	return &AuthService{
		reader:      reader,
		writer:      writer,
		hasher:      hasher,
		tokens:      tokens,
		kafkaWriter: kafkaWriter,
		log:         log,
	}
}

// Register registers a new user.
// The email is checked before insert; a taken username is reported by storage.
func (svc *AuthService) Register(ctx context.Context, username, email, pass string) error {
	user, err := svc.reader.GetByUsernameOrEmail(ctx, nil, &email)
	if err != nil {
		svc.log.Errorw("failed to check email", "email", email, "err", err)
		return err
	}
	if user != nil {
		svc.log.Errorw("email already exists", "email", email)
		return ErrEmailAlreadyExists
	}

	hash, err := svc.hasher.Hash(pass)
	if err != nil {
		svc.log.Errorw("failed to hash password", "err", err)
		return err
	}

	id, err := svc.writer.Save(ctx, username, email, hash)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			svc.log.Errorw("username already exists", "username", username)
			return ErrUsernameAlreadyExists
		}
		svc.log.Errorw("failed to save user", "username", username, "err", err)
		return err
	}

	svc.log.Infow("user registered successfully", "id", id, "username", username)

	svc.publishRegistration(ctx, models.UserRegisteredEvent{
		UserID:       id,
		Username:     username,
		Email:        email,
		RegisteredAt: time.Now().Unix(),
	})

	return nil
}

// Login authenticates a user and returns a JWT token.
func (svc *AuthService) Login(ctx context.Context, username, pass string) (string, error) {
	user, err := svc.reader.GetByUsernameOrEmail(ctx, &username, nil)
	if err != nil {
		svc.log.Errorw("failed to get user", "username", username, "err", err)
		return "", err
	}
	if user == nil {
		svc.log.Errorw("user does not exist", "username", username)
		return "", ErrUserDoesNotExist
	}

	if err := svc.hasher.Compare(user.PasswordHash, pass); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			svc.log.Errorw("invalid credentials", "username", username)
			return "", ErrInvalidCredentials
		}
		svc.log.Errorw("failed to verify password", "username", username, "err", err)
		return "", fmt.Errorf("verify password: %w", err)
	}

	token, err := svc.tokens.Generate(ctx, user.ID, user.Username, user.Email)
	if err != nil {
		svc.log.Errorw("failed to generate JWT", "err", err)
		return "", err
	}

	svc.log.Infow("user authentication successful", "id", user.ID, "username", user.Username)

	return token, nil
}

// Authenticate resolves a bearer token to the user it was issued for.
// It returns jwt.ErrTokenExpired, jwt.ErrTokenInvalid or ErrUserNotFound on failure.
func (svc *AuthService) Authenticate(ctx context.Context, token string) (*models.UserDB, error) {
	claims, err := svc.tokens.GetClaims(ctx, token)
	if err != nil {
		svc.log.Errorw("token rejected", "err", err)
		return nil, err
	}

	user, err := svc.reader.GetByID(ctx, claims.UserID)
	if err != nil {
		svc.log.Errorw("failed to get user", "id", claims.UserID, "err", err)
		return nil, err
	}
	if user == nil {
		svc.log.Errorw("token user not found", "id", claims.UserID)
		return nil, ErrUserNotFound
	}

	return user, nil
}

// publishRegistration publishes a user-registered event to Kafka.
func (svc *AuthService) publishRegistration(ctx context.Context, event models.UserRegisteredEvent) {
	if svc.kafkaWriter == nil {
		svc.log.Debugw("Kafka writer not configured, skipping publishing", "id", event.UserID)
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		svc.log.Errorw("Failed to marshal registration event", "id", event.UserID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.UserID, 10)),
		Value: data,
	}

	if err := svc.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		svc.log.Errorw("Failed to publish registration event", "id", event.UserID, "error", err)
	} else {
		svc.log.Infow("Registration event published", "id", event.UserID)
	}
}
