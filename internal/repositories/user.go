package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-weather-auth/internal/models"
	"github.com/sbilibin2017/gw-weather-auth/internal/tx"
	"go.uber.org/zap"
)

// ErrDuplicate is returned when an insert violates a unique constraint.
var ErrDuplicate = errors.New("duplicate key")

const uniqueViolation = "23505"

type UserReadRepository struct {
	db  *sqlx.DB
	log *zap.SugaredLogger
}

func NewUserReadRepository(db *sqlx.DB, log *zap.SugaredLogger) *UserReadRepository {
	return &UserReadRepository{db: db, log: log}
}

// GetByUsernameOrEmail returns the first user matching every non-nil filter, or nil when none does.
func (r *UserReadRepository) GetByUsernameOrEmail(ctx context.Context, username, email *string) (*models.UserDB, error) {
	const query = `
		SELECT id, username, email, password_hash
		FROM users
		WHERE ($1::TEXT IS NULL OR username = $1)
		  AND ($2::TEXT IS NULL OR email = $2)
		ORDER BY id
		LIMIT 1
	`

	return r.get(ctx, query, username, email)
}

// GetByID returns the user with the given id, or nil when there is none.
func (r *UserReadRepository) GetByID(ctx context.Context, id int64) (*models.UserDB, error) {
	const query = `
		SELECT id, username, email, password_hash
		FROM users
		WHERE id = $1
	`

	return r.get(ctx, query, id)
}

func (r *UserReadRepository) get(ctx context.Context, query string, args ...any) (*models.UserDB, error) {
	var user models.UserDB
	err := tx.GetExecutor(ctx, r.db).GetContext(ctx, &user, query, args...)

	// Log with query in single line
	r.log.Debugw("select user",
		"query", strings.Join(strings.Fields(query), " "),
		"found", err == nil,
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

type UserWriteRepository struct {
	db  *sqlx.DB
	log *zap.SugaredLogger
}

func NewUserWriteRepository(db *sqlx.DB, log *zap.SugaredLogger) *UserWriteRepository {
	return &UserWriteRepository{db: db, log: log}
}

// Save inserts a user and returns its id. A taken username yields ErrDuplicate.
func (r *UserWriteRepository) Save(ctx context.Context, username, email, passwordHash string) (int64, error) {
	const query = `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := tx.GetExecutor(ctx, r.db).QueryRowxContext(ctx, query, username, email, passwordHash).Scan(&id)

	// Log with query in single line
	r.log.Debugw("insert user",
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{username, email},
		"result", id,
		"error", err,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return 0, ErrDuplicate
	}
	if err != nil {
		return 0, err
	}

	return id, nil
}
