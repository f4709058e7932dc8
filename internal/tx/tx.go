// Package tx carries a request-scoped database transaction through a context.
package tx

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Executor is implemented by both *sqlx.DB and *sqlx.Tx.
type Executor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// contextKey is an unexported type for keys in context
type contextKey struct{}

var txKey = contextKey{}

// WithTx stores a transaction in the context
func WithTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// FromContext retrieves the transaction from the context. Returns nil if not present.
func FromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey).(*sqlx.Tx)
	return tx
}

// GetExecutor returns the context transaction when there is one, otherwise db.
func GetExecutor(ctx context.Context, db *sqlx.DB) Executor {
	if tx := FromContext(ctx); tx != nil {
		return tx
	}
	return db
}
