package middlewares

import (
	"bytes"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-weather-auth/internal/tx"
	"go.uber.org/zap"
)

// TxMiddleware runs each request inside a database transaction stored in the request context.
// The response is held back until the transaction ends: it is committed when the status is
// below 400 and rolled back otherwise, including when the handler panics. A failed commit
// replaces the response with a 500.
func TxMiddleware(db *sqlx.DB, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sqlTx, err := db.BeginTxx(r.Context(), nil)
			if err != nil {
				log.Errorw("failed to begin transaction", "error", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			defer func() {
				if rec := recover(); rec != nil {
					if err := sqlTx.Rollback(); err != nil {
						log.Errorw("failed to roll back transaction", "error", err)
					}
					panic(rec)
				}
			}()

			bw := &bufferedResponseWriter{ResponseWriter: w}
			next.ServeHTTP(bw, r.WithContext(tx.WithTx(r.Context(), sqlTx)))

			if bw.status() >= http.StatusBadRequest {
				if err := sqlTx.Rollback(); err != nil {
					log.Errorw("failed to roll back transaction", "error", err)
				}
				bw.flush()
				return
			}

			if err := sqlTx.Commit(); err != nil {
				log.Errorw("failed to commit transaction", "error", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			bw.flush()
		})
	}
}

// bufferedResponseWriter keeps the status and body in memory until flush.
type bufferedResponseWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (b *bufferedResponseWriter) WriteHeader(code int) {
	if b.statusCode == 0 {
		b.statusCode = code
	}
}

func (b *bufferedResponseWriter) Write(p []byte) (int, error) {
	if b.statusCode == 0 {
		b.statusCode = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedResponseWriter) status() int {
	if b.statusCode == 0 {
		return http.StatusOK
	}
	return b.statusCode
}

func (b *bufferedResponseWriter) flush() {
	b.ResponseWriter.WriteHeader(b.status())
	_, _ = b.ResponseWriter.Write(b.body.Bytes())
}
