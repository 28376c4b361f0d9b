package repository

import (
	"context"
	"database/sql"

	"github.com/tradegate/invoice-gate/internal/application/port"
	"github.com/tradegate/invoice-gate/pkg/database"
)

type contextKey string

const txKey contextKey = "tx"

// executor abstracts *sql.DB and *sql.Tx so repositories run inside a
// transaction when one is carried in the context
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func executorFrom(ctx context.Context, db *sql.DB) executor {
	if tx, ok := ctx.Value(txKey).(*sql.Tx); ok {
		return tx
	}
	return db
}

// TxManager implements port.TransactionManager over the sqlite wrapper
type TxManager struct {
	db *database.DB
}

// NewTxManager creates a new transaction manager
func NewTxManager(db *database.DB) *TxManager {
	return &TxManager{db: db}
}

// WithTransaction runs fn with a transaction carried in the context; all
// repository calls inside fn join it
func (m *TxManager) WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return m.db.WithTransaction(func(tx *sql.Tx) error {
		return fn(context.WithValue(ctx, txKey, tx))
	})
}

var _ port.TransactionManager = (*TxManager)(nil)
