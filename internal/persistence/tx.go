package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/intervention-service/pkg/util"
)

// DBTX is the query surface shared by pools, connections and transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Beginner starts transactions.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type txKey struct{}

// Conn returns the transaction bound to ctx, or fallback when there is none.
func Conn(ctx context.Context, fallback DBTX) DBTX {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return fallback
}

// TxManager runs units of work inside a single transaction.
type TxManager struct {
	db     Beginner
	logger *zap.Logger
}

// NewTxManager builds a manager on top of db.
func NewTxManager(db Beginner, logger *zap.Logger) *TxManager {
	return &TxManager{db: db, logger: logger}
}

// WithinTx calls fn with a context carrying an open transaction. The
// transaction commits when fn returns nil and rolls back otherwise. Nested
// calls join the outer transaction.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	if m.db == nil {
		return apperrors.NewPersistenceError(errors.New("database not configured"))
	}

	tx, err := m.db.Begin(ctx)
	if err != nil {
		return apperrors.NewPersistenceError(err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			m.logger.Error("rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		m.logger.Error("commit failed", zap.Error(err))
		return apperrors.NewPersistenceError(err)
	}
	return nil
}
