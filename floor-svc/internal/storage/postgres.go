package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"floor-manager/floor-svc/internal/domain"
	"floor-manager/floor-svc/internal/service"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const (
	pqUniqueViolation     = "23505"
	pqLockNotAvailable    = "55P03"
	pqTransactionRollback = "40"
)

// PostgresStore runs every unit of work in a READ COMMITTED transaction.
// Workflows serialize per table by locking the table row first (LockTable).
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(tx service.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return classify(err)
	}
	return classify(tx.Commit())
}

// MenuPrice reads the current price on the transaction's connection, so an order
// holding a table lock never needs a second pooled connection.
func (t *pgTx) MenuPrice(ctx context.Context, menuID int) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := t.tx.QueryRowContext(ctx, `
		SELECT price FROM menus
		WHERE id = $1 AND deleted_at IS NULL
	`, menuID).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, domain.NotFoundf("menu item %d", menuID)
	}
	if err != nil {
		return decimal.Zero, classify(err)
	}
	return price, nil
}

// classify marks retryable driver failures as transient. Domain errors pass through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code.Class() == pqTransactionRollback || pqErr.Code == pqLockNotAvailable {
			return fmt.Errorf("%w: %v", domain.ErrTransient, err)
		}
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

type pgTx struct {
	tx *sql.Tx
}

var _ service.Tx = (*pgTx)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundf(format, args...)
	}
	return err
}

func expectOneRow(result sql.Result, format string, args ...any) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundf(format, args...)
	}
	return nil
}
