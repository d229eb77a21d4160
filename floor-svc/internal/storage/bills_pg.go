package storage

import (
	"context"
	"database/sql"
	"time"

	"floor-manager/floor-svc/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const billColumns = `id, table_id, status, total_price, created_at, closed_at, payment_method`

func scanBill(row rowScanner) (*domain.Bill, error) {
	var (
		bill          domain.Bill
		closedAt      sql.NullTime
		paymentMethod sql.NullString
	)
	if err := row.Scan(&bill.ID, &bill.TableID, &bill.Status, &bill.TotalPrice, &bill.CreatedAt, &closedAt, &paymentMethod); err != nil {
		return nil, err
	}
	if closedAt.Valid {
		bill.ClosedAt = &closedAt.Time
	}
	if paymentMethod.Valid {
		bill.PaymentMethod = &paymentMethod.String
	}
	return &bill, nil
}

func (t *pgTx) FindOpenBill(ctx context.Context, tableID int) (*domain.Bill, error) {
	bill, err := scanBill(t.tx.QueryRowContext(ctx, `
		SELECT `+billColumns+`
		FROM bills
		WHERE table_id = $1 AND status = 'OPEN'
	`, tableID))
	if err != nil {
		return nil, notFound(err, "open bill for table %d", tableID)
	}
	return bill, nil
}

// InsertBill leans on the partial unique index bills_one_open_per_table.
func (t *pgTx) InsertBill(ctx context.Context, bill *domain.Bill) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO bills (id, table_id, status, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (table_id) WHERE status = 'OPEN' DO NOTHING
	`, bill.ID, bill.TableID, string(bill.Status), bill.TotalPrice, bill.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *pgTx) GetBill(ctx context.Context, id uuid.UUID) (*domain.Bill, error) {
	bill, err := scanBill(t.tx.QueryRowContext(ctx, `
		SELECT `+billColumns+`
		FROM bills
		WHERE id = $1
	`, id))
	if err != nil {
		return nil, notFound(err, "bill %s", id)
	}
	return bill, nil
}

func (t *pgTx) AddToBillTotal(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.Bill, error) {
	bill, err := scanBill(t.tx.QueryRowContext(ctx, `
		UPDATE bills
		SET total_price = total_price + $2
		WHERE id = $1 AND status = 'OPEN'
		RETURNING `+billColumns, id, amount))
	if err != nil {
		return nil, notFound(err, "open bill %s", id)
	}
	return bill, nil
}

func (t *pgTx) RecomputeBillTotal(ctx context.Context, id uuid.UUID) (*domain.Bill, error) {
	bill, err := scanBill(t.tx.QueryRowContext(ctx, `
		UPDATE bills
		SET total_price = (
			SELECT COALESCE(SUM(oi.unit_price * oi.quantity), 0)
			FROM order_items oi
			JOIN orders o ON o.id = oi.order_id
			WHERE o.bill_id = $1 AND oi.status <> 'CANCELLED'
		)
		WHERE id = $1 AND status = 'OPEN'
		RETURNING `+billColumns, id))
	if err != nil {
		return nil, notFound(err, "open bill %s", id)
	}
	return bill, nil
}

func (t *pgTx) MarkBillPaid(ctx context.Context, id uuid.UUID, paymentMethod *string, at time.Time) (*domain.Bill, error) {
	var method sql.NullString
	if paymentMethod != nil {
		method = sql.NullString{String: *paymentMethod, Valid: true}
	}
	bill, err := scanBill(t.tx.QueryRowContext(ctx, `
		UPDATE bills
		SET status = 'PAID', closed_at = $2, payment_method = $3
		WHERE id = $1 AND status = 'OPEN'
		RETURNING `+billColumns, id, at, method))
	if err != nil {
		return nil, notFound(err, "open bill %s", id)
	}
	return bill, nil
}
