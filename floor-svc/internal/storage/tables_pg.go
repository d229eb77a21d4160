package storage

import (
	"context"
	"time"

	"floor-manager/floor-svc/internal/domain"
)

const tableColumns = `id, name, is_available, is_occupied, is_calling_staff, created_at`

func scanTable(row rowScanner) (*domain.Table, error) {
	var table domain.Table
	if err := row.Scan(&table.ID, &table.Name, &table.IsAvailable, &table.IsOccupied, &table.IsCallingStaff, &table.CreatedAt); err != nil {
		return nil, err
	}
	return &table, nil
}

func (t *pgTx) LockTable(ctx context.Context, id int) (*domain.Table, error) {
	table, err := scanTable(t.tx.QueryRowContext(ctx, `
		SELECT `+tableColumns+`
		FROM tables
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`, id))
	if err != nil {
		return nil, notFound(err, "table %d", id)
	}
	return table, nil
}

func (t *pgTx) GetTable(ctx context.Context, id int) (*domain.Table, error) {
	table, err := scanTable(t.tx.QueryRowContext(ctx, `
		SELECT `+tableColumns+`
		FROM tables
		WHERE id = $1 AND deleted_at IS NULL
	`, id))
	if err != nil {
		return nil, notFound(err, "table %d", id)
	}
	return table, nil
}

func (t *pgTx) ListTables(ctx context.Context) ([]domain.Table, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+tableColumns+`
		FROM tables
		WHERE deleted_at IS NULL
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := []domain.Table{}
	for rows.Next() {
		table, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *table)
	}
	return tables, rows.Err()
}

func (t *pgTx) InsertTable(ctx context.Context, table *domain.Table) error {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO tables (name, is_available, is_occupied, is_calling_staff, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, table.Name, table.IsAvailable, table.IsOccupied, table.IsCallingStaff, table.CreatedAt).Scan(&table.ID)
	if isUniqueViolation(err) {
		return domain.Conflictf("table name %q is already in use", table.Name)
	}
	return err
}

func (t *pgTx) UpdateTableFlags(ctx context.Context, table *domain.Table) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE tables
		SET is_available = $1, is_occupied = $2, is_calling_staff = $3
		WHERE id = $4 AND deleted_at IS NULL
	`, table.IsAvailable, table.IsOccupied, table.IsCallingStaff, table.ID)
	if err != nil {
		return err
	}
	return expectOneRow(result, "table %d", table.ID)
}

func (t *pgTx) SoftDeleteTable(ctx context.Context, id int, at time.Time) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE tables SET deleted_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`, at, id)
	if err != nil {
		return err
	}
	return expectOneRow(result, "table %d", id)
}
