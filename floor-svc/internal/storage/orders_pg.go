package storage

import (
	"context"
	"database/sql"

	"floor-manager/floor-svc/internal/domain"

	"github.com/lib/pq"
)

const (
	orderColumns = `id, table_id, bill_id, status, total_price, created_at`
	itemColumns  = `id, order_id, menu_id, quantity, unit_price, note, status`
)

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	if err := row.Scan(&order.ID, &order.TableID, &order.BillID, &order.Status, &order.TotalPrice, &order.CreatedAt); err != nil {
		return nil, err
	}
	order.Items = []domain.OrderItem{}
	return &order, nil
}

func scanItem(row rowScanner) (*domain.OrderItem, error) {
	var (
		item domain.OrderItem
		note sql.NullString
	)
	if err := row.Scan(&item.ID, &item.OrderID, &item.MenuID, &item.Quantity, &item.UnitPrice, &note, &item.Status); err != nil {
		return nil, err
	}
	if note.Valid {
		item.Note = &note.String
	}
	return &item, nil
}

func (t *pgTx) InsertOrder(ctx context.Context, order *domain.Order) error {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO orders (table_id, bill_id, status, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, order.TableID, order.BillID, string(order.Status), order.TotalPrice, order.CreatedAt).Scan(&order.ID)
	if err != nil {
		return err
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		var note sql.NullString
		if item.Note != nil {
			note = sql.NullString{String: *item.Note, Valid: true}
		}
		err := t.tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, menu_id, quantity, unit_price, note, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, item.OrderID, item.MenuID, item.Quantity, item.UnitPrice, note, string(item.Status)).Scan(&item.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) GetOrder(ctx context.Context, id int) (*domain.Order, error) {
	order, err := scanOrder(t.tx.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id))
	if err != nil {
		return nil, notFound(err, "order %d", id)
	}

	items, err := t.itemsOf(ctx, []int64{int64(id)})
	if err != nil {
		return nil, err
	}
	order.Items = append(order.Items, items[id]...)
	return order, nil
}

func (t *pgTx) itemsOf(ctx context.Context, orderIDs []int64) (map[int][]domain.OrderItem, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[int][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items[item.OrderID] = append(items[item.OrderID], *item)
	}
	return items, rows.Err()
}

func (t *pgTx) GetOrderItem(ctx context.Context, id int) (*domain.OrderItem, error) {
	item, err := scanItem(t.tx.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM order_items
		WHERE id = $1
	`, id))
	if err != nil {
		return nil, notFound(err, "order item %d", id)
	}
	return item, nil
}

func (t *pgTx) UpdateOrderStatus(ctx context.Context, id int, status domain.Status) error {
	result, err := t.tx.ExecContext(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return err
	}
	return expectOneRow(result, "order %d", id)
}

func (t *pgTx) UpdateItemStatus(ctx context.Context, id int, status domain.Status) error {
	result, err := t.tx.ExecContext(ctx, `UPDATE order_items SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return err
	}
	return expectOneRow(result, "order item %d", id)
}

// CountUnservedItems counts items on the table's OPEN bill that still block closing.
func (t *pgTx) CountUnservedItems(ctx context.Context, tableID int) (int, error) {
	var count int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN bills b ON b.id = o.bill_id
		WHERE b.table_id = $1 AND b.status = 'OPEN'
		  AND oi.status NOT IN ('SERVED', 'COMPLETED', 'CANCELLED')
	`, tableID).Scan(&count)
	return count, err
}

func (t *pgTx) CountLiveOrders(ctx context.Context, tableID int) (int, error) {
	var count int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM orders o
		JOIN bills b ON b.id = o.bill_id
		WHERE b.table_id = $1 AND b.status = 'OPEN'
		  AND o.status NOT IN ('COMPLETED', 'CANCELLED')
	`, tableID).Scan(&count)
	return count, err
}

// CompleteTableOrders completes the items of the table's live orders, then the
// orders themselves. It reports the number of orders completed.
func (t *pgTx) CompleteTableOrders(ctx context.Context, tableID int) (int64, error) {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE order_items SET status = 'COMPLETED'
		WHERE status NOT IN ('COMPLETED', 'CANCELLED')
		  AND order_id IN (
			SELECT id FROM orders
			WHERE table_id = $1 AND status NOT IN ('COMPLETED', 'CANCELLED')
		  )
	`, tableID)
	if err != nil {
		return 0, err
	}

	result, err := t.tx.ExecContext(ctx, `
		UPDATE orders SET status = 'COMPLETED'
		WHERE table_id = $1 AND status NOT IN ('COMPLETED', 'CANCELLED')
	`, tableID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (t *pgTx) ListOrdersByStatus(ctx context.Context, statuses []domain.Status) ([]domain.Order, error) {
	names := make([]string, len(statuses))
	for i, status := range statuses {
		names[i] = string(status)
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status = ANY($1)
		ORDER BY created_at, id
	`, pq.Array(names))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	var ids []int64
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
		ids = append(ids, int64(order.ID))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	items, err := t.itemsOf(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = append(orders[i].Items, items[orders[i].ID]...)
	}
	return orders, nil
}
