package service

import (
	"context"

	"floor-manager/floor-svc/internal/domain"

	"github.com/sirupsen/logrus"
)

// ItemStatusStateMachine moves orders and single items through the kitchen
// statuses. Both paths lock the table first and finish with a bill Recompute in
// the same transaction, so neither can leave the total stale for the other.
type ItemStatusStateMachine struct {
	runner *TxRunner
	tables *TableRegistry
	bills  *BillAggregator
	events emitter
	log    logrus.FieldLogger
}

func NewItemStatusStateMachine(runner *TxRunner, tables *TableRegistry, bills *BillAggregator, gateway NotificationGateway, log logrus.FieldLogger) *ItemStatusStateMachine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ItemStatusStateMachine{
		runner: runner,
		tables: tables,
		bills:  bills,
		events: newEmitter(gateway, log),
		log:    log,
	}
}

func (m *ItemStatusStateMachine) TransitionItem(ctx context.Context, itemID int, status domain.Status) (*domain.ItemChange, error) {
	if !status.Valid() {
		return nil, domain.Validationf("unknown status %q", status)
	}

	var change *domain.ItemChange
	err := m.runner.Run(ctx, "item.status", func(tx Tx) error {
		item, err := tx.GetOrderItem(ctx, itemID)
		if err != nil {
			return err
		}
		order, err := tx.GetOrder(ctx, item.OrderID)
		if err != nil {
			return err
		}
		table, err := m.tables.GetForUpdate(ctx, tx, order.TableID)
		if err != nil {
			return err
		}
		// re-read under the table lock
		if item, err = tx.GetOrderItem(ctx, itemID); err != nil {
			return err
		}

		if !item.Status.CanTransitionTo(status) {
			return domain.Conflictf("item %d cannot move from %s to %s", itemID, item.Status, status)
		}
		if item.Status != status {
			if err := tx.UpdateItemStatus(ctx, itemID, status); err != nil {
				return err
			}
			item.Status = status
		}

		bill, err := m.bills.Recompute(ctx, tx, order.BillID)
		if err != nil {
			return err
		}
		if order, err = tx.GetOrder(ctx, item.OrderID); err != nil {
			return err
		}

		change = &domain.ItemChange{Item: *item, Order: *order, Table: *table, Bill: bill}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{
		"item_id":  itemID,
		"order_id": change.Order.ID,
		"table_id": change.Table.ID,
		"status":   status,
	}).Info("item status changed")
	m.events.emit(ctx, domain.NewEvent(domain.EventItemStatusChanged, change.Table.ID, change))
	return change, nil
}

// TransitionOrder applies status to the order and to each of its items that is
// not cancelled. Items already at or past the target keep their status; an item
// that cannot reach the target fails the whole transition.
func (m *ItemStatusStateMachine) TransitionOrder(ctx context.Context, orderID int, status domain.Status) (*domain.Order, error) {
	if !status.Valid() {
		return nil, domain.Validationf("unknown status %q", status)
	}

	var (
		result   *domain.Order
		released bool
	)
	err := m.runner.Run(ctx, "order.status", func(tx Tx) error {
		released = false
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		table, err := m.tables.GetForUpdate(ctx, tx, order.TableID)
		if err != nil {
			return err
		}
		if order, err = tx.GetOrder(ctx, orderID); err != nil {
			return err
		}

		if !order.Status.CanTransitionTo(status) {
			return domain.Conflictf("order %d cannot move from %s to %s", orderID, order.Status, status)
		}

		for _, item := range order.Items {
			if item.Status == domain.StatusCancelled || item.Status == status {
				continue
			}
			if item.Status.CanTransitionTo(status) {
				if err := tx.UpdateItemStatus(ctx, item.ID, status); err != nil {
					return err
				}
				continue
			}
			if status != domain.StatusCancelled && item.Status.Reached(status) {
				continue
			}
			return domain.Conflictf("item %d of order %d cannot move from %s to %s", item.ID, orderID, item.Status, status)
		}

		if order.Status != status {
			if err := tx.UpdateOrderStatus(ctx, orderID, status); err != nil {
				return err
			}
		}

		if _, err := m.bills.Recompute(ctx, tx, order.BillID); err != nil {
			return err
		}

		// the table is free once its last live order is completed
		if status == domain.StatusCompleted && table.IsOccupied {
			live, err := tx.CountLiveOrders(ctx, table.ID)
			if err != nil {
				return err
			}
			if live == 0 {
				if table, err = m.tables.MarkOccupied(ctx, tx, table.ID, false); err != nil {
					return err
				}
				released = true
			}
		}

		if result, err = tx.GetOrder(ctx, orderID); err != nil {
			return err
		}
		result.Table = table
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{
		"order_id": orderID,
		"table_id": result.TableID,
		"status":   status,
	}).Info("order status changed")
	events := []domain.Event{domain.NewEvent(domain.EventOrderStatusChanged, result.TableID, result)}
	if released {
		events = append(events, domain.NewEvent(domain.EventTableUpdated, result.TableID, result.Table))
	}
	m.events.emit(ctx, events...)
	return result, nil
}
