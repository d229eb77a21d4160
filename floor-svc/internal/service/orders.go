package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"floor-manager/floor-svc/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// OrderLifecycleManager places orders and closes tables out.
type OrderLifecycleManager struct {
	runner *TxRunner
	tables *TableRegistry
	bills  *BillAggregator
	menu   MenuPriceOracle
	events emitter
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewOrderLifecycleManager(runner *TxRunner, tables *TableRegistry, bills *BillAggregator, menu MenuPriceOracle, gateway NotificationGateway, log logrus.FieldLogger) *OrderLifecycleManager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OrderLifecycleManager{
		runner: runner,
		tables: tables,
		bills:  bills,
		menu:   menu,
		events: newEmitter(gateway, log),
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func validateLines(lines []domain.OrderLine) error {
	if len(lines) == 0 {
		return domain.Validationf("at least one item is required")
	}
	for _, line := range lines {
		if line.Quantity < 1 {
			return domain.Validationf("quantity for menu item %d must be at least 1", line.MenuID)
		}
	}
	return nil
}

// CreateOrder prices the requested lines from the menu, attaches the order to the
// table's OPEN bill and adds the order total to it. Nothing is visible unless the
// whole unit commits.
func (m *OrderLifecycleManager) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	if err := validateLines(req.Items); err != nil {
		return nil, err
	}

	var (
		order       *domain.Order
		wasOccupied bool
	)
	err := m.runner.Run(ctx, "order.create", func(tx Tx) error {
		table, err := m.tables.GetForUpdate(ctx, tx, req.TableID)
		if err != nil {
			return err
		}
		if !table.IsAvailable {
			return domain.Validationf("table not available")
		}
		wasOccupied = table.IsOccupied

		prices := make(map[int]decimal.Decimal, len(req.Items))
		for _, line := range req.Items {
			if _, seen := prices[line.MenuID]; seen {
				continue
			}
			price, err := m.menu.PriceOf(ctx, tx, line.MenuID)
			if err != nil {
				return err
			}
			prices[line.MenuID] = price
		}

		order = &domain.Order{
			TableID:    table.ID,
			Status:     domain.StatusPending,
			TotalPrice: decimal.Zero,
			CreatedAt:  m.now(),
			Items:      make([]domain.OrderItem, 0, len(req.Items)),
		}
		for _, line := range req.Items {
			item := domain.OrderItem{
				MenuID:    line.MenuID,
				Quantity:  line.Quantity,
				UnitPrice: prices[line.MenuID],
				Note:      normalizeNote(line.Note),
				Status:    domain.StatusPending,
			}
			order.TotalPrice = order.TotalPrice.Add(item.Subtotal())
			order.Items = append(order.Items, item)
		}

		bill, err := m.bills.GetOrOpenBill(ctx, tx, table.ID)
		if err != nil {
			return err
		}
		order.BillID = bill.ID

		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		if _, err := m.bills.ApplyDelta(ctx, tx, bill.ID, order.TotalPrice); err != nil {
			return err
		}
		if order.Table, err = m.tables.MarkOccupied(ctx, tx, table.ID, true); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"table_id": order.TableID,
		"bill_id":  order.BillID,
		"total":    order.TotalPrice.StringFixed(2),
		"items":    len(order.Items),
	}).Info("order created")

	events := []domain.Event{domain.NewEvent(domain.EventOrderCreated, order.TableID, order)}
	if !wasOccupied {
		events = append(events, domain.NewEvent(domain.EventTableUpdated, order.TableID, order.Table))
	}
	m.events.emit(ctx, events...)
	return order, nil
}

func normalizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// CloseTable settles the table's OPEN bill and completes its orders. It refuses
// while any item is still on its way from the kitchen and then mutates nothing.
func (m *OrderLifecycleManager) CloseTable(ctx context.Context, tableID int, paymentMethod *string) (*domain.CloseResult, error) {
	if paymentMethod != nil {
		method := strings.ToUpper(strings.TrimSpace(*paymentMethod))
		if !domain.PaymentMethods[method] {
			return nil, domain.Validationf("unsupported payment method %q", *paymentMethod)
		}
		paymentMethod = &method
	}

	var result *domain.CloseResult
	err := m.runner.Run(ctx, "table.close", func(tx Tx) error {
		if _, err := m.tables.GetForUpdate(ctx, tx, tableID); err != nil {
			return err
		}

		unserved, err := tx.CountUnservedItems(ctx, tableID)
		if err != nil {
			return err
		}
		if unserved > 0 {
			return domain.Conflictf("unserved items: table %d has %d item(s) not yet served", tableID, unserved)
		}

		result = &domain.CloseResult{}
		bill, err := tx.FindOpenBill(ctx, tableID)
		switch {
		case err == nil:
			if _, err := m.bills.Recompute(ctx, tx, bill.ID); err != nil {
				return err
			}
			if result.Bill, err = m.bills.Close(ctx, tx, bill.ID, paymentMethod); err != nil {
				return err
			}
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		if result.CompletedOrders, err = tx.CompleteTableOrders(ctx, tableID); err != nil {
			return err
		}

		table, err := m.tables.Reset(ctx, tx, tableID)
		if err != nil {
			return err
		}
		result.Table = *table
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := logrus.Fields{"table_id": tableID, "completed_orders": result.CompletedOrders}
	if result.Bill != nil {
		fields["bill_id"] = result.Bill.ID
		fields["total"] = result.Bill.TotalPrice.StringFixed(2)
	}
	m.log.WithFields(fields).Info("table closed")
	m.events.emit(ctx, domain.NewEvent(domain.EventTableClosed, tableID, result))
	return result, nil
}

func (m *OrderLifecycleManager) GetOrder(ctx context.Context, id int) (*domain.Order, error) {
	var order *domain.Order
	err := m.runner.Run(ctx, "order.get", func(tx Tx) error {
		var err error
		if order, err = tx.GetOrder(ctx, id); err != nil {
			return err
		}
		order.Table, err = tx.GetTable(ctx, order.TableID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	})
	return order, err
}

func (m *OrderLifecycleManager) ActiveOrders(ctx context.Context, statuses []domain.Status) ([]domain.Order, error) {
	if len(statuses) == 0 {
		statuses = domain.ActiveStatuses
	}
	for _, status := range statuses {
		if !status.Valid() {
			return nil, domain.Validationf("unknown status %q", status)
		}
	}

	var orders []domain.Order
	err := m.runner.Run(ctx, "orders.active", func(tx Tx) error {
		var err error
		orders, err = tx.ListOrdersByStatus(ctx, statuses)
		return err
	})
	return orders, err
}

func (m *OrderLifecycleManager) OpenBill(ctx context.Context, tableID int) (*domain.Bill, error) {
	var bill *domain.Bill
	err := m.runner.Run(ctx, "bill.open", func(tx Tx) error {
		if _, err := tx.GetTable(ctx, tableID); err != nil {
			return err
		}
		var err error
		bill, err = tx.FindOpenBill(ctx, tableID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFoundf("table %d has no open bill", tableID)
		}
		return err
	})
	return bill, err
}
