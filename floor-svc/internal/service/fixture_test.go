package service_test

import (
	"context"
	"sync"
	"testing"

	"floor-manager/floor-svc/internal/domain"
	"floor-manager/floor-svc/internal/service"
	"floor-manager/floor-svc/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type recordingGateway struct {
	mu     sync.Mutex
	events []domain.Event
}

func (g *recordingGateway) Publish(_ context.Context, event domain.Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, event)
	return nil
}

func (g *recordingGateway) types() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	types := make([]string, 0, len(g.events))
	for _, event := range g.events {
		types = append(types, event.Type)
	}
	return types
}

type floor struct {
	store    *storage.MemoryStore
	events   *recordingGateway
	runner   *service.TxRunner
	tables   *service.TableRegistry
	bills    *service.BillAggregator
	orders   *service.OrderLifecycleManager
	statuses *service.ItemStatusStateMachine
}

func newFloor(t *testing.T, policy service.AvailabilityPolicy) *floor {
	t.Helper()
	log, _ := test.NewNullLogger()

	store := storage.NewMemoryStore()
	events := &recordingGateway{}
	runner := service.NewTxRunner(store, 3, log)
	tables := service.NewTableRegistry(runner, policy, service.DefaultQRGenerator{BaseURL: "http://floor.test"}, events, log)
	bills := service.NewBillAggregator(log)
	menu := service.NewCachedMenu(nil, log)

	return &floor{
		store:    store,
		events:   events,
		runner:   runner,
		tables:   tables,
		bills:    bills,
		orders:   service.NewOrderLifecycleManager(runner, tables, bills, menu, events, log),
		statuses: service.NewItemStatusStateMachine(runner, tables, bills, events, log),
	}
}

func (f *floor) table(t *testing.T, name string) *domain.Table {
	t.Helper()
	table, err := f.tables.Create(context.Background(), name)
	require.NoError(t, err)
	return table
}

func (f *floor) order(t *testing.T, tableID int, lines ...domain.OrderLine) *domain.Order {
	t.Helper()
	order, err := f.orders.CreateOrder(context.Background(), domain.CreateOrderRequest{TableID: tableID, Items: lines})
	require.NoError(t, err)
	return order
}

func (f *floor) openBill(t *testing.T, tableID int) *domain.Bill {
	t.Helper()
	bill, err := f.orders.OpenBill(context.Background(), tableID)
	require.NoError(t, err)
	return bill
}

// expectedTotal sums every non-cancelled item of the given orders from persisted rows.
func (f *floor) expectedTotal(t *testing.T, orderIDs ...int) decimal.Decimal {
	t.Helper()
	total := decimal.Zero
	for _, id := range orderIDs {
		order, err := f.orders.GetOrder(context.Background(), id)
		require.NoError(t, err)
		for _, item := range order.Items {
			if item.Status != domain.StatusCancelled {
				total = total.Add(item.Subtotal())
			}
		}
	}
	return total
}

func line(menuID, quantity int) domain.OrderLine {
	return domain.OrderLine{MenuID: menuID, Quantity: quantity}
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, price(want).Equal(got), "want %s, got %s", want, got)
}

var allowOverride = service.AvailabilityPolicy{AllowUnavailableWhileOccupied: true}
