package service

import (
	"context"
	"time"

	"floor-manager/floor-svc/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TableRepository interface {
	// LockTable returns a live table and holds it for the rest of the transaction.
	LockTable(ctx context.Context, id int) (*domain.Table, error)
	GetTable(ctx context.Context, id int) (*domain.Table, error)
	ListTables(ctx context.Context) ([]domain.Table, error)
	InsertTable(ctx context.Context, table *domain.Table) error
	UpdateTableFlags(ctx context.Context, table *domain.Table) error
	SoftDeleteTable(ctx context.Context, id int, at time.Time) error
}

type BillRepository interface {
	FindOpenBill(ctx context.Context, tableID int) (*domain.Bill, error)
	// InsertBill reports false when another OPEN bill for the table already exists.
	InsertBill(ctx context.Context, bill *domain.Bill) (bool, error)
	GetBill(ctx context.Context, id uuid.UUID) (*domain.Bill, error)
	AddToBillTotal(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.Bill, error)
	// RecomputeBillTotal rewrites the total of an OPEN bill from its non-cancelled items.
	RecomputeBillTotal(ctx context.Context, id uuid.UUID) (*domain.Bill, error)
	MarkBillPaid(ctx context.Context, id uuid.UUID, paymentMethod *string, at time.Time) (*domain.Bill, error)
}

type OrderRepository interface {
	InsertOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id int) (*domain.Order, error)
	GetOrderItem(ctx context.Context, id int) (*domain.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, id int, status domain.Status) error
	UpdateItemStatus(ctx context.Context, id int, status domain.Status) error
	CountUnservedItems(ctx context.Context, tableID int) (int, error)
	// CountLiveOrders counts orders on the table's OPEN bill that are neither completed nor cancelled.
	CountLiveOrders(ctx context.Context, tableID int) (int, error)
	CompleteTableOrders(ctx context.Context, tableID int) (int64, error)
	ListOrdersByStatus(ctx context.Context, statuses []domain.Status) ([]domain.Order, error)
}

type Tx interface {
	TableRepository
	BillRepository
	OrderRepository
	MenuRepository
}

// Store runs fn inside one atomic transaction. Any error from fn rolls everything back.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

type MenuRepository interface {
	MenuPrice(ctx context.Context, menuID int) (decimal.Decimal, error)
}

type PriceCache interface {
	GetPrice(ctx context.Context, menuID int) (decimal.Decimal, bool, error)
	SetPrice(ctx context.Context, menuID int, price decimal.Decimal) error
}

// MenuPriceOracle prices a menu item, reading the menu through menus (usually
// the open transaction) when it has no answer of its own.
type MenuPriceOracle interface {
	PriceOf(ctx context.Context, menus MenuRepository, menuID int) (decimal.Decimal, error)
}

type NotificationGateway interface {
	Publish(ctx context.Context, event domain.Event) error
}

type QRGenerator interface {
	Generate(tableID int) ([]byte, error)
}

type TableServiceInterface interface {
	Create(ctx context.Context, name string) (*domain.Table, error)
	Get(ctx context.Context, id int) (*domain.Table, error)
	List(ctx context.Context) ([]domain.Table, error)
	Delete(ctx context.Context, id int) error
	SetAvailability(ctx context.Context, id int, available bool) (*domain.Table, error)
	SetCallingStaff(ctx context.Context, id int, calling bool) (*domain.Table, error)
	QRCode(ctx context.Context, id int) ([]byte, error)
}

type OrderServiceInterface interface {
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error)
	CloseTable(ctx context.Context, tableID int, paymentMethod *string) (*domain.CloseResult, error)
	GetOrder(ctx context.Context, id int) (*domain.Order, error)
	ActiveOrders(ctx context.Context, statuses []domain.Status) ([]domain.Order, error)
	OpenBill(ctx context.Context, tableID int) (*domain.Bill, error)
}

type StatusServiceInterface interface {
	TransitionOrder(ctx context.Context, orderID int, status domain.Status) (*domain.Order, error)
	TransitionItem(ctx context.Context, itemID int, status domain.Status) (*domain.ItemChange, error)
}

var (
	_ TableServiceInterface  = (*TableRegistry)(nil)
	_ OrderServiceInterface  = (*OrderLifecycleManager)(nil)
	_ StatusServiceInterface = (*ItemStatusStateMachine)(nil)
	_ MenuPriceOracle        = (*CachedMenu)(nil)
	_ QRGenerator            = DefaultQRGenerator{}
)
