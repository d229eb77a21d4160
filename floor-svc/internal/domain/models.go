package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Table struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	IsAvailable    bool       `json:"is_available"`
	IsOccupied     bool       `json:"is_occupied"`
	IsCallingStaff bool       `json:"is_calling_staff"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type BillStatus string

const (
	BillOpen BillStatus = "OPEN"
	BillPaid BillStatus = "PAID"
)

type Bill struct {
	ID            uuid.UUID       `json:"id"`
	TableID       int             `json:"table_id"`
	Status        BillStatus      `json:"status"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	CreatedAt     time.Time       `json:"created_at"`
	ClosedAt      *time.Time      `json:"closed_at,omitempty"`
	PaymentMethod *string         `json:"payment_method,omitempty"`
}

func NewBill(tableID int, now time.Time) *Bill {
	return &Bill{
		ID:         uuid.New(),
		TableID:    tableID,
		Status:     BillOpen,
		TotalPrice: decimal.Zero,
		CreatedAt:  now,
	}
}

var PaymentMethods = map[string]bool{
	"CASH":     true,
	"CARD":     true,
	"TRANSFER": true,
}

type Order struct {
	ID      int       `json:"id"`
	TableID int       `json:"table_id"`
	BillID  uuid.UUID `json:"bill_id"`
	Status  Status    `json:"status"`
	// TotalPrice is the snapshot taken when the order was placed.
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
	Items      []OrderItem     `json:"items"`
	Table      *Table          `json:"table,omitempty"`
}

type OrderItem struct {
	ID        int             `json:"id"`
	OrderID   int             `json:"order_id"`
	MenuID    int             `json:"menu_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Note      *string         `json:"note,omitempty"`
	Status    Status          `json:"status"`
}

// Subtotal is what the item contributes to its bill unless cancelled.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type MenuItem struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty"`
}

// OrderLine is one requested line of a new order.
type OrderLine struct {
	MenuID   int     `json:"menu_id"`
	Quantity int     `json:"quantity"`
	Note     *string `json:"note,omitempty"`
}

type CreateOrderRequest struct {
	TableID int         `json:"table_id"`
	Items   []OrderLine `json:"items"`
}

// ItemChange is the result of a single item transition.
type ItemChange struct {
	Item  OrderItem `json:"item"`
	Order Order     `json:"order"`
	Table Table     `json:"table"`
	Bill  *Bill     `json:"bill,omitempty"`
}

type CloseResult struct {
	Table           Table `json:"table"`
	Bill            *Bill `json:"bill,omitempty"`
	CompletedOrders int64 `json:"completed_orders"`
}
