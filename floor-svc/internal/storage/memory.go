package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"floor-manager/floor-svc/internal/domain"
	"floor-manager/floor-svc/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryStore keeps everything in process. Transactions run one at a time
// against a private copy of the state that replaces the live one on commit.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState

	menuMu   sync.RWMutex
	menus    map[int]domain.MenuItem
	nextMenu int
}

type memState struct {
	tables    map[int]domain.Table
	bills     map[uuid.UUID]domain.Bill
	orders    map[int]domain.Order
	items     map[int]domain.OrderItem
	nextTable int
	nextOrder int
	nextItem  int
}

var (
	_ service.Store          = (*MemoryStore)(nil)
	_ service.MenuRepository = (*MemoryStore)(nil)
	_ service.Tx             = (*memTx)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memState{
			tables: map[int]domain.Table{},
			bills:  map[uuid.UUID]domain.Bill{},
			orders: map[int]domain.Order{},
			items:  map[int]domain.OrderItem{},
		},
		menus: map[int]domain.MenuItem{},
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		tables:    make(map[int]domain.Table, len(s.tables)),
		bills:     make(map[uuid.UUID]domain.Bill, len(s.bills)),
		orders:    make(map[int]domain.Order, len(s.orders)),
		items:     make(map[int]domain.OrderItem, len(s.items)),
		nextTable: s.nextTable,
		nextOrder: s.nextOrder,
		nextItem:  s.nextItem,
	}
	for k, v := range s.tables {
		c.tables[k] = v
	}
	for k, v := range s.bills {
		c.bills[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	return c
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(tx service.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.state.clone()
	if err := fn(&memTx{state: work, store: s}); err != nil {
		return err
	}
	s.state = work
	return nil
}

// AddMenu registers a menu item and returns its id.
func (s *MemoryStore) AddMenu(name string, price decimal.Decimal) int {
	s.menuMu.Lock()
	defer s.menuMu.Unlock()
	s.nextMenu++
	s.menus[s.nextMenu] = domain.MenuItem{ID: s.nextMenu, Name: name, Price: price}
	return s.nextMenu
}

// SetMenuPrice changes the current price of a menu item. Existing order items keep theirs.
func (s *MemoryStore) SetMenuPrice(id int, price decimal.Decimal) {
	s.menuMu.Lock()
	defer s.menuMu.Unlock()
	if item, ok := s.menus[id]; ok {
		item.Price = price
		s.menus[id] = item
	}
}

func (s *MemoryStore) MenuPrice(_ context.Context, menuID int) (decimal.Decimal, error) {
	s.menuMu.RLock()
	defer s.menuMu.RUnlock()
	item, ok := s.menus[menuID]
	if !ok || item.DeletedAt != nil {
		return decimal.Zero, domain.NotFoundf("menu item %d", menuID)
	}
	return item.Price, nil
}

type memTx struct {
	state *memState
	store *MemoryStore
}

func (t *memTx) MenuPrice(ctx context.Context, menuID int) (decimal.Decimal, error) {
	return t.store.MenuPrice(ctx, menuID)
}

func (t *memTx) liveTable(id int) (domain.Table, error) {
	table, ok := t.state.tables[id]
	if !ok || table.DeletedAt != nil {
		return domain.Table{}, domain.NotFoundf("table %d", id)
	}
	return table, nil
}

func (t *memTx) LockTable(_ context.Context, id int) (*domain.Table, error) {
	table, err := t.liveTable(id)
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (t *memTx) GetTable(ctx context.Context, id int) (*domain.Table, error) {
	return t.LockTable(ctx, id)
}

func (t *memTx) ListTables(_ context.Context) ([]domain.Table, error) {
	tables := []domain.Table{}
	for _, table := range t.state.tables {
		if table.DeletedAt == nil {
			tables = append(tables, table)
		}
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].ID < tables[j].ID })
	return tables, nil
}

func (t *memTx) InsertTable(_ context.Context, table *domain.Table) error {
	for _, existing := range t.state.tables {
		if existing.DeletedAt == nil && existing.Name == table.Name {
			return domain.Conflictf("table name %q is already in use", table.Name)
		}
	}
	t.state.nextTable++
	table.ID = t.state.nextTable
	t.state.tables[table.ID] = *table
	return nil
}

func (t *memTx) UpdateTableFlags(_ context.Context, table *domain.Table) error {
	current, err := t.liveTable(table.ID)
	if err != nil {
		return err
	}
	current.IsAvailable = table.IsAvailable
	current.IsOccupied = table.IsOccupied
	current.IsCallingStaff = table.IsCallingStaff
	t.state.tables[table.ID] = current
	return nil
}

func (t *memTx) SoftDeleteTable(_ context.Context, id int, at time.Time) error {
	table, err := t.liveTable(id)
	if err != nil {
		return err
	}
	table.DeletedAt = &at
	t.state.tables[id] = table
	return nil
}

func (t *memTx) FindOpenBill(_ context.Context, tableID int) (*domain.Bill, error) {
	for _, bill := range t.state.bills {
		if bill.TableID == tableID && bill.Status == domain.BillOpen {
			return &bill, nil
		}
	}
	return nil, domain.NotFoundf("open bill for table %d", tableID)
}

func (t *memTx) InsertBill(ctx context.Context, bill *domain.Bill) (bool, error) {
	if _, err := t.FindOpenBill(ctx, bill.TableID); err == nil {
		return false, nil
	}
	t.state.bills[bill.ID] = *bill
	return true, nil
}

func (t *memTx) GetBill(_ context.Context, id uuid.UUID) (*domain.Bill, error) {
	bill, ok := t.state.bills[id]
	if !ok {
		return nil, domain.NotFoundf("bill %s", id)
	}
	return &bill, nil
}

func (t *memTx) openBill(id uuid.UUID) (domain.Bill, error) {
	bill, ok := t.state.bills[id]
	if !ok || bill.Status != domain.BillOpen {
		return domain.Bill{}, domain.NotFoundf("open bill %s", id)
	}
	return bill, nil
}

func (t *memTx) AddToBillTotal(_ context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.Bill, error) {
	bill, err := t.openBill(id)
	if err != nil {
		return nil, err
	}
	bill.TotalPrice = bill.TotalPrice.Add(amount)
	if bill.TotalPrice.IsNegative() {
		return nil, domain.Conflictf("bill %s total would become negative", id)
	}
	t.state.bills[id] = bill
	return &bill, nil
}

func (t *memTx) RecomputeBillTotal(_ context.Context, id uuid.UUID) (*domain.Bill, error) {
	bill, err := t.openBill(id)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, item := range t.state.items {
		order := t.state.orders[item.OrderID]
		if order.BillID == id && item.Status != domain.StatusCancelled {
			total = total.Add(item.Subtotal())
		}
	}
	bill.TotalPrice = total
	t.state.bills[id] = bill
	return &bill, nil
}

func (t *memTx) MarkBillPaid(_ context.Context, id uuid.UUID, paymentMethod *string, at time.Time) (*domain.Bill, error) {
	bill, err := t.openBill(id)
	if err != nil {
		return nil, err
	}
	bill.Status = domain.BillPaid
	bill.ClosedAt = &at
	bill.PaymentMethod = paymentMethod
	t.state.bills[id] = bill
	return &bill, nil
}

func (t *memTx) InsertOrder(_ context.Context, order *domain.Order) error {
	if _, ok := t.state.bills[order.BillID]; !ok {
		return domain.NotFoundf("bill %s", order.BillID)
	}
	t.state.nextOrder++
	order.ID = t.state.nextOrder
	for i := range order.Items {
		t.state.nextItem++
		order.Items[i].ID = t.state.nextItem
		order.Items[i].OrderID = order.ID
		t.state.items[order.Items[i].ID] = order.Items[i]
	}
	stored := *order
	stored.Items = nil
	stored.Table = nil
	t.state.orders[order.ID] = stored
	return nil
}

func (t *memTx) withItems(order domain.Order) domain.Order {
	order.Items = []domain.OrderItem{}
	for _, item := range t.state.items {
		if item.OrderID == order.ID {
			order.Items = append(order.Items, item)
		}
	}
	sort.Slice(order.Items, func(i, j int) bool { return order.Items[i].ID < order.Items[j].ID })
	return order
}

func (t *memTx) GetOrder(_ context.Context, id int) (*domain.Order, error) {
	order, ok := t.state.orders[id]
	if !ok {
		return nil, domain.NotFoundf("order %d", id)
	}
	order = t.withItems(order)
	return &order, nil
}

func (t *memTx) GetOrderItem(_ context.Context, id int) (*domain.OrderItem, error) {
	item, ok := t.state.items[id]
	if !ok {
		return nil, domain.NotFoundf("order item %d", id)
	}
	return &item, nil
}

func (t *memTx) UpdateOrderStatus(_ context.Context, id int, status domain.Status) error {
	order, ok := t.state.orders[id]
	if !ok {
		return domain.NotFoundf("order %d", id)
	}
	order.Status = status
	t.state.orders[id] = order
	return nil
}

func (t *memTx) UpdateItemStatus(_ context.Context, id int, status domain.Status) error {
	item, ok := t.state.items[id]
	if !ok {
		return domain.NotFoundf("order item %d", id)
	}
	item.Status = status
	t.state.items[id] = item
	return nil
}

func (t *memTx) CountUnservedItems(ctx context.Context, tableID int) (int, error) {
	bill, err := t.FindOpenBill(ctx, tableID)
	if err != nil {
		return 0, nil
	}
	count := 0
	for _, item := range t.state.items {
		if t.state.orders[item.OrderID].BillID == bill.ID && item.Status.Unserved() {
			count++
		}
	}
	return count, nil
}

func (t *memTx) CountLiveOrders(ctx context.Context, tableID int) (int, error) {
	bill, err := t.FindOpenBill(ctx, tableID)
	if err != nil {
		return 0, nil
	}
	count := 0
	for _, order := range t.state.orders {
		if order.BillID == bill.ID && !order.Status.Terminal() {
			count++
		}
	}
	return count, nil
}

func (t *memTx) CompleteTableOrders(_ context.Context, tableID int) (int64, error) {
	var n int64
	for id, order := range t.state.orders {
		if order.TableID != tableID || order.Status.Terminal() {
			continue
		}
		for itemID, item := range t.state.items {
			if item.OrderID != id || item.Status.Terminal() {
				continue
			}
			item.Status = domain.StatusCompleted
			t.state.items[itemID] = item
		}
		order.Status = domain.StatusCompleted
		t.state.orders[id] = order
		n++
	}
	return n, nil
}

func (t *memTx) ListOrdersByStatus(_ context.Context, statuses []domain.Status) ([]domain.Order, error) {
	wanted := make(map[domain.Status]bool, len(statuses))
	for _, status := range statuses {
		wanted[status] = true
	}
	orders := []domain.Order{}
	for _, order := range t.state.orders {
		if wanted[order.Status] {
			orders = append(orders, t.withItems(order))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.Before(orders[j].CreatedAt)
		}
		return orders[i].ID < orders[j].ID
	})
	return orders, nil
}
