package service_test

import (
	"context"
	"fmt"
	"testing"

	"floor-manager/floor-svc/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestTransitionItemIsIdempotent(t *testing.T) {
	f := newFloor(t, allowOverride)
	ctx := context.Background()
	table := f.table(t, "T1")
	soup := f.store.AddMenu("soup", price("50"))
	order := f.order(t, table.ID, line(soup, 2))
	itemID := order.Items[0].ID

	first, err := f.statuses.TransitionItem(ctx, itemID, domain.StatusReady)
	require.NoError(t, err)
	second, err := f.statuses.TransitionItem(ctx, itemID, domain.StatusReady)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusReady, second.Item.Status)
	requireDecimal(t, "100", first.Bill.TotalPrice)
	requireDecimal(t, "100", second.Bill.TotalPrice)
	requireDecimal(t, "100", f.openBill(t, table.ID).TotalPrice)
}

func TestTransitionItemRules(t *testing.T) {
	tests := []struct {
		name    string
		path    []domain.Status
		target  domain.Status
		wantErr error
	}{
		{name: "forward", path: nil, target: domain.StatusCooking},
		{name: "skip ahead", path: nil, target: domain.StatusReady},
		{name: "cancel while cooking", path: []domain.Status{domain.StatusCooking}, target: domain.StatusCancelled},
		{name: "backwards", path: []domain.Status{domain.StatusReady}, target: domain.StatusCooking, wantErr: domain.ErrConflict},
		{name: "cancel a served dish", path: []domain.Status{domain.StatusServed}, target: domain.StatusCancelled, wantErr: domain.ErrConflict},
		{name: "revive a cancelled dish", path: []domain.Status{domain.StatusCancelled}, target: domain.StatusPending, wantErr: domain.ErrConflict},
		{name: "leave completed", path: []domain.Status{domain.StatusCompleted}, target: domain.StatusServed, wantErr: domain.ErrConflict},
		{name: "unknown status", path: nil, target: domain.Status("EATEN"), wantErr: domain.ErrValidation},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			f := newFloor(t, allowOverride)
			ctx := context.Background()
			table := f.table(t, "T1")
			soup := f.store.AddMenu("soup", price("10"))
			order := f.order(t, table.ID, line(soup, 1))
			itemID := order.Items[0].ID

			for _, step := range testCase.path {
				_, err := f.statuses.TransitionItem(ctx, itemID, step)
				require.NoError(t, err)
			}

			change, err := f.statuses.TransitionItem(ctx, itemID, testCase.target)
			if testCase.wantErr != nil {
				assert.ErrorIs(t, err, testCase.wantErr)
				assert.Nil(t, change)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.target, change.Item.Status)
			assert.Equal(t, table.ID, change.Table.ID)
		})
	}
}

func TestTransitionItemNotFound(t *testing.T) {
	f := newFloor(t, allowOverride)
	_, err := f.statuses.TransitionItem(context.Background(), 42, domain.StatusReady)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransitionOrderCascadesToItems(t *testing.T) {
	f := newFloor(t, allowOverride)
	ctx := context.Background()
	table := f.table(t, "T1")
	soup := f.store.AddMenu("soup", price("50"))
	tea := f.store.AddMenu("tea", price("5"))
	cake := f.store.AddMenu("cake", price("20"))
	order := f.order(t, table.ID, line(soup, 1), line(tea, 2), line(cake, 1))

	_, err := f.statuses.TransitionItem(ctx, order.Items[1].ID, domain.StatusCancelled)
	require.NoError(t, err)
	_, err = f.statuses.TransitionItem(ctx, order.Items[2].ID, domain.StatusServed)
	require.NoError(t, err)

	result, err := f.statuses.TransitionOrder(ctx, order.ID, domain.StatusReady)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusReady, result.Status)
	assert.Equal(t, domain.StatusReady, result.Items[0].Status)
	assert.Equal(t, domain.StatusCancelled, result.Items[1].Status)
	assert.Equal(t, domain.StatusServed, result.Items[2].Status)
	require.NotNil(t, result.Table)
	requireDecimal(t, "70", f.openBill(t, table.ID).TotalPrice)
	assert.Contains(t, f.events.types(), domain.EventOrderStatusChanged)
}

func TestTransitionOrderCancelRecomputesBill(t *testing.T) {
	f := newFloor(t, allowOverride)
	ctx := context.Background()
	table := f.table(t, "T1")
	soup := f.store.AddMenu("soup", price("50"))
	keep := f.order(t, table.ID, line(soup, 1))
	drop := f.order(t, table.ID, line(soup, 3))

	_, err := f.statuses.TransitionOrder(ctx, drop.ID, domain.StatusCancelled)
	require.NoError(t, err)

	bill := f.openBill(t, table.ID)
	requireDecimal(t, "50", bill.TotalPrice)
	assert.True(t, f.expectedTotal(t, keep.ID, drop.ID).Equal(bill.TotalPrice))
}

func TestTransitionOrderRejectsUnreachableItem(t *testing.T) {
	f := newFloor(t, allowOverride)
	ctx := context.Background()
	table := f.table(t, "T1")
	soup := f.store.AddMenu("soup", price("50"))
	order := f.order(t, table.ID, line(soup, 1), line(soup, 1))

	_, err := f.statuses.TransitionItem(ctx, order.Items[0].ID, domain.StatusServed)
	require.NoError(t, err)

	_, err = f.statuses.TransitionOrder(ctx, order.ID, domain.StatusCancelled)
	assert.ErrorIs(t, err, domain.ErrConflict)

	// rolled back as a whole: the sibling item was not cancelled either
	got, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, domain.StatusServed, got.Items[0].Status)
	assert.Equal(t, domain.StatusPending, got.Items[1].Status)
	requireDecimal(t, "100", f.openBill(t, table.ID).TotalPrice)

	_, err = f.statuses.TransitionOrder(ctx, 999, domain.StatusCooking)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConcurrentTransitionsKeepBillExact(t *testing.T) {
	f := newFloor(t, allowOverride)
	ctx := context.Background()
	table := f.table(t, "T1")

	var orderIDs []int
	var itemIDs []int
	for i := 0; i < 4; i++ {
		menu := f.store.AddMenu(fmt.Sprintf("dish-%d", i), price(fmt.Sprintf("%d.50", i+3)))
		order := f.order(t, table.ID, line(menu, 1), line(menu, 2), line(menu, 3))
		orderIDs = append(orderIDs, order.ID)
		for _, item := range order.Items {
			itemIDs = append(itemIDs, item.ID)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, itemID := range itemIDs {
		itemID := itemID
		target := domain.StatusReady
		if i%3 == 0 {
			target = domain.StatusCancelled
		}
		g.Go(func() error {
			_, err := f.statuses.TransitionItem(gctx, itemID, target)
			return err
		})
	}
	g.Go(func() error {
		_, err := f.statuses.TransitionOrder(gctx, orderIDs[1], domain.StatusCooking)
		if err != nil && !assert.ErrorIs(t, err, domain.ErrConflict) {
			return err
		}
		return nil
	})
	require.NoError(t, g.Wait())

	bill := f.openBill(t, table.ID)
	assert.True(t, f.expectedTotal(t, orderIDs...).Equal(bill.TotalPrice),
		"bill %s does not match its items", bill.TotalPrice)
}

func TestCompletingLastOrderFreesTable(t *testing.T) {
	f := newFloor(t, allowOverride)
	ctx := context.Background()
	table := f.table(t, "T1")
	soup := f.store.AddMenu("soup", price("50"))

	first := f.order(t, table.ID, line(soup, 1))
	second := f.order(t, table.ID, line(soup, 2))

	result, err := f.statuses.TransitionOrder(ctx, first.ID, domain.StatusCompleted)
	require.NoError(t, err)
	assert.True(t, result.Table.IsOccupied)

	result, err = f.statuses.TransitionOrder(ctx, second.ID, domain.StatusCompleted)
	require.NoError(t, err)
	assert.False(t, result.Table.IsOccupied)

	got, err := f.tables.Get(ctx, table.ID)
	require.NoError(t, err)
	assert.False(t, got.IsOccupied)
	types := f.events.types()
	assert.Equal(t, []string{domain.EventOrderStatusChanged, domain.EventTableUpdated}, types[len(types)-2:])

	// the bill stays open for the seating and the next order takes the table again
	requireDecimal(t, "150", f.openBill(t, table.ID).TotalPrice)
	third := f.order(t, table.ID, line(soup, 1))
	assert.Equal(t, first.BillID, third.BillID)
	assert.True(t, third.Table.IsOccupied)
}

func TestCancelledOrderDoesNotHoldTable(t *testing.T) {
	f := newFloor(t, allowOverride)
	ctx := context.Background()
	table := f.table(t, "T1")
	soup := f.store.AddMenu("soup", price("50"))

	dropped := f.order(t, table.ID, line(soup, 1))
	kept := f.order(t, table.ID, line(soup, 1))

	_, err := f.statuses.TransitionOrder(ctx, dropped.ID, domain.StatusCancelled)
	require.NoError(t, err)
	got, err := f.tables.Get(ctx, table.ID)
	require.NoError(t, err)
	assert.True(t, got.IsOccupied)

	result, err := f.statuses.TransitionOrder(ctx, kept.ID, domain.StatusCompleted)
	require.NoError(t, err)
	assert.False(t, result.Table.IsOccupied)
}
