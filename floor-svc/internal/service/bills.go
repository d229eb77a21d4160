package service

import (
	"context"
	"errors"
	"time"

	"floor-manager/floor-svc/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// BillAggregator keeps at most one OPEN bill per table and its running total.
//
// New orders are added with an atomic increment. Every status change goes
// through Recompute instead, because a cancellation can only be reflected
// correctly by re-deriving the total from the persisted items.
type BillAggregator struct {
	log logrus.FieldLogger
	now func() time.Time
}

func NewBillAggregator(log logrus.FieldLogger) *BillAggregator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BillAggregator{log: log, now: func() time.Time { return time.Now().UTC() }}
}

// GetOrOpenBill returns the table's OPEN bill, creating one with a zero total when
// there is none. A concurrent creator that wins the race is observed, not duplicated.
func (a *BillAggregator) GetOrOpenBill(ctx context.Context, tx Tx, tableID int) (*domain.Bill, error) {
	bill, err := tx.FindOpenBill(ctx, tableID)
	if err == nil {
		return bill, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	bill = domain.NewBill(tableID, a.now())
	created, err := tx.InsertBill(ctx, bill)
	if err != nil {
		return nil, err
	}
	if created {
		a.log.WithFields(logrus.Fields{"table_id": tableID, "bill_id": bill.ID}).Info("bill opened")
		return bill, nil
	}
	return tx.FindOpenBill(ctx, tableID)
}

func (a *BillAggregator) ApplyDelta(ctx context.Context, tx Tx, billID uuid.UUID, amount decimal.Decimal) (*domain.Bill, error) {
	return tx.AddToBillTotal(ctx, billID, amount)
}

// Recompute re-derives the total of an OPEN bill. A bill that is already PAID
// is returned unchanged.
func (a *BillAggregator) Recompute(ctx context.Context, tx Tx, billID uuid.UUID) (*domain.Bill, error) {
	bill, err := tx.RecomputeBillTotal(ctx, billID)
	if err == nil {
		return bill, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	bill, err = tx.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.Status == domain.BillOpen {
		return nil, domain.Conflictf("bill %s could not be recomputed", billID)
	}
	return bill, nil
}

func (a *BillAggregator) Close(ctx context.Context, tx Tx, billID uuid.UUID, paymentMethod *string) (*domain.Bill, error) {
	bill, err := tx.MarkBillPaid(ctx, billID, paymentMethod, a.now())
	if errors.Is(err, domain.ErrNotFound) {
		if _, getErr := tx.GetBill(ctx, billID); getErr != nil {
			return nil, getErr
		}
		return nil, domain.Conflictf("bill %s is not open", billID)
	}
	if err != nil {
		return nil, err
	}
	a.log.WithFields(logrus.Fields{
		"table_id": bill.TableID,
		"bill_id":  bill.ID,
		"total":    bill.TotalPrice.StringFixed(2),
	}).Info("bill closed")
	return bill, nil
}
