package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"floor-manager/floor-svc/internal/domain"

	"github.com/sirupsen/logrus"
)

// AvailabilityPolicy decides whether staff may take an occupied table off the floor.
type AvailabilityPolicy struct {
	AllowUnavailableWhileOccupied bool
}

// TableRegistry owns table existence and the availability, occupancy and
// calling-staff flags. Other components change those flags only through it.
type TableRegistry struct {
	runner *TxRunner
	policy AvailabilityPolicy
	qr     QRGenerator
	events emitter
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewTableRegistry(runner *TxRunner, policy AvailabilityPolicy, qr QRGenerator, gateway NotificationGateway, log logrus.FieldLogger) *TableRegistry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TableRegistry{
		runner: runner,
		policy: policy,
		qr:     qr,
		events: newEmitter(gateway, log),
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetForUpdate loads a live table and keeps it locked until tx ends. Every
// mutating workflow starts here so that workflows on one table run one at a time.
func (r *TableRegistry) GetForUpdate(ctx context.Context, tx Tx, tableID int) (*domain.Table, error) {
	return tx.LockTable(ctx, tableID)
}

func (r *TableRegistry) MarkOccupied(ctx context.Context, tx Tx, tableID int, occupied bool) (*domain.Table, error) {
	table, err := tx.LockTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if table.IsOccupied == occupied {
		return table, nil
	}
	table.IsOccupied = occupied
	if err := tx.UpdateTableFlags(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

// Reset clears a table after close-out. A closed table stays unavailable until
// staff re-open it for the next seating.
func (r *TableRegistry) Reset(ctx context.Context, tx Tx, tableID int) (*domain.Table, error) {
	table, err := tx.LockTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	table.IsOccupied = false
	table.IsCallingStaff = false
	table.IsAvailable = false
	if err := tx.UpdateTableFlags(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

func (r *TableRegistry) Create(ctx context.Context, name string) (*domain.Table, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validationf("table name is required")
	}

	table := &domain.Table{Name: name, IsAvailable: true, CreatedAt: r.now()}
	err := r.runner.Run(ctx, "table.create", func(tx Tx) error {
		return tx.InsertTable(ctx, table)
	})
	if err != nil {
		return nil, err
	}
	r.log.WithFields(logrus.Fields{"table_id": table.ID, "name": table.Name}).Info("table created")
	return table, nil
}

func (r *TableRegistry) Get(ctx context.Context, id int) (*domain.Table, error) {
	var table *domain.Table
	err := r.runner.Run(ctx, "table.get", func(tx Tx) error {
		var err error
		table, err = tx.GetTable(ctx, id)
		return err
	})
	return table, err
}

func (r *TableRegistry) List(ctx context.Context) ([]domain.Table, error) {
	var tables []domain.Table
	err := r.runner.Run(ctx, "table.list", func(tx Tx) error {
		var err error
		tables, err = tx.ListTables(ctx)
		return err
	})
	return tables, err
}

func (r *TableRegistry) Delete(ctx context.Context, id int) error {
	return r.runner.Run(ctx, "table.delete", func(tx Tx) error {
		table, err := r.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if table.IsOccupied {
			return domain.Conflictf("table %d is occupied", id)
		}
		if _, err := tx.FindOpenBill(ctx, id); err == nil {
			return domain.Conflictf("table %d has an open bill", id)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return tx.SoftDeleteTable(ctx, id, r.now())
	})
}

func (r *TableRegistry) SetAvailability(ctx context.Context, id int, available bool) (*domain.Table, error) {
	var table *domain.Table
	err := r.runner.Run(ctx, "table.availability", func(tx Tx) error {
		var err error
		table, err = r.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !available && table.IsOccupied && !r.policy.AllowUnavailableWhileOccupied {
			return domain.Validationf("table %d is occupied and cannot be marked unavailable", id)
		}
		if table.IsAvailable == available {
			return nil
		}
		table.IsAvailable = available
		return tx.UpdateTableFlags(ctx, table)
	})
	if err != nil {
		return nil, err
	}
	r.events.emit(ctx, domain.NewEvent(domain.EventTableUpdated, table.ID, table))
	return table, nil
}

func (r *TableRegistry) SetCallingStaff(ctx context.Context, id int, calling bool) (*domain.Table, error) {
	var table *domain.Table
	err := r.runner.Run(ctx, "table.calling_staff", func(tx Tx) error {
		var err error
		table, err = r.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if table.IsCallingStaff == calling {
			return nil
		}
		table.IsCallingStaff = calling
		return tx.UpdateTableFlags(ctx, table)
	})
	if err != nil {
		return nil, err
	}
	r.events.emit(ctx, domain.NewEvent(domain.EventTableUpdated, table.ID, table))
	return table, nil
}

func (r *TableRegistry) QRCode(ctx context.Context, id int) ([]byte, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}
	return r.qr.Generate(id)
}
