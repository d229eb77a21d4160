package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"floor-manager/floor-svc/internal/domain"

	"github.com/sirupsen/logrus"
)

const retryBackoff = 15 * time.Millisecond

// TxRunner executes a unit of work against the store, re-running it from scratch
// when the store reports a transient failure.
type TxRunner struct {
	store      Store
	maxRetries int
	log        logrus.FieldLogger
}

func NewTxRunner(store Store, maxRetries int, log logrus.FieldLogger) *TxRunner {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TxRunner{store: store, maxRetries: maxRetries, log: log}
}

func (r *TxRunner) Run(ctx context.Context, op string, fn func(tx Tx) error) error {
	var err error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			r.log.WithFields(logrus.Fields{"op": op, "attempt": attempt, "error": err}).
				Warn("retrying transaction after transient store error")
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %s: %v", domain.ErrInternal, op, ctx.Err())
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}

		err = r.store.InTx(ctx, fn)
		if err == nil || !errors.Is(err, domain.ErrTransient) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: retries exhausted: %v", domain.ErrInternal, op, err)
}
