package service_test

import (
	"context"
	"fmt"
	"testing"

	"floor-manager/floor-svc/internal/domain"
	"floor-manager/floor-svc/internal/service"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

// flakyStore fails the first failures transactions with err.
type flakyStore struct {
	failures int
	err      error
	calls    int
}

func (s *flakyStore) InTx(_ context.Context, fn func(tx service.Tx) error) error {
	s.calls++
	if s.calls <= s.failures {
		return s.err
	}
	return fn(nil)
}

func TestTxRunnerRetries(t *testing.T) {
	transient := fmt.Errorf("%w: deadlock detected", domain.ErrTransient)

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{name: "first try", failures: 0, wantCalls: 1},
		{name: "recovers after transient errors", failures: 2, err: transient, wantCalls: 3},
		{name: "gives up", failures: 10, err: transient, wantCalls: 4, wantErr: domain.ErrInternal},
		{name: "conflict is not retried", failures: 1, err: domain.Conflictf("nope"), wantCalls: 1, wantErr: domain.ErrConflict},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			log, hook := test.NewNullLogger()
			store := &flakyStore{failures: testCase.failures, err: testCase.err}
			runner := service.NewTxRunner(store, 3, log)

			ran := 0
			err := runner.Run(context.Background(), "test.op", func(service.Tx) error {
				ran++
				return nil
			})

			assert.Equal(t, testCase.wantCalls, store.calls)
			if testCase.wantErr != nil {
				assert.ErrorIs(t, err, testCase.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, 1, ran)
			assert.Len(t, hook.Entries, testCase.failures)
		})
	}
}

func TestTxRunnerStopsOnCancelledContext(t *testing.T) {
	log, _ := test.NewNullLogger()
	store := &flakyStore{failures: 10, err: fmt.Errorf("%w: lock timeout", domain.ErrTransient)}
	runner := service.NewTxRunner(store, 5, log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := runner.Run(ctx, "test.op", func(service.Tx) error { return nil })

	assert.ErrorIs(t, err, domain.ErrInternal)
	assert.Equal(t, 1, store.calls)
}
