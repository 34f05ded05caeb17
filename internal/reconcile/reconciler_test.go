package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReconciler struct {
	fixed int
	err   error
	calls int
}

func (s *stubReconciler) ReconcileAggregates(context.Context) (int, error) {
	s.calls++
	return s.fixed, s.err
}

func TestRun(t *testing.T) {
	stub := &stubReconciler{fixed: 2}
	New(stub, zerolog.Nop()).Run(context.Background())
	assert.Equal(t, 1, stub.calls)
}

func TestRunSwallowsError(t *testing.T) {
	stub := &stubReconciler{err: errors.New("db down")}
	New(stub, zerolog.Nop()).Run(context.Background())
	assert.Equal(t, 1, stub.calls)
}

func TestScheduleEmptySpecDisables(t *testing.T) {
	stub := &stubReconciler{}
	c := cron.New()
	require.NoError(t, New(stub, zerolog.Nop()).Schedule(c, ""))
	assert.Empty(t, c.Entries())
}

func TestScheduleRegistersEntry(t *testing.T) {
	stub := &stubReconciler{}
	c := cron.New()
	require.NoError(t, New(stub, zerolog.Nop()).Schedule(c, "*/10 * * * *"))
	assert.Len(t, c.Entries(), 1)
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	stub := &stubReconciler{}
	c := cron.New()
	assert.Error(t, New(stub, zerolog.Nop()).Schedule(c, "not a cron spec"))
}
