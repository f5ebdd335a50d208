package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingOpener struct {
	calls atomic.Int32
	err   error
}

func (c *countingOpener) EnsureYearLedgers(context.Context) (int64, error) {
	c.calls.Add(1)
	return 2, c.err
}

func TestScheduler_RunsImmediatelyAndOnInterval(t *testing.T) {
	opener := &countingOpener{}
	s := NewScheduler(context.Background())
	s.AddJob(YearLedgerJob(opener, 10*time.Millisecond))

	s.Start()
	require.Eventually(t, func() bool { return opener.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := opener.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, opener.calls.Load(), "no runs after Stop")
}

func TestScheduler_StopsWithParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	opener := &countingOpener{}
	s := NewScheduler(ctx)
	s.AddJob(YearLedgerJob(opener, time.Hour))
	s.Start()

	require.Eventually(t, func() bool { return opener.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_RunOnceReturnsFirstError(t *testing.T) {
	failing := &countingOpener{err: errors.New("db down")}
	ok := &countingOpener{}

	s := NewScheduler(context.Background())
	s.AddJob(YearLedgerJob(failing, time.Hour))
	s.AddJob(YearLedgerJob(ok, time.Hour))

	err := s.RunOnce(context.Background())
	assert.EqualError(t, err, "db down")
	assert.Equal(t, int32(1), failing.calls.Load())
	assert.Equal(t, int32(1), ok.calls.Load())
}

func TestScheduler_IgnoresJobsAfterStart(t *testing.T) {
	s := NewScheduler(context.Background())
	s.Start()
	defer s.Stop()

	late := &countingOpener{}
	s.AddJob(YearLedgerJob(late, time.Millisecond))
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, late.calls.Load())
}
