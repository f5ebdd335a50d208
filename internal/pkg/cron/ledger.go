package cron

import (
	"context"
	"time"
)

// LedgerOpener opens the current year's ledger for users that lack one
type LedgerOpener interface {
	EnsureYearLedgers(ctx context.Context) (int64, error)
}

// YearLedgerJob keeps every user's ledger for the current year in place, so a
// new year starts with fresh credits without manual work.
func YearLedgerJob(opener LedgerOpener, interval time.Duration) Job {
	return Job{
		Name:     "year_ledgers",
		Interval: interval,
		Timeout:  time.Minute,
		Fn: func(ctx context.Context) error {
			_, err := opener.EnsureYearLedgers(ctx)
			return err
		},
	}
}
