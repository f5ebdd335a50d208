package balance

import (
	"context"
)

// BalanceRepository - interface for balances table
type BalanceRepository interface {
	Create(ctx context.Context, b Balances) (Balances, error)
	GetByID(ctx context.Context, id string) (Balances, error)
	GetByEmailAndYear(ctx context.Context, email, year string) (Balances, error)
	// GetByEmailAndYearForUpdate locks the ledger until the surrounding transaction ends
	GetByEmailAndYearForUpdate(ctx context.Context, email, year string) (Balances, error)
	List(ctx context.Context, filter BalanceFilter) ([]Balances, int64, error)
	UpdateCounters(ctx context.Context, b Balances) (Balances, error)
	// CreateMissingForYear opens a ledger for every user lacking one and returns how many were created
	CreateMissingForYear(ctx context.Context, year string, credits Credits) (int64, error)
}
