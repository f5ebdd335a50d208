package balance

import (
	"context"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
)

type BalanceService interface {
	GetBalance(ctx context.Context, id string) (BalanceResponse, error)
	GetMyBalance(ctx context.Context, actor user.Actor, year string) (BalanceResponse, error)
	ListBalances(ctx context.Context, filter BalanceFilter) (ListBalanceResponse, error)
	EditBalances(ctx context.Context, actor user.Actor, req EditBalancesRequest) (BalanceResponse, error)
	// OpenLedger creates the current-year ledger for a new user
	OpenLedger(ctx context.Context, userEmail, name string) (Balances, error)
	// EnsureYearLedgers opens missing ledgers for the current year
	EnsureYearLedgers(ctx context.Context) (int64, error)
}
