package balance

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/balance"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/stats"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
)

type BalanceServiceImpl struct {
	tx database.Transactor
	balance.BalanceRepository
	userRepo      user.UserRepository
	notifications notification.Service
	stats         stats.StatsService
	credits       balance.Credits
	now           func() time.Time
}

func NewBalanceService(
	tx database.Transactor,
	balanceRepository balance.BalanceRepository,
	userRepository user.UserRepository,
	notificationService notification.Service,
	statsService stats.StatsService,
	credits balance.Credits,
) balance.BalanceService {
	return &BalanceServiceImpl{
		tx:                tx,
		BalanceRepository: balanceRepository,
		userRepo:          userRepository,
		notifications:     notificationService,
		stats:             statsService,
		credits:           credits,
		now:               time.Now,
	}
}

func (s *BalanceServiceImpl) currentYear() string {
	return strconv.Itoa(s.now().Year())
}

// GetBalance implements balance.BalanceService.
func (s *BalanceServiceImpl) GetBalance(ctx context.Context, id string) (balance.BalanceResponse, error) {
	if !validator.IsValidUUID(id) {
		return balance.BalanceResponse{}, validator.ValidationErrors{{Field: "id", Message: "id must be a valid UUID"}}
	}

	b, err := s.BalanceRepository.GetByID(ctx, id)
	if err != nil {
		return balance.BalanceResponse{}, err
	}
	return b.ToResponse(), nil
}

// GetMyBalance implements balance.BalanceService. An empty year means the current one.
func (s *BalanceServiceImpl) GetMyBalance(ctx context.Context, actor user.Actor, year string) (balance.BalanceResponse, error) {
	if year == "" {
		year = s.currentYear()
	}
	if !validator.IsValidYear(year) {
		return balance.BalanceResponse{}, validator.ValidationErrors{{Field: "year", Message: "year must be four digits"}}
	}

	b, err := s.BalanceRepository.GetByEmailAndYear(ctx, actor.Email, year)
	if err != nil {
		return balance.BalanceResponse{}, err
	}
	return b.ToResponse(), nil
}

// ListBalances implements balance.BalanceService.
func (s *BalanceServiceImpl) ListBalances(ctx context.Context, filter balance.BalanceFilter) (balance.ListBalanceResponse, error) {
	filter.Normalize()
	if err := filter.Validate(); err != nil {
		return balance.ListBalanceResponse{}, err
	}

	ledgers, total, err := s.BalanceRepository.List(ctx, filter)
	if err != nil {
		return balance.ListBalanceResponse{}, fmt.Errorf("failed to list balances: %w", err)
	}

	resp := balance.ListBalanceResponse{
		Balances:   make([]balance.BalanceResponse, 0, len(ledgers)),
		TotalItems: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}
	for _, b := range ledgers {
		resp.Balances = append(resp.Balances, b.ToResponse())
	}
	return resp, nil
}

// EditBalances replaces every counter of a ledger and tells its owner.
// Counters are stored as submitted; available is not recomputed from credit and used.
func (s *BalanceServiceImpl) EditBalances(ctx context.Context, actor user.Actor, req balance.EditBalancesRequest) (balance.BalanceResponse, error) {
	if err := req.Validate(); err != nil {
		return balance.BalanceResponse{}, err
	}

	var (
		updated balance.Balances
		created notification.Notification
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.BalanceRepository.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}

		req.ApplyTo(&current)
		updated, err = s.BalanceRepository.UpdateCounters(ctx, current)
		if err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		owner, err := s.userRepo.GetByEmail(ctx, updated.UserEmail)
		if err != nil {
			return fmt.Errorf("failed to get ledger owner: %w", err)
		}

		created, err = s.notifications.Create(ctx, notification.CreateNotificationRequest{
			UserID:  owner.ID,
			Type:    notification.TypeBalanceUpdated,
			Title:   "BALANCE UPDATED",
			Content: fmt.Sprintf("Your %s leave balance has been updated", updated.Year),
		})
		return err
	})
	if err != nil {
		return balance.BalanceResponse{}, err
	}

	slog.Info("balance edited", "balance_id", updated.ID, "user_email", updated.UserEmail, "by", actor.Email)
	s.notifications.Publish(created)
	s.stats.Invalidate(ctx)

	return updated.ToResponse(), nil
}

// OpenLedger implements balance.BalanceService. Runs inside the caller's
// transaction when ctx carries one.
func (s *BalanceServiceImpl) OpenLedger(ctx context.Context, userEmail, name string) (balance.Balances, error) {
	b, err := s.BalanceRepository.Create(ctx, balance.NewLedger(userEmail, name, s.currentYear(), s.credits))
	if err != nil {
		return balance.Balances{}, fmt.Errorf("failed to open ledger: %w", err)
	}
	return b, nil
}

// EnsureYearLedgers implements balance.BalanceService.
func (s *BalanceServiceImpl) EnsureYearLedgers(ctx context.Context) (int64, error) {
	year := s.currentYear()

	created, err := s.BalanceRepository.CreateMissingForYear(ctx, year, s.credits)
	if err != nil {
		return 0, fmt.Errorf("failed to open ledgers for %s: %w", year, err)
	}
	if created > 0 {
		slog.Info("opened yearly ledgers", "year", year, "count", created)
		s.stats.Invalidate(ctx)
	}
	return created, nil
}
