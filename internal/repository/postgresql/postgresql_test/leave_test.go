package postgresqltest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/balance"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newPendingLeave(email string, start, end time.Time, typ leave.Type) leave.Leave {
	return leave.Leave{
		UserEmail: email,
		UserName:  "Test " + email,
		Type:      typ,
		StartDate: start,
		EndDate:   end,
		Days:      leave.CountDays(start, end),
		Year:      "2026",
		UserNote:  "note",
		Status:    leave.StatusPending,
	}
}

func TestLeaveRepository_CreateAndGet(t *testing.T) {
	setup := NewTestDatabase(t)
	users := postgresql.NewUserRepository(setup.DB)
	repo := postgresql.NewLeaveRepository(setup.DB)
	ctx := context.Background()
	createTestUser(t, users, "uma@example.com", user.RoleUser)

	created, err := repo.Create(ctx, newPendingLeave("uma@example.com", date(2026, 3, 2), date(2026, 3, 4), leave.TypeAnnual))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 3, created.Days)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, got.Status)
	assert.True(t, got.StartDate.Equal(date(2026, 3, 2)), got.StartDate)

	exists, err := repo.ExistsForRange(ctx, "uma@example.com", date(2026, 3, 2), date(2026, 3, 4))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsForRange(ctx, "uma@example.com", date(2026, 3, 2), date(2026, 3, 5))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLeaveRepository_DuplicateRangeHitsUniqueIndex(t *testing.T) {
	setup := NewTestDatabase(t)
	users := postgresql.NewUserRepository(setup.DB)
	repo := postgresql.NewLeaveRepository(setup.DB)
	createTestUser(t, users, "uma@example.com", user.RoleUser)

	l := newPendingLeave("uma@example.com", date(2026, 3, 2), date(2026, 3, 4), leave.TypeAnnual)
	_, err := repo.Create(context.Background(), l)
	require.NoError(t, err)

	// a different type does not make the range distinct
	l.Type = leave.TypeSick
	_, err = repo.Create(context.Background(), l)
	assert.ErrorIs(t, err, leave.ErrLeaveExists)
}

func TestLeaveRepository_UpdateDecision(t *testing.T) {
	setup := NewTestDatabase(t)
	users := postgresql.NewUserRepository(setup.DB)
	repo := postgresql.NewLeaveRepository(setup.DB)
	ctx := context.Background()
	createTestUser(t, users, "uma@example.com", user.RoleUser)

	created, err := repo.Create(ctx, newPendingLeave("uma@example.com", date(2026, 3, 2), date(2026, 3, 4), leave.TypeAnnual))
	require.NoError(t, err)

	note := "enjoy"
	decided, err := repo.UpdateDecision(ctx, created.ID, leave.StatusApproved, &note, "mo@example.com")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, decided.Status)
	require.NotNil(t, decided.ModeratorNote)
	assert.Equal(t, "enjoy", *decided.ModeratorNote)
	require.NotNil(t, decided.UpdatedBy)
	assert.Equal(t, "mo@example.com", *decided.UpdatedBy)

	_, err = repo.UpdateDecision(ctx, "01960000-0000-7000-8000-000000000099", leave.StatusRejected, nil, "mo@example.com")
	assert.ErrorIs(t, err, leave.ErrLeaveNotFound)
}

func TestLeaveRepository_ListFilters(t *testing.T) {
	setup := NewTestDatabase(t)
	users := postgresql.NewUserRepository(setup.DB)
	repo := postgresql.NewLeaveRepository(setup.DB)
	ctx := context.Background()
	createTestUser(t, users, "uma@example.com", user.RoleUser)
	createTestUser(t, users, "mo@example.com", user.RoleModerator)

	_, err := repo.Create(ctx, newPendingLeave("uma@example.com", date(2026, 3, 2), date(2026, 3, 4), leave.TypeAnnual))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newPendingLeave("uma@example.com", date(2026, 4, 1), date(2026, 4, 1), leave.TypeSick))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newPendingLeave("mo@example.com", date(2026, 5, 1), date(2026, 5, 2), leave.TypeAnnual))
	require.NoError(t, err)

	email := "uma@example.com"
	leaves, total, err := repo.List(ctx, leave.LeaveFilter{UserEmail: &email, Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, leaves, 2)

	typ := leave.TypeAnnual
	leaves, total, err = repo.List(ctx, leave.LeaveFilter{Type: &typ, Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, leaves, 1)

	status := leave.StatusApproved
	_, total, err = repo.List(ctx, leave.LeaveFilter{Status: &status, Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestTransactor_RollsBackEveryWrite(t *testing.T) {
	setup := NewTestDatabase(t)
	users := postgresql.NewUserRepository(setup.DB)
	leaves := postgresql.NewLeaveRepository(setup.DB)
	tx := postgresql.NewTransactor(setup.DB)
	ctx := context.Background()
	createTestUser(t, users, "uma@example.com", user.RoleUser)

	boom := errors.New("notification insert failed")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := leaves.Create(ctx, newPendingLeave("uma@example.com", date(2026, 3, 2), date(2026, 3, 4), leave.TypeAnnual)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	exists, err := leaves.ExistsForRange(ctx, "uma@example.com", date(2026, 3, 2), date(2026, 3, 4))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBalanceRepository_LedgerLifecycle(t *testing.T) {
	setup := NewTestDatabase(t)
	users := postgresql.NewUserRepository(setup.DB)
	repo := postgresql.NewBalanceRepository(setup.DB)
	tx := postgresql.NewTransactor(setup.DB)
	ctx := context.Background()
	createTestUser(t, users, "uma@example.com", user.RoleUser)
	credits := balance.Credits{Annual: 20, Casual: 7, Sick: 10, Maternity: 90, Paternity: 10, Study: 5}

	created, err := repo.Create(ctx, balance.NewLedger("uma@example.com", "Uma", "2026", credits))
	require.NoError(t, err)
	assert.Equal(t, 20, created.AnnualAvailable)

	_, err = repo.Create(ctx, balance.NewLedger("uma@example.com", "Uma", "2026", credits))
	assert.ErrorIs(t, err, balance.ErrBalanceExists)

	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := repo.GetByEmailAndYearForUpdate(ctx, "uma@example.com", "2026")
		if err != nil {
			return err
		}
		if err := b.Consume(leave.TypeAnnual, 3); err != nil {
			return err
		}
		_, err = repo.UpdateCounters(ctx, b)
		return err
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.AnnualUsed)
	assert.Equal(t, 17, got.AnnualAvailable)

	_, err = repo.GetByEmailAndYear(ctx, "uma@example.com", "2025")
	assert.ErrorIs(t, err, balance.ErrBalanceNotFound)
}

func TestBalanceRepository_CreateMissingForYear(t *testing.T) {
	setup := NewTestDatabase(t)
	users := postgresql.NewUserRepository(setup.DB)
	repo := postgresql.NewBalanceRepository(setup.DB)
	ctx := context.Background()
	createTestUser(t, users, "uma@example.com", user.RoleUser)
	createTestUser(t, users, "mo@example.com", user.RoleModerator)
	credits := balance.Credits{Annual: 20}

	_, err := repo.Create(ctx, balance.NewLedger("uma@example.com", "Uma", "2026", credits))
	require.NoError(t, err)

	created, err := repo.CreateMissingForYear(ctx, "2026", credits)
	require.NoError(t, err)
	assert.Equal(t, int64(1), created)

	// second run finds nothing to open
	created, err = repo.CreateMissingForYear(ctx, "2026", credits)
	require.NoError(t, err)
	assert.Zero(t, created)

	year := "2026"
	_, total, err := repo.List(ctx, balance.BalanceFilter{Year: &year, Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestTransactor_NestedCallsShareTransaction(t *testing.T) {
	setup := NewTestDatabase(t)
	users := postgresql.NewUserRepository(setup.DB)
	leaves := postgresql.NewLeaveRepository(setup.DB)
	tx := postgresql.NewTransactor(setup.DB)
	ctx := context.Background()
	createTestUser(t, users, "uma@example.com", user.RoleUser)

	boom := errors.New("outer failure")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		inner := tx.WithinTx(ctx, func(ctx context.Context) error {
			_, err := leaves.Create(ctx, newPendingLeave("uma@example.com", date(2026, 6, 1), date(2026, 6, 2), leave.TypeCasual))
			return err
		})
		require.NoError(t, inner)
		return boom
	})
	require.ErrorIs(t, err, boom)

	// the inner write rolled back with the outer transaction
	exists, err := leaves.ExistsForRange(ctx, "uma@example.com", date(2026, 6, 1), date(2026, 6, 2))
	require.NoError(t, err)
	assert.False(t, exists)
}
