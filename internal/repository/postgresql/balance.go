package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/balance"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const balanceColumns = `id, user_email, name, year,
	annual_credit, annual_used, annual_available,
	casual_credit, casual_used, casual_available,
	sick_credit, sick_used, sick_available,
	maternity_credit, maternity_used, maternity_available,
	paternity_credit, paternity_used, paternity_available,
	study_credit, study_used, study_available,
	unpaid_used, created_at, updated_at`

type balanceRepositoryImpl struct {
	db *database.DB
}

func NewBalanceRepository(db *database.DB) balance.BalanceRepository {
	return &balanceRepositoryImpl{db: db}
}

func scanBalances(row pgx.Row) (balance.Balances, error) {
	var b balance.Balances
	err := row.Scan(
		&b.ID, &b.UserEmail, &b.Name, &b.Year,
		&b.AnnualCredit, &b.AnnualUsed, &b.AnnualAvailable,
		&b.CasualCredit, &b.CasualUsed, &b.CasualAvailable,
		&b.SickCredit, &b.SickUsed, &b.SickAvailable,
		&b.MaternityCredit, &b.MaternityUsed, &b.MaternityAvailable,
		&b.PaternityCredit, &b.PaternityUsed, &b.PaternityAvailable,
		&b.StudyCredit, &b.StudyUsed, &b.StudyAvailable,
		&b.UnpaidUsed, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return balance.Balances{}, balance.ErrBalanceNotFound
		}
		return balance.Balances{}, err
	}
	return b, nil
}

// Create implements balance.BalanceRepository.
func (r *balanceRepositoryImpl) Create(ctx context.Context, b balance.Balances) (balance.Balances, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return balance.Balances{}, fmt.Errorf("generate balance id: %w", err)
	}

	query := `
		INSERT INTO balances (
			id, user_email, name, year,
			annual_credit, annual_used, annual_available,
			casual_credit, casual_used, casual_available,
			sick_credit, sick_used, sick_available,
			maternity_credit, maternity_used, maternity_available,
			paternity_credit, paternity_used, paternity_available,
			study_credit, study_used, study_available,
			unpaid_used
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10,
			$11, $12, $13,
			$14, $15, $16,
			$17, $18, $19,
			$20, $21, $22,
			$23
		) RETURNING ` + balanceColumns

	created, err := scanBalances(q.QueryRow(ctx, query,
		id.String(), b.UserEmail, b.Name, b.Year,
		b.AnnualCredit, b.AnnualUsed, b.AnnualAvailable,
		b.CasualCredit, b.CasualUsed, b.CasualAvailable,
		b.SickCredit, b.SickUsed, b.SickAvailable,
		b.MaternityCredit, b.MaternityUsed, b.MaternityAvailable,
		b.PaternityCredit, b.PaternityUsed, b.PaternityAvailable,
		b.StudyCredit, b.StudyUsed, b.StudyAvailable,
		b.UnpaidUsed,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return balance.Balances{}, balance.ErrBalanceExists
		}
		return balance.Balances{}, err
	}
	return created, nil
}

// GetByID implements balance.BalanceRepository.
func (r *balanceRepositoryImpl) GetByID(ctx context.Context, id string) (balance.Balances, error) {
	q := GetQuerier(ctx, r.db)
	return scanBalances(q.QueryRow(ctx, `SELECT `+balanceColumns+` FROM balances WHERE id = $1`, id))
}

// GetByEmailAndYear implements balance.BalanceRepository.
func (r *balanceRepositoryImpl) GetByEmailAndYear(ctx context.Context, email, year string) (balance.Balances, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + balanceColumns + ` FROM balances WHERE user_email = $1 AND year = $2`
	return scanBalances(q.QueryRow(ctx, query, email, year))
}

// GetByEmailAndYearForUpdate implements balance.BalanceRepository.
func (r *balanceRepositoryImpl) GetByEmailAndYearForUpdate(ctx context.Context, email, year string) (balance.Balances, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + balanceColumns + ` FROM balances WHERE user_email = $1 AND year = $2 FOR UPDATE`
	return scanBalances(q.QueryRow(ctx, query, email, year))
}

// List implements balance.BalanceRepository.
func (r *balanceRepositoryImpl) List(ctx context.Context, filter balance.BalanceFilter) ([]balance.Balances, int64, error) {
	q := GetQuerier(ctx, r.db)

	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if filter.Year != nil {
		whereClause += fmt.Sprintf(" AND year = $%d", argIndex)
		args = append(args, *filter.Year)
		argIndex++
	}
	if filter.UserEmail != nil {
		whereClause += fmt.Sprintf(" AND user_email = $%d", argIndex)
		args = append(args, *filter.UserEmail)
		argIndex++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM balances "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM balances %s ORDER BY year DESC, name ASC LIMIT $%d OFFSET $%d`,
		balanceColumns, whereClause, argIndex, argIndex+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	ledgers := []balance.Balances{}
	for rows.Next() {
		b, err := scanBalances(rows)
		if err != nil {
			return nil, 0, err
		}
		ledgers = append(ledgers, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return ledgers, total, nil
}

// UpdateCounters implements balance.BalanceRepository.
func (r *balanceRepositoryImpl) UpdateCounters(ctx context.Context, b balance.Balances) (balance.Balances, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE balances SET
			annual_credit = $1, annual_used = $2, annual_available = $3,
			casual_credit = $4, casual_used = $5, casual_available = $6,
			sick_credit = $7, sick_used = $8, sick_available = $9,
			maternity_credit = $10, maternity_used = $11, maternity_available = $12,
			paternity_credit = $13, paternity_used = $14, paternity_available = $15,
			study_credit = $16, study_used = $17, study_available = $18,
			unpaid_used = $19, updated_at = NOW()
		WHERE id = $20
		RETURNING ` + balanceColumns

	return scanBalances(q.QueryRow(ctx, query,
		b.AnnualCredit, b.AnnualUsed, b.AnnualAvailable,
		b.CasualCredit, b.CasualUsed, b.CasualAvailable,
		b.SickCredit, b.SickUsed, b.SickAvailable,
		b.MaternityCredit, b.MaternityUsed, b.MaternityAvailable,
		b.PaternityCredit, b.PaternityUsed, b.PaternityAvailable,
		b.StudyCredit, b.StudyUsed, b.StudyAvailable,
		b.UnpaidUsed, b.ID,
	))
}

// CreateMissingForYear implements balance.BalanceRepository.
func (r *balanceRepositoryImpl) CreateMissingForYear(ctx context.Context, year string, credits balance.Credits) (int64, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT u.email, u.name
		FROM users u
		WHERE NOT EXISTS (SELECT 1 FROM balances b WHERE b.user_email = u.email AND b.year = $1)
	`, year)
	if err != nil {
		return 0, err
	}
	type missing struct{ email, name string }
	var pending []missing
	for rows.Next() {
		var m missing
		if err := rows.Scan(&m.email, &m.name); err != nil {
			rows.Close()
			return 0, err
		}
		pending = append(pending, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	// A concurrent EnsureYearLedgers or registration may open the same ledger;
	// the conflict clause keeps the first one.
	insert := `
		INSERT INTO balances (
			id, user_email, name, year,
			annual_credit, annual_available,
			casual_credit, casual_available,
			sick_credit, sick_available,
			maternity_credit, maternity_available,
			paternity_credit, paternity_available,
			study_credit, study_available
		) VALUES ($1, $2, $3, $4, $5, $5, $6, $6, $7, $7, $8, $8, $9, $9, $10, $10)
		ON CONFLICT (user_email, year) DO NOTHING
	`

	var created int64
	for _, m := range pending {
		id, err := uuid.NewV7()
		if err != nil {
			return created, fmt.Errorf("generate balance id: %w", err)
		}
		tag, err := q.Exec(ctx, insert,
			id.String(), m.email, m.name, year,
			credits.Annual, credits.Casual, credits.Sick,
			credits.Maternity, credits.Paternity, credits.Study,
		)
		if err != nil {
			return created, fmt.Errorf("open ledger for %s: %w", m.email, err)
		}
		created += tag.RowsAffected()
	}
	return created, nil
}
