package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const leaveColumns = `id, user_email, user_name, type, start_date, end_date, days, year,
	user_note, status, moderator_note, updated_by, created_at, updated_at`

type leaveRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRepository(db *database.DB) leave.LeaveRepository {
	return &leaveRepositoryImpl{db: db}
}

func scanLeave(row pgx.Row) (leave.Leave, error) {
	var l leave.Leave
	err := row.Scan(
		&l.ID,
		&l.UserEmail,
		&l.UserName,
		&l.Type,
		&l.StartDate,
		&l.EndDate,
		&l.Days,
		&l.Year,
		&l.UserNote,
		&l.Status,
		&l.ModeratorNote,
		&l.UpdatedBy,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Leave{}, leave.ErrLeaveNotFound
		}
		return leave.Leave{}, err
	}
	return l, nil
}

// Create implements leave.LeaveRepository. A duplicate (email, start, end)
// reported by the unique index maps to ErrLeaveExists.
func (r *leaveRepositoryImpl) Create(ctx context.Context, l leave.Leave) (leave.Leave, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return leave.Leave{}, fmt.Errorf("generate leave id: %w", err)
	}

	query := `
		INSERT INTO leaves (
			id, user_email, user_name, type, start_date, end_date, days, year,
			user_note, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + leaveColumns

	created, err := scanLeave(q.QueryRow(ctx, query,
		id.String(),
		l.UserEmail,
		l.UserName,
		l.Type,
		l.StartDate,
		l.EndDate,
		l.Days,
		l.Year,
		l.UserNote,
		l.Status,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return leave.Leave{}, leave.ErrLeaveExists
		}
		return leave.Leave{}, err
	}
	return created, nil
}

// GetByID implements leave.LeaveRepository.
func (r *leaveRepositoryImpl) GetByID(ctx context.Context, id string) (leave.Leave, error) {
	q := GetQuerier(ctx, r.db)
	return scanLeave(q.QueryRow(ctx, `SELECT `+leaveColumns+` FROM leaves WHERE id = $1`, id))
}

// GetByIDForUpdate implements leave.LeaveRepository.
func (r *leaveRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (leave.Leave, error) {
	q := GetQuerier(ctx, r.db)
	return scanLeave(q.QueryRow(ctx, `SELECT `+leaveColumns+` FROM leaves WHERE id = $1 FOR UPDATE`, id))
}

// ExistsForRange implements leave.LeaveRepository.
func (r *leaveRepositoryImpl) ExistsForRange(ctx context.Context, userEmail string, startDate, endDate time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT EXISTS(SELECT 1 FROM leaves WHERE user_email = $1 AND start_date = $2 AND end_date = $3)`

	var exists bool
	if err := q.QueryRow(ctx, query, userEmail, startDate, endDate).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// List implements leave.LeaveRepository.
func (r *leaveRepositoryImpl) List(ctx context.Context, filter leave.LeaveFilter) ([]leave.Leave, int64, error) {
	q := GetQuerier(ctx, r.db)

	// Build WHERE clause
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if filter.Status != nil {
		whereClause += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}
	if filter.Type != nil {
		whereClause += fmt.Sprintf(" AND type = $%d", argIndex)
		args = append(args, *filter.Type)
		argIndex++
	}
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
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM leaves "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM leaves %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		leaveColumns, whereClause, argIndex, argIndex+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leaves := []leave.Leave{}
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, 0, err
		}
		leaves = append(leaves, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return leaves, total, nil
}

// UpdateDecision implements leave.LeaveRepository.
func (r *leaveRepositoryImpl) UpdateDecision(ctx context.Context, id string, status leave.Status, moderatorNote *string, updatedBy string) (leave.Leave, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leaves
		SET status = $1, moderator_note = $2, updated_by = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING ` + leaveColumns

	return scanLeave(q.QueryRow(ctx, query, status, moderatorNote, updatedBy, id))
}
