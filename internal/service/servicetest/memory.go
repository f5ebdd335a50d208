// Package servicetest holds in-memory repositories for service tests.
// Store.WithinTx restores every table when the callback fails, so tests can
// observe rollbacks.
package servicetest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/balance"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/stats"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/google/uuid"
)

type refreshToken struct {
	userID  string
	revoked bool
	expires time.Time
}

type tables struct {
	users         map[string]user.User
	balances      map[string]balance.Balances
	leaves        map[string]leave.Leave
	notifications []notification.Notification
	tokens        map[string]refreshToken
}

func (t tables) clone() tables {
	c := tables{
		users:         make(map[string]user.User, len(t.users)),
		balances:      make(map[string]balance.Balances, len(t.balances)),
		leaves:        make(map[string]leave.Leave, len(t.leaves)),
		notifications: append([]notification.Notification(nil), t.notifications...),
		tokens:        make(map[string]refreshToken, len(t.tokens)),
	}
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.balances {
		c.balances[k] = v
	}
	for k, v := range t.leaves {
		c.leaves[k] = v
	}
	for k, v := range t.tokens {
		c.tokens[k] = v
	}
	return c
}

// Store is a process-local stand-in for the PostgreSQL schema
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	t    tables

	// NotificationErr, when set, fails every notification insert
	NotificationErr error
	// Commits counts successful WithinTx calls
	Commits int
}

func NewStore() *Store {
	return &Store{t: tables{
		users:    map[string]user.User{},
		balances: map[string]balance.Balances{},
		leaves:   map[string]leave.Leave{},
		tokens:   map[string]refreshToken{},
	}}
}

type inTxKey struct{}

// WithinTx serializes transactions and rolls the store back when fn fails.
// Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inTxKey{}) == s {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()
	ctx = context.WithValue(ctx, inTxKey{}, s)

	s.mu.Lock()
	snapshot := s.t.clone()
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.t = snapshot
		s.mu.Unlock()
		return err
	}
	s.Commits++
	return nil
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SeedUser inserts u directly, filling ID and timestamps when empty.
func (s *Store) SeedUser(u user.User) user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = newID()
	}
	if u.Role == "" {
		u.Role = user.RoleUser
	}
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	s.t.users[u.ID] = u
	return u
}

// SeedBalance inserts b directly.
func (s *Store) SeedBalance(b balance.Balances) balance.Balances {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = newID()
	}
	b.CreatedAt, b.UpdatedAt = time.Now(), time.Now()
	s.t.balances[b.ID] = b
	return b
}

// SeedLeave inserts l directly.
func (s *Store) SeedLeave(l leave.Leave) leave.Leave {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == "" {
		l.ID = newID()
	}
	if l.Status == "" {
		l.Status = leave.StatusPending
	}
	l.CreatedAt, l.UpdatedAt = time.Now(), time.Now()
	s.t.leaves[l.ID] = l
	return l
}

func (s *Store) Leaves() []leave.Leave {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]leave.Leave, 0, len(s.t.leaves))
	for _, l := range s.t.leaves {
		out = append(out, l)
	}
	return out
}

func (s *Store) Notifications() []notification.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notification.Notification(nil), s.t.notifications...)
}

func (s *Store) Balance(email, year string) (balance.Balances, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.t.balances {
		if b.UserEmail == email && b.Year == year {
			return b, true
		}
	}
	return balance.Balances{}, false
}

func (s *Store) Users() []user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]user.User, 0, len(s.t.users))
	for _, u := range s.t.users {
		out = append(out, u)
	}
	return out
}

func paginate(total, page, limit int) (int, int) {
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return start, end
}

// ============= users =============

type UserRepo struct{ s *Store }

func (s *Store) UserRepository() user.UserRepository { return UserRepo{s} }

func (r UserRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.t.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (r UserRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.t.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (r UserRepo) Create(_ context.Context, newUser user.User) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.t.users {
		if strings.EqualFold(u.Email, newUser.Email) {
			return user.User{}, user.ErrUserEmailExists
		}
	}
	newUser.ID = newID()
	newUser.CreatedAt, newUser.UpdatedAt = time.Now(), time.Now()
	r.s.t.users[newUser.ID] = newUser
	return newUser, nil
}

func (r UserRepo) List(_ context.Context, filter user.ListUsersFilter) ([]user.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []user.User
	for _, u := range r.s.t.users {
		if filter.Search != nil {
			q := strings.ToLower(*filter.Search)
			if !strings.Contains(strings.ToLower(u.Name), q) && !strings.Contains(strings.ToLower(u.Email), q) {
				continue
			}
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	start, end := paginate(len(matched), filter.Page, filter.Limit)
	return matched[start:end], int64(len(matched)), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r UserRepo) UpdateProfile(_ context.Context, req user.EditUserRequest) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.t.users[req.ID]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	u.Phone = optional(req.Phone)
	u.Department = optional(req.Department)
	u.Title = optional(req.Title)
	u.Role = user.Role(req.Role)
	u.UpdatedAt = time.Now()
	r.s.t.users[u.ID] = u
	return u, nil
}

func (r UserRepo) LinkGoogleAccount(_ context.Context, googleID string, email string) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, u := range r.s.t.users {
		if strings.EqualFold(u.Email, email) {
			provider := "google"
			u.OAuthProvider = &provider
			u.OAuthProviderID = &googleID
			r.s.t.users[id] = u
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (r UserRepo) Count(context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.t.users)), nil
}

// ============= balances =============

type BalanceRepo struct{ s *Store }

func (s *Store) BalanceRepository() balance.BalanceRepository { return BalanceRepo{s} }

func (r BalanceRepo) Create(_ context.Context, b balance.Balances) (balance.Balances, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.t.balances {
		if existing.UserEmail == b.UserEmail && existing.Year == b.Year {
			return balance.Balances{}, balance.ErrBalanceExists
		}
	}
	b.ID = newID()
	b.CreatedAt, b.UpdatedAt = time.Now(), time.Now()
	r.s.t.balances[b.ID] = b
	return b, nil
}

func (r BalanceRepo) GetByID(_ context.Context, id string) (balance.Balances, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.t.balances[id]
	if !ok {
		return balance.Balances{}, balance.ErrBalanceNotFound
	}
	return b, nil
}

func (r BalanceRepo) GetByEmailAndYear(_ context.Context, email, year string) (balance.Balances, error) {
	b, ok := r.s.Balance(email, year)
	if !ok {
		return balance.Balances{}, balance.ErrBalanceNotFound
	}
	return b, nil
}

func (r BalanceRepo) GetByEmailAndYearForUpdate(ctx context.Context, email, year string) (balance.Balances, error) {
	return r.GetByEmailAndYear(ctx, email, year)
}

func (r BalanceRepo) List(_ context.Context, filter balance.BalanceFilter) ([]balance.Balances, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []balance.Balances
	for _, b := range r.s.t.balances {
		if filter.Year != nil && b.Year != *filter.Year {
			continue
		}
		if filter.UserEmail != nil && b.UserEmail != *filter.UserEmail {
			continue
		}
		matched = append(matched, b)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	start, end := paginate(len(matched), filter.Page, filter.Limit)
	return matched[start:end], int64(len(matched)), nil
}

func (r BalanceRepo) UpdateCounters(_ context.Context, b balance.Balances) (balance.Balances, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.t.balances[b.ID]; !ok {
		return balance.Balances{}, balance.ErrBalanceNotFound
	}
	b.UpdatedAt = time.Now()
	r.s.t.balances[b.ID] = b
	return b, nil
}

func (r BalanceRepo) CreateMissingForYear(_ context.Context, year string, credits balance.Credits) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var created int64
	for _, u := range r.s.t.users {
		exists := false
		for _, b := range r.s.t.balances {
			if b.UserEmail == u.Email && b.Year == year {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		b := balance.NewLedger(u.Email, u.Name, year, credits)
		b.ID = newID()
		b.CreatedAt, b.UpdatedAt = time.Now(), time.Now()
		r.s.t.balances[b.ID] = b
		created++
	}
	return created, nil
}

// ============= leaves =============

type LeaveRepo struct{ s *Store }

func (s *Store) LeaveRepository() leave.LeaveRepository { return LeaveRepo{s} }

func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func (r LeaveRepo) Create(_ context.Context, l leave.Leave) (leave.Leave, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.t.leaves {
		if existing.UserEmail == l.UserEmail && sameDay(existing.StartDate, l.StartDate) && sameDay(existing.EndDate, l.EndDate) {
			return leave.Leave{}, leave.ErrLeaveExists
		}
	}
	l.ID = newID()
	l.CreatedAt, l.UpdatedAt = time.Now(), time.Now()
	r.s.t.leaves[l.ID] = l
	return l, nil
}

func (r LeaveRepo) GetByID(_ context.Context, id string) (leave.Leave, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.t.leaves[id]
	if !ok {
		return leave.Leave{}, leave.ErrLeaveNotFound
	}
	return l, nil
}

func (r LeaveRepo) GetByIDForUpdate(ctx context.Context, id string) (leave.Leave, error) {
	return r.GetByID(ctx, id)
}

func (r LeaveRepo) ExistsForRange(_ context.Context, userEmail string, startDate, endDate time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.t.leaves {
		if l.UserEmail == userEmail && sameDay(l.StartDate, startDate) && sameDay(l.EndDate, endDate) {
			return true, nil
		}
	}
	return false, nil
}

func (r LeaveRepo) List(_ context.Context, filter leave.LeaveFilter) ([]leave.Leave, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []leave.Leave
	for _, l := range r.s.t.leaves {
		switch {
		case filter.Status != nil && l.Status != *filter.Status:
			continue
		case filter.Type != nil && l.Type != *filter.Type:
			continue
		case filter.Year != nil && l.Year != *filter.Year:
			continue
		case filter.UserEmail != nil && l.UserEmail != *filter.UserEmail:
			continue
		}
		matched = append(matched, l)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	start, end := paginate(len(matched), filter.Page, filter.Limit)
	return matched[start:end], int64(len(matched)), nil
}

func (r LeaveRepo) UpdateDecision(_ context.Context, id string, status leave.Status, moderatorNote *string, updatedBy string) (leave.Leave, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.t.leaves[id]
	if !ok {
		return leave.Leave{}, leave.ErrLeaveNotFound
	}
	l.Status = status
	l.ModeratorNote = moderatorNote
	l.UpdatedBy = &updatedBy
	l.UpdatedAt = time.Now()
	r.s.t.leaves[id] = l
	return l, nil
}

// ============= notifications =============

type NotificationRepo struct{ s *Store }

func (s *Store) NotificationRepository() notification.Repository { return NotificationRepo{s} }

func (r NotificationRepo) Create(_ context.Context, n notification.Notification) (notification.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.NotificationErr != nil {
		return notification.Notification{}, r.s.NotificationErr
	}
	n.ID = newID()
	n.CreatedAt = time.Now()
	r.s.t.notifications = append(r.s.t.notifications, n)
	return n, nil
}

func (r NotificationRepo) GetByUserID(_ context.Context, req notification.ListNotificationsRequest) ([]notification.Notification, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []notification.Notification
	for i := len(r.s.t.notifications) - 1; i >= 0; i-- {
		n := r.s.t.notifications[i]
		if n.UserID == req.UserID && (!req.UnreadOnly || !n.IsRead) {
			matched = append(matched, n)
		}
	}
	start, end := paginate(len(matched), req.Page, req.PageSize)
	return matched[start:end], int64(len(matched)), nil
}

func (r NotificationRepo) GetUnreadCount(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var c int64
	for _, n := range r.s.t.notifications {
		if n.UserID == userID && !n.IsRead {
			c++
		}
	}
	return c, nil
}

func (r NotificationRepo) MarkAsRead(_ context.Context, ids []string, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for i, n := range r.s.t.notifications {
		for _, id := range ids {
			if n.ID == id && n.UserID == userID && !n.IsRead {
				r.s.t.notifications[i].IsRead = true
				r.s.t.notifications[i].ReadAt = &now
			}
		}
	}
	return nil
}

func (r NotificationRepo) MarkAllAsRead(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for i, n := range r.s.t.notifications {
		if n.UserID == userID && !n.IsRead {
			r.s.t.notifications[i].IsRead = true
			r.s.t.notifications[i].ReadAt = &now
		}
	}
	return nil
}

func (r NotificationRepo) Delete(_ context.Context, id string, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, n := range r.s.t.notifications {
		if n.ID == id && n.UserID == userID {
			r.s.t.notifications = append(r.s.t.notifications[:i], r.s.t.notifications[i+1:]...)
			return nil
		}
	}
	return notification.ErrNotificationNotFound
}

// ============= refresh tokens =============

type TokenStore struct{ s *Store }

func (s *Store) RefreshTokenStore() auth.RefreshTokenStore { return TokenStore{s} }

func (r TokenStore) CreateRefreshToken(_ context.Context, userID string, token string, expiresAt int64, _ auth.SessionTrackingRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.t.tokens[token] = refreshToken{userID: userID, expires: time.Unix(expiresAt, 0)}
	return nil
}

func (r TokenStore) IsRefreshTokenRevoked(_ context.Context, token string) (string, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.t.tokens[token]
	if !ok {
		return "", true, nil
	}
	return t.userID, t.revoked || time.Now().After(t.expires), nil
}

func (r TokenStore) RevokeRefreshToken(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.t.tokens[token]
	if !ok {
		return errors.New("refresh token not found")
	}
	t.revoked = true
	r.s.t.tokens[token] = t
	return nil
}

// ============= stats =============

// StatsRecorder counts cache invalidations
type StatsRecorder struct {
	mu          sync.Mutex
	invalidated int
}

func (r *StatsRecorder) GetStats(context.Context) (stats.StatsResponse, error) {
	return stats.StatsResponse{}, nil
}

func (r *StatsRecorder) Invalidate(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated++
}

func (r *StatsRecorder) Invalidations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.invalidated
}
