package auth

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/balance"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
	balancesvc "github.com/cmlabs-hris/leave-backend-go/internal/service/balance"
	notificationsvc "github.com/cmlabs-hris/leave-backend-go/internal/service/notification"
	"github.com/cmlabs-hris/leave-backend-go/internal/service/servicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-for-jwt"

var session = auth.SessionTrackingRequest{IPAddress: "127.0.0.1", UserAgent: "Mozilla/5.0"}

type fixture struct {
	store *servicetest.Store
	stats *servicetest.StatsRecorder
	jwt   *jwt.JWTService
	svc   auth.AuthService
}

func newFixture() fixture {
	store := servicetest.NewStore()
	st := &servicetest.StatsRecorder{}
	jwtService := jwt.NewJWTService(testSecret, time.Hour, 24*time.Hour, false)
	ledgers := balancesvc.NewBalanceService(
		store,
		store.BalanceRepository(),
		store.UserRepository(),
		notificationsvc.NewNotificationService(store.NotificationRepository(), sse.NewHub()),
		st,
		balance.Credits{Annual: 20, Casual: 7, Sick: 10, Maternity: 90, Paternity: 10, Study: 5},
	)
	return fixture{
		store: store,
		stats: st,
		jwt:   jwtService,
		svc:   NewAuthService(store, store.UserRepository(), jwtService, store.RefreshTokenStore(), ledgers, st),
	}
}

func seedPasswordUser(t *testing.T, store *servicetest.Store, email string) user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	hashed := string(hash)
	return store.SeedUser(user.User{Name: "Jane", Email: email, PasswordHash: &hashed, Role: user.RoleUser})
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newFixture()
	seedPasswordUser(t, f.store, "login@example.com")

	response, err := f.svc.Login(context.Background(), auth.LoginRequest{Email: "login@example.com", Password: "password123"}, session)

	require.NoError(t, err)
	assert.NotEmpty(t, response.AccessToken)
	assert.NotEmpty(t, response.RefreshToken)
	assert.Greater(t, response.AccessTokenExpiresIn, int64(0))
	assert.Greater(t, response.RefreshTokenExpiresIn, int64(0))
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	f := newFixture()
	seedPasswordUser(t, f.store, "invalidpass@example.com")

	_, err := f.svc.Login(context.Background(), auth.LoginRequest{Email: "invalidpass@example.com", Password: "wrongpassword"}, session)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Login(context.Background(), auth.LoginRequest{Email: "nobody@example.com", Password: "password123"}, session)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthService_Login_GoogleOnlyAccount(t *testing.T) {
	f := newFixture()
	f.store.SeedUser(user.User{Name: "G", Email: "google@example.com"})

	_, err := f.svc.Login(context.Background(), auth.LoginRequest{Email: "google@example.com", Password: "password123"}, session)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthService_Register_OpensLedger(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Register(context.Background(), auth.RegisterRequest{
		Name: "New Hire", Email: "new@example.com", Password: "password123", ConfirmPassword: "password123",
	}, session)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	users := f.store.Users()
	require.Len(t, users, 1)
	assert.Equal(t, user.RoleUser, users[0].Role)
	require.NotNil(t, users[0].PasswordHash)
	assert.NotEqual(t, "password123", *users[0].PasswordHash)

	_, ok := f.store.Balance("new@example.com", time.Now().Format("2006"))
	assert.True(t, ok)
	assert.Equal(t, 1, f.stats.Invalidations())
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	f := newFixture()
	seedPasswordUser(t, f.store, "taken@example.com")

	_, err := f.svc.Register(context.Background(), auth.RegisterRequest{
		Name: "Again", Email: "taken@example.com", Password: "password123", ConfirmPassword: "password123",
	}, session)
	assert.ErrorIs(t, err, auth.ErrEmailAlreadyExists)
}

func TestAuthService_Register_Validation(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Register(context.Background(), auth.RegisterRequest{
		Name: "Short", Email: "short@example.com", Password: "short", ConfirmPassword: "short",
	}, session)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "password")
	assert.Empty(t, f.store.Users())
}

func TestAuthService_LoginWithGoogle_CreatesThenLinks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.LoginWithGoogle(ctx, auth.GoogleUser{GoogleID: "g-1", Email: "g@example.com", Name: "Gina", Picture: "https://example.com/p.png"}, session)
	require.NoError(t, err)

	users := f.store.Users()
	require.Len(t, users, 1)
	assert.Equal(t, "Gina", users[0].Name)
	require.NotNil(t, users[0].OAuthProviderID)
	assert.Equal(t, "g-1", *users[0].OAuthProviderID)

	// Signing in again neither duplicates the user nor the ledger
	_, err = f.svc.LoginWithGoogle(ctx, auth.GoogleUser{GoogleID: "g-1", Email: "g@example.com", Name: "Gina"}, session)
	require.NoError(t, err)
	assert.Len(t, f.store.Users(), 1)

	seedPasswordUser(t, f.store, "pw@example.com")
	_, err = f.svc.LoginWithGoogle(ctx, auth.GoogleUser{GoogleID: "g-2", Email: "pw@example.com"}, session)
	require.NoError(t, err)

	u, err := f.store.UserRepository().GetByEmail(ctx, "pw@example.com")
	require.NoError(t, err)
	require.NotNil(t, u.OAuthProvider)
	assert.Equal(t, "google", *u.OAuthProvider)
}

func TestAuthService_RefreshAndLogout(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedPasswordUser(t, f.store, "refresh@example.com")

	tokens, err := f.svc.Login(ctx, auth.LoginRequest{Email: "refresh@example.com", Password: "password123"}, session)
	require.NoError(t, err)

	refreshed, err := f.svc.RefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	require.NoError(t, f.svc.Logout(ctx, tokens.RefreshToken))

	_, err = f.svc.RefreshToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrRefreshTokenRevoked)

	// logging out twice is harmless
	assert.NoError(t, f.svc.Logout(ctx, tokens.RefreshToken))
}

func TestAuthService_Refresh_RejectsAccessToken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seedPasswordUser(t, f.store, "access@example.com")

	tokens, err := f.svc.Login(ctx, auth.LoginRequest{Email: "access@example.com", Password: "password123"}, session)
	require.NoError(t, err)

	_, err = f.svc.RefreshToken(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = f.svc.RefreshToken(ctx, "garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
