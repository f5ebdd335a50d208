package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/balance"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/stats"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceImpl struct {
	tx database.Transactor
	user.UserRepository
	jwt.Service
	tokens  auth.RefreshTokenStore
	ledgers balance.BalanceService
	stats   stats.StatsService
}

func NewAuthService(
	tx database.Transactor,
	userRepository user.UserRepository,
	jwtService jwt.Service,
	refreshTokens auth.RefreshTokenStore,
	balanceService balance.BalanceService,
	statsService stats.StatsService,
) auth.AuthService {
	return &AuthServiceImpl{
		tx:             tx,
		UserRepository: userRepository,
		Service:        jwtService,
		tokens:         refreshTokens,
		ledgers:        balanceService,
		stats:          statsService,
	}
}

func (a *AuthServiceImpl) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// issueTokens signs both tokens and stores the refresh token. Must run inside
// a transaction context.
func (a *AuthServiceImpl) issueTokens(ctx context.Context, u user.User, session auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	var (
		resp auth.TokenResponse
		err  error
	)

	resp.AccessToken, resp.AccessTokenExpiresIn, err = a.Service.GenerateAccessToken(u)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}
	resp.RefreshToken, resp.RefreshTokenExpiresIn, err = a.Service.GenerateRefreshToken(u.ID)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create refresh token: %w", err)
	}

	if err := a.tokens.CreateRefreshToken(ctx, u.ID, resp.RefreshToken, resp.RefreshTokenExpiresIn, session); err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to save refresh token to database: %w", err)
	}
	return resp, nil
}

// Register creates a USER account with a ledger for the current year.
func (a *AuthServiceImpl) Register(ctx context.Context, req auth.RegisterRequest, session auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	// Check user already exist or not
	_, err := a.UserRepository.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return auth.TokenResponse{}, auth.ErrEmailAlreadyExists
	case !errors.Is(err, user.ErrUserNotFound):
		return auth.TokenResponse{}, fmt.Errorf("failed to get user data by email: %w", err)
	}

	hashedPassword, err := a.hashPassword(req.Password)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	var tokenResponse auth.TokenResponse
	err = a.tx.WithinTx(ctx, func(ctx context.Context) error {
		newUser, err := a.UserRepository.Create(ctx, user.User{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: &hashedPassword,
			Role:         user.RoleUser,
		})
		if err != nil {
			if errors.Is(err, user.ErrUserEmailExists) {
				return auth.ErrEmailAlreadyExists
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		if _, err := a.ledgers.OpenLedger(ctx, newUser.Email, newUser.Name); err != nil {
			return err
		}

		tokenResponse, err = a.issueTokens(ctx, newUser, session)
		return err
	})
	if err != nil {
		return auth.TokenResponse{}, err
	}

	a.stats.Invalidate(ctx)
	return tokenResponse, nil
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, req auth.LoginRequest, session auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	userData, err := a.UserRepository.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	// Google-only accounts have no password
	if userData.PasswordHash == nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*userData.PasswordHash), []byte(req.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	var tokenResponse auth.TokenResponse
	err = a.tx.WithinTx(ctx, func(ctx context.Context) error {
		tokenResponse, err = a.issueTokens(ctx, userData, session)
		return err
	})
	if err != nil {
		return auth.TokenResponse{}, err
	}
	return tokenResponse, nil
}

// LoginWithGoogle creates the account on first sign-in and links an existing
// password account otherwise.
func (a *AuthServiceImpl) LoginWithGoogle(ctx context.Context, googleUser auth.GoogleUser, session auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	userData, err := a.UserRepository.GetByEmail(ctx, googleUser.Email)
	userExists := true
	if err != nil {
		if !errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, fmt.Errorf("failed to get user data by email: %w", err)
		}
		userExists = false
	}

	var tokenResponse auth.TokenResponse
	err = a.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		switch {
		case !userExists:
			provider := "google"
			name := googleUser.Name
			if name == "" {
				name = googleUser.Email
			}
			newUser := user.User{
				Name:            name,
				Email:           googleUser.Email,
				Role:            user.RoleUser,
				OAuthProvider:   &provider,
				OAuthProviderID: &googleUser.GoogleID,
			}
			if googleUser.Picture != "" {
				newUser.Image = &googleUser.Picture
			}
			userData, err = a.UserRepository.Create(ctx, newUser)
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			if _, err := a.ledgers.OpenLedger(ctx, userData.Email, userData.Name); err != nil {
				return err
			}
		case userData.OAuthProvider == nil || userData.OAuthProviderID == nil:
			userData, err = a.UserRepository.LinkGoogleAccount(ctx, googleUser.GoogleID, userData.Email)
			if err != nil {
				return fmt.Errorf("failed to link google account: %w", err)
			}
		}

		tokenResponse, err = a.issueTokens(ctx, userData, session)
		return err
	})
	if err != nil {
		return auth.TokenResponse{}, err
	}

	if !userExists {
		a.stats.Invalidate(ctx)
	}
	return tokenResponse, nil
}

// Logout implements auth.AuthService.
func (a *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	return a.tx.WithinTx(ctx, func(ctx context.Context) error {
		_, isRevoked, err := a.tokens.IsRefreshTokenRevoked(ctx, refreshToken)
		if err != nil {
			return fmt.Errorf("failed to check if refresh token is revoked: %w", err)
		}
		if isRevoked {
			return nil
		}
		if err := a.tokens.RevokeRefreshToken(ctx, refreshToken); err != nil {
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}
		return nil
	})
}

// RefreshToken implements auth.AuthService.
func (a *AuthServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (auth.AccessTokenResponse, error) {
	// 1. Verify signature, expiry and token type
	claimedUserID, err := a.Service.ValidateRefreshToken(refreshToken)
	if err != nil {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}

	// 2. Check DB for revocation/expiry
	userID, isRevoked, err := a.tokens.IsRefreshTokenRevoked(ctx, refreshToken)
	if err != nil {
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to check refresh token: %w", err)
	}
	if isRevoked {
		return auth.AccessTokenResponse{}, auth.ErrRefreshTokenRevoked
	}
	if userID != claimedUserID {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}

	// 3. Get user, picking up role changes since login
	userData, err := a.UserRepository.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.AccessTokenResponse{}, auth.ErrUserNotFound
		}
		return auth.AccessTokenResponse{}, err
	}

	// 4. Generate new access token
	var resp auth.AccessTokenResponse
	resp.AccessToken, resp.AccessTokenExpiresIn, err = a.Service.GenerateAccessToken(userData)
	if err != nil {
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to generate access token: %w", err)
	}
	return resp, nil
}
