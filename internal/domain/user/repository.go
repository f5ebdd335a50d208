package user

import (
	"context"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	Create(ctx context.Context, newUser User) (User, error)
	List(ctx context.Context, filter ListUsersFilter) ([]User, int64, error)
	UpdateProfile(ctx context.Context, req EditUserRequest) (User, error)
	LinkGoogleAccount(ctx context.Context, googleID string, email string) (User, error)
	Count(ctx context.Context) (int64, error)
}
