package user

import "context"

type UserService interface {
	GetUser(ctx context.Context, id string) (UserResponse, error)
	ListUsers(ctx context.Context, filter ListUsersFilter) (ListUsersResponse, error)
	EditUser(ctx context.Context, req EditUserRequest) (UserResponse, error)
}
