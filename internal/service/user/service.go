package user

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/leave-backend-go/internal/domain/stats"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
)

type UserServiceImpl struct {
	user.UserRepository
	stats stats.StatsService
}

func NewUserService(userRepository user.UserRepository, statsService stats.StatsService) user.UserService {
	return &UserServiceImpl{
		UserRepository: userRepository,
		stats:          statsService,
	}
}

// GetUser implements user.UserService.
func (s *UserServiceImpl) GetUser(ctx context.Context, id string) (user.UserResponse, error) {
	if !validator.IsValidUUID(id) {
		return user.UserResponse{}, validator.ValidationErrors{{Field: "id", Message: "id must be a valid UUID"}}
	}

	u, err := s.UserRepository.GetByID(ctx, id)
	if err != nil {
		return user.UserResponse{}, err
	}
	return u.ToResponse(), nil
}

// ListUsers implements user.UserService.
func (s *UserServiceImpl) ListUsers(ctx context.Context, filter user.ListUsersFilter) (user.ListUsersResponse, error) {
	filter.Normalize()

	users, total, err := s.UserRepository.List(ctx, filter)
	if err != nil {
		return user.ListUsersResponse{}, fmt.Errorf("failed to list users: %w", err)
	}

	resp := user.ListUsersResponse{
		Users:      make([]user.UserResponse, 0, len(users)),
		TotalItems: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}
	for _, u := range users {
		resp.Users = append(resp.Users, u.ToResponse())
	}
	return resp, nil
}

// EditUser implements user.UserService.
func (s *UserServiceImpl) EditUser(ctx context.Context, req user.EditUserRequest) (user.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return user.UserResponse{}, err
	}

	updated, err := s.UserRepository.UpdateProfile(ctx, req)
	if err != nil {
		return user.UserResponse{}, err
	}

	s.stats.Invalidate(ctx)
	return updated.ToResponse(), nil
}
