package service

import (
	"context"
	"fmt"

	"github.com/arcadehq/tictactoe-backend/internal/entity"
)

type UserService interface {
	SaveUser(ctx context.Context, user *entity.User) error
	GetUserByID(ctx context.Context, id string) (*entity.User, error)
}

type userRepo interface {
	Upsert(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
}

type userService struct {
	userRepo userRepo
}

func NewUserService(userRepo userRepo) UserService {
	return &userService{
		userRepo: userRepo,
	}
}

func (that *userService) SaveUser(ctx context.Context, user *entity.User) error {
	if err := that.userRepo.Upsert(ctx, user); err != nil {
		return fmt.Errorf("could not save user: %w", err)
	}

	return nil
}

func (that *userService) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	user, err := that.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("could not get user by id: %w", err)
	}

	return user, nil
}
