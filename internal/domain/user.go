package domain

import (
	"context"
)

// UserModel gateway account, LearnerID is the user id known by the LearnForge backend
type UserModel struct {
	ID         string `json:"-"`
	Username   string `json:"username" validate:"required,min=3,max=32"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	LearnerID  int    `json:"learner_id" validate:"required,min=1"`
	LoginRetry int    `json:"-"`
	LastLogin  int64  `json:"-"`
}

type UserUseCase interface {
	SignIn(ctx context.Context, post *UserModel) (*UserModel, error)
	SignUp(ctx context.Context, post *UserModel) (*UserModel, error)
	Exists(ctx context.Context, post *UserModel) (bool, error)
}

type UserRepository interface {
	FindByCredential(ctx context.Context, post *UserModel) (*UserModel, error)
	UpdateLogin(ctx context.Context, post *UserModel) error
	SaveUser(ctx context.Context, post *UserModel) error
}
