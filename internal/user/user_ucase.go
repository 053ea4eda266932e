package user

import (
	"context"
	"errors"
	"time"

	"github.com/pot-code/learnforge-gateway/internal/domain"
	"go.elastic.co/apm"
	"golang.org/x/crypto/bcrypt"
)

// UserUseCaseImpl ...
type UserUseCaseImpl struct {
	UserRepository domain.UserRepository
	MaxRetry       int
	RetryTimeout   time.Duration
	now            func() time.Time
}

var _ domain.UserUseCase = &UserUseCaseImpl{}

// NewUserUseCase ...
func NewUserUseCase(
	UserRepository domain.UserRepository,
	MaxRetry int,
	RetryTimeout time.Duration,
) *UserUseCaseImpl {
	return &UserUseCaseImpl{
		UserRepository: UserRepository,
		MaxRetry:       MaxRetry,
		RetryTimeout:   RetryTimeout,
		now:            time.Now,
	}
}

// SignIn verify the credential, post.Username may hold either the username or the email
func (uu *UserUseCaseImpl) SignIn(ctx context.Context, post *domain.UserModel) (*domain.UserModel, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "UserUseCase.SignIn", "service")
	defer apmSpan.End()

	ur := uu.UserRepository
	user, err := ur.FindByCredential(ctx, &domain.UserModel{Username: post.Username, Email: post.Username})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNoSuchUser
	}

	now := uu.now()
	if uu.MaxRetry > 0 && user.LoginRetry >= uu.MaxRetry {
		if now.Sub(time.Unix(user.LastLogin, 0)) < uu.RetryTimeout {
			return nil, domain.ErrUserTooManyRetry
		}
		// lock expired
		user.LoginRetry = 0
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(post.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			user.LoginRetry++
			user.LastLogin = now.Unix()
			if err := ur.UpdateLogin(ctx, user); err != nil {
				return nil, err
			}
			return nil, domain.ErrNoSuchUser
		}
		return nil, err
	}

	user.LoginRetry = 0
	user.LastLogin = now.Unix()
	if err := ur.UpdateLogin(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SignUp create a user, the password is stored as a bcrypt hash
func (uu *UserUseCaseImpl) SignUp(ctx context.Context, post *domain.UserModel) (*domain.UserModel, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "UserUseCase.SignUp", "service")
	defer apmSpan.End()

	ur := uu.UserRepository
	// username, email and learner id are each bound to one account
	if m, err := ur.FindByCredential(ctx, post); err != nil {
		return nil, err
	} else if m != nil {
		return nil, domain.ErrDuplicatedUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(post.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	post.Password = string(hash)
	post.LastLogin = uu.now().Unix()

	// save user
	if err := ur.SaveUser(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Exists find if user exists in database
func (uu *UserUseCaseImpl) Exists(ctx context.Context, post *domain.UserModel) (bool, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "UserUseCase.Exists", "service")
	defer apmSpan.End()

	user, err := uu.UserRepository.FindByCredential(ctx, post)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	return true, nil
}
