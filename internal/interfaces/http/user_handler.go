package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/learnforge-gateway/internal/domain"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/auth"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/driver"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/validate"
	"github.com/pot-code/learnforge-gateway/internal/progress"
)

// UserHandler user related operations
type UserHandler struct {
	JWTUtil     *auth.JWTUtil
	KVStore     driver.KeyValueDB
	UserUseCase domain.UserUseCase
	Registry    *progress.Registry
	Validator   validate.Validator
}

// NewUserHandler create an user controller instance
func NewUserHandler(
	JWTUtil *auth.JWTUtil,
	KVStore driver.KeyValueDB,
	UserUseCase domain.UserUseCase,
	Registry *progress.Registry,
	Validator validate.Validator,
) *UserHandler {
	handler := &UserHandler{
		JWTUtil:     JWTUtil,
		UserUseCase: UserUseCase,
		Validator:   Validator,
		KVStore:     KVStore,
		Registry:    Registry,
	}
	return handler
}

type signInPost struct {
	Username string `json:"username" validate:"required"` // username or email
	Password string `json:"password" validate:"required"`
}

type userView struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	LearnerID int    `json:"learner_id"`
}

// HandleSignIn ...
func (uh *UserHandler) HandleSignIn(c echo.Context) (err error) {
	ju := uh.JWTUtil

	// parse body
	post := new(signInPost)
	if err = c.Bind(post); err != nil {
		return c.JSON(http.StatusUnprocessableEntity,
			NewRESTStandardError(http.StatusUnprocessableEntity, "Failed to bind user entity").SetTraceID(traceID(c)))
	}
	if errs := uh.Validator.Struct(post); errs != nil {
		return c.JSON(http.StatusBadRequest,
			NewRESTValidationError(http.StatusBadRequest, "Failed to validate fields", errs).SetTraceID(traceID(c)))
	}

	user, err := uh.UserUseCase.SignIn(c.Request().Context(), &domain.UserModel{
		Username: post.Username,
		Password: post.Password,
	})
	switch {
	case errors.Is(err, domain.ErrNoSuchUser):
		return c.JSON(http.StatusUnauthorized, NewRESTStandardError(http.StatusUnauthorized, err.Error()).SetTraceID(traceID(c)))
	case errors.Is(err, domain.ErrUserTooManyRetry):
		return c.JSON(http.StatusForbidden, NewRESTStandardError(http.StatusForbidden, err.Error()).SetTraceID(traceID(c)))
	case err != nil:
		return err
	}

	// issue JWT
	tokenStr, err := ju.GenerateTokenStr(user)
	if err != nil {
		return err
	}
	ju.SetClientToken(c, tokenStr)
	return c.JSON(http.StatusOK, &userView{user.Username, user.Email, user.LearnerID})
}

// HandleSignUp ...
func (uh *UserHandler) HandleSignUp(c echo.Context) (err error) {
	post := new(domain.UserModel)
	if err = c.Bind(post); err != nil {
		return c.JSON(http.StatusUnprocessableEntity,
			NewRESTStandardError(http.StatusUnprocessableEntity, "Failed to bind user entity").SetTraceID(traceID(c)))
	}

	// validation
	if errs := uh.Validator.Struct(post); errs != nil {
		return c.JSON(http.StatusBadRequest,
			NewRESTValidationError(http.StatusBadRequest, "Failed to validate fields", errs).SetTraceID(traceID(c)))
	}

	// register
	user, err := uh.UserUseCase.SignUp(c.Request().Context(), post)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicatedUser) {
			return c.JSON(http.StatusConflict, NewRESTStandardError(http.StatusConflict, err.Error()).SetTraceID(traceID(c)))
		}
		return err
	}
	return c.JSON(http.StatusCreated, &userView{user.Username, user.Email, user.LearnerID})
}

// HandleSignOut blacklist the token for its remaining lifetime and forget the cached progress
func (uh *UserHandler) HandleSignOut(c echo.Context) (err error) {
	ju := uh.JWTUtil
	kv := uh.KVStore

	tokenStr, err := ju.ExtractToken(c)
	if err != nil {
		return c.NoContent(http.StatusOK)
	}
	token, err := ju.Validate(tokenStr)
	if err != nil {
		ju.ClearClientToken(c)
		return c.NoContent(http.StatusUnauthorized)
	}
	if err := kv.SetEX(c.Request().Context(), tokenStr, "", token.TimeRemaining()); err != nil {
		return err
	}
	ju.ClearClientToken(c)
	uh.Registry.Drop(token.LearnerID)
	return c.NoContent(http.StatusOK)
}

// HandleUserExists ...
func (uh *UserHandler) HandleUserExists(c echo.Context) (err error) {
	post := new(domain.UserModel)
	post.Username = c.QueryParam("username")
	post.Email = c.QueryParam("email")

	if err := uh.Validator.AllEmpty([]string{"username", "email"}, post.Username, post.Email); err != nil {
		return c.JSON(http.StatusBadRequest,
			NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", []*validate.FieldError{err}).SetTraceID(traceID(c)))
	}

	existing, err := uh.UserUseCase.Exists(c.Request().Context(), post)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, existing)
}
