package domain

import "errors"

// ErrNoSuchUser failed to validate the credential
var ErrNoSuchUser = errors.New("No such user or password is incorrect")

// ErrDuplicatedUser unique key constraint violation
var ErrDuplicatedUser = errors.New("Username or email is already registered")

// ErrUserTooManyRetry login attempts exceeded the limit
var ErrUserTooManyRetry = errors.New("Too many failed login attempts, please retry later")

// ErrNotAuthenticated progress mutation without a signed-in learner
var ErrNotAuthenticated = errors.New("Please login to track your progress")
