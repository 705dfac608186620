package user

import "errors"

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotStaff           = errors.New("user is not an active staff member")
	ErrInvalidToken       = errors.New("invalid token")
	ErrSelfDeactivation   = errors.New("cannot deactivate your own account")
)

// pq error code for unique_violation.
const pgUniqueViolation = "23505"
