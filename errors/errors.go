package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrOnlyCensoredFiles  = fmt.Errorf("censored directory contains directories")
	ErrEmptyWords         = fmt.Errorf("no words have been found")
	ErrEmptyContent       = fmt.Errorf("message content is empty")
	ErrEmptyReceiver      = fmt.Errorf("receiver is empty")
	ErrStoreFailure       = fmt.Errorf("message store failure")
	ErrSessionClosed      = fmt.Errorf("session closed")
	ErrSessionBacklogged  = fmt.Errorf("session send buffer full")
	ErrMissingToken       = fmt.Errorf("no token provided")
	ErrInvalidToken       = fmt.Errorf("invalid or expired token")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrEmailTaken         = fmt.Errorf("email already exists")
	ErrUsernameTaken      = fmt.Errorf("username already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
)
