package domain

import "errors"

var (
	ErrValidation            = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidWithdrawalCode = errors.New("invalid withdrawal code")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrAccountNotFound       = errors.New("account not found")
	ErrActivityNotFound      = errors.New("activity not found")
	ErrInvalidActivityState  = errors.New("activity is not a pending withdrawal")
)
