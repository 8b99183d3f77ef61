package utils

import "errors"

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrPaymentInProgress    = errors.New("payment already in progress for this order")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidPhoneNumber   = errors.New("invalid phone number")
	ErrInitiationFailed     = errors.New("payment initiation failed")
	ErrMalformedCallback    = errors.New("malformed callback payload")
	ErrGatewayUnavailable   = errors.New("payment gateway unavailable")
	ErrPaymentNotConfigured = errors.New("payment service not configured")
	ErrInvalidPage          = errors.New("invalid page parameter")
	ErrInvalidPageSize      = errors.New("invalid page size parameter")
	ErrDatabaseError        = errors.New("database error")
	ErrAccountNotFound      = errors.New("account not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrEmailAlreadyExists   = errors.New("email already registered")
)
