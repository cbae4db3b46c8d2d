package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Payment channel errors
	ErrInvalidSignature        = errors.New("invalid webhook signature")
	ErrInvalidPhoneFormat      = errors.New("invalid phone number format")
	ErrUnknownReference        = errors.New("unknown payment reference")
	ErrPaymentInitiationFailed = errors.New("payment initiation failed")
	ErrUnavailable             = errors.New("payment provider not configured")
	ErrForbidden               = errors.New("operation not permitted")
)
