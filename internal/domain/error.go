package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Checkout / reconciliation errors
	ErrGuestResolution      = errors.New("could not create or resolve guest account")
	ErrGatewayNotConfigured = errors.New("payment gateway is not configured")
	ErrMissingMetadata      = errors.New("payment metadata is missing course or buyer linkage")
	ErrIntentNotFound       = errors.New("pending purchase intent not found or already consumed")

	// Infrastructure errors
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid transaction execution context")
)
