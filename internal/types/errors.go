package types

import "errors"

// Error kinds surfaced by the marketplace core. Callers branch on these with
// errors.Is; the HTTP layer maps them onto status codes in pkg/response.
var (
	ErrNotFound                = errors.New("resource not found")
	ErrInvalidState            = errors.New("invalid state for operation")
	ErrIneligibleAccount       = errors.New("account not verified or not active")
	ErrIneligibleCounterparty  = errors.New("counterparty does not meet exchange requirements")
	ErrInsufficientFunds       = errors.New("insufficient prepaid balance")
	ErrLimitExceeded           = errors.New("spending limit exceeded")
	ErrNoApplicableInstallment = errors.New("no installment covers the shipment date")
	ErrUnsupportedFrequency    = errors.New("unsupported recurrence frequency")
	ErrUnsupportedTerm         = errors.New("unsupported payment term")
)
