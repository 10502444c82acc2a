package billing

import "errors"

var (
	// ErrGatewayUnavailable is returned when a provider cannot be reached
	ErrGatewayUnavailable = errors.New("billing: payment gateway unavailable")

	// ErrGatewayRequestFailed is returned when a provider rejects a request
	ErrGatewayRequestFailed = errors.New("billing: payment gateway request failed")

	// ErrInvalidSignature is returned when a webhook fails verification
	ErrInvalidSignature = errors.New("billing: invalid webhook signature")
)
