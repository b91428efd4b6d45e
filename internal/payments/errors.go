package payments

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrGateway            = errors.New("payment gateway error")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrStore              = errors.New("payment store error")
	ErrNotFound           = errors.New("payment order not found")
	ErrForbidden          = errors.New("forbidden")
	ErrReceiptUnavailable = errors.New("receipt unavailable")

	// ErrDuplicateOrderID is returned by Repository.Create when the gateway
	// order id is already taken.
	ErrDuplicateOrderID = errors.New("duplicate gateway order id")
)

// GatewayError carries the gateway's own code and message. It matches
// ErrGateway with errors.Is.
type GatewayError struct {
	Code    string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", ErrGateway, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrGateway, e.Err)
	}
	return ErrGateway.Error()
}

func (e *GatewayError) Is(target error) bool { return target == ErrGateway }

func (e *GatewayError) Unwrap() error { return e.Err }

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, msg)
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
