package notify

import (
	"errors"
	"fmt"
)

// Sentinel errors for mail delivery.
var (
	ErrDelivery        = errors.New("notify: delivery failed")
	ErrUnauthorized    = errors.New("notify: unauthorized (invalid API key)")
	ErrUnknownTemplate = errors.New("notify: unknown template")
)

// DeliveryError is a failed send. It matches ErrDelivery.
type DeliveryError struct {
	Template   string
	StatusCode int
	Message    string
	Err        error
}

func (e *DeliveryError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("notify: %s: status %d: %s", e.Template, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("notify: %s: %v", e.Template, e.Err)
	default:
		return fmt.Sprintf("notify: %s: %s", e.Template, e.Message)
	}
}

// Is reports ErrDelivery as a match.
func (e *DeliveryError) Is(target error) bool {
	return target == ErrDelivery
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
