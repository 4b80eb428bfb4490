package orders

import (
	"errors"
	"fmt"
)

var (
	ErrListingNotFound       = errors.New("listing not found or unavailable")
	ErrOrderNotFound         = errors.New("order not found")
	ErrForbidden             = errors.New("actor is not a party to this order")
	ErrInsufficientInventory = errors.New("insufficient quantity available")
	ErrInvalidQuantity       = errors.New("quantity must be positive")
	ErrInvalidTransition     = errors.New("invalid status transition")

	// ErrStoreUnavailable wraps transient store I/O failures. Nothing was
	// applied; the caller may retry.
	ErrStoreUnavailable = errors.New("order store unavailable")
)

func invalidTransition(from, to Status) error {
	return fmt.Errorf("%w: cannot change status from %s to %s", ErrInvalidTransition, from, to)
}

func cancelNotAllowed(from Status) error {
	return fmt.Errorf("%w: order cannot be cancelled from status %s", ErrInvalidTransition, from)
}
