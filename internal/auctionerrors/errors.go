package auctionerrors

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the engine wraps exactly one of these.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidBid        = errors.New("invalid bid")
	ErrInvalidState      = errors.New("invalid state")
	ErrValidation        = errors.New("validation error")
	ErrDependencyFailure = errors.New("dependency failure")
	ErrForbidden         = errors.New("forbidden")
)

// Repository-level errors
var (
	ErrAuctionNotFound  = fmt.Errorf("auction %w", ErrNotFound)
	ErrBidNotFound      = fmt.Errorf("bid %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrNoBids           = fmt.Errorf("no bids for auction: %w", ErrNotFound)
	ErrDuplicateID      = fmt.Errorf("%w: duplicate id", ErrValidation)
	ErrConcurrentUpdate = fmt.Errorf("%w: auction changed concurrently", ErrInvalidState)
)

// business logic errors
var (
	ErrMissingAmount       = fmt.Errorf("%w: missing amount", ErrInvalidBid)
	ErrBidTooLow           = fmt.Errorf("%w: amount must be higher than the current bid", ErrInvalidBid)
	ErrBelowStartingBid    = fmt.Errorf("%w: amount must be at least the starting bid", ErrInvalidBid)
	ErrAuctionNotActive    = fmt.Errorf("%w: auction is not active", ErrInvalidState)
	ErrAuctionSettled      = fmt.Errorf("%w: auction already settled", ErrInvalidState)
	ErrAuctionStillActive  = fmt.Errorf("%w: auction has not ended", ErrInvalidState)
	ErrActiveAuctionExists = fmt.Errorf("%w: auctioneer already has an active auction", ErrInvalidState)
	ErrMissingFields       = fmt.Errorf("%w: required fields missing", ErrValidation)
	ErrInvalidTimeWindow   = fmt.Errorf("%w: invalid auction time window", ErrValidation)
	ErrNotOwner            = fmt.Errorf("%w: caller does not own the auction", ErrForbidden)
)

// Dependency wraps a collaborator failure as ErrDependencyFailure unless it
// already carries a known kind.
func Dependency(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrNotFound, ErrInvalidBid, ErrInvalidState, ErrValidation, ErrForbidden, ErrDependencyFailure} {
		if errors.Is(err, kind) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, ErrDependencyFailure, err)
}
