// Package lifecycle derives an auction's lifecycle state from its time window
// and settlement flag, and guards the commands that depend on it.
package lifecycle

import (
	"fmt"
	"time"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/models"
)

// State is the derived lifecycle state of an auction
type State string

const (
	Scheduled State = "Scheduled"
	Active    State = "Active"
	Ended     State = "Ended"
	Settled   State = "Settled"
)

// StateOf derives the state at now. The settlement flag takes precedence over time.
func StateOf(a models.Auction, now time.Time) State {
	switch {
	case a.CommissionCalculated:
		return Settled
	case now.Before(a.StartTime):
		return Scheduled
	case now.Before(a.EndTime):
		return Active
	default:
		return Ended
	}
}

// CanBid allows bids only while the auction is Active
func CanBid(a models.Auction, now time.Time) error {
	state := StateOf(a, now)
	if state == Active {
		return nil
	}
	if state == Scheduled {
		return fmt.Errorf("%w - auction %s has not started yet", auctionerrors.ErrAuctionNotActive, a.AuctionID)
	}
	return fmt.Errorf("%w - auction %s has already ended", auctionerrors.ErrAuctionNotActive, a.AuctionID)
}

// CanRepublish allows a reset only once the end time has passed
func CanRepublish(a models.Auction, now time.Time) error {
	if now.Before(a.EndTime) {
		return fmt.Errorf("%w - auction %s ends at %s", auctionerrors.ErrAuctionStillActive, a.AuctionID, a.EndTime.UTC().Format(time.RFC3339))
	}
	return nil
}

// CanRemove permits the owner or an administrator, in any state
func CanRemove(a models.Auction, caller models.Caller) error {
	return CanManage(a, caller)
}

// CanManage permits the owner or an administrator to change an auction
func CanManage(a models.Auction, caller models.Caller) error {
	if caller.IsAdmin() || (caller.UserID != "" && caller.UserID == a.CreatedBy) {
		return nil
	}
	return fmt.Errorf("%w - auction %s", auctionerrors.ErrNotOwner, a.AuctionID)
}

// ValidateWindow checks that start is in the future and strictly before end
func ValidateWindow(start, end, now time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w - start and end time are mandatory", auctionerrors.ErrMissingFields)
	}
	if start.Before(now) {
		return fmt.Errorf("%w - start time must be in the future", auctionerrors.ErrInvalidTimeWindow)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w - start time must be before end time", auctionerrors.ErrInvalidTimeWindow)
	}
	return nil
}

// HasOpenAuction reports whether any of the auctions still has its end time ahead of now.
// An auctioneer may own only one such auction at a time.
func HasOpenAuction(auctions []models.Auction, now time.Time) bool {
	for _, a := range auctions {
		if !a.EndTime.Before(now) {
			return true
		}
	}
	return false
}
