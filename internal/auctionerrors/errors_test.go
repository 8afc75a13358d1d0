package auctionerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpecificErrorsWrapKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{name: "auction_not_found", err: ErrAuctionNotFound, kind: ErrNotFound},
		{name: "no_bids", err: ErrNoBids, kind: ErrNotFound},
		{name: "bid_too_low", err: ErrBidTooLow, kind: ErrInvalidBid},
		{name: "below_starting_bid", err: ErrBelowStartingBid, kind: ErrInvalidBid},
		{name: "not_active", err: ErrAuctionNotActive, kind: ErrInvalidState},
		{name: "concurrent_update", err: ErrConcurrentUpdate, kind: ErrInvalidState},
		{name: "time_window", err: ErrInvalidTimeWindow, kind: ErrValidation},
		{name: "not_owner", err: ErrNotOwner, kind: ErrForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.err, tc.kind)
		})
	}
}

func TestDependency(t *testing.T) {
	require.NoError(t, Dependency("op", nil))

	wrapped := Dependency("load auction", errors.New("connection reset"))
	require.ErrorIs(t, wrapped, ErrDependencyFailure)
	require.Contains(t, wrapped.Error(), "connection reset")

	known := Dependency("load auction", ErrAuctionNotFound)
	require.ErrorIs(t, known, ErrNotFound)
	require.NotErrorIs(t, known, ErrDependencyFailure)
}
