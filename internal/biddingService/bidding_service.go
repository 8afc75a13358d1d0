package bidding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/lifecycle"
	"auction-engine/internal/locks"
	"auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/utils"
)

// BiddingService keeps the bid ledger: one bid per bidder per auction and a
// strictly increasing current bid
type BiddingService struct {
	repo  repository.LedgerStore
	locks *locks.KeyedMutex
	now   func() time.Time
}

// Option configures a BiddingService
type Option func(*BiddingService)

// WithClock overrides the time source used for lifecycle checks
func WithClock(now func() time.Time) Option {
	return func(s *BiddingService) { s.now = now }
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.LedgerStore, opts ...Option) *BiddingService {
	s := &BiddingService{
		repo:  repo,
		locks: locks.NewKeyedMutex(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceBid validates and records a bidder's bid on an auction.
// The returned bid carries the accepted amount, which is the auction's new current bid.
func (s *BiddingService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount float64) (models.Bid, error) {
	if auctionID == "" || bidderID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - missing auctionID or bidderID", auctionerrors.ErrMissingFields)
	}

	// read-check-write is serialized per auction; the store write is conditional as well
	unlock := s.locks.Lock(auctionID)
	defer unlock()

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Bid{}, auctionerrors.Dependency("service: failed to load auction", err)
	}

	bidder, err := s.validateBid(ctx, auction, bidderID, amount)
	if err != nil {
		return models.Bid{}, err
	}

	now := s.now().UTC()
	bid := models.Bid{
		BidID:        utils.GenerateID(),
		AuctionID:    auctionID,
		BidderID:     bidderID,
		BidderName:   bidder.UserName,
		ProfileImage: bidder.ProfileImage,
		Amount:       amount,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	existing, err := s.repo.FindBid(ctx, repository.BidFilter{AuctionID: auctionID, BidderID: bidderID})
	switch {
	case err == nil:
		bid.BidID = existing.BidID
		bid.CreatedAt = existing.CreatedAt
	case !errors.Is(err, auctionerrors.ErrBidNotFound):
		return models.Bid{}, auctionerrors.Dependency("service: failed to look up existing bid", err)
	}

	if _, err := s.repo.RecordBid(ctx, bid); err != nil {
		return models.Bid{}, auctionerrors.Dependency(fmt.Sprintf("service: failed to record bid for auction %s by bidder %s", auctionID, bidderID), err)
	}

	return bid, nil
}

// validateBid checks the bid against the auction in a fixed order and returns the bidder profile
func (s *BiddingService) validateBid(ctx context.Context, auction models.Auction, bidderID string, amount float64) (models.User, error) {
	if err := lifecycle.CanBid(auction, s.now()); err != nil {
		return models.User{}, fmt.Errorf("service: %w", err)
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return models.User{}, fmt.Errorf("service: %w - amount must be a positive number", auctionerrors.ErrMissingAmount)
	}
	if amount <= auction.CurrentBid {
		return models.User{}, fmt.Errorf("service: %w - current bid is %.2f", auctionerrors.ErrBidTooLow, auction.CurrentBid)
	}
	if amount < auction.StartingBid {
		return models.User{}, fmt.Errorf("service: %w - starting bid is %.2f", auctionerrors.ErrBelowStartingBid, auction.StartingBid)
	}

	bidder, err := s.repo.GetUser(ctx, bidderID)
	if err != nil {
		return models.User{}, auctionerrors.Dependency("service: failed to load bidder", err)
	}
	return bidder, nil
}

// GetBidsForAuction returns all bids for an auction, highest first
func (s *BiddingService) GetBidsForAuction(ctx context.Context, auctionID string) ([]models.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrMissingFields)
	}

	bids, err := s.repo.GetBidsByAuction(ctx, auctionID)
	if err != nil {
		return nil, auctionerrors.Dependency(fmt.Sprintf("service: failed to get bids for auction %s", auctionID), err)
	}

	return bids, nil
}

// GetWinningBid returns the bid currently holding the auction's highest amount
func (s *BiddingService) GetWinningBid(ctx context.Context, auctionID string) (models.Bid, error) {
	if auctionID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrMissingFields)
	}

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Bid{}, auctionerrors.Dependency("service: failed to load auction", err)
	}

	winningBid, err := ResolveWinner(ctx, s.repo, auction)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to get winning bid for auction %s: %w", auctionID, err)
	}

	return winningBid, nil
}

// ResolveWinner finds the winning bid of an auction. The bid of HighestBidderID is
// authoritative when its amount equals CurrentBid; otherwise the bid matching
// CurrentBid is used and the inconsistency is logged. ErrNoBids when there is none.
func ResolveWinner(ctx context.Context, repo repository.LedgerStore, auction models.Auction) (models.Bid, error) {
	if auction.HighestBidderID == "" && auction.CurrentBid <= 0 {
		return models.Bid{}, auctionerrors.ErrNoBids
	}

	if auction.HighestBidderID != "" {
		bid, err := repo.FindBid(ctx, repository.BidFilter{AuctionID: auction.AuctionID, BidderID: auction.HighestBidderID})
		switch {
		case err == nil && bid.Amount == auction.CurrentBid:
			return bid, nil
		case err != nil && !errors.Is(err, auctionerrors.ErrBidNotFound):
			return models.Bid{}, auctionerrors.Dependency("resolve winner", err)
		}
	}

	amount := auction.CurrentBid
	bid, err := repo.FindBid(ctx, repository.BidFilter{AuctionID: auction.AuctionID, Amount: &amount})
	if err != nil {
		if errors.Is(err, auctionerrors.ErrBidNotFound) {
			return models.Bid{}, auctionerrors.ErrNoBids
		}
		return models.Bid{}, auctionerrors.Dependency("resolve winner", err)
	}

	utils.Warn("Highest bidder does not match the winning bid", map[string]any{
		"auction_id":        auction.AuctionID,
		"highest_bidder_id": auction.HighestBidderID,
		"winner_id":         bid.BidderID,
		"current_bid":       auction.CurrentBid,
	})
	return bid, nil
}
