package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// LedgerStore defines the durable storage for auctions, bids and users.
// Every method that touches more than one record applies all of its changes or none.
type LedgerStore interface {
	CreateAuction(ctx context.Context, auction model.Auction) error
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	FindAuctions(ctx context.Context, filter AuctionFilter) ([]model.Auction, error)
	DeleteAuction(ctx context.Context, auctionID string) error

	// RecordBid raises the auction's current bid to bid.Amount only if it is
	// strictly higher, and upserts the bidder's single bid record. Bids placed
	// at or after the stored end time are rejected.
	RecordBid(ctx context.Context, bid model.Bid) (model.Auction, error)
	GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error)
	FindBid(ctx context.Context, filter BidFilter) (model.Bid, error)

	// SettleAuction flips the settlement flag false->true and applies the winner
	// and auctioneer increments. It reports false when the auction was already
	// settled or its end time or current bid no longer match the settlement.
	SettleAuction(ctx context.Context, settlement model.Settlement) (bool, error)
	// ResetAuction reverses settled winner stats, resets bid state, deletes the
	// auction's bids and zeroes the auctioneer's unpaid commission.
	ResetAuction(ctx context.Context, republish model.Republish) (model.Auction, error)

	CreateUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, userID string) (model.User, error)
}

// AuctionFilter selects auctions; zero-valued fields do not filter
type AuctionFilter struct {
	CreatedBy     string
	Unsettled     bool
	EndTimeBefore time.Time // EndTime strictly before
	EndTimeFrom   time.Time // EndTime at or after
}

// Match reports whether the auction satisfies the filter
func (f AuctionFilter) Match(a model.Auction) bool {
	if f.CreatedBy != "" && a.CreatedBy != f.CreatedBy {
		return false
	}
	if f.Unsettled && a.CommissionCalculated {
		return false
	}
	if !f.EndTimeBefore.IsZero() && !a.EndTime.Before(f.EndTimeBefore) {
		return false
	}
	if !f.EndTimeFrom.IsZero() && a.EndTime.Before(f.EndTimeFrom) {
		return false
	}
	return true
}

// BidFilter selects a single bid of an auction by bidder and/or amount
type BidFilter struct {
	AuctionID string
	BidderID  string
	Amount    *float64
}

// Match reports whether the bid satisfies the filter
func (f BidFilter) Match(b model.Bid) bool {
	if b.AuctionID != f.AuctionID {
		return false
	}
	if f.BidderID != "" && b.BidderID != f.BidderID {
		return false
	}
	if f.Amount != nil && b.Amount != *f.Amount {
		return false
	}
	return true
}

// MemoryRepo is a concurrency-safe in-memory implementation of LedgerStore
type MemoryRepo struct {
	mu       sync.RWMutex
	auctions map[string]model.Auction         // key: auctionID -> value: auction
	bids     map[string]map[string]model.Bid // key: auctionID -> bidderID -> bid
	users    map[string]model.User            // key: userID -> value: user
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions: make(map[string]model.Auction),
		bids:     make(map[string]map[string]model.Bid),
		users:    make(map[string]model.User),
	}
}

// CreateAuction stores a new auction
func (r *MemoryRepo) CreateAuction(_ context.Context, auction model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if auction.AuctionID == "" {
		return fmt.Errorf("create auction: %w - empty auction id", auctionerrors.ErrMissingFields)
	}
	if _, exists := r.auctions[auction.AuctionID]; exists {
		return fmt.Errorf("create auction %s: %w", auction.AuctionID, auctionerrors.ErrDuplicateID)
	}
	auction.Bids = nil
	r.auctions[auction.AuctionID] = auction
	return nil
}

// GetAuction returns an auction by id
func (r *MemoryRepo) GetAuction(_ context.Context, auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return auction, nil
}

// FindAuctions returns the auctions matching the filter ordered by end time
func (r *MemoryRepo) FindAuctions(_ context.Context, filter AuctionFilter) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auctions := make([]model.Auction, 0)
	for _, a := range r.auctions {
		if filter.Match(a) {
			auctions = append(auctions, a)
		}
	}
	sortAuctions(auctions)
	return auctions, nil
}

// DeleteAuction removes an auction together with all of its bids
func (r *MemoryRepo) DeleteAuction(_ context.Context, auctionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return fmt.Errorf("delete auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	delete(r.auctions, auctionID)
	delete(r.bids, auctionID)
	return nil
}

// RecordBid records a bidder's bid and raises the auction's current bid
func (r *MemoryRepo) RecordBid(_ context.Context, bid model.Bid) (model.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok := r.auctions[bid.AuctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	if bid.BidderID == "" {
		return model.Auction{}, fmt.Errorf("record bid for auction %s: %w - empty bidder id", bid.AuctionID, auctionerrors.ErrMissingFields)
	}
	if auction.CommissionCalculated {
		return model.Auction{}, fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionSettled)
	}
	if !placedAt(bid).Before(auction.EndTime) {
		return model.Auction{}, fmt.Errorf("record bid for auction %s: %w - ended at %s", bid.AuctionID, auctionerrors.ErrAuctionNotActive, auction.EndTime.Format(time.RFC3339))
	}
	if bid.Amount <= auction.CurrentBid {
		return model.Auction{}, fmt.Errorf("record bid for auction %s: %w - current bid is %.2f", bid.AuctionID, auctionerrors.ErrBidTooLow, auction.CurrentBid)
	}

	ledger, ok := r.bids[bid.AuctionID]
	if !ok {
		ledger = make(map[string]model.Bid)
		r.bids[bid.AuctionID] = ledger
	}
	if existing, ok := ledger[bid.BidderID]; ok {
		existing.Amount = bid.Amount
		existing.BidderName = bid.BidderName
		existing.ProfileImage = bid.ProfileImage
		existing.UpdatedAt = bid.UpdatedAt
		ledger[bid.BidderID] = existing
	} else {
		ledger[bid.BidderID] = bid
	}

	auction.CurrentBid = bid.Amount
	auction.HighestBidderID = bid.BidderID
	r.auctions[bid.AuctionID] = auction
	return auction, nil
}

// GetBidsByAuction returns all bids for an auction, highest first
func (r *MemoryRepo) GetBidsByAuction(_ context.Context, auctionID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	bids := make([]model.Bid, 0, len(r.bids[auctionID]))
	for _, b := range r.bids[auctionID] {
		bids = append(bids, b)
	}
	sortBids(bids)
	return bids, nil
}

// FindBid returns the bid matching the filter. When several bids match the
// earliest placed one wins.
func (r *MemoryRepo) FindBid(_ context.Context, filter BidFilter) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		found model.Bid
		ok    bool
	)
	for _, b := range r.bids[filter.AuctionID] {
		if !filter.Match(b) {
			continue
		}
		if !ok || b.CreatedAt.Before(found.CreatedAt) || (b.CreatedAt.Equal(found.CreatedAt) && b.BidID < found.BidID) {
			found, ok = b, true
		}
	}
	if !ok {
		return model.Bid{}, fmt.Errorf("find bid for auction %s: %w", filter.AuctionID, auctionerrors.ErrBidNotFound)
	}
	return found, nil
}

// SettleAuction marks an auction settled and credits winner and auctioneer
func (r *MemoryRepo) SettleAuction(_ context.Context, s model.Settlement) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok := r.auctions[s.AuctionID]
	if !ok {
		return false, fmt.Errorf("settle auction %s: %w", s.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	if auction.CommissionCalculated || !auction.EndTime.Equal(s.EndTime) || auction.CurrentBid != s.CurrentBid {
		return false, nil
	}

	if s.WinnerID != "" {
		winner, ok := r.users[s.WinnerID]
		if !ok {
			return false, fmt.Errorf("settle auction %s: winner %s: %w", s.AuctionID, s.WinnerID, auctionerrors.ErrUserNotFound)
		}
		auctioneer, ok := r.users[s.AuctioneerID]
		if !ok {
			return false, fmt.Errorf("settle auction %s: auctioneer %s: %w", s.AuctionID, s.AuctioneerID, auctionerrors.ErrUserNotFound)
		}

		winner.MoneySpent += s.Amount
		winner.AuctionsWon++
		r.users[winner.UserID] = winner

		// re-read in case the winner is also the auctioneer
		auctioneer = r.users[auctioneer.UserID]
		auctioneer.UnpaidCommission += s.Commission
		r.users[auctioneer.UserID] = auctioneer

		auction.HighestBidderID = s.WinnerID
	}

	auction.CommissionCalculated = true
	r.auctions[s.AuctionID] = auction
	return true, nil
}

// ResetAuction puts a finished auction back into a fresh window
func (r *MemoryRepo) ResetAuction(_ context.Context, rp model.Republish) (model.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok := r.auctions[rp.AuctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("reset auction %s: %w", rp.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	if !auction.EndTime.Equal(rp.PreviousEndTime) {
		return model.Auction{}, fmt.Errorf("reset auction %s: %w", rp.AuctionID, auctionerrors.ErrConcurrentUpdate)
	}

	if auction.CommissionCalculated && auction.HighestBidderID != "" {
		if winner, ok := r.users[auction.HighestBidderID]; ok {
			winner.MoneySpent -= auction.CurrentBid
			winner.AuctionsWon--
			r.users[winner.UserID] = winner
		}
	}

	auction.StartTime = rp.StartTime
	auction.EndTime = rp.EndTime
	auction.CommissionCalculated = false
	auction.CurrentBid = 0
	auction.HighestBidderID = ""
	r.auctions[rp.AuctionID] = auction
	delete(r.bids, rp.AuctionID)

	if auctioneer, ok := r.users[rp.AuctioneerID]; ok {
		auctioneer.UnpaidCommission = 0
		r.users[auctioneer.UserID] = auctioneer
	}
	return auction, nil
}

// CreateUser stores a user profile
func (r *MemoryRepo) CreateUser(_ context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.UserID == "" {
		return fmt.Errorf("create user: %w - empty user id", auctionerrors.ErrMissingFields)
	}
	if _, exists := r.users[user.UserID]; exists {
		return fmt.Errorf("create user %s: %w", user.UserID, auctionerrors.ErrDuplicateID)
	}
	r.users[user.UserID] = user
	return nil
}

// GetUser returns a user profile by id
func (r *MemoryRepo) GetUser(_ context.Context, userID string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return user, nil
}

// placedAt is the time a bid was last raised
func placedAt(b model.Bid) time.Time {
	if b.UpdatedAt.IsZero() {
		return b.CreatedAt
	}
	return b.UpdatedAt
}

func sortAuctions(auctions []model.Auction) {
	sort.Slice(auctions, func(i, j int) bool {
		if !auctions[i].EndTime.Equal(auctions[j].EndTime) {
			return auctions[i].EndTime.Before(auctions[j].EndTime)
		}
		return auctions[i].AuctionID < auctions[j].AuctionID
	})
}

func sortBids(bids []model.Bid) {
	sort.Slice(bids, func(i, j int) bool {
		if bids[i].Amount != bids[j].Amount {
			return bids[i].Amount > bids[j].Amount
		}
		return bids[i].CreatedAt.Before(bids[j].CreatedAt)
	})
}
