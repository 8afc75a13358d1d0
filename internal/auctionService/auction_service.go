package auction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/lifecycle"
	"auction-engine/internal/locks"
	"auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/utils"
)

// CreateAuctionInput carries the fields an auctioneer supplies for a new listing
type CreateAuctionInput struct {
	Title       string
	Description string
	Category    string
	Condition   string
	ImageURL    string
	StartingBid float64
	StartTime   time.Time
	EndTime     time.Time
}

// AuctionService implements the auction listing workflows
type AuctionService struct {
	repo       repository.LedgerStore
	ownerLocks *locks.KeyedMutex
	now        func() time.Time
}

// Option configures an AuctionService
type Option func(*AuctionService)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *AuctionService) { s.now = now }
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(repo repository.LedgerStore, opts ...Option) *AuctionService {
	s := &AuctionService{
		repo:       repo,
		ownerLocks: locks.NewKeyedMutex(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAuction lists a new auction for the calling auctioneer.
// An auctioneer may own only one auction whose end time has not passed.
func (s *AuctionService) CreateAuction(ctx context.Context, caller models.Caller, in CreateAuctionInput) (models.Auction, error) {
	if caller.UserID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - missing caller", auctionerrors.ErrMissingFields)
	}
	if err := validateInput(in); err != nil {
		return models.Auction{}, err
	}

	now := s.now().UTC()
	if err := lifecycle.ValidateWindow(in.StartTime, in.EndTime, now); err != nil {
		return models.Auction{}, fmt.Errorf("service: %w", err)
	}

	if _, err := s.repo.GetUser(ctx, caller.UserID); err != nil {
		return models.Auction{}, auctionerrors.Dependency("service: failed to load auctioneer", err)
	}

	// check-then-create is serialized per auctioneer
	unlock := s.ownerLocks.Lock(caller.UserID)
	defer unlock()

	owned, err := s.repo.FindAuctions(ctx, repository.AuctionFilter{CreatedBy: caller.UserID})
	if err != nil {
		return models.Auction{}, auctionerrors.Dependency("service: failed to list auctioneer auctions", err)
	}
	if lifecycle.HasOpenAuction(owned, now) {
		return models.Auction{}, fmt.Errorf("service: %w", auctionerrors.ErrActiveAuctionExists)
	}

	auction := models.Auction{
		AuctionID:   utils.GenerateID(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Condition:   strings.TrimSpace(in.Condition),
		ImageURL:    in.ImageURL,
		StartingBid: in.StartingBid,
		StartTime:   in.StartTime.UTC(),
		EndTime:     in.EndTime.UTC(),
		CreatedBy:   caller.UserID,
		CreatedAt:   now,
	}
	if err := s.repo.CreateAuction(ctx, auction); err != nil {
		return models.Auction{}, auctionerrors.Dependency("service: failed to create auction", err)
	}

	utils.Info("Auction created", map[string]any{
		"auction_id": auction.AuctionID,
		"created_by": auction.CreatedBy,
		"start_time": auction.StartTime,
		"end_time":   auction.EndTime,
	})
	return auction, nil
}

func validateInput(in CreateAuctionInput) error {
	fields := []struct{ name, value string }{
		{"title", in.Title},
		{"description", in.Description},
		{"category", in.Category},
		{"condition", in.Condition},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("service: %w - %s", auctionerrors.ErrMissingFields, strings.Join(missing, ", "))
	}
	if in.StartingBid <= 0 {
		return fmt.Errorf("service: %w - starting bid must be positive", auctionerrors.ErrMissingFields)
	}
	return nil
}

// GetAuction returns an auction with its bidders rebuilt from the bid ledger, highest first
func (s *AuctionService) GetAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	if auctionID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrMissingFields)
	}

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Auction{}, auctionerrors.Dependency("service: failed to load auction", err)
	}

	bids, err := s.repo.GetBidsByAuction(ctx, auctionID)
	if err != nil {
		return models.Auction{}, auctionerrors.Dependency("service: failed to load bidders", err)
	}
	auction.Bids = make([]models.BidSummary, 0, len(bids))
	for _, b := range bids {
		auction.Bids = append(auction.Bids, b.Summary())
	}
	return auction, nil
}

// ListAuctions returns every auction ordered by end time
func (s *AuctionService) ListAuctions(ctx context.Context) ([]models.Auction, error) {
	auctions, err := s.repo.FindAuctions(ctx, repository.AuctionFilter{})
	if err != nil {
		return nil, auctionerrors.Dependency("service: failed to list auctions", err)
	}
	return auctions, nil
}

// ListAuctionsByAuctioneer returns the auctions created by one auctioneer
func (s *AuctionService) ListAuctionsByAuctioneer(ctx context.Context, auctioneerID string) ([]models.Auction, error) {
	if auctioneerID == "" {
		return nil, fmt.Errorf("service: %w - empty auctioneer ID", auctionerrors.ErrMissingFields)
	}

	auctions, err := s.repo.FindAuctions(ctx, repository.AuctionFilter{CreatedBy: auctioneerID})
	if err != nil {
		return nil, auctionerrors.Dependency(fmt.Sprintf("service: failed to list auctions of %s", auctioneerID), err)
	}
	return auctions, nil
}

// RemoveAuction deletes an auction and all of its bids
func (s *AuctionService) RemoveAuction(ctx context.Context, caller models.Caller, auctionID string) error {
	if auctionID == "" {
		return fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrMissingFields)
	}

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return auctionerrors.Dependency("service: failed to load auction", err)
	}
	if err := lifecycle.CanRemove(auction, caller); err != nil {
		return fmt.Errorf("service: %w", err)
	}

	if err := s.repo.DeleteAuction(ctx, auctionID); err != nil {
		return auctionerrors.Dependency(fmt.Sprintf("service: failed to delete auction %s", auctionID), err)
	}

	utils.Info("Auction removed", map[string]any{
		"auction_id": auctionID,
		"removed_by": caller.UserID,
		"role":       caller.Role,
		"state":      lifecycle.StateOf(auction, s.now()),
	})
	return nil
}

// Republish resets a finished auction into a new window. A settled winner's
// statistics are reversed, all bids are deleted and the auctioneer's unpaid
// commission is reset to zero in one store operation.
func (s *AuctionService) Republish(ctx context.Context, caller models.Caller, auctionID string, start, end time.Time) (models.Auction, error) {
	if auctionID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrMissingFields)
	}
	if start.IsZero() || end.IsZero() {
		return models.Auction{}, fmt.Errorf("service: %w - starting and ending time are mandatory", auctionerrors.ErrMissingFields)
	}

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Auction{}, auctionerrors.Dependency("service: failed to load auction", err)
	}
	if err := lifecycle.CanManage(auction, caller); err != nil {
		return models.Auction{}, fmt.Errorf("service: %w", err)
	}

	now := s.now().UTC()
	if err := lifecycle.CanRepublish(auction, now); err != nil {
		return models.Auction{}, fmt.Errorf("service: %w", err)
	}
	if err := lifecycle.ValidateWindow(start, end, now); err != nil {
		return models.Auction{}, fmt.Errorf("service: %w", err)
	}

	republished, err := s.repo.ResetAuction(ctx, models.Republish{
		AuctionID:       auctionID,
		AuctioneerID:    auction.CreatedBy,
		PreviousEndTime: auction.EndTime,
		StartTime:       start.UTC(),
		EndTime:         end.UTC(),
	})
	if err != nil {
		return models.Auction{}, auctionerrors.Dependency(fmt.Sprintf("service: failed to republish auction %s", auctionID), err)
	}

	utils.Info("Auction republished", map[string]any{
		"auction_id":        auctionID,
		"was_settled":       auction.CommissionCalculated,
		"reversed_winner":   auction.HighestBidderID,
		"reversed_amount":   auction.CurrentBid,
		"new_start_time":    republished.StartTime,
		"new_end_time":      republished.EndTime,
		"republished_by":    caller.UserID,
		"previous_end_time": auction.EndTime,
	})
	republished.Bids = []models.BidSummary{}
	return republished, nil
}

// RegisterUser stores a profile handed over by the identity provider
func (s *AuctionService) RegisterUser(ctx context.Context, user models.User) (models.User, error) {
	if user.UserID == "" || strings.TrimSpace(user.UserName) == "" || strings.TrimSpace(user.Email) == "" {
		return models.User{}, fmt.Errorf("service: %w - user id, name and email are mandatory", auctionerrors.ErrMissingFields)
	}
	switch user.Role {
	case models.RoleAuctioneer, models.RoleBidder, models.RoleSuperAdmin:
	default:
		return models.User{}, fmt.Errorf("service: %w - unknown role %q", auctionerrors.ErrValidation, user.Role)
	}

	// statistics are owned by settlement
	user.MoneySpent = 0
	user.AuctionsWon = 0
	user.UnpaidCommission = 0

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return models.User{}, auctionerrors.Dependency("service: failed to register user", err)
	}
	return user, nil
}

// GetUser returns a stored profile
func (s *AuctionService) GetUser(ctx context.Context, userID string) (models.User, error) {
	if userID == "" {
		return models.User{}, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrMissingFields)
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, auctionerrors.Dependency("service: failed to load user", err)
	}
	return user, nil
}
