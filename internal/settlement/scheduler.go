package settlement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"auction-engine/internal/auctionerrors"
	bidding "auction-engine/internal/biddingService"
	"auction-engine/internal/commission"
	"auction-engine/internal/locks"
	"auction-engine/internal/models"
	"auction-engine/internal/notify"
	"auction-engine/internal/repository"
	"auction-engine/utils"
)

// DefaultInterval is the time between two sweeps
const DefaultInterval = 60 * time.Second

// Report summarizes one sweep
type Report struct {
	Due     int `json:"due"`
	Settled int `json:"settled"`
	NoBids  int `json:"no_bids"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// outcome of settling a single auction
type outcome int

const (
	outcomeSettled outcome = iota
	outcomeNoBids
	outcomeSkipped
)

// Scheduler periodically settles auctions whose end time has passed.
// Each auction is settled at most once; a failure on one auction never stops the sweep.
type Scheduler struct {
	repo     repository.LedgerStore
	sender   notify.Sender
	lease    locks.Lease
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithInterval sets the time between sweeps
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLease guards sweeps with a lease shared between instances
func WithLease(l locks.Lease) Option {
	return func(s *Scheduler) { s.lease = l }
}

// NewScheduler creates a scheduler; it does nothing until Start is called
func NewScheduler(repo repository.LedgerStore, sender notify.Sender, opts ...Option) *Scheduler {
	s := &Scheduler{
		repo:     repo,
		sender:   sender,
		lease:    locks.NewLocalLease(),
		interval: DefaultInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the sweep loop. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)

	utils.Info("Settlement scheduler started", map[string]any{
		"interval": s.interval.String(),
	})
}

// Stop ends the sweep loop and waits for an in-flight sweep to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	utils.Info("Settlement scheduler stopped", nil)
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep settles every unsettled auction whose end time is before now
func (s *Scheduler) Sweep(ctx context.Context) Report {
	var report Report

	release, ok, err := s.lease.TryAcquire(ctx)
	if err != nil {
		utils.Error("Settlement sweep could not acquire lease", map[string]any{"error": err.Error()})
		return report
	}
	if !ok {
		utils.Debug("Settlement sweep already running elsewhere", nil)
		return report
	}
	defer release()

	now := s.now().UTC()
	due, err := s.repo.FindAuctions(ctx, repository.AuctionFilter{Unsettled: true, EndTimeBefore: now})
	if err != nil {
		utils.Error("Settlement sweep failed to query due auctions", map[string]any{"error": err.Error()})
		return report
	}
	report.Due = len(due)

	for _, auction := range due {
		if ctx.Err() != nil {
			break
		}
		res, err := s.settleOne(ctx, auction)
		if err != nil {
			report.Failed++
			utils.Error("Failed to settle auction", map[string]any{
				"auction_id": auction.AuctionID,
				"error":      err.Error(),
			})
			continue
		}
		switch res {
		case outcomeSettled:
			report.Settled++
		case outcomeNoBids:
			report.NoBids++
		case outcomeSkipped:
			report.Skipped++
		}
	}

	if report.Due > 0 {
		utils.Info("Settlement sweep finished", map[string]any{
			"due":     report.Due,
			"settled": report.Settled,
			"no_bids": report.NoBids,
			"skipped": report.Skipped,
			"failed":  report.Failed,
		})
	}
	return report
}

// settleOne settles a single auction. Panics are turned into errors so the sweep carries on.
func (s *Scheduler) settleOne(ctx context.Context, auction models.Auction) (res outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while settling auction %s: %v", auction.AuctionID, r)
		}
	}()

	winning, err := bidding.ResolveWinner(ctx, s.repo, auction)
	if err != nil && !errors.Is(err, auctionerrors.ErrNoBids) {
		return 0, err
	}

	if errors.Is(err, auctionerrors.ErrNoBids) {
		applied, err := s.repo.SettleAuction(ctx, models.Settlement{
			AuctionID:    auction.AuctionID,
			AuctioneerID: auction.CreatedBy,
			CurrentBid:   auction.CurrentBid,
			EndTime:      auction.EndTime,
		})
		if err != nil {
			return 0, auctionerrors.Dependency("mark auction without bids settled", err)
		}
		if !applied {
			return outcomeSkipped, nil
		}
		utils.Info("Auction closed without bids", map[string]any{"auction_id": auction.AuctionID})
		return outcomeNoBids, nil
	}

	settlement := models.Settlement{
		AuctionID:    auction.AuctionID,
		AuctioneerID: auction.CreatedBy,
		WinnerID:     winning.BidderID,
		Amount:       winning.Amount,
		Commission:   commission.Calculate(winning.Amount),
		CurrentBid:   auction.CurrentBid,
		EndTime:      auction.EndTime,
	}
	applied, err := s.repo.SettleAuction(ctx, settlement)
	if err != nil {
		return 0, auctionerrors.Dependency("settle auction", err)
	}
	if !applied {
		utils.Info("Auction already settled or changed since it was read", map[string]any{"auction_id": auction.AuctionID})
		return outcomeSkipped, nil
	}

	utils.Info("Auction settled", map[string]any{
		"auction_id":    auction.AuctionID,
		"winner_id":     settlement.WinnerID,
		"amount":        settlement.Amount,
		"commission":    settlement.Commission,
		"auctioneer_id": settlement.AuctioneerID,
	})

	// settlement is final from here on; notification is best effort
	s.notifyWinner(ctx, auction, settlement)
	return outcomeSettled, nil
}

func (s *Scheduler) notifyWinner(ctx context.Context, auction models.Auction, settlement models.Settlement) {
	fields := map[string]any{
		"auction_id": auction.AuctionID,
		"winner_id":  settlement.WinnerID,
	}

	winner, err := s.repo.GetUser(ctx, settlement.WinnerID)
	if err != nil {
		fields["error"] = err.Error()
		utils.Error("Failed to load winner for notification", fields)
		return
	}
	auctioneer, err := s.repo.GetUser(ctx, settlement.AuctioneerID)
	if err != nil {
		fields["error"] = err.Error()
		utils.Error("Failed to load auctioneer for notification", fields)
		return
	}

	email, err := ComposeWinnerEmail(auction, winner, auctioneer, settlement.Amount)
	if err != nil {
		fields["error"] = err.Error()
		utils.Error("Failed to compose winner email", fields)
		return
	}
	if err := s.sender.Send(ctx, email); err != nil {
		fields["error"] = err.Error()
		utils.Error("Failed to send winner email", fields)
		return
	}
	utils.Info("Winner email sent", fields)
}
