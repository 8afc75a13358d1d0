package settlement

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"auction-engine/internal/auctionerrors"
	bidding "auction-engine/internal/biddingService"
	"auction-engine/internal/locks"
	model "auction-engine/internal/models"
	"auction-engine/internal/notify"
	"auction-engine/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

var (
	auctionStart = time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	auctionEnd   = auctionStart.Add(time.Hour)
	afterEnd     = auctionEnd.Add(time.Minute)
)

func clockAt(t time.Time) func() time.Time { return func() time.Time { return t } }

// seedEndedAuction stores an auctioneer, two bidders and auction "A" (starting bid 100)
func seedEndedAuction(t *testing.T) *repository.MemoryRepo {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewMemoryRepo()

	require.NoError(t, repo.CreateUser(ctx, model.User{
		UserID: "seller", UserName: "Seller", Email: "seller@example.com", Role: model.RoleAuctioneer,
		PaymentMethods: model.PaymentMethods{BankAccountName: "Seller", BankAccountNumber: "123", BankName: "Bank", PaypalEmail: "pay@example.com"},
	}))
	require.NoError(t, repo.CreateUser(ctx, model.User{UserID: "x", UserName: "X", Email: "x@example.com", Role: model.RoleBidder}))
	require.NoError(t, repo.CreateUser(ctx, model.User{UserID: "y", UserName: "Y", Email: "y@example.com", Role: model.RoleBidder}))
	require.NoError(t, repo.CreateAuction(ctx, model.Auction{
		AuctionID: "A", Title: "Lamp", StartingBid: 100,
		StartTime: auctionStart, EndTime: auctionEnd, CreatedBy: "seller",
	}))
	return repo
}

func recordBid(t *testing.T, repo repository.LedgerStore, bidID, auctionID, bidderID string, amount float64) {
	t.Helper()
	_, err := repo.RecordBid(context.Background(), model.Bid{
		BidID: bidID, AuctionID: auctionID, BidderID: bidderID, Amount: amount, CreatedAt: auctionStart,
	})
	require.NoError(t, err)
}

func TestScheduler_SettlesWinnerOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := seedEndedAuction(t)
	recordBid(t, repo, "b1", "A", "x", 150)
	recordBid(t, repo, "b1", "A", "x", 200)

	ctrl := gomock.NewController(t)
	sender := notify.NewMockSender(ctrl)
	sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e notify.Email) error {
		require.Equal(t, "x@example.com", e.To)
		require.Contains(t, e.Subject, "Lamp")
		require.Contains(t, e.Body, "200.00")
		return nil
	}).Times(1)

	scheduler := NewScheduler(repo, sender, WithClock(clockAt(afterEnd)))

	report := scheduler.Sweep(ctx)
	require.Equal(t, Report{Due: 1, Settled: 1}, report)

	// a second sweep finds nothing due and changes nothing
	report = scheduler.Sweep(ctx)
	require.Equal(t, Report{}, report)

	auction, err := repo.GetAuction(ctx, "A")
	require.NoError(t, err)
	require.True(t, auction.CommissionCalculated)
	require.Equal(t, "x", auction.HighestBidderID)

	winner, err := repo.GetUser(ctx, "x")
	require.NoError(t, err)
	require.Equal(t, 200.0, winner.MoneySpent)
	require.Equal(t, 1, winner.AuctionsWon)

	seller, err := repo.GetUser(ctx, "seller")
	require.NoError(t, err)
	require.Equal(t, 10.0, seller.UnpaidCommission)

	loser, err := repo.GetUser(ctx, "y")
	require.NoError(t, err)
	require.Zero(t, loser.AuctionsWon)
}

func TestScheduler_AuctionWithoutBids(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := seedEndedAuction(t)

	ctrl := gomock.NewController(t)
	sender := notify.NewMockSender(ctrl) // no Send expected

	report := NewScheduler(repo, sender, WithClock(clockAt(afterEnd))).Sweep(ctx)
	require.Equal(t, Report{Due: 1, NoBids: 1}, report)

	auction, err := repo.GetAuction(ctx, "A")
	require.NoError(t, err)
	require.True(t, auction.CommissionCalculated)

	seller, err := repo.GetUser(ctx, "seller")
	require.NoError(t, err)
	require.Zero(t, seller.UnpaidCommission)
}

func TestScheduler_IgnoresAuctionsNotYetEnded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := seedEndedAuction(t)
	recordBid(t, repo, "b1", "A", "x", 150)

	ctrl := gomock.NewController(t)
	sender := notify.NewMockSender(ctrl)

	// exactly at the end time the auction is not strictly past its end
	report := NewScheduler(repo, sender, WithClock(clockAt(auctionEnd))).Sweep(ctx)
	require.Equal(t, Report{}, report)

	auction, err := repo.GetAuction(ctx, "A")
	require.NoError(t, err)
	require.False(t, auction.CommissionCalculated)
}

func TestScheduler_NotificationFailureKeepsSettlement(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := seedEndedAuction(t)
	recordBid(t, repo, "b1", "A", "x", 300)

	ctrl := gomock.NewController(t)
	sender := notify.NewMockSender(ctrl)
	sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("smtp down")).Times(1)

	report := NewScheduler(repo, sender, WithClock(clockAt(afterEnd))).Sweep(ctx)
	require.Equal(t, Report{Due: 1, Settled: 1}, report)

	auction, err := repo.GetAuction(ctx, "A")
	require.NoError(t, err)
	require.True(t, auction.CommissionCalculated)

	seller, err := repo.GetUser(ctx, "seller")
	require.NoError(t, err)
	require.Equal(t, 15.0, seller.UnpaidCommission)
}

func TestScheduler_IsolatesPerAuctionFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctrl := gomock.NewController(t)
	store := repository.NewMockLedgerStore(ctrl)
	sender := notify.NewMockSender(ctrl)

	broken := model.Auction{AuctionID: "broken", CreatedBy: "s", HighestBidderID: "u1", CurrentBid: 100, EndTime: auctionEnd}
	good := model.Auction{AuctionID: "good", CreatedBy: "s", HighestBidderID: "u2", CurrentBid: 200, EndTime: auctionEnd}
	raced := model.Auction{AuctionID: "raced", CreatedBy: "s", EndTime: auctionEnd}
	failing := model.Auction{AuctionID: "failing", CreatedBy: "s", EndTime: auctionEnd}

	store.EXPECT().FindAuctions(gomock.Any(), repository.AuctionFilter{Unsettled: true, EndTimeBefore: afterEnd}).
		Return([]model.Auction{broken, good, raced, failing}, nil)

	// broken: the ledger read fails
	store.EXPECT().FindBid(gomock.Any(), repository.BidFilter{AuctionID: "broken", BidderID: "u1"}).
		Return(model.Bid{}, errors.New("read timeout"))

	// good: settles and notifies
	store.EXPECT().FindBid(gomock.Any(), repository.BidFilter{AuctionID: "good", BidderID: "u2"}).
		Return(model.Bid{AuctionID: "good", BidderID: "u2", Amount: 200}, nil)
	store.EXPECT().SettleAuction(gomock.Any(), model.Settlement{
		AuctionID: "good", AuctioneerID: "s", WinnerID: "u2", Amount: 200, Commission: 10, CurrentBid: 200, EndTime: auctionEnd,
	}).Return(true, nil)
	store.EXPECT().GetUser(gomock.Any(), "u2").Return(model.User{UserID: "u2", Email: "u2@example.com"}, nil)
	store.EXPECT().GetUser(gomock.Any(), "s").Return(model.User{UserID: "s", Email: "s@example.com"}, nil)
	sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	// raced: an overlapping sweep settled it first
	store.EXPECT().SettleAuction(gomock.Any(), model.Settlement{AuctionID: "raced", AuctioneerID: "s", EndTime: auctionEnd}).
		Return(false, nil)

	// failing: the conditional write fails
	store.EXPECT().SettleAuction(gomock.Any(), model.Settlement{AuctionID: "failing", AuctioneerID: "s", EndTime: auctionEnd}).
		Return(false, errors.New("disk full"))

	report := NewScheduler(store, sender, WithClock(clockAt(afterEnd))).Sweep(ctx)
	require.Equal(t, Report{Due: 4, Settled: 1, Skipped: 1, Failed: 2}, report)
}

// lateBidStore places a bid through the bidding service right before the first settlement write
type lateBidStore struct {
	repository.LedgerStore
	once  sync.Once
	place func()
}

func (s *lateBidStore) SettleAuction(ctx context.Context, settlement model.Settlement) (bool, error) {
	s.once.Do(s.place)
	return s.LedgerStore.SettleAuction(ctx, settlement)
}

func TestScheduler_BidLandingBeforeSettleIsNotLost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := seedEndedAuction(t)
	recordBid(t, repo, "b1", "A", "x", 150)

	service := bidding.NewBiddingService(repo, bidding.WithClock(clockAt(auctionEnd.Add(-time.Nanosecond))))
	store := &lateBidStore{LedgerStore: repo, place: func() {
		_, err := service.PlaceBid(ctx, "A", "y", 300)
		require.NoError(t, err)
	}}

	ctrl := gomock.NewController(t)
	sender := notify.NewMockSender(ctrl)
	sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e notify.Email) error {
		require.Equal(t, "y@example.com", e.To)
		return nil
	}).Times(1)

	scheduler := NewScheduler(store, sender, WithClock(clockAt(afterEnd)))

	// the winner resolved from the 150 bid is stale once y bids 300
	report := scheduler.Sweep(ctx)
	require.Equal(t, Report{Due: 1, Skipped: 1}, report)

	auction, err := repo.GetAuction(ctx, "A")
	require.NoError(t, err)
	require.False(t, auction.CommissionCalculated)
	require.Equal(t, "y", auction.HighestBidderID)

	report = scheduler.Sweep(ctx)
	require.Equal(t, Report{Due: 1, Settled: 1}, report)

	x, err := repo.GetUser(ctx, "x")
	require.NoError(t, err)
	require.Zero(t, x.MoneySpent)
	require.Zero(t, x.AuctionsWon)

	y, err := repo.GetUser(ctx, "y")
	require.NoError(t, err)
	require.Equal(t, 300.0, y.MoneySpent)
	require.Equal(t, 1, y.AuctionsWon)

	seller, err := repo.GetUser(ctx, "seller")
	require.NoError(t, err)
	require.Equal(t, 15.0, seller.UnpaidCommission)
}

func TestScheduler_QueryFailureEndsSweep(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := repository.NewMockLedgerStore(ctrl)
	store.EXPECT().FindAuctions(gomock.Any(), gomock.Any()).Return(nil, auctionerrors.ErrDependencyFailure)

	report := NewScheduler(store, notify.NewMockSender(ctrl), WithClock(clockAt(afterEnd))).Sweep(context.Background())
	require.Equal(t, Report{}, report)
}

func TestScheduler_SkipsWhenLeaseHeld(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := repository.NewMockLedgerStore(ctrl) // no calls expected

	lease := locks.NewLocalLease()
	release, ok, err := lease.TryAcquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	defer release()

	report := NewScheduler(store, notify.NewMockSender(ctrl), WithLease(lease)).Sweep(context.Background())
	require.Equal(t, Report{}, report)
}

func TestScheduler_OverlappingSweepsSettleOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := seedEndedAuction(t)
	recordBid(t, repo, "b1", "A", "x", 200)

	var sent int32
	ctrl := gomock.NewController(t)
	sender := notify.NewMockSender(ctrl)
	sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, notify.Email) error {
		atomic.AddInt32(&sent, 1)
		return nil
	}).AnyTimes()

	// separate leases so the sweeps really overlap and only the store guards them
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			NewScheduler(repo, sender, WithClock(clockAt(afterEnd)), WithLease(locks.NewLocalLease())).Sweep(ctx)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&sent))

	winner, err := repo.GetUser(ctx, "x")
	require.NoError(t, err)
	require.Equal(t, 200.0, winner.MoneySpent)
	require.Equal(t, 1, winner.AuctionsWon)

	seller, err := repo.GetUser(ctx, "seller")
	require.NoError(t, err)
	require.Equal(t, 10.0, seller.UnpaidCommission)
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	repo := seedEndedAuction(t)
	recordBid(t, repo, "b1", "A", "x", 200)

	ctrl := gomock.NewController(t)
	sender := notify.NewMockSender(ctrl)
	sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	scheduler := NewScheduler(repo, sender, WithInterval(10*time.Millisecond), WithClock(clockAt(afterEnd)))
	scheduler.Start(context.Background())
	scheduler.Start(context.Background())

	require.Eventually(t, func() bool {
		a, err := repo.GetAuction(context.Background(), "A")
		return err == nil && a.CommissionCalculated
	}, 2*time.Second, 10*time.Millisecond)

	scheduler.Stop()
	scheduler.Stop()
}

func TestScheduler_StopsWithParentContext(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := repository.NewMockLedgerStore(ctrl)
	store.EXPECT().FindAuctions(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	scheduler := NewScheduler(store, notify.NewMockSender(ctrl), WithInterval(5*time.Millisecond))
	scheduler.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
