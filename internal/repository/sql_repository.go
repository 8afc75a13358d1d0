package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  user_name TEXT NOT NULL,
  email TEXT NOT NULL DEFAULT '',
  profile_image TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'Bidder',
  bank_account_name TEXT NOT NULL DEFAULT '',
  bank_account_number TEXT NOT NULL DEFAULT '',
  bank_name TEXT NOT NULL DEFAULT '',
  razorpay_number TEXT NOT NULL DEFAULT '',
  paypal_email TEXT NOT NULL DEFAULT '',
  money_spent REAL NOT NULL DEFAULT 0,
  auctions_won INTEGER NOT NULL DEFAULT 0,
  unpaid_commission REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS auctions(
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  category TEXT NOT NULL,
  item_condition TEXT NOT NULL,
  image_url TEXT NOT NULL DEFAULT '',
  starting_bid REAL NOT NULL CHECK (starting_bid >= 0),
  current_bid REAL NOT NULL DEFAULT 0,
  highest_bidder_id TEXT NOT NULL DEFAULT '',
  start_time INTEGER NOT NULL,
  end_time INTEGER NOT NULL,
  commission_calculated INTEGER NOT NULL DEFAULT 0,
  created_by TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_auctions_created_by ON auctions(created_by);
CREATE INDEX IF NOT EXISTS idx_auctions_unsettled ON auctions(commission_calculated, end_time);

CREATE TABLE IF NOT EXISTS bids(
  id TEXT PRIMARY KEY,
  auction_id TEXT NOT NULL,
  bidder_id TEXT NOT NULL,
  bidder_name TEXT NOT NULL DEFAULT '',
  profile_image TEXT NOT NULL DEFAULT '',
  amount REAL NOT NULL CHECK (amount > 0),
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_bids_auction_bidder ON bids(auction_id, bidder_id);
CREATE INDEX IF NOT EXISTS idx_bids_auction_amount ON bids(auction_id, amount);
`

const auctionColumns = `id, title, description, category, item_condition, image_url, starting_bid, current_bid,
	highest_bidder_id, start_time, end_time, commission_calculated, created_by, created_at`

const bidColumns = `id, auction_id, bidder_id, bidder_name, profile_image, amount, created_at, updated_at`

const userColumns = `id, user_name, email, profile_image, role, bank_account_name, bank_account_number,
	bank_name, razorpay_number, paypal_email, money_spent, auctions_won, unpaid_commission`

// auctionRow is the persistence shape of an auction; times are unix nanoseconds
type auctionRow struct {
	ID                   string  `db:"id"`
	Title                string  `db:"title"`
	Description          string  `db:"description"`
	Category             string  `db:"category"`
	Condition            string  `db:"item_condition"`
	ImageURL             string  `db:"image_url"`
	StartingBid          float64 `db:"starting_bid"`
	CurrentBid           float64 `db:"current_bid"`
	HighestBidderID      string  `db:"highest_bidder_id"`
	StartTime            int64   `db:"start_time"`
	EndTime              int64   `db:"end_time"`
	CommissionCalculated bool    `db:"commission_calculated"`
	CreatedBy            string  `db:"created_by"`
	CreatedAt            int64   `db:"created_at"`
}

type bidRow struct {
	ID           string  `db:"id"`
	AuctionID    string  `db:"auction_id"`
	BidderID     string  `db:"bidder_id"`
	BidderName   string  `db:"bidder_name"`
	ProfileImage string  `db:"profile_image"`
	Amount       float64 `db:"amount"`
	CreatedAt    int64   `db:"created_at"`
	UpdatedAt    int64   `db:"updated_at"`
}

type userRow struct {
	ID                string  `db:"id"`
	UserName          string  `db:"user_name"`
	Email             string  `db:"email"`
	ProfileImage      string  `db:"profile_image"`
	Role              string  `db:"role"`
	BankAccountName   string  `db:"bank_account_name"`
	BankAccountNumber string  `db:"bank_account_number"`
	BankName          string  `db:"bank_name"`
	RazorpayNumber    string  `db:"razorpay_number"`
	PaypalEmail       string  `db:"paypal_email"`
	MoneySpent        float64 `db:"money_spent"`
	AuctionsWon       int     `db:"auctions_won"`
	UnpaidCommission  float64 `db:"unpaid_commission"`
}

// SQLRepo is a LedgerStore backed by sqlite through sqlx.
// Multi-record operations run inside a single transaction.
type SQLRepo struct {
	db *sqlx.DB
}

// OpenSQLRepo opens the sqlite database at dsn and ensures the schema exists
func OpenSQLRepo(ctx context.Context, dsn string) (*SQLRepo, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	// sqlite has a single writer; one connection also keeps ":memory:" databases alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping ledger db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure ledger schema: %w", err)
	}
	return &SQLRepo{db: db}, nil
}

// Close releases the underlying database
func (r *SQLRepo) Close() error {
	return r.db.Close()
}

func (r *SQLRepo) runTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// CreateAuction stores a new auction
func (r *SQLRepo) CreateAuction(ctx context.Context, auction model.Auction) error {
	if auction.AuctionID == "" {
		return fmt.Errorf("create auction: %w - empty auction id", auctionerrors.ErrMissingFields)
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO auctions(`+auctionColumns+`)
		VALUES (:id, :title, :description, :category, :item_condition, :image_url, :starting_bid, :current_bid,
			:highest_bidder_id, :start_time, :end_time, :commission_calculated, :created_by, :created_at)
	`, toAuctionRow(auction))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create auction %s: %w", auction.AuctionID, auctionerrors.ErrDuplicateID)
		}
		return fmt.Errorf("create auction %s: %w", auction.AuctionID, err)
	}
	return nil
}

// GetAuction returns an auction by id
func (r *SQLRepo) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	return getAuction(ctx, r.db, auctionID)
}

// FindAuctions returns the auctions matching the filter ordered by end time
func (r *SQLRepo) FindAuctions(ctx context.Context, filter AuctionFilter) ([]model.Auction, error) {
	var (
		where []string
		args  []any
	)
	if filter.CreatedBy != "" {
		where = append(where, "created_by = ?")
		args = append(args, filter.CreatedBy)
	}
	if filter.Unsettled {
		where = append(where, "commission_calculated = 0")
	}
	if !filter.EndTimeBefore.IsZero() {
		where = append(where, "end_time < ?")
		args = append(args, filter.EndTimeBefore.UnixNano())
	}
	if !filter.EndTimeFrom.IsZero() {
		where = append(where, "end_time >= ?")
		args = append(args, filter.EndTimeFrom.UnixNano())
	}

	query := `SELECT ` + auctionColumns + ` FROM auctions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY end_time, id`

	var rows []auctionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("find auctions: %w", err)
	}
	auctions := make([]model.Auction, 0, len(rows))
	for _, row := range rows {
		auctions = append(auctions, row.toModel())
	}
	return auctions, nil
}

// DeleteAuction removes an auction together with all of its bids
func (r *SQLRepo) DeleteAuction(ctx context.Context, auctionID string) error {
	return r.runTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM bids WHERE auction_id = ?`, auctionID); err != nil {
			return fmt.Errorf("delete bids of auction %s: %w", auctionID, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM auctions WHERE id = ?`, auctionID)
		if err != nil {
			return fmt.Errorf("delete auction %s: %w", auctionID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("delete auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
		}
		return nil
	})
}

// RecordBid raises the current bid with a conditional update and upserts the bidder's bid
func (r *SQLRepo) RecordBid(ctx context.Context, bid model.Bid) (model.Auction, error) {
	if bid.BidderID == "" {
		return model.Auction{}, fmt.Errorf("record bid for auction %s: %w - empty bidder id", bid.AuctionID, auctionerrors.ErrMissingFields)
	}

	var auction model.Auction
	err := r.runTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE auctions
			SET current_bid = ?, highest_bidder_id = ?
			WHERE id = ? AND commission_calculated = 0 AND current_bid < ? AND end_time > ?
		`, bid.Amount, bid.BidderID, bid.AuctionID, bid.Amount, placedAt(bid).UnixNano())
		if err != nil {
			return fmt.Errorf("raise current bid of auction %s: %w", bid.AuctionID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			current, err := getAuction(ctx, tx, bid.AuctionID)
			if err != nil {
				return fmt.Errorf("record bid: %w", err)
			}
			if current.CommissionCalculated {
				return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionSettled)
			}
			if !placedAt(bid).Before(current.EndTime) {
				return fmt.Errorf("record bid for auction %s: %w - ended at %s", bid.AuctionID, auctionerrors.ErrAuctionNotActive, current.EndTime.Format(time.RFC3339))
			}
			return fmt.Errorf("record bid for auction %s: %w - current bid is %.2f", bid.AuctionID, auctionerrors.ErrBidTooLow, current.CurrentBid)
		}

		row := toBidRow(bid)
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO bids(`+bidColumns+`)
			VALUES (:id, :auction_id, :bidder_id, :bidder_name, :profile_image, :amount, :created_at, :updated_at)
			ON CONFLICT(auction_id, bidder_id) DO UPDATE SET
				amount = excluded.amount,
				bidder_name = excluded.bidder_name,
				profile_image = excluded.profile_image,
				updated_at = excluded.updated_at
		`, row)
		if err != nil {
			return fmt.Errorf("upsert bid for auction %s: %w", bid.AuctionID, err)
		}

		auction, err = getAuction(ctx, tx, bid.AuctionID)
		return err
	})
	if err != nil {
		return model.Auction{}, err
	}
	return auction, nil
}

// GetBidsByAuction returns all bids for an auction, highest first
func (r *SQLRepo) GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if _, err := getAuction(ctx, r.db, auctionID); err != nil {
		return nil, fmt.Errorf("get bids: %w", err)
	}

	var rows []bidRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+bidColumns+` FROM bids
		WHERE auction_id = ?
		ORDER BY amount DESC, created_at, id
	`, auctionID)
	if err != nil {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, err)
	}
	bids := make([]model.Bid, 0, len(rows))
	for _, row := range rows {
		bids = append(bids, row.toModel())
	}
	return bids, nil
}

// FindBid returns the earliest bid matching the filter
func (r *SQLRepo) FindBid(ctx context.Context, filter BidFilter) (model.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE auction_id = ?`
	args := []any{filter.AuctionID}
	if filter.BidderID != "" {
		query += ` AND bidder_id = ?`
		args = append(args, filter.BidderID)
	}
	if filter.Amount != nil {
		query += ` AND amount = ?`
		args = append(args, *filter.Amount)
	}
	query += ` ORDER BY created_at, id LIMIT 1`

	var row bidRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Bid{}, fmt.Errorf("find bid for auction %s: %w", filter.AuctionID, auctionerrors.ErrBidNotFound)
		}
		return model.Bid{}, fmt.Errorf("find bid for auction %s: %w", filter.AuctionID, err)
	}
	return row.toModel(), nil
}

// SettleAuction flips the settlement flag and applies the user increments in one transaction
func (r *SQLRepo) SettleAuction(ctx context.Context, s model.Settlement) (bool, error) {
	applied := false
	err := r.runTx(ctx, func(tx *sqlx.Tx) error {
		var (
			res sql.Result
			err error
		)
		if s.WinnerID != "" {
			res, err = tx.ExecContext(ctx, `
				UPDATE auctions SET commission_calculated = 1, highest_bidder_id = ?
				WHERE id = ? AND commission_calculated = 0 AND end_time = ? AND current_bid = ?
			`, s.WinnerID, s.AuctionID, s.EndTime.UnixNano(), s.CurrentBid)
		} else {
			res, err = tx.ExecContext(ctx, `
				UPDATE auctions SET commission_calculated = 1
				WHERE id = ? AND commission_calculated = 0 AND end_time = ? AND current_bid = ?
			`, s.AuctionID, s.EndTime.UnixNano(), s.CurrentBid)
		}
		if err != nil {
			return fmt.Errorf("settle auction %s: %w", s.AuctionID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			if _, err := getAuction(ctx, tx, s.AuctionID); err != nil {
				return fmt.Errorf("settle: %w", err)
			}
			return nil
		}

		if s.WinnerID != "" {
			if err := execOne(ctx, tx, auctionerrors.ErrUserNotFound, `
				UPDATE users SET money_spent = money_spent + ?, auctions_won = auctions_won + 1
				WHERE id = ?
			`, s.Amount, s.WinnerID); err != nil {
				return fmt.Errorf("settle auction %s: winner %s: %w", s.AuctionID, s.WinnerID, err)
			}
			if err := execOne(ctx, tx, auctionerrors.ErrUserNotFound, `
				UPDATE users SET unpaid_commission = unpaid_commission + ?
				WHERE id = ?
			`, s.Commission, s.AuctioneerID); err != nil {
				return fmt.Errorf("settle auction %s: auctioneer %s: %w", s.AuctionID, s.AuctioneerID, err)
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// ResetAuction puts a finished auction back into a fresh window
func (r *SQLRepo) ResetAuction(ctx context.Context, rp model.Republish) (model.Auction, error) {
	var auction model.Auction
	err := r.runTx(ctx, func(tx *sqlx.Tx) error {
		current, err := getAuction(ctx, tx, rp.AuctionID)
		if err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		if !current.EndTime.Equal(rp.PreviousEndTime) {
			return fmt.Errorf("reset auction %s: %w", rp.AuctionID, auctionerrors.ErrConcurrentUpdate)
		}

		if current.CommissionCalculated && current.HighestBidderID != "" {
			_, err := tx.ExecContext(ctx, `
				UPDATE users SET money_spent = money_spent - ?, auctions_won = auctions_won - 1
				WHERE id = ?
			`, current.CurrentBid, current.HighestBidderID)
			if err != nil {
				return fmt.Errorf("reverse winner stats of auction %s: %w", rp.AuctionID, err)
			}
		}

		if err := execOne(ctx, tx, auctionerrors.ErrConcurrentUpdate, `
			UPDATE auctions
			SET start_time = ?, end_time = ?, commission_calculated = 0, current_bid = 0, highest_bidder_id = ''
			WHERE id = ? AND end_time = ?
		`, rp.StartTime.UnixNano(), rp.EndTime.UnixNano(), rp.AuctionID, rp.PreviousEndTime.UnixNano()); err != nil {
			return fmt.Errorf("reset auction %s: %w", rp.AuctionID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM bids WHERE auction_id = ?`, rp.AuctionID); err != nil {
			return fmt.Errorf("delete bids of auction %s: %w", rp.AuctionID, err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE users SET unpaid_commission = 0 WHERE id = ?`, rp.AuctioneerID); err != nil {
			return fmt.Errorf("reset unpaid commission of %s: %w", rp.AuctioneerID, err)
		}

		auction, err = getAuction(ctx, tx, rp.AuctionID)
		return err
	})
	if err != nil {
		return model.Auction{}, err
	}
	return auction, nil
}

// CreateUser stores a user profile
func (r *SQLRepo) CreateUser(ctx context.Context, user model.User) error {
	if user.UserID == "" {
		return fmt.Errorf("create user: %w - empty user id", auctionerrors.ErrMissingFields)
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users(`+userColumns+`)
		VALUES (:id, :user_name, :email, :profile_image, :role, :bank_account_name, :bank_account_number,
			:bank_name, :razorpay_number, :paypal_email, :money_spent, :auctions_won, :unpaid_commission)
	`, toUserRow(user))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user %s: %w", user.UserID, auctionerrors.ErrDuplicateID)
		}
		return fmt.Errorf("create user %s: %w", user.UserID, err)
	}
	return nil
}

// GetUser returns a user profile by id
func (r *SQLRepo) GetUser(ctx context.Context, userID string) (model.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
		}
		return model.User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	return row.toModel(), nil
}

// getAuction reads one auction through either the pool or an open transaction
func getAuction(ctx context.Context, q sqlx.QueryerContext, auctionID string) (model.Auction, error) {
	var row auctionRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT `+auctionColumns+` FROM auctions WHERE id = ?`, auctionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
		}
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, err)
	}
	return row.toModel(), nil
}

// execOne runs a statement that must affect exactly one row, else returns missing
func execOne(ctx context.Context, tx *sqlx.Tx, missing error, query string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return missing
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toAuctionRow(a model.Auction) auctionRow {
	return auctionRow{
		ID:                   a.AuctionID,
		Title:                a.Title,
		Description:          a.Description,
		Category:             a.Category,
		Condition:            a.Condition,
		ImageURL:             a.ImageURL,
		StartingBid:          a.StartingBid,
		CurrentBid:           a.CurrentBid,
		HighestBidderID:      a.HighestBidderID,
		StartTime:            a.StartTime.UnixNano(),
		EndTime:              a.EndTime.UnixNano(),
		CommissionCalculated: a.CommissionCalculated,
		CreatedBy:            a.CreatedBy,
		CreatedAt:            a.CreatedAt.UnixNano(),
	}
}

func (row auctionRow) toModel() model.Auction {
	return model.Auction{
		AuctionID:            row.ID,
		Title:                row.Title,
		Description:          row.Description,
		Category:             row.Category,
		Condition:            row.Condition,
		ImageURL:             row.ImageURL,
		StartingBid:          row.StartingBid,
		CurrentBid:           row.CurrentBid,
		HighestBidderID:      row.HighestBidderID,
		StartTime:            fromUnixNano(row.StartTime),
		EndTime:              fromUnixNano(row.EndTime),
		CommissionCalculated: row.CommissionCalculated,
		CreatedBy:            row.CreatedBy,
		CreatedAt:            fromUnixNano(row.CreatedAt),
	}
}

func toBidRow(b model.Bid) bidRow {
	updatedAt := b.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = b.CreatedAt
	}
	return bidRow{
		ID:           b.BidID,
		AuctionID:    b.AuctionID,
		BidderID:     b.BidderID,
		BidderName:   b.BidderName,
		ProfileImage: b.ProfileImage,
		Amount:       b.Amount,
		CreatedAt:    b.CreatedAt.UnixNano(),
		UpdatedAt:    updatedAt.UnixNano(),
	}
}

func (row bidRow) toModel() model.Bid {
	return model.Bid{
		BidID:        row.ID,
		AuctionID:    row.AuctionID,
		BidderID:     row.BidderID,
		BidderName:   row.BidderName,
		ProfileImage: row.ProfileImage,
		Amount:       row.Amount,
		CreatedAt:    fromUnixNano(row.CreatedAt),
		UpdatedAt:    fromUnixNano(row.UpdatedAt),
	}
}

func toUserRow(u model.User) userRow {
	role := u.Role
	if role == "" {
		role = model.RoleBidder
	}
	return userRow{
		ID:                u.UserID,
		UserName:          u.UserName,
		Email:             u.Email,
		ProfileImage:      u.ProfileImage,
		Role:              role,
		BankAccountName:   u.PaymentMethods.BankAccountName,
		BankAccountNumber: u.PaymentMethods.BankAccountNumber,
		BankName:          u.PaymentMethods.BankName,
		RazorpayNumber:    u.PaymentMethods.RazorpayNumber,
		PaypalEmail:       u.PaymentMethods.PaypalEmail,
		MoneySpent:        u.MoneySpent,
		AuctionsWon:       u.AuctionsWon,
		UnpaidCommission:  u.UnpaidCommission,
	}
}

func (row userRow) toModel() model.User {
	return model.User{
		UserID:       row.ID,
		UserName:     row.UserName,
		Email:        row.Email,
		ProfileImage: row.ProfileImage,
		Role:         row.Role,
		PaymentMethods: model.PaymentMethods{
			BankAccountName:   row.BankAccountName,
			BankAccountNumber: row.BankAccountNumber,
			BankName:          row.BankName,
			RazorpayNumber:    row.RazorpayNumber,
			PaypalEmail:       row.PaypalEmail,
		},
		MoneySpent:       row.MoneySpent,
		AuctionsWon:      row.AuctionsWon,
		UnpaidCommission: row.UnpaidCommission,
	}
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
