package models

import "time"

// Roles a caller can carry
const (
	RoleAuctioneer = "Auctioneer"
	RoleBidder     = "Bidder"
	RoleSuperAdmin = "SuperAdmin"
)

// PaymentMethods holds the auctioneer's payout details shown to winners
type PaymentMethods struct {
	BankAccountName   string `json:"bank_account_name"`
	BankAccountNumber string `json:"bank_account_number"`
	BankName          string `json:"bank_name"`
	RazorpayNumber    string `json:"razorpay_number"`
	PaypalEmail       string `json:"paypal_email"`
}

// User represents a participant in the marketplace
type User struct {
	UserID           string         `json:"user_id"`
	UserName         string         `json:"user_name"`
	Email            string         `json:"email"`
	ProfileImage     string         `json:"profile_image,omitempty"`
	Role             string         `json:"role"`
	PaymentMethods   PaymentMethods `json:"payment_methods"`
	MoneySpent       float64        `json:"money_spent"`
	AuctionsWon      int            `json:"auctions_won"`
	UnpaidCommission float64        `json:"unpaid_commission"`
}

// Auction represents an auction listing
type Auction struct {
	AuctionID            string       `json:"auction_id"`
	Title                string       `json:"title"`
	Description          string       `json:"description"`
	Category             string       `json:"category"`
	Condition            string       `json:"condition"`
	ImageURL             string       `json:"image_url,omitempty"`
	StartingBid          float64      `json:"starting_bid"`
	CurrentBid           float64      `json:"current_bid"`
	HighestBidderID      string       `json:"highest_bidder_id,omitempty"`
	StartTime            time.Time    `json:"start_time"`
	EndTime              time.Time    `json:"end_time"`
	CommissionCalculated bool         `json:"commission_calculated"`
	CreatedBy            string       `json:"created_by"`
	CreatedAt            time.Time    `json:"created_at"`
	Bids                 []BidSummary `json:"bids,omitempty"`
}

// BidSummary is the read projection of a bid shown on an auction.
// It is rebuilt from the bid ledger and never persisted.
type BidSummary struct {
	BidderID     string  `json:"bidder_id"`
	UserName     string  `json:"user_name"`
	ProfileImage string  `json:"profile_image,omitempty"`
	Amount       float64 `json:"amount"`
}

// Bid represents a bidder's single bid record on an auction
type Bid struct {
	BidID        string    `json:"bid_id"`
	AuctionID    string    `json:"auction_id"`
	BidderID     string    `json:"bidder_id"`
	BidderName   string    `json:"bidder_name"`
	ProfileImage string    `json:"profile_image,omitempty"`
	Amount       float64   `json:"amount"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary projects the bid for display on its auction
func (b Bid) Summary() BidSummary {
	return BidSummary{
		BidderID:     b.BidderID,
		UserName:     b.BidderName,
		ProfileImage: b.ProfileImage,
		Amount:       b.Amount,
	}
}

// Settlement describes the one-time settlement of an ended auction.
// WinnerID is empty when the auction closed without bids. EndTime and CurrentBid
// are the auction state the winner was resolved from; the settlement applies only
// while the stored auction still matches both.
type Settlement struct {
	AuctionID    string
	AuctioneerID string
	WinnerID     string
	Amount       float64
	Commission   float64
	CurrentBid   float64
	EndTime      time.Time
}

// Republish describes a reset of a finished auction into a new window.
// PreviousEndTime must match the stored end time for the reset to apply.
type Republish struct {
	AuctionID       string
	AuctioneerID    string
	PreviousEndTime time.Time
	StartTime       time.Time
	EndTime         time.Time
}

// Caller is the authenticated identity supplied by the auth collaborator
type Caller struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the caller may act on any auction
func (c Caller) IsAdmin() bool {
	return c.Role == RoleSuperAdmin
}
