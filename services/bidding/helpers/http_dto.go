package helpers

import (
	"time"

	model "auction-engine/internal/models"
)

// Request/Response DTOs
type PlaceBidRequest struct {
	Amount float64 `json:"amount"`
}

type CreateAuctionRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description" binding:"required"`
	Category    string    `json:"category" binding:"required"`
	Condition   string    `json:"condition" binding:"required"`
	ImageURL    string    `json:"image_url"`
	StartingBid float64   `json:"starting_bid" binding:"required,gt=0"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
}

type RepublishRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type RegisterUserRequest struct {
	UserID         string               `json:"user_id" binding:"required"`
	UserName       string               `json:"user_name" binding:"required"`
	Email          string               `json:"email" binding:"required,email"`
	ProfileImage   string               `json:"profile_image"`
	Role           string               `json:"role" binding:"required,oneof=Auctioneer Bidder SuperAdmin"`
	PaymentMethods model.PaymentMethods `json:"payment_methods"`
}

type BidResponse struct {
	BidID      string  `json:"bid_id"`
	AuctionID  string  `json:"auction_id"`
	BidderID   string  `json:"bidder_id"`
	BidderName string  `json:"bidder_name"`
	Amount     float64 `json:"amount"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

// NewBidResponse converts a ledger record for the wire
func NewBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:      bid.BidID,
		AuctionID:  bid.AuctionID,
		BidderID:   bid.BidderID,
		BidderName: bid.BidderName,
		Amount:     bid.Amount,
		CreatedAt:  bid.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  bid.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
