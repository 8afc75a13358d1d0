package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	auction "auction-engine/internal/auctionService"
	model "auction-engine/internal/models"
	"auction-engine/services/bidding/helpers"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=auction_handler.go -destination=mock_auction_handler.go -package=handler

type AuctionServiceInterface interface {
	CreateAuction(ctx context.Context, caller model.Caller, in auction.CreateAuctionInput) (model.Auction, error)
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	ListAuctions(ctx context.Context) ([]model.Auction, error)
	ListAuctionsByAuctioneer(ctx context.Context, auctioneerID string) ([]model.Auction, error)
	RemoveAuction(ctx context.Context, caller model.Caller, auctionID string) error
	Republish(ctx context.Context, caller model.Caller, auctionID string, start, end time.Time) (model.Auction, error)
	RegisterUser(ctx context.Context, user model.User) (model.User, error)
	GetUser(ctx context.Context, userID string) (model.User, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

var errNoCaller = errors.New("missing caller identity")

func (h *AuctionHandler) requireCaller(c *gin.Context) (model.Caller, bool) {
	caller, ok := helpers.CallerFrom(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, errNoCaller, "authentication required")
	}
	return caller, ok
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	caller, ok := h.requireCaller(c)
	if !ok {
		return
	}

	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	created, err := h.service.CreateAuction(c.Request.Context(), caller, auction.CreateAuctionInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Condition:   req.Condition,
		ImageURL:    req.ImageURL,
		StartingBid: req.StartingBid,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		helpers.RespondError(c, "CreateAuctionHandler", err, map[string]any{"auctioneer_id": caller.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, created, "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id":    created.AuctionID,
		"auctioneer_id": created.CreatedBy,
	})
}

// ListAuctionsHandler handles GET /auctions
func (h *AuctionHandler) ListAuctionsHandler(c *gin.Context) {
	auctions, err := h.service.ListAuctions(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, "ListAuctionsHandler", err, nil)
		return
	}
	if auctions == nil {
		auctions = []model.Auction{}
	}
	utils.JSONResponse(c, http.StatusOK, auctions, "auctions retrieved successfully")
}

// ListMyAuctionsHandler handles GET /auctions/mine
func (h *AuctionHandler) ListMyAuctionsHandler(c *gin.Context) {
	caller, ok := h.requireCaller(c)
	if !ok {
		return
	}

	auctions, err := h.service.ListAuctionsByAuctioneer(c.Request.Context(), caller.UserID)
	if err != nil {
		helpers.RespondError(c, "ListMyAuctionsHandler", err, map[string]any{"auctioneer_id": caller.UserID})
		return
	}
	if auctions == nil {
		auctions = []model.Auction{}
	}
	utils.JSONResponse(c, http.StatusOK, auctions, "auctions retrieved successfully")
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	found, err := h.service.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "GetAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, found, "auction retrieved successfully")
}

// RemoveAuctionHandler handles DELETE /auctions/:auction_id and DELETE /admin/auctions/:auction_id
func (h *AuctionHandler) RemoveAuctionHandler(c *gin.Context) {
	caller, ok := h.requireCaller(c)
	if !ok {
		return
	}

	auctionID := c.Param("auction_id")
	if err := h.service.RemoveAuction(c.Request.Context(), caller, auctionID); err != nil {
		helpers.RespondError(c, "RemoveAuctionHandler", err, map[string]any{
			"auction_id": auctionID,
			"user_id":    caller.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"auction_id": auctionID}, "auction removed successfully")
	helpers.LogSuccess("RemoveAuctionHandler", "auction removed successfully", map[string]any{
		"auction_id": auctionID,
		"user_id":    caller.UserID,
		"role":       caller.Role,
	})
}

// RepublishHandler handles PUT /auctions/:auction_id/republish
func (h *AuctionHandler) RepublishHandler(c *gin.Context) {
	caller, ok := h.requireCaller(c)
	if !ok {
		return
	}

	var req helpers.RepublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RepublishHandler", err)
		return
	}

	auctionID := c.Param("auction_id")
	republished, err := h.service.Republish(c.Request.Context(), caller, auctionID, req.StartTime, req.EndTime)
	if err != nil {
		helpers.RespondError(c, "RepublishHandler", err, map[string]any{
			"auction_id": auctionID,
			"user_id":    caller.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, republished, "auction republished successfully")
	helpers.LogSuccess("RepublishHandler", "auction republished successfully", map[string]any{
		"auction_id": auctionID,
		"start_time": republished.StartTime,
		"end_time":   republished.EndTime,
	})
}

// RegisterUserHandler handles POST /admin/users
func (h *AuctionHandler) RegisterUserHandler(c *gin.Context) {
	var req helpers.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterUserHandler", err)
		return
	}

	user, err := h.service.RegisterUser(c.Request.Context(), model.User{
		UserID:         req.UserID,
		UserName:       req.UserName,
		Email:          req.Email,
		ProfileImage:   req.ProfileImage,
		Role:           req.Role,
		PaymentMethods: req.PaymentMethods,
	})
	if err != nil {
		helpers.RespondError(c, "RegisterUserHandler", err, map[string]any{"user_id": req.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, user, "user registered successfully")
	helpers.LogSuccess("RegisterUserHandler", "user registered successfully", map[string]any{
		"user_id": user.UserID,
		"role":    user.Role,
	})
}

// GetMeHandler handles GET /users/me
func (h *AuctionHandler) GetMeHandler(c *gin.Context) {
	caller, ok := h.requireCaller(c)
	if !ok {
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), caller.UserID)
	if err != nil {
		helpers.RespondError(c, "GetMeHandler", err, map[string]any{"user_id": caller.UserID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, user, "user retrieved successfully")
}
