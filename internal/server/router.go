package server

import (
	"net/http"

	model "auction-engine/internal/models"
	handler "auction-engine/services/bidding/handler"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
)

// Services bundles the collaborators the HTTP layer dispatches to
type Services struct {
	Bidding   handler.BiddingServiceInterface
	Auctions  handler.AuctionServiceInterface
	JWTSecret string
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(svc Services) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())                    // recover from panics
	router.Use(IdentityMiddleware(svc.JWTSecret)) // resolve the caller
	router.Use(RequestLoggerMiddleware)           // custom request logging

	biddingHandler := handler.NewBiddingHandler(svc.Bidding)
	auctionHandler := handler.NewAuctionHandler(svc.Auctions)

	router.GET("/health", func(c *gin.Context) {
		utils.JSONResponse(c, http.StatusOK, gin.H{"status": "ok"}, "service healthy")
	})

	auctions := router.Group("/auctions")
	{
		auctions.GET("", auctionHandler.ListAuctionsHandler)
		auctions.POST("", RequireRole(model.RoleAuctioneer), auctionHandler.CreateAuctionHandler)
		auctions.GET("/mine", RequireRole(model.RoleAuctioneer), auctionHandler.ListMyAuctionsHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.DELETE("/:auction_id", RequireRole(model.RoleAuctioneer, model.RoleSuperAdmin), auctionHandler.RemoveAuctionHandler)
		auctions.PUT("/:auction_id/republish", RequireRole(model.RoleAuctioneer, model.RoleSuperAdmin), auctionHandler.RepublishHandler)

		auctions.POST("/:auction_id/bids", RequireRole(model.RoleBidder), biddingHandler.PlaceBidHandler)
		auctions.GET("/:auction_id/bids", biddingHandler.GetBidsByAuctionHandler)
		auctions.GET("/:auction_id/winning", biddingHandler.GetWinningBidHandler)
	}

	users := router.Group("/users")
	{
		users.GET("/me", RequireRole(), auctionHandler.GetMeHandler)
	}

	admin := router.Group("/admin", RequireRole(model.RoleSuperAdmin))
	{
		admin.DELETE("/auctions/:auction_id", auctionHandler.RemoveAuctionHandler)
		admin.POST("/users", auctionHandler.RegisterUserHandler)
	}

	return router
}
