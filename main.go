package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	auction "auction-engine/internal/auctionService"
	bidding "auction-engine/internal/biddingService"
	"auction-engine/internal/config"
	"auction-engine/internal/locks"
	"auction-engine/internal/notify"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"
	"auction-engine/internal/settlement"
	"auction-engine/utils"
)

const sweepLeaseKey = "auction:settlement:lease"

func main() {
	cfg := config.Load()
	if err := utils.SetLevel(cfg.LogLevel); err != nil {
		utils.Warn("Invalid LOG_LEVEL, keeping info", map[string]any{"log_level": cfg.LogLevel})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openStore(ctx, cfg)
	if err != nil {
		utils.Fatal("Failed to open store", map[string]any{"driver": cfg.StoreDriver, "error": err.Error()})
	}
	defer closeRepo()

	lease, closeLease, err := sweepLease(ctx, cfg)
	if err != nil {
		utils.Fatal("Failed to connect to redis", map[string]any{"addr": cfg.RedisAddr, "error": err.Error()})
	}
	defer closeLease()

	scheduler := settlement.NewScheduler(repo, winnerSender(cfg),
		settlement.WithInterval(cfg.SweepInterval),
		settlement.WithLease(lease),
	)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	router := server.SetupRouter(server.Services{
		Bidding:   bidding.NewBiddingService(repo),
		Auctions:  auction.NewAuctionService(repo),
		JWTSecret: cfg.JWTSecret,
	})
	if cfg.JWTSecret == "" {
		utils.Warn("JWT_SECRET not set, trusting gateway identity headers", nil)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		utils.Info("Starting auction server", map[string]any{"addr": srv.Addr, "store": cfg.StoreDriver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Error("Server failed", map[string]any{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()
	utils.Info("Shutdown signal received", nil)

	shutCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		utils.Error("Server shutdown failed", map[string]any{"error": err.Error()})
	}
	utils.Info("Shutdown complete", nil)
}

// openStore returns the ledger store selected by STORE_DRIVER and its close func
func openStore(ctx context.Context, cfg config.Config) (repository.LedgerStore, func(), error) {
	if cfg.StoreDriver != config.DriverSQLite {
		return repository.NewMemoryRepo(), func() {}, nil
	}

	repo, err := repository.OpenSQLRepo(ctx, cfg.DBDSN)
	if err != nil {
		return nil, nil, err
	}
	return repo, func() { closeQuietly("sqlite", repo) }, nil
}

// sweepLease shares the settlement sweep between instances when redis is configured
func sweepLease(ctx context.Context, cfg config.Config) (locks.Lease, func(), error) {
	if cfg.RedisAddr == "" {
		return locks.NewLocalLease(), func() {}, nil
	}

	client, err := locks.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	utils.Info("Settlement sweep lease shared through redis", map[string]any{"addr": cfg.RedisAddr, "key": sweepLeaseKey})
	return locks.NewRedisLease(client, sweepLeaseKey, cfg.SweepLeaseTTL), func() { closeQuietly("redis", client) }, nil
}

func winnerSender(cfg config.Config) notify.Sender {
	if cfg.RabbitMQURL == "" {
		return notify.LogSender{}
	}
	return notify.NewAMQPSender(cfg.RabbitMQURL, notify.WinnerEmailQueue)
}

func closeQuietly(name string, c io.Closer) {
	if err := c.Close(); err != nil {
		utils.Warn("Failed to close "+name, map[string]any{"error": err.Error()})
	}
}
