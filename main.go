package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/web3hire/web3hire-be/internal/api"
	"github.com/web3hire/web3hire-be/internal/auth"
	"github.com/web3hire/web3hire-be/internal/cache"
	"github.com/web3hire/web3hire-be/internal/chain"
	"github.com/web3hire/web3hire-be/internal/config"
	"github.com/web3hire/web3hire-be/internal/database"
	"github.com/web3hire/web3hire-be/internal/ipfs"
	"github.com/web3hire/web3hire-be/internal/logger"
	"github.com/web3hire/web3hire-be/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}
	if err := database.Seed(db, cfg.AdminWalletAddress); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed admin account")
	}

	// Optional integrations: query cache, IPFS pinning, chain mirror.
	queryCache := cache.New(cfg.RedisAddr, cache.DefaultTTL)
	pinner := ipfs.New(cfg.PinataJWT, cfg.PinataGateway)

	chainClient, err := chain.Dial(context.Background(), cfg.RPCURL, cfg.ContractAddress, cfg.AdminPrivateKey)
	if err != nil {
		log.Warn().Err(err).Msg("Chain mirroring disabled: could not connect")
		chainClient = nil
	}

	// Set up services
	tokens := auth.NewTokenManager([]byte(cfg.JWTSecret), auth.SessionTTL)
	userService := services.NewUserService(db)
	authService := services.NewAuthService(db, userService, tokens)
	taskService := services.NewTaskService(db, userService, chainClient)
	jobService := services.NewJobService(db, userService)
	matchService := services.NewMatchService(userService, jobService)

	// Set up router
	router := api.NewRouter(api.Deps{
		Tokens:     tokens,
		AuthSvc:    authService,
		Users:      userService,
		Tasks:      taskService,
		Jobs:       jobService,
		Matches:    matchService,
		QueryCache: queryCache,
		Pinner:     pinner,
		Chain:      chainClient,
	})

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
