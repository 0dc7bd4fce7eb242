package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pplp-network/settlement-api/internal/config"
	"github.com/pplp-network/settlement-api/internal/database"
	"github.com/pplp-network/settlement-api/internal/handler"
	"github.com/pplp-network/settlement-api/internal/middleware"
	"github.com/pplp-network/settlement-api/internal/models"
	"github.com/pplp-network/settlement-api/internal/repository"
	"github.com/pplp-network/settlement-api/internal/router"
	"github.com/pplp-network/settlement-api/internal/scoring"
	"github.com/pplp-network/settlement-api/internal/service"
	"github.com/pplp-network/settlement-api/pkg/chain"
	"github.com/pplp-network/settlement-api/pkg/indexer"
)

const eventSubject = "pplp.settlement.events"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	signers, err := config.LoadSigners(cfg.SignersJSON, cfg.SignersFile)
	if err != nil {
		log.Fatalf("failed to load governance signers: %v", err)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.ActionRecord{},
		&models.MintRequest{},
		&models.MintSignature{},
		&models.RecipientProfile{},
		&models.TreasuryLedgerEntry{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	chainClient, err := chain.New(chain.Config{
		RPCURL:       cfg.ChainRPCURL,
		TokenAddress: cfg.TokenAddress,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create chain client: %v", err)
	}
	defer chainClient.Close()

	indexerClient, err := indexer.New(indexer.Config{
		BaseURL:         cfg.IndexerBaseURL,
		APIKey:          cfg.IndexerAPIKey,
		ContractAddress: cfg.TokenAddress,
		PageSize:        cfg.IndexerPageSize,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create indexer client: %v", err)
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}
	events := service.NewNATSPublisher(natsConn, eventSubject, logger)

	engine, err := scoring.NewEngine(nil)
	if err != nil {
		log.Fatalf("failed to build scoring engine: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	actionRepo := repository.NewActionRepository(db)
	requestRepo := repository.NewMintRequestRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	actionService := service.NewActionService(actionRepo, engine, validate, logger)
	mintService := service.NewMintRequestService(requestRepo, actionRepo, profileRepo, chainClient, events, cfg.MintActionName, cfg.TokenDecimals, logger)
	multisigService := service.NewMultisigService(requestRepo, signers, events, validate, logger)
	reclaimService := service.NewReclaimService(requestRepo, actionRepo, mintService, redisClient, cfg.ReclaimCooldown, logger)
	treasuryService := service.NewTreasuryService(ledgerRepo, profileRepo, indexerClient, cfg.TreasuryAddress, cfg.TokenDecimals, validate, logger)

	actionHandler := handler.NewActionHandler(actionService, validate, logger)
	mintRequestHandler := handler.NewMintRequestHandler(mintService, multisigService, validate, logger)
	adminHandler := handler.NewAdminHandler(reclaimService, treasuryService, actionService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ActionHandler:      actionHandler,
		MintRequestHandler: mintRequestHandler,
		AdminHandler:       adminHandler,
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
