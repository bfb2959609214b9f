// File: stayloom/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"stayloom/config"
	"stayloom/cron"
	"stayloom/database"
	agentRepo "stayloom/database/repository/agent"
	auditRepo "stayloom/database/repository/audit"
	inventoryRepo "stayloom/database/repository/inventory"
	ledgerRepo "stayloom/database/repository/ledger"
	propertyRepo "stayloom/database/repository/property"
	sessionRepo "stayloom/database/repository/session"
	transactionRepo "stayloom/database/repository/transaction"
	"stayloom/handlers"
	"stayloom/routes"
	"stayloom/services/adapter"
	"stayloom/services/audit"
	"stayloom/services/gateway"
	"stayloom/services/inventory"
	"stayloom/services/ledger"
	"stayloom/services/negotiation"
	"stayloom/services/pricing"
	"stayloom/services/transaction"
	"stayloom/services/trust"
	"stayloom/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitSessionCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(cors.Default())

	// repositories.
	agents := agentRepo.NewMongoAgentRepo()
	properties := propertyRepo.NewMongoPropertyRepo()
	transactions := transactionRepo.NewMongoTransactionRepo()
	commissions := ledgerRepo.NewMongoLedgerRepo()
	intents := auditRepo.NewMongoAuditRepo()
	sessions := sessionRepo.NewRedisSessionStore(utils.GetSessionCacheClient())
	sessionArchive := sessionRepo.NewMongoSessionArchive()
	inventoryStore := inventoryRepo.NewRedisInventoryStore(utils.GetCacheClient())

	// domain adapter: HTTP connector wrapped by the circuit breaker, then
	// the retry decorator, so every caller sees the same failure policy.
	pmsAdapter := adapter.NewHTTPAdapter(config.AppConfig.AdapterBaseURL, config.AdapterTimeout())
	breaker := adapter.NewCircuitBreaker(pmsAdapter, adapter.BreakerPolicy{
		FailureThreshold: config.AppConfig.BreakerFailureThreshold,
		Cooldown:         time.Duration(config.AppConfig.BreakerCooldownSeconds) * time.Second,
	}, logger)
	guardedAdapter := adapter.NewRetryingAdapter(breaker, adapter.RetryPolicy{
		MaxAttempts: config.AppConfig.RetryMaxAttempts,
		BaseBackoff: time.Duration(config.AppConfig.RetryBackoffMillis) * time.Millisecond,
	}, logger)

	// services.
	trustService := &trust.DefaultTrustService{
		Repo:   agents,
		Policy: trust.DefaultDiscountPolicy(),
		Logger: logger,
	}
	inventoryService := inventory.NewDefaultInventoryService(
		inventoryStore, guardedAdapter, config.InventoryTTL(), logger)
	pricingEngine := pricing.NewDefaultEngine()
	ledgerService := &ledger.DefaultLedgerService{
		Repo:   commissions,
		Logger: logger,
	}
	engine := negotiation.NewDefaultEngine(
		properties, sessions, sessionArchive, trustService, inventoryService,
		pricingEngine, logger,
		config.AppConfig.MaxNegotiationRounds, config.SessionTTL(), config.AppConfig.MinReputation)

	manager := &transaction.DefaultManager{
		Transactions:   transactions,
		Properties:     properties,
		Sessions:       sessions,
		Archive:        sessionArchive,
		Inventory:      inventoryService,
		Ledger:         ledgerService,
		Adapter:        guardedAdapter,
		Pricing:        pricingEngine,
		Notifier:       cron.NewAsynqOutcomeNotifier(),
		Logger:         logger,
		AdapterTimeout: config.AdapterTimeout(),
	}

	var publisher *audit.Publisher
	if config.AppConfig.RabbitURL != "" {
		var err error
		publisher, err = audit.NewPublisher(config.AppConfig.RabbitURL, config.AppConfig.RabbitExchange)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to connect audit publisher: %v", err)
		}
		defer publisher.Close()
	}
	auditRecorder := &audit.DefaultRecorder{
		Repo:      intents,
		Publisher: publisher,
		Logger:    utils.GetAuditLogger(),
	}

	gatewayService := &gateway.DefaultGatewayService{
		Engine:          engine,
		Manager:         manager,
		Audit:           auditRecorder,
		Logger:          logger,
		PilotPropertyID: config.AppConfig.PilotPropertyID,
	}

	// Background worker: session expiry sweep and reputation adjustments.
	cron.InitWorker(engine, trustService, logger)

	// Assemble the handler bundle and register routes.
	bundle := &routes.HandlerBundle{
		Gateway:         handlers.NewGatewayHandler(gatewayService, logger),
		Agent:           handlers.NewAgentHandler(agents),
		Admin:           handlers.NewAdminHandler(properties),
		Ledger:          handlers.NewLedgerHandler(ledgerService),
		Audit:           auditRecorder,
		RateLimitPerMin: config.AppConfig.MaxRequestsPerMin,
	}
	routes.RegisterRoutes(router, bundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
