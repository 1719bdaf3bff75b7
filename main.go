// main.go
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go/v7"

	"favordesk/config"
	"favordesk/handlers"
	_ "favordesk/migrations"
	"favordesk/monitoring"
	"favordesk/payment"
	"favordesk/security"
	"favordesk/services"
	"favordesk/store"
	"favordesk/utils"
)

func main() {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub
	pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PubNubUUID))
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	// Initialize payment gateway
	gateway, err := payment.New(cfg.PaymentProvider, cfg.QRPay)
	if err != nil {
		log.Fatal(err)
	}

	// Initialize stores
	tickets := store.NewPBTicketStore(app)
	counters := store.NewPBCounterStore(app)
	txRunner := store.NewPBTxRunner(app)

	// Initialize services
	monitor := monitoring.NewMonitor()
	ratio := services.Ratio{
		PriorityPerCycle: cfg.PriorityPerCycle,
		PersonalPerCycle: cfg.PersonalPerCycle,
	}

	syncService := services.NewTagSyncService(tickets, ratio, monitor)
	numberService := services.NewNumberService(txRunner, monitor)
	snapshotService := services.NewSnapshotService(
		tickets, redisClient, pn, ratio, cfg.EtaPerTicket, cfg.SnapshotCacheTTL, monitor)
	paymentService := services.NewPaymentService(redisClient, pn, gateway, cfg.PaymentTimeout)
	favorService := services.NewFavorService(
		tickets, syncService, numberService, snapshotService, paymentService,
		cfg.MinPriorityTip, cfg.PaymentTimeout, monitor)
	paymentService.BindConfirmer(favorService.ConfirmPayment)

	// Initialize handlers
	favorHandler := handlers.NewFavorHandler(app, favorService, snapshotService)
	creatorHandler := handlers.NewCreatorHandler(app, favorService)
	paymentHandler := handlers.NewPaymentHandler(app, paymentService, cfg)
	adminHandler := handlers.NewAdminHandler(app, snapshotService, syncService, counters)

	rateLimiter := security.NewRateLimiter(redisClient, cfg.SubmitRateLimit, cfg.SubmitRateWindow)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Create context for background tasks
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start background tasks
	go favorService.RunCleanup(ctx, cfg.CleanupInterval)
	go paymentService.SubscribeToNotifications(ctx)

	// Setup graceful shutdown
	go handleShutdown(cancel)

	// Register routes
	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Favor endpoints
		e.Router.POST("/api/favors", rateLimiter.Limit(favorHandler.Submit))
		e.Router.GET("/api/favors/{reference}", favorHandler.Get)

		// Queue endpoints
		e.Router.GET("/api/creators/{creator}/queue", favorHandler.Queue)
		e.Router.GET("/api/creators/{creator}/positions", favorHandler.Positions)

		// Creator workflow endpoints
		e.Router.POST("/api/favors/{reference}/approve", creatorHandler.Approve)
		e.Router.POST("/api/favors/{reference}/reject", creatorHandler.Reject)
		e.Router.POST("/api/favors/{reference}/finish", creatorHandler.Finish)
		e.Router.POST("/api/favors/{reference}/toggle-tag", creatorHandler.ToggleTag)

		// Payment endpoints
		e.Router.POST("/api/payments/webhook", paymentHandler.Webhook)
		e.Router.GET("/api/payments/{paymentId}/status", paymentHandler.Status)

		// Admin endpoints
		e.Router.GET("/api/admin/queue-dashboard", adminHandler.QueueDashboard)
		e.Router.POST("/api/admin/force-sync", adminHandler.ForceSync)

		// Test endpoint for payment simulation
		if cfg.Environment == "development" {
			e.Router.POST("/api/test/simulate-payment", paymentHandler.Simulate)
		}

		// Metrics
		if cfg.EnableMetrics {
			e.Router.GET("/metrics", func(e *core.RequestEvent) error {
				promhttp.Handler().ServeHTTP(e.Response, e.Request)
				return nil
			})
		}

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("Shutdown signal received, cleaning up...")
	cancel()
}
