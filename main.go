package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"incident-dashboard/config"
	"incident-dashboard/counties"
	"incident-dashboard/database"
	"incident-dashboard/handlers"
	"incident-dashboard/middleware"
	"incident-dashboard/rabbitmq"
	"incident-dashboard/service"
	"incident-dashboard/utils"
	"incident-dashboard/version"
	ws "incident-dashboard/websocket"

	"github.com/apex/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Warnf(".env file not found, using system environment variables")
	}

	// Load configuration
	cfg := config.Load()

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database and ensure schema
	db, err := utils.DBConnect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.InitSchema(db); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	store := database.NewService(db)
	defer store.Close()

	// Start the WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Start the broadcast loop that pushes new incidents to clients
	broadcaster := service.NewBroadcastService(store, hub, cfg.BroadcastInterval)
	if err := broadcaster.Start(); err != nil {
		log.Fatalf("Failed to start broadcast service: %v", err)
	}

	// Event publishing is optional; the dashboard runs without RabbitMQ
	var publisher *rabbitmq.Publisher
	if cfg.RabbitMQURL != "" {
		publisher, err = rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, "incident.submitted")
		if err != nil {
			log.Warnf("RabbitMQ unavailable, continuing without event publishing: %v", err)
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	matcher := counties.NewMatcher(cfg.Counties)
	log.Infof("Monitoring counties: %v", matcher.Names())

	h := handlers.NewHandlers(cfg, store, hub, publisher, matcher)
	router := setupRouter(cfg, store, h)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	broadcaster.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

func setupRouter(cfg *config.Config, store *database.Service, h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	// Add gzip compression middleware
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Internal-Admin-Token")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// API routes
	api := router.Group("/api/v3")
	{
		// Snapshot of incidents with filtering and sorting
		api.GET("/incidents", h.GetIncidents)

		// Single incident lookup
		api.GET("/incidents/by-id", h.GetIncidentByID)

		// Aggregate counts for the dashboard header
		api.GET("/incidents/summary", h.GetSummary)

		// Daily trend buckets for the dashboard chart
		api.GET("/incidents/trends", h.GetTrends)

		// WebSocket endpoint for live incident delivery
		api.GET("/incidents/listen", h.ListenIncidents)

		// Health check endpoint
		api.GET("/health", h.HealthCheck)

		// Reporter self-registration
		api.POST("/reporters/register", h.RegisterReporter)

		// Reporter profile, authenticated by API key
		api.GET("/reporters/me",
			middleware.ReporterKeyAuth(store, cfg.ReporterKeyEnv),
			h.GetReporterMe)

		// Field report ingestion, requires the submit scope
		api.POST("/incidents/submit",
			middleware.ReporterKeyAuth(store, cfg.ReporterKeyEnv, middleware.ScopeIncidentSubmit),
			h.SubmitIncidents)

		// Operator actions, authenticated against the auth service
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.POST("/incidents/update-status", h.UpdateStatus)
			protected.POST("/incidents/verify", h.VerifyIncident)
		}

		// Internal admin surface
		internal := api.Group("/internal")
		internal.Use(middleware.InternalAdminToken(cfg.InternalAdminToken))
		{
			internal.POST("/reporters/set-status", h.SetReporterStatus)
		}
	}

	// Root health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "incident-dashboard",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Build metadata
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, version.Get("incident-dashboard"))
	})

	return router
}
