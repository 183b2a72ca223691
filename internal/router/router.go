package router

import (
	"log"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/wavelane/wavelane/backend/internal/discovery"
	"github.com/wavelane/wavelane/backend/internal/handlers"
	"github.com/wavelane/wavelane/backend/internal/middleware"
	"github.com/wavelane/wavelane/backend/internal/models"
	"github.com/wavelane/wavelane/backend/internal/notify"
	"github.com/wavelane/wavelane/backend/internal/repositories"
	"github.com/wavelane/wavelane/backend/pkg/config"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes, wires the notification
// pipeline and returns it for the background worker loop.
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, firebaseAuthClient *auth.Client, cfg *config.Config) *notify.Pipeline {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Notification{},
		&models.NotificationAction{},
		&models.NotificationCheckpoint{},
		&models.Subscription{},
		&models.NotificationSettings{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	notificationStore := repositories.NewPostgresNotificationStore(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	subscriptionRepo := repositories.NewPostgresSubscriptionRepository(pgdb)
	settingsRepo := repositories.NewPostgresSettingsRepository(pgdb)
	pushQueueRepo := repositories.NewMongoPushQueueRepository(mgClient.Database("wavelane"))

	// --- Build the notification pipeline ---
	var metadataSource notify.MetadataSource
	var trendingSources []notify.TrendingSource
	if len(cfg.DiscoveryNodes) > 0 {
		metadataSource = discovery.NewClient(cfg.DiscoveryNodes[0], 0)
		trendingSources = discovery.TrendingSources(cfg.DiscoveryNodes, 0)
	}
	debouncer := notify.NewDebouncer(notify.DebounceWindow)
	dispatcher := notify.NewDispatcher(pushQueueRepo, settingsRepo, metadataSource)
	pipeline := notify.NewPipeline(notificationStore, subscriptionRepo, debouncer, dispatcher, trendingSources)
	log.Println("Notification pipeline configured.")

	// --- Internal routes for the indexing layer ---
	internal := e.Group("/internal/v1")
	if firebaseAuthClient != nil {
		internal.Use(middleware.FirebaseAuthMiddleware(firebaseAuthClient))
		log.Println("Firebase authentication middleware applied to /internal/v1 group.")
	}
	ingestHandler := handlers.NewIngestHandler(pipeline, notificationRepo)
	ingestHandler.RegisterIngestRoutes(internal)
	log.Println("Ingest routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, settingsRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	// Subscription routes
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionRepo)
	subscriptionHandler.RegisterSubscriptionRoutes(api)
	log.Println("Subscription routes configured.")

	log.Println("All routes configured.")
	return pipeline
}
