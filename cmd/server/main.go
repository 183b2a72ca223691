package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/wavelane/wavelane/backend/internal/discovery"
	"github.com/wavelane/wavelane/backend/internal/notify"
	"github.com/wavelane/wavelane/backend/internal/repositories"
	"github.com/wavelane/wavelane/backend/internal/router"
	"github.com/wavelane/wavelane/backend/pkg/config"
	"github.com/wavelane/wavelane/backend/pkg/firebase"
	"github.com/wavelane/wavelane/backend/pkg/push"
	"github.com/wavelane/wavelane/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	pipeline := router.SetupRoutes(e, db.Postgres, db.Mongo, firebaseApp.AuthClient, cfg)

	// Validator
	e.Validator = validators.NewValidator()

	// Background workers: debounce flushing, trending and milestone polling,
	// push delivery.
	go runPipelineWorkers(ctx, pipeline, cfg)

	pushQueue := repositories.NewMongoPushQueueRepository(db.Mongo.Database("wavelane"))
	pushWorker := push.NewWorker(pushQueue, firebaseApp.MessagingClient, cfg.PushDrainInterval)
	go pushWorker.Run(ctx)

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}

// runPipelineWorkers drives the periodic pipeline work: flushing the debounce
// queue every tick and polling the discovery nodes for trending rankings and
// play counts on a slower cadence.
func runPipelineWorkers(ctx context.Context, pipeline *notify.Pipeline, cfg *config.Config) {
	var poller *discovery.Client
	if len(cfg.DiscoveryNodes) > 0 {
		poller = discovery.NewClient(cfg.DiscoveryNodes[0], 0)
	}

	tick := time.NewTicker(cfg.TickInterval)
	defer tick.Stop()
	poll := time.NewTicker(cfg.TrendingPollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if err := pipeline.Tick(ctx); err != nil {
				log.Printf("pipeline tick failed: %v", err)
			}
		case <-poll.C:
			if err := pipeline.RunTrending(ctx); err != nil {
				log.Printf("trending run failed: %v", err)
			}
			if poller == nil {
				continue
			}
			snaps, blocknumber, err := poller.ListenCounts(ctx)
			if err != nil {
				log.Printf("listen count poll failed: %v", err)
				continue
			}
			if err := pipeline.RunMilestones(ctx, snaps, blocknumber, 0); err != nil {
				log.Printf("milestone run failed: %v", err)
			}
		}
	}
}
