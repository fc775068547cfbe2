package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"

	config "github.com/revoshq/podengine/configs"
	"github.com/revoshq/podengine/internal/api/handlers"
	"github.com/revoshq/podengine/internal/api/middleware"
	"github.com/revoshq/podengine/internal/events"
	job "github.com/revoshq/podengine/internal/jobs"
	"github.com/revoshq/podengine/internal/provider"
	"github.com/revoshq/podengine/internal/queue"
	"github.com/revoshq/podengine/internal/repository"
	"github.com/revoshq/podengine/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  1 * time.Minute,
		WriteTimeout: 1 * time.Minute,
		BodyLimit:    events.MaxBodySize,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Webhook-Signature",
		MaxAge:       3600,
	}))

	accountRepo := repository.NewAccountRepository(db)
	postRepo := repository.NewPostRepository(db)
	podRepo := repository.NewPodRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	deadLetterRepo := repository.NewDeadLetterRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	connectionRepo := repository.NewConnectionRepository(db)

	providerClient := provider.NewClient(*cfg)
	enqueuer := queue.NewEnqueuer(client)

	podSelector := service.NewMostRecentPodSelector(podRepo)
	eligibilityService := service.NewEligibilityService(podRepo, podSelector)
	schedulerService := service.NewSchedulerService(db, *cfg, activityRepo, postRepo, accountRepo, eligibilityService, enqueuer)
	deadLetterService := service.NewDeadLetterService(deadLetterRepo)
	engagementService := service.NewEngagementService(*cfg, activityRepo, postRepo, podRepo, campaignRepo, leadRepo, deadLetterService, providerClient, enqueuer)
	triggerService := service.NewTriggerService(postRepo, campaignRepo, leadRepo, connectionRepo, activityRepo, podSelector, schedulerService)
	correlatorService := service.NewCorrelatorService(*cfg, accountRepo, connectionRepo, leadRepo, providerClient, service.NewHeuristicExtractor())

	verifier := events.NewVerifier(cfg.WebhookSecret)

	webhook := handlers.NewWebhookHandler(verifier, schedulerService, triggerService)
	app.Post("/webhooks", webhook.Handle)

	cronAuth := middleware.NewCronAuthMiddleware(*cfg)

	correlatorJob := job.NewCorrelatorJob(correlatorService)
	reconcileJob := job.NewReconcileJob(activityRepo, enqueuer)

	cronAPI := handlers.NewCronHandler(correlatorService, reconcileJob)
	app.Get("/cron/poll-invitations", cronAuth.RequireBearer(), cronAPI.PollInvitations)
	app.Get("/cron/reconcile", cronAuth.RequireBearer(), cronAPI.Reconcile)

	deadLetters := handlers.NewDeadLetterHandler(deadLetterService)
	api := app.Group("/api")
	api.Use(cronAuth.RequireBearer())
	api.Get("/deadletters", deadLetters.ListUnresolved)
	api.Post("/deadletters/resolve", deadLetters.Resolve)

	// cron jobs
	c := cron.New()
	c.AddFunc("@every 00h05m00s", correlatorJob.Run)
	c.AddFunc("@every 00h10m00s", reconcileJob.Run)
	c.Start()

	// queue worker
	queueW := queue.NewQueue(engagementService)

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeExecuteActivity, queueW.HandleExecuteActivityTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
