package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"platChallengesAPI/handlers"
	"platChallengesAPI/internal/config"
	"platChallengesAPI/internal/database"
	"platChallengesAPI/internal/graph"
	"platChallengesAPI/internal/lock"
	"platChallengesAPI/internal/logger"
	"platChallengesAPI/internal/pgstore"
	"platChallengesAPI/internal/subgenre"
	"platChallengesAPI/internal/telemetry"
	"platChallengesAPI/middleware"
	"platChallengesAPI/services"
)

var (
	cfg                 *config.Config
	appLog              *logger.Logger
	dbPool              *pgxpool.Pool
	graphClient         *graph.Client
	redisLocker         *lock.RedisLocker
	shutdownTracing     func(context.Context) error
	challengeService    *services.ChallengeService
	progressService     *services.ProgressService
	notificationService *services.NotificationService
	milestoneService    *services.MilestoneService
	profileService      *services.ProfileService
)

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	appLog, err = logger.New(cfg.AppEnv)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}

	clerk.SetKey(cfg.ClerkSecretKey)
	appLog.Info("Clerk initialized")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownTracing, err = telemetry.Setup(ctx, cfg.OtelEndpoint)
	if err != nil {
		appLog.Warn("Tracing disabled", "error", err)
	}

	if cfg.AutoMigrate {
		version, err := database.Migrate(cfg.DatabaseURL)
		if err != nil {
			appLog.Fatal("Failed to run migrations", "error", err)
		}
		appLog.Info("Database migrated", "version", version)
	}

	dbPool, err = database.Open(ctx, cfg)
	if err != nil {
		appLog.Fatal("Failed to connect to database", "error", err)
	}
	appLog.Info("Successfully connected to database")

	challengeStore := pgstore.NewChallengeStore(dbPool)
	trophyStore := pgstore.NewTrophyStore(dbPool)
	catalogStore := pgstore.NewCatalogStore(dbPool)
	profileStore := pgstore.NewProfileStore(dbPool)

	merges, err := catalogStore.SubgenreMerges(ctx)
	if err != nil {
		appLog.Warn("Using built-in subgenre merges only", "error", err)
	}
	subgenreResolver := subgenre.NewResolver(merges)

	var siblingGraph services.SiblingGraph = pgstore.NewSiblingStore(dbPool)
	graphClient, err = graph.New(ctx, graph.Options{
		URI:      cfg.Neo4jURI,
		User:     cfg.Neo4jUser,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
	}, appLog)
	switch {
	case err != nil:
		appLog.Warn("Neo4j unavailable, using SQL sibling lookups", "error", err)
	case graphClient != nil:
		siblingGraph = graphClient
		appLog.Info("Sibling lookups served by Neo4j")
	}

	notificationService = services.NewNotificationService(dbPool)
	milestoneService = services.NewMilestoneService(dbPool, challengeStore, notificationService, appLog)
	exclusionService := services.NewExclusionService(trophyStore, siblingGraph, appLog)
	coverService := services.NewCoverService(challengeStore)
	profileService = services.NewProfileService(profileStore, appLog)

	progressService = services.NewProgressService(challengeStore, trophyStore, catalogStore, profileStore, subgenreResolver, appLog)
	progressService.SetNotifier(notificationService)
	progressService.SetMilestones(milestoneService)

	if cfg.RedisAddr != "" {
		redisLocker, err = lock.NewRedisLocker(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			appLog.Warn("Redis unavailable, recalculation lock disabled", "error", err)
		} else {
			progressService.SetLocker(redisLocker, cfg.RecalcLockTTL)
			appLog.Info("Recalculation lock enabled", "ttl", cfg.RecalcLockTTL)
		}
	}

	challengeService = services.NewChallengeService(
		challengeStore, profileStore, catalogStore,
		exclusionService, coverService, progressService,
		subgenreResolver, appLog,
	)

	middleware.InitPrometheus()
	services.InitMetrics()
}

func main() {
	defer appLog.Sync()
	defer func() {
		appLog.Info("Closing database connection pool...")
		dbPool.Close()
	}()

	challengeHandler := handlers.NewChallengeHandler(challengeService, appLog)
	syncHandler := handlers.NewSyncHandler(progressService, appLog)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	profileHandler := handlers.NewProfileHandler(profileService, milestoneService)
	webhookHandler := handlers.NewWebhookHandler(profileService, cfg.ClerkWebhookSecret, appLog)

	rateLimiter := middleware.NewRateLimiter(5, 30)
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	go rateLimiter.Cleanup(cleanupCtx, 3*time.Minute)

	r := mux.NewRouter()
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := dbPool.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "` + telemetry.ServiceName + `"}`))
	}).Methods("GET")

	// Clerk signs webhooks itself; no user auth.
	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// Trophy-sync pipeline; not rate limited.
	syncRouter := r.PathPrefix("/internal/sync").Subrouter()
	syncRouter.Use(middleware.SyncSecretMiddleware(cfg.SyncSecret))
	syncHandler.Register(syncRouter)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(rateLimiter.Middleware)
	api.Use(middleware.ClerkAuthMiddleware)
	challengeHandler.Register(api)
	profileHandler.Register(api)
	notificationHandler.Register(api)

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	server := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		appLog.Info("Starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Error starting server", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	appLog.Info("Got signal", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server shutdown error", "error", err)
	}
	if err := graphClient.Close(shutdownCtx); err != nil {
		appLog.Warn("Neo4j close error", "error", err)
	}
	if redisLocker != nil {
		if err := redisLocker.Close(); err != nil {
			appLog.Warn("Redis close error", "error", err)
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		appLog.Warn("Tracing shutdown error", "error", err)
	}

	appLog.Info("Server shutdown complete")
}
