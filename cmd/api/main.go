package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	"storefront-insights-core/internal/application"
	"storefront-insights-core/internal/config"
	apiinfra "storefront-insights-core/internal/infrastructure/api"
	"storefront-insights-core/internal/infrastructure/google"
	appmiddleware "storefront-insights-core/internal/infrastructure/middleware"
	"storefront-insights-core/internal/infrastructure/password"
	redisinfra "storefront-insights-core/internal/infrastructure/redis"
	"storefront-insights-core/internal/infrastructure/repository"
	"storefront-insights-core/internal/infrastructure/scheduler"
	shopifyinfra "storefront-insights-core/internal/infrastructure/shopify"
	"storefront-insights-core/internal/infrastructure/token"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to the relational store
	db, err := repository.Open(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := repository.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Connect to the ephemeral store
	redisClient, err := redisinfra.NewClient(context.Background(), cfg.RedisAddr)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	defer redisClient.Close()

	// Initialize infrastructure (implementations)
	tokenService, err := token.NewService(cfg.JWTSecret, cfg.JWTAlgorithm)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize token service")
	}
	stateStore := redisinfra.NewStateStore(redisClient)
	hasher := password.NewHasher()
	shopifyClient := shopifyinfra.NewClient(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret, cfg.ShopifyRedirectURI, logger)
	googleProvider := google.NewProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)

	// Initialize repositories
	userRepo := repository.NewGormUserRepository(db)
	integrationRepo := repository.NewGormIntegrationRepository(db)
	commerceRepo := repository.NewGormCommerceRepository(db)
	analyticsRepo := repository.NewGormAnalyticsRepository(db)

	// Initialize application services
	authService := application.NewAuthService(
		userRepo,
		hasher,
		tokenService,
		googleProvider,
		stateStore,
		cfg.FrontendURL,
		logger,
	)
	integrationService := application.NewIntegrationService(
		integrationRepo,
		stateStore,
		shopifyClient,
		logger,
	)
	syncService := application.NewSyncService(
		integrationRepo,
		commerceRepo,
		shopifyClient,
		logger,
	)
	analyticsService := application.NewAnalyticsService(analyticsRepo, logger)

	// Initialize HTTP handlers
	authHandler := apiinfra.NewAuthHandler(authService, logger)
	integrationHandler := apiinfra.NewIntegrationHandler(integrationService, syncService, logger)
	analyticsHandler := apiinfra.NewAnalyticsHandler(analyticsService, logger)

	// Scheduled background sync for every active integration
	sched := scheduler.New(logger)
	sched.Register("shopify-sync", cfg.SyncInterval, syncService.SyncAllActive)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	sched.Start(ctx)
	defer sched.Stop()

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appmiddleware.SecurityHeaders())
	r.Use(appmiddleware.Metrics())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	guard := appmiddleware.SessionGuard(tokenService, logger)

	// Public routes
	// Health check - must be public for monitoring
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// Swagger documentation - public
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// Authentication
	r.Post("/auth/signup", authHandler.Signup)
	r.Post("/auth/token", authHandler.Token)
	r.Get("/auth/google/login", authHandler.GoogleLogin)
	r.Get("/auth/google/callback", authHandler.GoogleCallback)
	r.With(guard).Delete("/auth", authHandler.DeleteAccount)

	// Platform integrations. The callback stays public: it is reached by
	// redirect from the platform and authenticated through the opaque
	// state token instead of a session.
	r.Route("/integrations/{platform}", func(r chi.Router) {
		r.Get("/callback", integrationHandler.Callback)
		r.Post("/callback", integrationHandler.Callback)
		r.With(guard).Post("/auth", integrationHandler.BeginAuth)
		r.With(guard).Post("/credentials", integrationHandler.Credentials)
		r.With(guard).Post("/sync", integrationHandler.TriggerSync)
	})

	// Analytics over synced data
	r.Route("/analytics", func(r chi.Router) {
		r.Use(guard)
		r.Get("/kpis", analyticsHandler.KPIs)
		r.Get("/revenue_batch", analyticsHandler.RevenueBatch)
		r.Get("/revenue_all", analyticsHandler.RevenueAll)
	})

	logger.Info().Str("port", cfg.Port).Msg("Starting API server")
	logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}
