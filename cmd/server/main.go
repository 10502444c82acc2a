package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/coretrack/backend/docs"
	assistantapp "github.com/coretrack/backend/internal/application/assistant"
	billingapp "github.com/coretrack/backend/internal/application/billing"
	syncapp "github.com/coretrack/backend/internal/application/datasync"
	identityapp "github.com/coretrack/backend/internal/application/identity"
	integrityapp "github.com/coretrack/backend/internal/application/integrity"
	inventoryapp "github.com/coretrack/backend/internal/application/inventory"
	locationapp "github.com/coretrack/backend/internal/application/location"
	menuapp "github.com/coretrack/backend/internal/application/menu"
	posapp "github.com/coretrack/backend/internal/application/pos"
	purchasingapp "github.com/coretrack/backend/internal/application/purchasing"
	reportapp "github.com/coretrack/backend/internal/application/report"
	shiftapp "github.com/coretrack/backend/internal/application/shift"
	"github.com/coretrack/backend/internal/infrastructure/auth"
	"github.com/coretrack/backend/internal/infrastructure/cache"
	"github.com/coretrack/backend/internal/infrastructure/config"
	"github.com/coretrack/backend/internal/infrastructure/event"
	"github.com/coretrack/backend/internal/infrastructure/gemini"
	"github.com/coretrack/backend/internal/infrastructure/logger"
	"github.com/coretrack/backend/internal/infrastructure/persistence"
	"github.com/coretrack/backend/internal/infrastructure/printing"
	"github.com/coretrack/backend/internal/infrastructure/realtime"
	"github.com/coretrack/backend/internal/infrastructure/scheduler"
	"github.com/coretrack/backend/internal/infrastructure/storage"
	"github.com/coretrack/backend/internal/infrastructure/telemetry"
	"github.com/coretrack/backend/internal/interfaces/http/handler"
	"github.com/coretrack/backend/internal/interfaces/http/middleware"
	"github.com/coretrack/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			CoreTrack API
//	@version		1.0
//	@description	Multi-tenant inventory, purchasing and point-of-sale backend for restaurants and retail.

//	@contact.name	CoreTrack Support
//	@contact.email	support@coretrack.example

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Access token. Format: "Bearer {token}"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "coretrack:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}
	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       serviceName,
		ServiceVersion:    version,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	level, _ := logger.ParseLevel(cfg.Log.Level)
	log = telemetry.BridgeLogger(log, providers.LoggerProvider(), serviceName, level)
	zap.ReplaceGlobals(log)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeAddress,
		ApplicationName: serviceName,
		Tags:            map[string]string{"env": cfg.App.Env, "host": config.Hostname()},
	}, log)
	if err != nil {
		return fmt.Errorf("failed to start profiler: %w", err)
	}
	defer func() { _ = profiler.Stop() }()
	if profiler.Enabled() {
		providers.EnableSpanProfiles()
	}

	log.Info("Starting CoreTrack",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
	)

	// Database
	db, err := persistence.NewDatabase(cfg.Database, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.InstrumentDB(db.DB, telemetry.DBTracingConfig{
			DBName:          cfg.Database.DBName,
			SlowQueryThresh: cfg.Database.SlowQuery,
			WithVariables:   !cfg.App.IsProduction(),
		}); err != nil {
			return fmt.Errorf("failed to instrument database: %w", err)
		}
	}
	meter := providers.Meter("coretrack")
	if sqlDB, err := db.DB.DB(); err == nil {
		if _, err := telemetry.RegisterPoolMetrics(meter, sqlDB); err != nil {
			log.Warn("Failed to register pool metrics", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	// Redis is optional; every consumer has an in-memory fallback
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = redisClient.Close() }()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	// Repositories
	retry := persistence.DefaultRetryPolicy()
	if cfg.Database.RetryAttempts > 0 {
		retry.MaxAttempts = cfg.Database.RetryAttempts
	}
	if cfg.Database.RetryBaseDelay > 0 {
		retry.BaseDelay = cfg.Database.RetryBaseDelay
	}
	tx := persistence.NewTxRunner(db.DB, retry)
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	subscriptionRepo := persistence.NewGormSubscriptionRepository(db.DB)
	branchRepo := persistence.NewGormBranchRepository(db.DB)
	inventoryItemRepo := persistence.NewGormInventoryItemRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	menuItemRepo := persistence.NewGormMenuItemRepository(db.DB)
	menuCategoryRepo := persistence.NewGormMenuCategoryRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	purchaseOrderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	shiftRepo := persistence.NewGormShiftRepository(db.DB)
	saleRepo := persistence.NewGormSaleOrderRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	syncDocumentRepo := persistence.NewGormSyncDocumentRepository(db.DB)
	syncConflictRepo := persistence.NewGormSyncConflictRepository(db.DB)
	syncPendingRepo := persistence.NewGormSyncPendingWriteRepository(db.DB)
	conversationRepo := persistence.NewGormConversationRepository(db.DB)
	reportRepo := persistence.NewGormReportRepository(db.DB)
	integrityStore := persistence.NewGormIntegrityStore(db.DB)

	var (
		blacklist auth.TokenBlacklist
		universal redis.UniversalClient
	)
	if redisClient != nil {
		universal = redisClient
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
	}
	idempotency := cache.NewIdempotencyStore(universal, log)
	sessions := cache.NewSessionStore(universal)

	// Metrics
	businessMetrics, err := telemetry.NewBusinessMetrics(meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	httpMetrics := telemetry.NewHTTPMetrics("coretrack")

	// Realtime hub, fanned out over redis when more than one instance runs
	hubOpts := []realtime.HubOption{realtime.WithMaxClients(cfg.Sync.MaxClients)}
	if redisClient != nil {
		hubOpts = append(hubOpts, realtime.WithFanout(realtime.NewRedisFanout(redisClient, cfg.Sync.Channel, log)))
	}
	hub := realtime.NewHub(log, hubOpts...)
	streamer := realtime.NewStreamer(hub, realtime.StreamConfig{
		Heartbeat:      cfg.Sync.PingInterval,
		AllowedOrigins: cfg.HTTP.CORSAllowOrigins,
	}, log)

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.SetFailureRecorder(businessMetrics)
	eventBus.Subscribe(syncapp.NewChangeHandler(hub, businessMetrics, log))
	eventBus.Subscribe(purchasingapp.NewDeliveredHandler(hub, businessMetrics, log))
	eventBus.Subscribe(inventoryapp.NewLowStockHandler(hub, businessMetrics, log))
	eventBus.Subscribe(posapp.NewSaleEventHandler(hub, businessMetrics, log))

	// Printing: HTML is always available, PDF only with a browser
	var pdf printing.PDFEngine
	if cfg.Printing.PDFEnabled {
		chrome, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
			Timeout:   cfg.Printing.PDFTimeout,
			RemoteURL: cfg.Printing.ChromeURL,
			NoSandbox: true,
			Logger:    log,
		})
		if err != nil {
			return fmt.Errorf("failed to create PDF renderer: %w", err)
		}
		pdf = chrome
	}
	renderer, err := printing.NewRenderer(pdf, log)
	if err != nil {
		return err
	}
	defer func() { _ = renderer.Close() }()

	images, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Payment providers
	gateways, err := newGateways(cfg, log)
	if err != nil {
		return err
	}

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(tx, tenantRepo, userRepo, branchRepo, jwtService, blacklist, eventBus, cfg.App.TrialDays, log)
	userService := identityapp.NewUserService(tx, tenantRepo, userRepo, blacklist, eventBus, cfg.JWT.RefreshTokenExpiration, log)
	branchService := locationapp.NewBranchService(tx, tenantRepo, branchRepo, shiftRepo, eventBus, log)
	inventoryService := inventoryapp.NewInventoryService(tx, inventoryItemRepo, movementRepo, branchRepo, menuItemRepo, eventBus, log)
	menuService := menuapp.NewMenuService(tx, menuItemRepo, menuCategoryRepo, inventoryItemRepo, branchRepo, images, log)
	supplierService := purchasingapp.NewSupplierService(supplierRepo, log)
	purchaseOrderService := purchasingapp.NewPurchaseOrderService(tx, purchaseOrderRepo, supplierRepo, inventoryItemRepo, movementRepo, branchRepo, eventBus, log)
	shiftService := shiftapp.NewShiftService(tx, shiftRepo, branchRepo, eventBus, log)
	saleService := posapp.NewSaleService(tx, posapp.Repositories{
		Sales:     saleRepo,
		Shifts:    shiftRepo,
		Menu:      menuItemRepo,
		Items:     inventoryItemRepo,
		Movements: movementRepo,
		Branches:  branchRepo,
		Tenants:   tenantRepo,
		Payments:  paymentRepo,
	}, gateways.invoices, renderer, eventBus, log)
	syncService := syncapp.NewSyncService(tx, syncDocumentRepo, syncConflictRepo, syncPendingRepo, sessions, eventBus, syncapp.Options{
		OfflineAfter:   cfg.Sync.OfflineAfter,
		RetryBaseDelay: cfg.Sync.RetryBaseDelay,
		MaxAttempts:    cfg.Sync.MaxAttempts,
		PullLimit:      cfg.Sync.PullLimit,
	}, log)
	subscriptionService := billingapp.NewSubscriptionService(billingapp.SubscriptionServiceConfig{
		TX:            tx,
		Tenants:       tenantRepo,
		Subscriptions: subscriptionRepo,
		Payments:      paymentRepo,
		Stripe:        gateways.stripeGateway(),
		Invoices:      gateways.invoices,
		Options:       gateways.checkout,
		Events:        eventBus,
		Logger:        log,
	})
	reportService := reportapp.NewReportService(reportapp.ReportServiceConfig{
		Reports:  reportRepo,
		Tenants:  tenantRepo,
		Branches: branchRepo,
		Renderer: renderer,
		Logger:   log,
	})
	integrityService := integrityapp.NewIntegrityService(integrityapp.IntegrityServiceConfig{
		Store:     integrityStore,
		Branches:  branchRepo,
		Items:     inventoryItemRepo,
		Movements: movementRepo,
		MenuItems: menuItemRepo,
		Orders:    purchaseOrderRepo,
		TX:        tx,
		Logger:    log,
	})

	var model assistantapp.Model
	if cfg.Assistant.Enabled {
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:          cfg.Assistant.APIKey,
			Model:           cfg.Assistant.Model,
			Timeout:         cfg.Assistant.Timeout,
			MaxOutputTokens: cfg.Assistant.MaxOutputTokens,
			Logger:          log,
		})
		if err != nil {
			return fmt.Errorf("failed to create assistant model: %w", err)
		}
		model = client
		log.Info("Assistant enabled", zap.String("model", client.Model()))
	}
	assistantService := assistantapp.NewAssistantService(assistantapp.AssistantServiceConfig{
		Conversations: conversationRepo,
		Reports:       reportRepo,
		Tenants:       tenantRepo,
		Model:         model,
		TX:            tx,
		History:       cfg.Assistant.HistoryMessages,
		Logger:        log,
	})

	webhooks := newWebhooks(gateways, webhookDeps{
		subscriptions: subscriptionService,
		tenants:       tenantRepo,
		subRepo:       subscriptionRepo,
		payments:      paymentRepo,
		sales:         saleRepo,
		tx:            tx,
		idempotency:   idempotency,
		metrics:       businessMetrics,
		logger:        log,
	})

	// Background jobs
	jobs := scheduler.NewScheduler(scheduler.Config{
		Enabled:    cfg.Scheduler.Enabled,
		JobTimeout: cfg.Scheduler.JobTimeout,
	}, log)
	if err := scheduler.RegisterCoreJobs(jobs, scheduler.CoreJobs{
		SyncRetries: func(ctx context.Context) error {
			stats, err := syncService.ProcessRetries(ctx)
			if err != nil {
				return err
			}
			if stats != (syncapp.RetryStats{}) {
				logger.L(ctx).Info("Sync retries processed",
					zap.Int("applied", stats.Applied),
					zap.Int("conflicted", stats.Conflicted),
					zap.Int("requeued", stats.Requeued),
					zap.Int("failed", stats.Failed))
			}
			return nil
		},
		SyncRetryInterval: cfg.Scheduler.SyncRetryInterval,
		IntegrityScan: func(ctx context.Context) error {
			result, err := integrityService.Scan(ctx, nil)
			if err != nil {
				return err
			}
			if len(result.Findings) > 0 {
				logger.L(ctx).Warn("Integrity scan found problems",
					zap.Int("tenants", result.Tenants),
					zap.Int("findings", len(result.Findings)))
			}
			return nil
		},
		IntegrityInterval: cfg.Scheduler.IntegrityInterval,
		TrialExpiry: func(ctx context.Context) error {
			n, err := subscriptionService.ExpireTrials(ctx)
			if n > 0 {
				logger.L(ctx).Info("Trials expired", zap.Int("tenants", n))
			}
			return err
		},
		TrialExpiryInterval: cfg.Scheduler.TrialExpiryInterval,
	}); err != nil {
		return fmt.Errorf("failed to register jobs: %w", err)
	}

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		return fmt.Errorf("failed to set up request validation: %w", err)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	skip := []string{"/health", "/ready", cfg.Metrics.Path}
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(
		middleware.RequestID(log),
		logger.Recovery(),
		logger.AccessLog(skip...),
		middleware.Secure(),
		middleware.CORS(corsConfig),
		middleware.Tracing(serviceName, cfg.Telemetry.Enabled),
		middleware.SpanAttributes(),
	)
	if cfg.Metrics.Enabled {
		engine.Use(middleware.Metrics(httpMetrics, skip...))
		engine.GET(cfg.Metrics.Path, gin.WrapH(httpMetrics.Handler()))
	}

	checks := map[string]handler.HealthCheck{"database": db.Ping}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	health := handler.NewHealthHandler(version, checks)
	engine.GET("/health", health.Live)
	engine.GET("/ready", health.Ready)

	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any",
			middleware.SwaggerProtection(middleware.SwaggerConfig{
				Enabled:     cfg.Swagger.Enabled,
				RequireAuth: cfg.Swagger.RequireAuth,
				AllowedIPs:  cfg.Swagger.AllowedIPs,
			}, middleware.Auth(authService)),
			ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRPS, cfg.HTTP.AuthRateLimitBurst)
	apiLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
	guards := router.Guards{
		Protected: []gin.HandlerFunc{middleware.Auth(authService)},
	}
	if cfg.HTTP.RateLimitEnabled {
		guards.Public = append(guards.Public, middleware.RateLimit(authLimiter))
		guards.Protected = append(guards.Protected, middleware.RateLimit(apiLimiter))
	}
	guards.Protected = append(guards.Protected, middleware.Profiling(profiler.Enabled()))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	router.RegisterAll(r, router.Handlers{
		Auth:       handler.NewAuthHandler(authService, userService),
		Tenant:     handler.NewTenantHandler(subscriptionService),
		Branch:     handler.NewBranchHandler(branchService),
		Inventory:  handler.NewInventoryHandler(inventoryService),
		Menu:       handler.NewMenuHandler(menuService),
		Purchasing: handler.NewPurchasingHandler(supplierService, purchaseOrderService),
		Shift:      handler.NewShiftHandler(shiftService),
		Sale:       handler.NewSaleHandler(saleService),
		Sync:       handler.NewSyncHandler(syncService, streamer),
		Report:     handler.NewReportHandler(reportService),
		Assistant:  handler.NewAssistantHandler(assistantService),
		Webhook:    handler.NewWebhookHandler(webhooks.stripe, webhooks.paypal, webhooks.xendit, cfg.HTTP.WebhookBodyLimit),
	}, guards).Setup()

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error {
		authLimiter.Run(gctx, time.Minute)
		return nil
	})
	g.Go(func() error {
		apiLimiter.Run(gctx, time.Minute)
		return nil
	})
	if err := jobs.Start(gctx); err != nil {
		return err
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		// Streams never end on their own; close them before draining requests
		hub.Close()
		err := srv.Shutdown(shutdownCtx)
		err = errors.Join(err, jobs.Stop(shutdownCtx), eventBus.Stop(shutdownCtx))
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Server exited with error", zap.Error(err))
		return err
	}
	log.Info("Server exited gracefully")
	return nil
}
