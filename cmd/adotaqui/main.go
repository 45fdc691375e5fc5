package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adotaqui/adotaqui-backend/internal/config"
	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/handler"
	"github.com/adotaqui/adotaqui-backend/internal/infra/asaas"
	"github.com/adotaqui/adotaqui-backend/internal/infra/cache"
	"github.com/adotaqui/adotaqui-backend/internal/infra/observability"
	"github.com/adotaqui/adotaqui-backend/internal/infra/push"
	"github.com/adotaqui/adotaqui-backend/internal/infra/resilience"
	"github.com/adotaqui/adotaqui-backend/internal/infra/supabase"
	"github.com/adotaqui/adotaqui-backend/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.String("storage_bucket", cfg.StorageBucket),
	)

	if cfg.SupabaseURL == "" || cfg.SupabaseSvcKey == "" {
		logger.Fatal("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "adotaqui-backend")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	ongCache := cache.New[domain.ONG](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")
	pushBulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	supabaseClient := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseSvcKey,
		cfg.StorageBucket,
		cb,
		resilienceCfg,
		logger,
	)

	asaasClient := asaas.NewClient(httpClient, cfg.AsaasURL, cfg.AsaasAPIKey, logger)
	expoSender := push.NewExpoSender(httpClient, cfg.ExpoPushURL+"/send", pushBulkhead, metrics, logger)

	// --- Services ---
	notifier := service.NewNotifier(supabaseClient, supabaseClient, expoSender, logger)
	accountSvc := service.NewAccountService(supabaseClient, supabaseClient, logger)
	donationSvc := service.NewDonationService(supabaseClient, supabaseClient, asaasClient, notifier, metrics, logger)
	deviceSvc := service.NewDeviceService(supabaseClient, expoSender, metrics, logger)
	catalogSvc := service.NewCatalogService(supabaseClient, supabaseClient, ongCache, metrics, logger)
	authSvc := service.NewAuthService(cfg.SupabaseJWTSecret, cfg.AdminKeyHash, supabaseClient, logger)

	// --- Router ---
	router := handler.NewRouter(accountSvc, donationSvc, deviceSvc, catalogSvc, notifier, authSvc, metrics, logger, cfg.AllowedOrigins)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
