package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alphafinder/rategate/internal/alert"
	"github.com/alphafinder/rategate/internal/audit"
	"github.com/alphafinder/rategate/internal/config"
	"github.com/alphafinder/rategate/internal/handlers"
	"github.com/alphafinder/rategate/internal/logger"
	"github.com/alphafinder/rategate/internal/middleware"
	"github.com/alphafinder/rategate/internal/ratelimit"
	"github.com/alphafinder/rategate/internal/request"
	"github.com/alphafinder/rategate/internal/store"
	"github.com/alphafinder/rategate/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.Int("global_max_requests", cfg.GlobalMaxRequests),
		zap.Int("global_window_seconds", cfg.GlobalWindowSeconds),
		zap.String("identity_resolver", cfg.IdentityResolver),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// Initialize OpenTelemetry if enabled
	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "rategate", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized",
					zap.String("endpoint", cfg.OTELEndpoint),
				)
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Shared store. An unreachable store is not fatal: the limiter fails
	// open until the store recovers.
	sharedStore, err := store.NewRedisStore(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("invalid_redis_url", zap.Error(err))
	}
	defer func() {
		if err := sharedStore.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := sharedStore.Ping(pingCtx); err != nil {
		zapLogger.Warn("redis_unreachable_at_startup_failing_open", zap.Error(err))
	} else {
		zapLogger.Info("connected_to_redis")
	}
	pingCancel()

	// Degraded-mode alerting: RabbitMQ when configured, log-only otherwise.
	var notifier ratelimit.Notifier = alert.NewLogNotifier(zapLogger)
	if cfg.RabbitMQURL != "" {
		amqpNotifier, err := alert.NewAMQPNotifier(cfg.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Warn("failed_to_connect_to_rabbitmq_using_log_alerts", zap.Error(err))
		} else {
			notifier = amqpNotifier
			zapLogger.Info("connected_to_rabbitmq")
			defer func() {
				if err := amqpNotifier.Close(); err != nil {
					zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
				}
			}()
		}
	}

	// Core limiter components
	health := ratelimit.NewHealth(zapLogger, notifier)
	limiter := ratelimit.NewLimiter(sharedStore, health, zapLogger,
		ratelimit.WithStoreTimeout(time.Duration(cfg.StoreTimeoutMillis)*time.Millisecond),
	)
	whitelist := ratelimit.NewWhitelist(sharedStore, health, zapLogger)
	adminService := ratelimit.NewAdmin(sharedStore)

	// Admin audit trail (optional)
	var auditRepo *audit.Repository
	if cfg.DatabaseURL != "" {
		auditRepo, err = audit.New(cfg.DatabaseURL)
		if err != nil {
			zapLogger.Warn("failed_to_connect_to_audit_database", zap.Error(err))
			auditRepo = nil
		} else {
			zapLogger.Info("connected_to_audit_database")
			defer func() {
				if err := auditRepo.Close(); err != nil {
					zapLogger.Warn("failed_to_close_audit_database", zap.Error(err))
				}
			}()
		}
	}

	var resolver request.IdentityResolver = request.IPResolver{}
	if cfg.IdentityResolver == "principal" {
		resolver = request.PrincipalResolver{}
	}

	globalGate, err := middleware.GlobalRateLimit(limiter, whitelist,
		ratelimit.GateConfig{
			MaxRequests:   cfg.GlobalMaxRequests,
			WindowSeconds: cfg.GlobalWindowSeconds,
		},
		cfg.ExcludePaths, resolver, zapLogger,
	)
	if err != nil {
		zapLogger.Fatal("invalid_global_gate_configuration", zap.Error(err))
	}

	// Setup router
	r := mux.NewRouter()

	if cfg.OTELEnabled && tracerProvider != nil {
		r.Use(otelmux.Middleware("rategate"))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.RequestID)
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger))
	r.Use(globalGate)

	// Health check bypasses the gate via the exclusion list
	healthChecker := handlers.NewHealthChecker(sharedStore, health)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")

	// Gated API routes
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.HandleFunc("/ping", handlers.Ping).Methods("GET")

	// Endpoint gates declared in the gates file: stricter per-route limits
	// layered inside the global gate.
	gates, err := config.LoadGates(cfg.GatesFile)
	if err != nil {
		zapLogger.Fatal("invalid_endpoint_gates_file", zap.Error(err))
	}
	for _, gate := range gates {
		endpointGate, err := middleware.EndpointRateLimit(limiter, whitelist,
			ratelimit.GateConfig{
				MaxRequests:   gate.MaxRequests,
				WindowSeconds: gate.WindowSeconds,
				PathPattern:   gate.Path,
			},
			resolver, zapLogger,
		)
		if err != nil {
			zapLogger.Fatal("invalid_endpoint_gate_configuration",
				zap.Error(err),
				zap.String("path", gate.Path),
			)
		}
		gateRouter := r.Path(gate.Path).Subrouter()
		gateRouter.Use(endpointGate)
		gateRouter.HandleFunc("", handlers.Sensitive).Methods("GET", "POST")
		zapLogger.Info("registered_endpoint_gate",
			zap.String("path", gate.Path),
			zap.Int("max_requests", gate.MaxRequests),
			zap.Int("window_seconds", gate.WindowSeconds),
		)
	}

	// Admin surface: API-key guarded, throttled independently of the engine
	adminLimit, err := middleware.AdminRateLimit(sharedStore.Client(), cfg.AdminRate)
	if err != nil {
		zapLogger.Fatal("invalid_admin_rate_configuration", zap.Error(err))
	}
	adminRouter := r.PathPrefix("/admin/rate-limiter").Subrouter()
	adminRouter.Use(adminLimit)
	adminOpts := []handlers.AdminOption{}
	if auditRepo != nil {
		adminOpts = append(adminOpts, handlers.WithAuditor(auditRepo))
	}
	adminHandler := handlers.NewAdminHandler(whitelist, adminService, cfg.AdminAPIKey, zapLogger, adminOpts...)
	adminHandler.RegisterRoutes(adminRouter)

	var handler http.Handler = r
	if len(cfg.AllowedOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization", handlers.APIKeyHeader},
			AllowCredentials: true,
		})
		handler = c.Handler(r)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        handler,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting",
			zap.String("port", cfg.ServerPort),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}
