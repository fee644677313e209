package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"payment-pipeline-api/config"
	"payment-pipeline-api/handlers"
	"payment-pipeline-api/middleware"
	"payment-pipeline-api/services/auth"
	"payment-pipeline-api/services/idempotency"
	"payment-pipeline-api/tracing"
	"payment-pipeline-api/utils"
	"payment-pipeline-api/worker"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (overrides SERVER_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log.SetFlags(log.LstdFlags | log.Lshortfile | log.Lmicroseconds | log.LUTC)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Server.Port = servePort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
	if err != nil {
		log.Printf("Warning: tracing disabled: %v", err)
	}

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret, err = utils.GenerateRandomString(48)
		if err != nil {
			return err
		}
		log.Println("Warning: JWT_SECRET not set, using an ephemeral secret; tokens will not survive a restart")
	}
	if cfg.Auth.InternalKey == "" {
		log.Println("Warning: INTERNAL_API_KEY not set, token issuance is disabled")
	}
	jwtService, err := auth.NewJWTService(jwtSecret, cfg.Auth.JWTIssuer)
	if err != nil {
		return err
	}

	var store idempotency.Store = idempotency.NewMemoryStore(idempotency.DefaultTTL)
	var rateLimiter *middleware.RateLimiter
	checks := map[string]handlers.HealthCheck{}
	if a.redis != nil {
		store = idempotency.NewRedisStore(a.redis, idempotency.DefaultTTL)
		rateLimiter, err = middleware.NewRateLimiter(a.redis, cfg.Server.TrustedProxies)
		if err != nil {
			return fmt.Errorf("%w: TRUSTED_PROXIES: %v", config.ErrConfiguration, err)
		}
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}

	var reader handlers.TransactionReader
	if a.db != nil {
		reader = a.db
		checks["database"] = func(ctx context.Context) error { return a.db.GetDB().PingContext(ctx) }
	}

	transactionHandler, err := handlers.NewTransactionHandler(a.service, store, reader, cfg.Log.TransactionLog)
	if err != nil {
		return err
	}

	var notificationWorker *worker.Worker
	if cfg.NotifyAsync && a.queue != nil {
		notificationWorker, err = worker.NewWorker(a.queue, a.dispatcher)
		if err != nil {
			return err
		}
		notificationWorker.Start(cfg.Redis.WorkerConcurrency)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Transactions: transactionHandler,
		Auth:         handlers.NewAuthHandler(jwtService, cfg.Auth.InternalKey),
		Health:       handlers.NewHealthHandler(checks),
		JWT:          jwtService,
		RateLimiter:  rateLimiter,
	})

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   cfg.Stripe.Timeout + 15*time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Println("Shutdown signal received, gracefully shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	log.Println("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if notificationWorker != nil {
		notificationWorker.Stop()
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("Error shutting down tracer provider: %v", err)
	}

	log.Println("Server exited properly")
	return nil
}
