package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"payment-pipeline-api/config"
	"payment-pipeline-api/database"
	"payment-pipeline-api/queue"
	"payment-pipeline-api/services/email"
	"payment-pipeline-api/services/notification"
	"payment-pipeline-api/services/payment"
	"payment-pipeline-api/services/payment/stripe"
	"payment-pipeline-api/services/sms"
	"payment-pipeline-api/services/txlog"
)

const notificationQueueName = "payment_notifications"

// app holds the wired pipeline and the connections it owns.
type app struct {
	cfg        *config.Config
	service    *payment.Service
	dispatcher *notification.Dispatcher
	redis      *redis.Client
	queue      *queue.Queue
	db         *database.Connection
}

func loadConfig() (*config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	return config.Load()
}

// newApp builds the pipeline. Redis and MySQL are only dialled when configured.
func newApp(ctx context.Context, cfg *config.Config, useRedis bool) (*app, error) {
	a := &app{cfg: cfg}

	gateway, err := stripe.NewClient(cfg.Stripe)
	if err != nil {
		return nil, err
	}

	var emailSender email.EmailSender = email.NewStubSender()
	if cfg.SMTP.Host != "" {
		emailSender = email.NewSMTPService(cfg.SMTP)
		log.Printf("Using SMTP server %s:%s for email notifications", cfg.SMTP.Host, cfg.SMTP.Port)
	}
	smsSender := sms.NewStubSender(cfg.SMS.GatewayName)

	a.dispatcher, err = notification.NewDispatcher(
		notification.NewEmailNotifier(emailSender),
		notification.NewSMSNotifier(smsSender),
	)
	if err != nil {
		return nil, err
	}

	if useRedis && cfg.Redis.Enabled() {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid Redis URL: %w", err)
		}
		a.redis = redis.NewClient(opt)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = a.redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		a.queue = queue.NewQueueWithClient(a.redis, notificationQueueName)
		log.Println("Successfully connected to Redis")
	}

	var notifier payment.Notifier = a.dispatcher
	if cfg.NotifyAsync && a.queue != nil {
		notifier = notification.NewQueuedNotifier(a.queue)
		log.Println("Notifications are delivered asynchronously by the worker")
	}

	opts := []payment.Option{payment.WithLogDestination(cfg.Log.TransactionLog)}
	if cfg.Database.Enabled() {
		a.db, err = database.NewConnection(cfg.Database)
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := a.db.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, payment.WithLedger(a.db))
		log.Println("Successfully connected to database")
	}

	a.service, err = payment.NewService(
		payment.NewCustomerValidator(),
		payment.NewPaymentValidator(),
		gateway,
		notifier,
		txlog.NewFileLogger(cfg.Log.TransactionLog),
		opts...,
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		log.Println("Closing database connections...")
		if err := a.db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}
	if a.redis != nil {
		log.Println("Closing Redis connections...")
		if err := a.redis.Close(); err != nil {
			log.Printf("Error closing Redis: %v", err)
		}
	}
}
