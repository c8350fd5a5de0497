// Package bootstrap wires configuration into the store, lock and notification
// components shared by the server and the operator tools.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/admission"
	"github.com/fabworks/orderapi/internal/config"
	"github.com/fabworks/orderapi/internal/notification"
	"github.com/fabworks/orderapi/internal/repository"
	"github.com/fabworks/orderapi/internal/repository/memory"
	"github.com/fabworks/orderapi/internal/repository/mongo"
	"github.com/fabworks/orderapi/internal/repository/postgres"
)

// NewLogger returns a production logger in production and a development one elsewhere
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Environment == "production" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}

// OpenRepositories connects the configured store. The returned func releases it.
func OpenRepositories(ctx context.Context, cfg *config.Config, migrate bool, logger *zap.Logger) (*repository.Repositories, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if migrate {
			if err := postgres.RunMigrations(cfg.Database, logger); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		return postgres.NewRepositories(db, logger), func() { db.Close() }, nil

	case config.StoreDriverMongo:
		client, db, err := mongo.NewConnection(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to mongo: %w", err)
		}
		closer := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				logger.Warn("Failed to disconnect from mongo", zap.Error(err))
			}
		}
		if migrate {
			if err := mongo.EnsureIndexes(ctx, db, logger); err != nil {
				closer()
				return nil, nil, fmt.Errorf("ensure indexes: %w", err)
			}
		}
		return mongo.NewRepositories(db, logger), closer, nil

	case config.StoreDriverMemory:
		logger.Warn("Using in-memory store: orders are lost on restart")
		return memory.NewRepositories(logger), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// NewLocker returns a Redis-backed admission lock when Redis is configured,
// otherwise a process-local one
func NewLocker(ctx context.Context, cfg *config.Config, logger *zap.Logger) (admission.Locker, func(), error) {
	if cfg.Redis.Addr == "" {
		return admission.NewLocalLocker(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	logger.Info("Using Redis admission lock", zap.String("addr", cfg.Redis.Addr))
	locker := admission.NewRedisLocker(client, cfg.Admission.LockTTL, cfg.Admission.LockWait, logger)
	return locker, func() { client.Close() }, nil
}

// NewDispatcher builds the notification dispatcher, falling back to log-only
// senders for transports that are not configured. The dispatcher is not started.
func NewDispatcher(cfg *config.Config, logger *zap.Logger) (*notification.Dispatcher, func(), error) {
	renderer, err := notification.NewRenderer(cfg.Notification.CompanyName)
	if err != nil {
		return nil, nil, fmt.Errorf("load templates: %w", err)
	}

	var email notification.EmailSender = notification.LogEmailSender{Logger: logger}
	if cfg.SMTP.Host != "" {
		email = notification.NewSMTPSender(cfg.SMTP, logger)
	} else {
		logger.Warn("SMTP not configured: emails will only be logged")
	}

	var whatsapp notification.MessageSender = notification.LogMessageSender{Logger: logger}
	if cfg.WhatsApp.APIURL != "" {
		whatsapp = notification.NewWhatsAppSender(cfg.WhatsApp, nil, logger)
	} else {
		logger.Warn("WhatsApp not configured: messages will only be logged")
	}

	var publisher notification.EventPublisher
	closer := func() {}
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := notification.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to kafka: %w", err)
		}
		publisher = kp
		closer = func() {
			if err := kp.Close(); err != nil {
				logger.Warn("Failed to close kafka producer", zap.Error(err))
			}
		}
	}

	d := notification.NewDispatcher(renderer, email, whatsapp, publisher, notification.Options{
		Workers:      cfg.Notification.Workers,
		QueueSize:    cfg.Notification.QueueSize,
		Timeout:      cfg.Notification.Timeout,
		StaffEmails:  cfg.Notification.StaffEmails,
		StaffNumbers: cfg.WhatsApp.StaffNumbers,
	}, logger)
	return d, closer, nil
}
