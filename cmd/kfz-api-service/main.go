// cmd/kfz-api-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Dali1789/KFZ-API-Service/internal/booking"
	"github.com/Dali1789/KFZ-API-Service/internal/common/aws"
	"github.com/Dali1789/KFZ-API-Service/internal/common/config"
	"github.com/Dali1789/KFZ-API-Service/internal/common/database"
	"github.com/Dali1789/KFZ-API-Service/internal/common/logger"
	"github.com/Dali1789/KFZ-API-Service/internal/common/observability"
	"github.com/Dali1789/KFZ-API-Service/internal/extraction"
	"github.com/Dali1789/KFZ-API-Service/internal/intake"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting KFZ API service...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		rdb = database.NewRedis(cfg.Database.Redis)
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry (optional) ---
	var archive booking.Archiver
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		archive = booking.NewTranscriptArchive(esClient.Client, cfg.Database.Elasticsearch.Index, log)
		zapLog.Info("Elasticsearch connected successfully")
	} else {
		zapLog.Info("Elasticsearch disabled, transcript archiving off")
	}

	// --- Init Notification Clients ---
	var sesClient booking.SESService
	if cfg.Integrations.AWS.SES.Enabled {
		client, err := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		sesClient = client
	}

	var snsClient booking.SNSService
	if cfg.Integrations.AWS.SNS.Enabled {
		client, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		snsClient = client
	}

	// --- Bootstrap Project Context ---
	store := booking.NewStore(pg.DB, log)

	var project *booking.Project
	err = retryWithBackoff(func() error {
		var err error
		project, err = store.EnsureProject(ctx, cfg.Booking.ProjectNumber, cfg.Booking.ProjectName)
		return err
	}, 5, 2*time.Second, zapLog, "Project bootstrap")

	if err != nil {
		zapLog.Fatal("project bootstrap failed after retries", zap.Error(err))
	}
	zapLog.Info("Project context resolved",
		zap.String("projectId", project.ID),
		zap.String("projectNumber", project.Number),
	)

	// --- Assemble Pipeline ---
	guard := booking.NewCallGuard(rdb.Client, time.Duration(cfg.Booking.DedupeTTL)*time.Second)
	notifier := booking.NewNotifier(
		sesClient, snsClient,
		cfg.Integrations.AWS.SES.FromEmail,
		cfg.Booking.OfficeEmail,
		cfg.Booking.OfficePhone,
		cfg.Integrations.AWS.SNS.DefaultSMSSenderID,
		log,
	)
	engine := extraction.NewEngine(log)
	service := booking.NewService(store, guard, archive, notifier, engine, project, cfg.Booking.ArchiveRequired, log)

	handler := intake.NewHandler(service, cfg.Server.WebhookSecret, obs, log)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("Webhook server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("webhook server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down webhook server", zap.Error(err))
	}

	zapLog.Info("KFZ API service stopped gracefully")
}
