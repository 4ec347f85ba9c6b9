package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/forms-api/internal/api"
	"github.com/ignite/forms-api/internal/archive"
	"github.com/ignite/forms-api/internal/config"
	"github.com/ignite/forms-api/internal/notify"
	"github.com/ignite/forms-api/internal/pkg/logger"
	"github.com/ignite/forms-api/internal/store"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func main() {
	logger.SetLevelFromEnv()

	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Storage.Table == "" {
		log.Fatal("DYNAMO_TABLE is required")
	}
	if cfg.Email.From == "" {
		log.Fatal("EMAIL_FROM is required")
	}

	// Pre-flight check: verify the target port is available
	if err := checkPortAvailable(cfg.Server.Host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	ctx := context.Background()

	// DynamoDB client
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Storage.Region)}
	if cfg.Storage.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Storage.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	submissions := store.New(dynamodb.NewFromConfig(awsCfg), cfg.Storage.Table)

	// SES client, optionally on dedicated credentials
	sesOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Email.Region)}
	if cfg.Email.AccessKey != "" && cfg.Email.SecretKey != "" {
		sesOpts = append(sesOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Email.AccessKey, cfg.Email.SecretKey, "")))
	}
	sesCfg, err := awsconfig.LoadDefaultConfig(ctx, sesOpts...)
	if err != nil {
		log.Fatalf("Failed to load SES config: %v", err)
	}
	notifier := notify.NewService(
		notify.NewSESGateway(sesv2.NewFromConfig(sesCfg)),
		notify.SenderConfig{
			From:            cfg.Email.From,
			FromName:        cfg.Email.FromName,
			ReplyTo:         cfg.Email.ReplyTo,
			AdminRecipients: cfg.Email.AdminRecipients,
		},
		cfg.Retry.Policy(),
	)

	// S3 exporter (optional)
	var exporter api.Exporter
	if cfg.Export.Bucket != "" {
		exporter = archive.NewExporter(s3.NewFromConfig(awsCfg), submissions, cfg.Export.Bucket)
		logger.Info("export enabled", "bucket", cfg.Export.Bucket)
	}

	// Redis rate limiter (optional)
	var limiter *api.RateLimiter
	if cfg.Redis.URL != "" {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		limiter = api.NewRateLimiter(redis.NewClient(redisOpts), cfg.Redis.LimitPerMinute)
		logger.Info("rate limiting enabled", "per_minute", cfg.Redis.LimitPerMinute)
	}

	handlers := api.NewHandlers(submissions, notifier, exporter)
	router := api.SetupRoutes(handlers, cfg.Admin.Token, limiter)
	server := api.NewServer(router)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	logger.Info("server stopped")
}
