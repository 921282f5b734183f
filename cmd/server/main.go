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

	"github.com/redis/go-redis/v9"

	"github.com/ignite/audience-console/internal/api"
	"github.com/ignite/audience-console/internal/config"
	"github.com/ignite/audience-console/internal/pkg/logger"
	"github.com/ignite/audience-console/internal/segmentation"
	"github.com/ignite/audience-console/internal/service/campaign"
	"github.com/ignite/audience-console/internal/service/contact"
	"github.com/ignite/audience-console/internal/service/segment"
	"github.com/ignite/audience-console/internal/service/template"
	"github.com/ignite/audience-console/internal/storage"
	"github.com/ignite/audience-console/internal/worker"
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
	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  IGNITE Audience Console (cmd/server/main.go)              ║")
	log.Println("║  Segmentation, contacts and campaign sending over AWS      ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(!cfg.Logging.DisableRedaction)

	// Pre-flight: fail fast when the port is taken instead of letting the
	// listener error surface later in a goroutine.
	if err := checkPortAvailable(cfg.Server.GetHost(), cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DynamoDB-backed stores, one per entity, over a shared AWS session
	store, err := storage.NewAWSStorage(ctx, cfg.AWS.DynamoDBTable, cfg.AWS.S3Bucket, cfg.AWS.Region, cfg.AWS.GetProfile())
	if err != nil {
		log.Fatalf("Failed to initialize AWS storage: %v", err)
	}
	log.Printf("DynamoDB storage initialized: table=%s region=%s", cfg.AWS.DynamoDBTable, cfg.AWS.Region)

	contactStore := storage.NewContactStore(store)
	segmentStore := storage.NewSegmentStore(store)
	memberStore := storage.NewMemberStore(store)
	campaignStore := storage.NewCampaignStore(store)
	templateStore := storage.NewTemplateStore(store)

	var snapshotStore *storage.SnapshotStore
	if cfg.AWS.S3Bucket != "" {
		snapshotStore = storage.NewSnapshotStore(store)
		log.Printf("Audience snapshots enabled: s3://%s", cfg.AWS.S3Bucket)
	} else {
		log.Println("Audience snapshots disabled (no S3 bucket configured)")
	}

	// Redis is optional; without it campaign locking falls back to
	// in-process locks, which is only safe for a single instance.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		opts, err := redis.ParseURL(cfg.Redis.Addr)
		if err != nil {
			redisClient = redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
		} else {
			redisClient = redis.NewClient(opts)
		}
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed (%s): %v, falling back to in-process locks", cfg.Redis.Addr, err)
			redisClient.Close()
			redisClient = nil
		} else {
			log.Printf("Redis connected: %s (distributed locking enabled)", cfg.Redis.Addr)
		}
		pingCancel()
	} else {
		log.Println("Redis not configured (REDIS_URL not set), using in-process locks")
	}

	// Rule engine and services
	engine := segmentation.NewEngine(contactStore, cfg.Segmentation.PageSize)

	contactSvc := contact.NewService(contactStore)
	segmentSvc := segment.NewService(segmentStore, memberStore, engine)
	if snapshotStore != nil {
		segmentSvc.SetSnapshotStore(snapshotStore)
	}
	if redisClient != nil {
		segmentSvc.SetRedisClient(redisClient)
	}
	templateSvc := template.NewService(templateStore)
	campaignSvc := campaign.NewService(campaignStore, templateStore)
	if cfg.Sending.FromEmail != "" {
		campaignSvc.SetDefaultSender(cfg.Sending.FromEmail, cfg.Sending.FromName)
	}

	// Campaign send worker polling for queued campaigns
	sesSender := worker.NewSESSender(ctx, cfg.AWS.Region, cfg.AWS.GetProfile())
	campaignWorker := worker.NewCampaignSender(campaignStore, segmentSvc, templateStore, sesSender, worker.Config{
		PollInterval:     cfg.Sending.SendInterval(),
		BatchSize:        cfg.Sending.BatchSize,
		DefaultFromEmail: cfg.Sending.FromEmail,
		DefaultFromName:  cfg.Sending.FromName,
		DefaultReplyTo:   cfg.Sending.ReplyTo,
	})
	if redisClient != nil {
		campaignWorker.SetRedisClient(redisClient)
	}
	if snapshotStore != nil {
		campaignWorker.SetSnapshotStore(snapshotStore)
	}
	if err := campaignWorker.Start(); err != nil {
		log.Fatalf("Failed to start campaign sender: %v", err)
	}

	handlers := api.NewHandlers(contactSvc, segmentSvc, campaignSvc, templateSvc)
	server := api.NewServer(handlers)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized, server is ready")

	<-done
	log.Println("Shutting down...")

	// Stop the worker first so no send starts mid-shutdown
	campaignWorker.Stop()
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if redisClient != nil {
		redisClient.Close()
	}

	log.Println("Server stopped")
}
