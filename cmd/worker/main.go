package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/audience-console/internal/config"
	"github.com/ignite/audience-console/internal/pkg/logger"
	"github.com/ignite/audience-console/internal/segmentation"
	"github.com/ignite/audience-console/internal/service/segment"
	"github.com/ignite/audience-console/internal/storage"
	"github.com/ignite/audience-console/internal/worker"
)

// Headless campaign sender. Runs the same CampaignSender the API server
// embeds, for deployments that separate serving from sending.
func main() {
	log.Println("Starting IGNITE Audience Console send worker...")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(!cfg.Logging.DisableRedaction)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
	}

	engine := segmentation.NewEngine(contactStore, cfg.Segmentation.PageSize)
	segmentSvc := segment.NewService(segmentStore, memberStore, engine)
	if cfg.AWS.S3Bucket != "" {
		segmentSvc.SetSnapshotStore(storage.NewSnapshotStore(store))
	}
	if redisClient != nil {
		segmentSvc.SetRedisClient(redisClient)
	}

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
	if cfg.AWS.S3Bucket != "" {
		campaignWorker.SetSnapshotStore(storage.NewSnapshotStore(store))
	}
	if err := campaignWorker.Start(); err != nil {
		log.Fatalf("Failed to start campaign sender: %v", err)
	}

	// Heartbeat so operators can see liveness and throughput in the logs
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Printf("Worker heartbeat: %v", campaignWorker.Stats())
			}
		}
	}()

	log.Println("Worker running...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down worker...")
	campaignWorker.Stop()
	cancel()

	if redisClient != nil {
		redisClient.Close()
	}

	log.Println("Worker stopped")
}
