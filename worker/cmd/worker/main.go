package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"subtitler/pkg/gofile"
	"subtitler/pkg/retry"
	"subtitler/worker/cache"
	"subtitler/worker/config"
	"subtitler/worker/kafka"
	"subtitler/worker/pool"
	"subtitler/worker/repository"
	"subtitler/worker/service"
	"subtitler/worker/subtitle"
)

func main() {
	godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()
	logger.Info("Worker service starting",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic),
		zap.Int("workers", cfg.WorkerCount),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancel()
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	cancel()
	defer rdb.Close()

	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, logger)
	if err != nil {
		logger.Fatal("Failed to create kafka consumer", zap.Error(err))
	}
	defer consumer.Close()

	repo := repository.NewPostgresRepo(db)
	statusCache := cache.NewStatusCache(rdb)
	transfer := gofile.NewClient(cfg.GofileBaseURL, retry.New(), logger)
	transcriber := subtitle.NewWhisperCLI(cfg.WhisperBin, cfg.FFmpegBin, logger)
	processor := service.NewProcessor(repo, statusCache, transfer, transcriber, cfg.TaskTimeout, logger)

	workers := pool.NewWorkerPool(cfg.WorkerCount)

	for {
		err := consumer.Consume(ctx, cfg.KafkaTopic, func(ctx context.Context, msg *kafka.TaskMessage) error {
			workers.Submit(ctx, func(ctx context.Context) {
				processor.Process(ctx, msg)
			})
			return nil
		})
		if errors.Is(ctx.Err(), context.Canceled) {
			break
		}
		if err != nil {
			logger.Error("Consumer error, rejoining group", zap.Error(err))
			time.Sleep(time.Second)
		}
	}

	logger.Info("Draining in-flight tasks")
	workers.Wait()
	logger.Info("Worker stopped")
}
