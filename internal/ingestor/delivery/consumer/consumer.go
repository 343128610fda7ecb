package consumer

import (
	"context"
	"sync"
	"time"

	"golang-market-oracle/internal/ingestor/config"
	"golang-market-oracle/internal/ingestor/service"
	"golang-market-oracle/pkg/common"
	"golang-market-oracle/pkg/logger"
	"golang-market-oracle/pkg/utils"

	goredis "github.com/redis/go-redis/v9"
)

// RedisConsumer manages the consumption of feed tasks from the Redis stream.
type RedisConsumer struct {
	cfg             *config.Config
	redisClient     *goredis.Client
	ingestorService service.IngestorService
	logger          *logger.Logger
	stopChan        chan struct{}
	wg              sync.WaitGroup
}

// NewRedisConsumer creates a new RedisConsumer.
func NewRedisConsumer(
	cfg *config.Config,
	redisClient *goredis.Client,
	ingestorService service.IngestorService,
	log *logger.Logger,
) *RedisConsumer {
	return &RedisConsumer{
		cfg:             cfg,
		redisClient:     redisClient,
		ingestorService: ingestorService,
		logger:          log,
		stopChan:        make(chan struct{}),
	}
}

// Start begins the consumer's task processing loop.
func (c *RedisConsumer) Start(ctx context.Context) {
	c.logger.Info("Redis consumer started")
	c.registerStreamHandler(ctx, c.ingestorService.ProcessTask, common.RedisStreamNewsIngestion, c.cfg.Ingestor.RedisStreamTaskTimeout)
}

func (c *RedisConsumer) registerStreamHandler(ctx context.Context, fn func(ctx context.Context), streamName string, timeout time.Duration) {
	c.logger.Info("Registering stream handler", logger.Field("stream", streamName))
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Redis consumer stopping due to context cancellation")
				return
			case <-c.stopChan:
				c.logger.Info("Redis consumer stopping")
				return
			default:
				ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
				fn(ctxTimeout)
				cancel()
			}
		}
	})
}

// Stop gracefully shuts down the consumer.
func (c *RedisConsumer) Stop() {
	close(c.stopChan)
	c.wg.Wait()
	c.logger.Info("Redis consumer stopped")
}
