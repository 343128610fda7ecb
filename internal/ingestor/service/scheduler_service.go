package service

import (
	"context"
	"encoding/json"
	"fmt"

	"golang-market-oracle/internal/ingestor/config"
	"golang-market-oracle/internal/ingestor/dto"
	"golang-market-oracle/pkg/common"
	"golang-market-oracle/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

// SchedulerService publishes feed poll tasks on their cron schedules.
type SchedulerService interface {
	Start(ctx context.Context) error
	Stop()
	PublishFeedTask(ctx context.Context, task dto.FeedTask)
}

// NewSchedulerService creates a new scheduler service.
func NewSchedulerService(cfg *config.Config, log *logger.Logger, redisClient *goredis.Client) SchedulerService {
	return &schedulerService{
		cfg:         cfg,
		logger:      log,
		redisClient: redisClient,
		cron:        cron.New(),
	}
}

type schedulerService struct {
	cfg         *config.Config
	logger      *logger.Logger
	redisClient *goredis.Client
	cron        *cron.Cron
}

// Start registers every configured feed with the cron runner and starts it.
func (s *schedulerService) Start(ctx context.Context) error {
	for _, feed := range s.cfg.Ingestor.Feeds {
		task := dto.FeedTask{Category: feed.Category, FeedURL: feed.URL}
		_, err := s.cron.AddFunc(feed.Cron, func() {
			s.PublishFeedTask(ctx, task)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule feed %s: %w", feed.URL, err)
		}
		s.logger.Info("Scheduled feed",
			logger.StringField("category", feed.Category),
			logger.StringField("feed_url", feed.URL),
			logger.StringField("cron", feed.Cron),
		)
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron runner and waits for in-flight jobs.
func (s *schedulerService) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("Feed scheduler stopped")
}

// PublishFeedTask enqueues one feed poll task on the ingestion stream.
func (s *schedulerService) PublishFeedTask(ctx context.Context, task dto.FeedTask) {
	payload, err := json.Marshal(task)
	if err != nil {
		s.logger.Error("Failed to marshal feed task", logger.ErrorField(err), logger.StringField("feed_url", task.FeedURL))
		return
	}

	if err := s.redisClient.XAdd(ctx, &goredis.XAddArgs{
		Stream: common.RedisStreamNewsIngestion,
		Values: map[string]interface{}{"payload": payload},
		MaxLen: s.cfg.Redis.StreamMaxLen, // Limit the stream size
	}).Err(); err != nil {
		s.logger.Error("Failed to enqueue feed task", logger.ErrorField(err), logger.StringField("feed_url", task.FeedURL))
		return
	}

	s.logger.Info("Feed task published", logger.StringField("feed_url", task.FeedURL))
}
