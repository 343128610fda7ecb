package service

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang-market-oracle/internal/entity"
	"golang-market-oracle/internal/ingestor/config"
	"golang-market-oracle/internal/ingestor/dto"
	"golang-market-oracle/internal/ingestor/repository"
	"golang-market-oracle/pkg/common"
	"golang-market-oracle/pkg/logger"
	"golang-market-oracle/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
	"github.com/mmcdole/gofeed"
	"github.com/patrickmn/go-cache"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
)

// IngestorService consumes feed tasks and archives the resulting articles.
type IngestorService interface {
	ProcessTask(ctx context.Context)
	IngestFeed(ctx context.Context, task dto.FeedTask) error
}

// NewIngestorService creates a new IngestorService.
func NewIngestorService(
	cfg *config.Config,
	log *logger.Logger,
	redisClient *goredis.Client,
	articleRepo repository.NewsArticleRepository,
	embeddingRepo repository.EmbeddingRepository,
	vectorRepo repository.VectorRepository,
) IngestorService {
	return &ingestorService{
		cfg:           cfg,
		logger:        log,
		redisClient:   redisClient,
		articleRepo:   articleRepo,
		embeddingRepo: embeddingRepo,
		vectorRepo:    vectorRepo,
		feedParser:    gofeed.NewParser(),
		client:        &http.Client{Timeout: 30 * time.Second},
		dedupeCache:   cache.New(cfg.Ingestor.DedupeCacheTTL, cfg.Ingestor.DedupeCacheCleanupPeriod),
	}
}

type ingestorService struct {
	cfg           *config.Config
	logger        *logger.Logger
	redisClient   *goredis.Client
	articleRepo   repository.NewsArticleRepository
	embeddingRepo repository.EmbeddingRepository
	vectorRepo    repository.VectorRepository
	feedParser    *gofeed.Parser
	client        *http.Client
	dedupeCache   *cache.Cache
}

// ProcessTask dequeues and ingests a single feed task.
func (s *ingestorService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &goredis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamNewsIngestion, ">"}, // ">" means only new messages
		Count:    1,
		Block:    2 * time.Second, // Block for 2 seconds to allow graceful shutdown
		NoAck:    true,
	}).Result()

	if err != nil {
		// Ignore context cancellation and timeout errors, as they are expected during shutdown or idle periods.
		if err == context.Canceled || err == goredis.Nil {
			return
		}
		s.logger.Error("Failed to read from stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}

	message := streams[0].Messages[0]

	taskData, ok := message.Values["payload"].(string)
	if !ok {
		s.logger.Error("field 'payload' not found or not a string in stream message", logger.Field("message_id", message.ID))
		return
	}

	var task dto.FeedTask
	if err := json.Unmarshal([]byte(taskData), &task); err != nil {
		s.logger.Error("Failed to unmarshal feed task", logger.ErrorField(err), logger.Field("message_id", message.ID))
		return
	}

	s.logger.Info("Processing feed task",
		logger.StringField("category", task.Category),
		logger.StringField("feed_url", task.FeedURL),
	)

	if err := s.IngestFeed(ctx, task); err != nil {
		s.logger.Error("Failed to ingest feed", logger.ErrorField(err), logger.StringField("feed_url", task.FeedURL))
	}
}

// IngestFeed polls one RSS feed and archives the articles it has not seen yet.
func (s *ingestorService) IngestFeed(ctx context.Context, task dto.FeedTask) error {
	feed, err := s.feedParser.ParseURLWithContext(task.FeedURL, ctx)
	if err != nil {
		return fmt.Errorf("failed to parse RSS feed: %w", err)
	}

	// Sort items by published date descending
	sort.Slice(feed.Items, func(i, j int) bool {
		if feed.Items[i].PublishedParsed == nil || feed.Items[j].PublishedParsed == nil {
			return false
		}
		return feed.Items[i].PublishedParsed.After(*feed.Items[j].PublishedParsed)
	})

	items, err := s.filterExistingItems(ctx, feed.Items)
	if err != nil {
		return fmt.Errorf("failed to filter existing feed items: %w", err)
	}

	s.logger.Info("Filtered feed items",
		logger.IntField("original_count", len(feed.Items)),
		logger.IntField("filtered_count", len(items)),
		logger.StringField("feed_url", task.FeedURL),
	)

	countSuccess := 0
	for _, item := range items {
		if !utils.ShouldContinue(ctx, s.logger) {
			return ctx.Err()
		}
		if countSuccess >= s.cfg.Ingestor.MaxArticlesPerFeed {
			break
		}

		saved, err := s.processFeedItem(ctx, item, task)
		if err != nil {
			s.logger.Error("Failed to process feed item", logger.ErrorField(err), logger.StringField("title", item.Title))
			continue
		}
		if saved {
			countSuccess++
			if s.cfg.Ingestor.FetchDelay > 0 {
				time.Sleep(s.cfg.Ingestor.FetchDelay)
			}
		}
	}

	s.logger.Info("Feed ingestion completed",
		logger.StringField("feed_url", task.FeedURL),
		logger.IntField("saved", countSuccess),
	)
	return nil
}

// filterExistingItems drops items that are too old, already cached, or
// already present in the archive.
func (s *ingestorService) filterExistingItems(ctx context.Context, items []*gofeed.Item) ([]*gofeed.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	hashMap := make(map[string]*gofeed.Item)
	var hashStrings []string
	for _, item := range items {
		hash := hashFeedItem(item)
		hashMap[hash] = item
		hashStrings = append(hashStrings, hash)
	}

	existing, err := s.articleRepo.FindExistingHashes(ctx, hashStrings)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch existing articles: %w", err)
	}

	maxAge := time.Duration(s.cfg.Ingestor.MaxArticleAgeInDays) * 24 * time.Hour
	cutoff := time.Now().Add(-maxAge)

	var filtered []*gofeed.Item
	for hash, item := range hashMap {
		if existing[hash] {
			continue
		}
		if _, seen := s.dedupeCache.Get(hash); seen {
			continue
		}
		if item.PublishedParsed == nil {
			s.logger.Info("Feed item has no published date", logger.StringField("link", item.Link))
			continue
		}
		if item.PublishedParsed.Before(cutoff) {
			continue
		}
		filtered = append(filtered, item)
	}

	return filtered, nil
}

func (s *ingestorService) processFeedItem(ctx context.Context, item *gofeed.Item, task dto.FeedTask) (bool, error) {
	hash := hashFeedItem(item)
	s.dedupeCache.Set(hash, struct{}{}, cache.DefaultExpiration)

	parsedURL, err := url.Parse(item.Link)
	if err != nil {
		return false, fmt.Errorf("failed to parse article URL: %w", err)
	}

	if utils.ContainsString(s.cfg.Ingestor.BlacklistedDomains, parsedURL.Hostname()) {
		s.logger.Warn("Skip article from blacklisted domain", logger.StringField("domain", parsedURL.Hostname()))
		return false, nil
	}

	content, err := s.extractContent(ctx, item.Link)
	if err != nil {
		return false, fmt.Errorf("failed to extract article content: %w", err)
	}

	metadata, err := json.Marshal(map[string]string{
		"feed_url":  task.FeedURL,
		"feed_item": item.GUID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal article metadata: %w", err)
	}

	article := &entity.NewsArticle{
		Title:          utils.CleanToValidUTF8(item.Title),
		Link:           item.Link,
		PublishedAt:    item.PublishedParsed,
		RawContent:     content,
		HashIdentifier: hash,
		Source:         parsedURL.Hostname(),
		Category:       task.Category,
		FeedURL:        task.FeedURL,
		Keywords:       item.Categories,
		Metadata:       datatypes.JSON(metadata),
	}

	inserted, err := s.articleRepo.CreateIgnoreConflict(ctx, article)
	if err != nil {
		return false, fmt.Errorf("failed to save article: %w", err)
	}
	if !inserted {
		return false, nil
	}

	if err := s.indexArticle(ctx, article); err != nil {
		// Vector indexing is best effort, the archive row survives either way.
		s.logger.Warn("Failed to index article", logger.ErrorField(err), logger.StringField("link", article.Link))
	}

	return true, nil
}

// indexArticle embeds the article text and upserts it into the vector index.
func (s *ingestorService) indexArticle(ctx context.Context, article *entity.NewsArticle) error {
	text := article.Title + "\n" + truncateText(article.RawContent, 2000)
	embeddings, err := s.embeddingRepo.EmbedTexts(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("failed to embed article text: %w", err)
	}
	if len(embeddings) == 0 {
		return fmt.Errorf("embedding provider returned no vectors")
	}

	vector := dto.PineconeVector{
		ID:     article.HashIdentifier,
		Values: embeddings[0],
		Metadata: map[string]interface{}{
			"text":     text,
			"title":    article.Title,
			"link":     article.Link,
			"source":   article.Source,
			"category": article.Category,
		},
	}

	if _, err := s.vectorRepo.Upsert(ctx, []dto.PineconeVector{vector}); err != nil {
		return fmt.Errorf("failed to upsert article vector: %w", err)
	}

	return s.articleRepo.MarkIndexed(ctx, article.ID)
}

func (s *ingestorService) extractContent(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", link, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for article: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch article content, status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	doc, err := readability.NewDocument(string(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse article content: %w", err)
	}
	docHTML, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(doc.Content())))
	if err != nil {
		return "", fmt.Errorf("failed to parse article content: %w", err)
	}

	content := strings.TrimSpace(docHTML.Text())
	content = strings.ReplaceAll(content, "\n", " ")
	content = strings.ReplaceAll(content, "\t", " ")
	content = strings.ReplaceAll(content, "\r", " ")
	return utils.CleanToValidUTF8(content), nil
}

func hashFeedItem(item *gofeed.Item) string {
	sum := md5.Sum([]byte(item.Link + "|" + item.Published))
	return hex.EncodeToString(sum[:])
}

func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
