package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"golang-market-oracle/internal/entity"
	"golang-market-oracle/internal/ingestor/config"
	"golang-market-oracle/internal/ingestor/dto"
	"golang-market-oracle/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArticleRepo struct {
	saved    []*entity.NewsArticle
	existing map[string]bool
	indexed  []uint
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{existing: make(map[string]bool)}
}

func (f *fakeArticleRepo) CreateIgnoreConflict(_ context.Context, article *entity.NewsArticle) (bool, error) {
	if f.existing[article.HashIdentifier] {
		return false, nil
	}
	f.existing[article.HashIdentifier] = true
	article.ID = uint(len(f.saved) + 1)
	f.saved = append(f.saved, article)
	return true, nil
}

func (f *fakeArticleRepo) FindExistingHashes(_ context.Context, hashes []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, h := range hashes {
		if f.existing[h] {
			out[h] = true
		}
	}
	return out, nil
}

func (f *fakeArticleRepo) MarkIndexed(_ context.Context, id uint) error {
	f.indexed = append(f.indexed, id)
	return nil
}

type fakeEmbeddingRepo struct {
	err   error
	texts []string
}

func (f *fakeEmbeddingRepo) EmbedTexts(_ context.Context, texts []string) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.texts = append(f.texts, texts...)
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{0.1, 0.2, 0.3}
	}
	return out, nil
}

type fakeVectorRepo struct {
	upserted []dto.PineconeVector
}

func (f *fakeVectorRepo) Upsert(_ context.Context, vectors []dto.PineconeVector) (int, error) {
	f.upserted = append(f.upserted, vectors...)
	return len(vectors), nil
}

const articleHTML = `<html><head><title>Fed cuts rates</title></head><body>
<div id="content">
<p>The Federal Reserve cut its benchmark interest rate by a quarter point on Wednesday,
citing a cooling labor market and softer inflation readings over the last three months.</p>
<p>Market participants had priced in the move for weeks, and prediction markets on the
decision had traded above ninety cents on the yes side since the previous meeting.</p>
<p>Officials signaled that further cuts would depend on incoming data rather than a
preset path, leaving the outlook for the next quarter unusually open.</p>
</div>
</body></html>`

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		pub := time.Now().Add(-time.Hour).Format(time.RFC1123Z)
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Economy News</title>
<item>
  <title>Fed cuts rates</title>
  <link>%s/articles/fed-cuts-rates</link>
  <guid>%s/articles/fed-cuts-rates</guid>
  <pubDate>%s</pubDate>
  <category>economy</category>
  <category>rates</category>
</item>
</channel>
</rss>`, server.URL, server.URL, pub)
	})
	mux.HandleFunc("/articles/fed-cuts-rates", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, articleHTML)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func ingestorTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Ingestor.MaxArticlesPerFeed = 10
	cfg.Ingestor.MaxArticleAgeInDays = 3
	cfg.Ingestor.DedupeCacheTTL = time.Minute
	cfg.Ingestor.DedupeCacheCleanupPeriod = time.Minute
	return cfg
}

func ingestorTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

func TestIngestFeed_ArchivesAndIndexesArticle(t *testing.T) {
	server := feedServer(t)
	articles := newFakeArticleRepo()
	embedder := &fakeEmbeddingRepo{}
	vectors := &fakeVectorRepo{}

	svc := NewIngestorService(ingestorTestConfig(), ingestorTestLogger(t), nil, articles, embedder, vectors)

	err := svc.IngestFeed(context.Background(), dto.FeedTask{Category: "economy", FeedURL: server.URL + "/feed"})
	require.NoError(t, err)

	require.Len(t, articles.saved, 1)
	article := articles.saved[0]
	assert.Equal(t, "Fed cuts rates", article.Title)
	assert.Equal(t, "economy", article.Category)
	assert.Equal(t, server.URL+"/feed", article.FeedURL)
	assert.NotEmpty(t, article.HashIdentifier)
	assert.Contains(t, article.RawContent, "Federal Reserve")
	assert.Equal(t, []string{"economy", "rates"}, []string(article.Keywords))

	host, err := url.Parse(server.URL)
	require.NoError(t, err)
	assert.Equal(t, host.Hostname(), article.Source)

	require.Len(t, vectors.upserted, 1)
	assert.Equal(t, article.HashIdentifier, vectors.upserted[0].ID)
	assert.Equal(t, "economy", vectors.upserted[0].Metadata["category"])
	assert.Equal(t, []uint{article.ID}, articles.indexed)
}

func TestIngestFeed_SecondRunIsIdempotent(t *testing.T) {
	server := feedServer(t)
	articles := newFakeArticleRepo()
	embedder := &fakeEmbeddingRepo{}
	vectors := &fakeVectorRepo{}

	svc := NewIngestorService(ingestorTestConfig(), ingestorTestLogger(t), nil, articles, embedder, vectors)
	task := dto.FeedTask{Category: "economy", FeedURL: server.URL + "/feed"}

	require.NoError(t, svc.IngestFeed(context.Background(), task))
	require.NoError(t, svc.IngestFeed(context.Background(), task))

	assert.Len(t, articles.saved, 1)
	assert.Len(t, vectors.upserted, 1)
}

func TestIngestFeed_BlacklistedDomainSkipped(t *testing.T) {
	server := feedServer(t)
	host, err := url.Parse(server.URL)
	require.NoError(t, err)

	cfg := ingestorTestConfig()
	cfg.Ingestor.BlacklistedDomains = []string{host.Hostname()}

	articles := newFakeArticleRepo()
	svc := NewIngestorService(cfg, ingestorTestLogger(t), nil, articles, &fakeEmbeddingRepo{}, &fakeVectorRepo{})

	require.NoError(t, svc.IngestFeed(context.Background(), dto.FeedTask{Category: "economy", FeedURL: server.URL + "/feed"}))

	assert.Empty(t, articles.saved)
}

func TestIngestFeed_EmbeddingFailureKeepsArchiveRow(t *testing.T) {
	server := feedServer(t)
	articles := newFakeArticleRepo()
	embedder := &fakeEmbeddingRepo{err: errors.New("embedding provider down")}
	vectors := &fakeVectorRepo{}

	svc := NewIngestorService(ingestorTestConfig(), ingestorTestLogger(t), nil, articles, embedder, vectors)

	require.NoError(t, svc.IngestFeed(context.Background(), dto.FeedTask{Category: "economy", FeedURL: server.URL + "/feed"}))

	assert.Len(t, articles.saved, 1)
	assert.Empty(t, vectors.upserted)
	assert.Empty(t, articles.indexed)
}

func TestIngestFeed_UnreachableFeed(t *testing.T) {
	articles := newFakeArticleRepo()
	svc := NewIngestorService(ingestorTestConfig(), ingestorTestLogger(t), nil, articles, &fakeEmbeddingRepo{}, &fakeVectorRepo{})

	err := svc.IngestFeed(context.Background(), dto.FeedTask{Category: "economy", FeedURL: "http://127.0.0.1:1/feed"})
	assert.Error(t, err)
}
