package entity

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// NewsArticle represents a news article collected for market research context.
type NewsArticle struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Title          string         `gorm:"not null" json:"title"`
	Link           string         `gorm:"unique;not null" json:"link"`
	PublishedAt    *time.Time     `json:"published_at,omitempty"`
	RawContent     string         `json:"raw_content"`
	HashIdentifier string         `gorm:"unique;not null" json:"hash_identifier"`
	Source         string         `json:"source"`
	Category       string         `gorm:"not null" json:"category"`
	FeedURL        string         `json:"feed_url"`
	Keywords       pq.StringArray `gorm:"keywords;type:text[]" json:"keywords"`
	Metadata       datatypes.JSON `json:"metadata"`
	Indexed        bool           `gorm:"default:false" json:"indexed"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the NewsArticle model.
func (NewsArticle) TableName() string {
	return "news_articles"
}
