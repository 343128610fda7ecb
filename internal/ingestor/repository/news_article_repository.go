package repository

import (
	"context"

	"golang-market-oracle/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewNewsArticleRepository creates a new instance of NewsArticleRepository.
func NewNewsArticleRepository(db *gorm.DB) NewsArticleRepository {
	return &newsArticleRepository{db: db}
}

type newsArticleRepository struct {
	db *gorm.DB
}

// CreateIgnoreConflict saves an article, skipping silently when an article
// with the same hash identifier already exists. It reports whether a row
// was actually inserted.
func (r *newsArticleRepository) CreateIgnoreConflict(ctx context.Context, article *entity.NewsArticle) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hash_identifier"}},
		DoNothing: true,
	}).Create(article)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// FindExistingHashes returns the subset of the given hash identifiers that are
// already present in the archive.
func (r *newsArticleRepository) FindExistingHashes(ctx context.Context, hashes []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(hashes) == 0 {
		return existing, nil
	}

	var articles []entity.NewsArticle
	err := r.db.WithContext(ctx).
		Select("id", "hash_identifier").
		Where("hash_identifier IN ?", hashes).
		Find(&articles).Error
	if err != nil {
		return nil, err
	}

	for _, article := range articles {
		existing[article.HashIdentifier] = true
	}
	return existing, nil
}

// MarkIndexed flags an article as upserted into the vector index.
func (r *newsArticleRepository) MarkIndexed(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&entity.NewsArticle{}).
		Where("id = ?", id).
		Update("indexed", true).Error
}
