package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jerilmartin/infini8graph/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AccountRepository provides social-account database operations
type AccountRepository struct {
	*Repository
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(repo *Repository) *AccountRepository {
	return &AccountRepository{Repository: repo}
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.SocialAccount, error) {
	var account models.SocialAccount
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByUser retrieves the connected accounts belonging to a user
func (r *AccountRepository) GetByUser(ctx context.Context, userID string) ([]*models.SocialAccount, error) {
	var accounts []*models.SocialAccount
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND connected = ?", userID, true).
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// ListConnected retrieves all connected accounts
func (r *AccountRepository) ListConnected(ctx context.Context) ([]*models.SocialAccount, error) {
	var accounts []*models.SocialAccount
	if err := r.db.WithContext(ctx).Where("connected = ?", true).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// ListExpiringTokens retrieves connected accounts whose token expires before the deadline
func (r *AccountRepository) ListExpiringTokens(ctx context.Context, deadline time.Time) ([]*models.SocialAccount, error) {
	var accounts []*models.SocialAccount
	if err := r.db.WithContext(ctx).
		Where("connected = ? AND token_expires_at < ?", true, deadline).
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Update updates an account
func (r *AccountRepository) Update(ctx context.Context, account *models.SocialAccount) error {
	return r.db.WithContext(ctx).Save(account).Error
}

// MetricCacheRepository provides computed-view cache database operations
type MetricCacheRepository struct {
	*Repository
}

// NewMetricCacheRepository creates a new metric cache repository
func NewMetricCacheRepository(repo *Repository) *MetricCacheRepository {
	return &MetricCacheRepository{Repository: repo}
}

// GetEntry retrieves a cache entry by its (account, metric, range) key
func (r *MetricCacheRepository) GetEntry(ctx context.Context, accountID, metricType, dateRange string) (*models.MetricCacheEntry, error) {
	var entry models.MetricCacheEntry
	if err := r.db.WithContext(ctx).
		Where("account_id = ? AND metric_type = ? AND date_range = ?", accountID, metricType, dateRange).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Upsert writes a cache entry, replacing any existing row for the same key
func (r *MetricCacheRepository) Upsert(ctx context.Context, entry *models.MetricCacheEntry) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "account_id"},
			{Name: "metric_type"},
			{Name: "date_range"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "fetched_at"}),
	}).Create(entry).Error
}

// DeleteForAccount removes all cache entries for an account
func (r *MetricCacheRepository) DeleteForAccount(ctx context.Context, accountID string) error {
	return r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Delete(&models.MetricCacheEntry{}).Error
}
