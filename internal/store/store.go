// Package store persists shop records and caption operation logs in SQLite.
// The caption pipeline never touches this package; the HTTP layer writes here
// after a response is already decided, so store failures can only ever cost
// observability, not captions.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Shop is an installed merchant record.
type Shop struct {
	ID          uint      `gorm:"primaryKey"                             json:"id"`
	Domain      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"domain"`
	AccessToken string    `gorm:"type:varchar(255)"                      json:"-"`
	Plan        string    `gorm:"default:'free'"                         json:"plan"`
	CreatedAt   time.Time `                                              json:"createdAt"`
	UpdatedAt   time.Time `                                              json:"updatedAt"`
}

// OperationLog records one caption synthesis outcome.
type OperationLog struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ShopDomain string    `gorm:"index"                       json:"shopDomain"`
	ImageURL   string    `gorm:"type:text"                   json:"imageUrl"`
	Source     string    `                                   json:"source"`    // model|heuristic|fallback
	ErrorKind  string    `                                   json:"errorKind"` // empty when nothing failed
	AltText    string    `gorm:"type:varchar(160)"           json:"altText"`
	CreatedAt  time.Time `gorm:"index"                       json:"createdAt"`
}

// Store wraps the SQLite database.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the SQLite database at path and migrates
// the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.AutoMigrate(&Shop{}, &OperationLog{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Store{db: db}, nil
}

// UpsertShop creates or updates the shop record for a domain.
func (s *Store) UpsertShop(domain, accessToken, plan string) (*Shop, error) {
	var shop Shop
	err := s.db.Where("domain = ?", domain).First(&shop).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		shop = Shop{Domain: domain, AccessToken: accessToken, Plan: plan}
		if err := s.db.Create(&shop).Error; err != nil {
			return nil, err
		}
		return &shop, nil
	case err != nil:
		return nil, err
	}

	shop.AccessToken = accessToken
	if plan != "" {
		shop.Plan = plan
	}
	if err := s.db.Save(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

// FindShop looks up a shop by domain.
func (s *Store) FindShop(domain string) (*Shop, error) {
	var shop Shop
	if err := s.db.Where("domain = ?", domain).First(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

// AddLog inserts one operation log row, assigning it an id and timestamp.
func (s *Store) AddLog(entry *OperationLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return s.db.Create(entry).Error
}

// RecentLogs returns up to limit operation logs, newest first.
func (s *Store) RecentLogs(limit int) ([]OperationLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var logs []OperationLog
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
