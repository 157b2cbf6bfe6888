package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// kvEntry is one stored key in the SQL backend.
type kvEntry struct {
	Key       string `gorm:"primaryKey;size:256"`
	Value     []byte `gorm:"type:blob"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName implements gorm's tabler interface.
func (kvEntry) TableName() string {
	return "kv_entries"
}

// SQLBackend stores keys in a SQL table through gorm.
type SQLBackend struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) a SQLite database at path and migrates
// the key-value table. An empty path or ":memory:" opens a shared in-memory
// database.
func OpenSQLite(path string) (*SQLBackend, error) {
	var dsn string
	path = strings.TrimSpace(path)
	switch {
	case path == "", strings.EqualFold(path, ":memory:"):
		dsn = "file::memory:?cache=shared"
	default:
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_journal_mode=WAL", filepath.ToSlash(path))
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return NewSQLBackend(db)
}

// NewSQLBackend wraps an open gorm database and migrates the key-value table.
func NewSQLBackend(db *gorm.DB) (*SQLBackend, error) {
	if db == nil {
		return nil, errors.New("sql backend: db is nil")
	}
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("sql backend: migrate: %w", err)
	}
	return &SQLBackend{db: db}, nil
}

// Load implements Backend.
func (b *SQLBackend) Load(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	var entry kvEntry
	err := b.db.WithContext(ctx).Take(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sql backend: load %q: %w", key, err)
	}

	return entry.Value, nil
}

// Save implements Backend.
func (b *SQLBackend) Save(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrInvalidKey
	}

	entry := kvEntry{Key: key, Value: value}
	err := b.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("sql backend: save %q: %w", key, err)
	}

	return nil
}

// Delete implements Backend.
func (b *SQLBackend) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}

	if err := b.db.WithContext(ctx).Where("key = ?", key).Delete(&kvEntry{}).Error; err != nil {
		return fmt.Errorf("sql backend: delete %q: %w", key, err)
	}

	return nil
}

// Close closes the underlying database connection.
func (b *SQLBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
