// Package repository persists dispatch results to the local filesystem
// (sqlite via gorm) before they are uploaded to the data platform, tracking
// how many upload attempts each buffered result has survived.
package repository

import (
	"fmt"

	"github.com/cepro/powercore/telemetry"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// Repository stores dispatch results to the local file system (sqlite)
// before they are uploaded to the data platform.
type Repository struct {
	db *gorm.DB
}

func New(path string) (*Repository, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&StoredResult{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// StoreResult persists result with its upload attempt count at zero.
func (r *Repository) StoreResult(result telemetry.Result) error {
	stored := NewStoredResult(result)
	return r.db.Create(&stored).Error
}

// StoreResults persists a batch of results, each with its upload attempt
// count at zero, e.g. when a fresh upload attempt fails and they need to be
// buffered for a later retry.
func (r *Repository) StoreResults(results []telemetry.Result) error {
	if len(results) == 0 {
		return nil
	}
	stored := make([]StoredResult, len(results))
	for i, result := range results {
		stored[i] = NewStoredResult(result)
	}
	return r.db.Create(&stored).Error
}

// GetResults returns up to limit persisted results, least-uploaded and
// newest first, for the upload worker to retry.
func (r *Repository) GetResults(limit int) ([]StoredResult, error) {
	var results []StoredResult

	query := r.db.Limit(limit).Order("upload_attempt_count asc, id desc")
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteResults removes the given persisted results, e.g. once successfully
// uploaded.
func (r *Repository) DeleteResults(results []StoredResult) error {
	return r.db.Delete(&results).Error
}

// IncrementUploadAttemptCount bumps the upload attempt counter for the given
// persisted results, e.g. after a failed upload.
func (r *Repository) IncrementUploadAttemptCount(results []StoredResult) error {
	ids := make([]uint, len(results))
	for i, res := range results {
		ids[i] = res.ID
	}
	return r.db.Model(&StoredResult{}).Where("id IN ?", ids).
		UpdateColumn("upload_attempt_count", gorm.Expr("upload_attempt_count + ?", 1)).Error
}
