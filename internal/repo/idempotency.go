// Package repo implements the data layer of the habit tracker. This file
// provides the idempotency ledger used for safe retries of habit creation.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-habit-backend/internal/domain"
)

var (
	// ErrIdempotencyNotFound is returned when no live ledger record exists.
	ErrIdempotencyNotFound = errors.New("idempotency record not found")

	// ErrDuplicate indicates that a ledger record already exists for the
	// given (route, key) pair.
	ErrDuplicate = errors.New("duplicate")
)

// GetIdempotency returns a non-expired record for (route, key), or
// ErrIdempotencyNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, route, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrIdempotencyNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("route = ? AND key = ?", route, key).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrIdempotencyNotFound
	}
	if err != nil {
		return nil, err
	}
	if !rec.Live(now) {
		return nil, ErrIdempotencyNotFound
	}
	return &rec, nil
}

// CreateIdempotency records that key produced habitID with the given status
// on route. Expired rows for the same pair are purged first so a key can be
// reused once its TTL has elapsed. Returns ErrDuplicate on a unique violation.
func CreateIdempotency(ctx context.Context, db *gorm.DB, route, key string, habitID int64, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := domain.NewIdempotency(route, key, habitID, status, now, ttl)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("route = ? AND key = ? AND expires_at <= ?", route, key, now).
			Delete(&domain.Idempotency{}).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// PurgeExpiredIdempotency deletes ledger rows whose TTL has elapsed and
// returns how many were removed.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}

// DeleteIdempotency removes the record for (route, key), if any.
func DeleteIdempotency(ctx context.Context, db *gorm.DB, route, key string) error {
	return db.WithContext(ctx).
		Where("route = ? AND key = ?", route, key).
		Delete(&domain.Idempotency{}).Error
}
