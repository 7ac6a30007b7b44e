package domain

import (
	"time"

	"github.com/google/uuid"
)

// Idempotency is one ledger row: the habit a create request produced under a
// client's Idempotency-Key. A retried POST with the same key on the same
// route replays that habit instead of tripping the duplicate-name check.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_route_key,priority:2"`
	Route     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_route_key,priority:1"`
	HabitID   int64     `gorm:"type:INTEGER NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }

// NewIdempotency builds a ledger row created at now and live for ttl.
func NewIdempotency(route, key string, habitID int64, status int, now time.Time, ttl time.Duration) *Idempotency {
	now = now.UTC()
	return &Idempotency{
		ID:        uuid.NewString(),
		Route:     route,
		Key:       key,
		HabitID:   habitID,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Live reports whether the row still replays at now.
func (i Idempotency) Live(now time.Time) bool { return now.Before(i.ExpiresAt) }
