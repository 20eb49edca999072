package storage

import (
	"context"
	"time"
)

// Config configures the recipient store.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// User is one known recipient. ID is the Telegram user id.
type User struct {
	ID        int64
	Username  string
	FirstName string
	Balance   float64
	Spent     float64
	JoinedAt  time.Time
}

// Stats aggregates usage over the whole user base.
type Stats struct {
	TotalUsers   int
	NewToday     int
	NewLast7d    int
	NewLast30d   int
	TotalBalance float64
	TotalSpent   float64
	FirstJoin    time.Time // zero when there are no users
	LastJoin     time.Time // zero when there are no users
}

// RecipientStore is the persistence collaborator of the broadcast core.
type RecipientStore interface {
	// Upsert inserts the user or refreshes its mutable profile fields.
	// JoinedAt is set on first insert only.
	Upsert(ctx context.Context, u User) error

	// ListRecipients returns the ids of every known recipient.
	ListRecipients(ctx context.Context) ([]int64, error)

	// Statistics computes the aggregate usage snapshot.
	Statistics(ctx context.Context) (Stats, error)

	Close() error
}
