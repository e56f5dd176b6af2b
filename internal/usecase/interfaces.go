package usecase

import (
	"context"
	"time"

	"github.com/iho/finledger/internal/domain"
)

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	// Save inserts the entry when it has no ID and updates it otherwise.
	// The stored entry is returned.
	Save(ctx context.Context, entry *domain.Entry) (*domain.Entry, error)
	Delete(ctx context.Context, entry *domain.Entry) error
	FindByID(ctx context.Context, id string) (*domain.Entry, error)
	FindByFilter(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, error)
}

// UserLookup resolves a user identifier to a user record.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// UserRepository defines data access for users.
type UserRepository interface {
	UserLookup
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
