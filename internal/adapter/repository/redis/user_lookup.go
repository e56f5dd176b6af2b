package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

// CachedUserLookup resolves users through a cache in front of another
// lookup. Cache failures are logged and fall through to next.
type CachedUserLookup struct {
	next   usecase.UserLookup
	cache  usecase.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedUserLookup creates a CachedUserLookup.
func NewCachedUserLookup(next usecase.UserLookup, cache usecase.Cache, ttl time.Duration, logger zerolog.Logger) *CachedUserLookup {
	return &CachedUserLookup{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func userKey(id string) string {
	return "user:" + id
}

// GetByID returns the cached user or loads and caches it. Only sanitized
// users are cached.
func (l *CachedUserLookup) GetByID(ctx context.Context, id string) (*domain.User, error) {
	data, err := l.cache.Get(ctx, userKey(id))
	if err != nil {
		l.logger.Warn().Err(err).Str("user_id", id).Msg("user cache read failed")
	} else if data != nil {
		var user domain.User
		if err := json.Unmarshal(data, &user); err == nil {
			return &user, nil
		}
		l.logger.Warn().Str("user_id", id).Msg("discarding malformed cached user")
	}

	user, err := l.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sanitized := user.Sanitized()
	if data, err := json.Marshal(sanitized); err == nil {
		if err := l.cache.Set(ctx, userKey(id), data, l.ttl); err != nil {
			l.logger.Warn().Err(err).Str("user_id", id).Msg("user cache write failed")
		}
	}

	return sanitized, nil
}
