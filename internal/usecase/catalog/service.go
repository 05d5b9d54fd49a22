package catalog

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/felixrdev/grant-tagging-system/internal/domain/grant"
	"github.com/felixrdev/grant-tagging-system/internal/repository/listing"
)

// Service reads listings through the cache and submits new grants.
type Service struct {
	gateway   Gateway
	cache     Cache
	validator InputValidator
	logger    *zap.Logger
	group     singleflight.Group

	// gen counts successful submissions. A fetch that started under an older
	// generation may predate the batch and is not written back to the cache.
	gen atomic.Uint64
}

// New creates a catalog service.
func New(gw Gateway, cache Cache, v InputValidator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gateway: gw, cache: cache, validator: v, logger: logger}
}

// Grants returns the cached listing, fetching it on a miss.
func (s *Service) Grants(ctx context.Context) ([]grant.Grant, error) {
	return load(ctx, s, listing.KeyGrants, s.gateway.ListGrants)
}

// Tags returns the cached tag universe, fetching it on a miss.
func (s *Service) Tags(ctx context.Context) ([]string, error) {
	return load(ctx, s, listing.KeyTags, s.gateway.ListTags)
}

// Submit validates inputs, sends them for tagging and invalidates the
// listings the batch makes stale. A failed submission leaves the cache untouched.
func (s *Service) Submit(ctx context.Context, inputs []grant.Input) ([]grant.Grant, error) {
	valid, err := s.validator.ValidateInputs(inputs)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	tagged, err := s.gateway.SubmitBatch(ctx, valid)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	s.gen.Add(1)
	if err := s.cache.InvalidateFor(ctx, listing.MutationSubmitBatch); err != nil {
		s.logger.Warn("Failed to invalidate listings after submission", zap.Error(err))
	}
	s.logger.Info("Grants submitted", zap.Int("count", len(tagged)))
	return tagged, nil
}

// Subscribe forwards cache invalidation notifications.
func (s *Service) Subscribe(fn func(listing.Key)) (cancel func()) {
	return s.cache.Subscribe(fn)
}

// load reads key from the cache or fetches and stores it.
// Concurrent misses for the same key share one fetch, but only within one
// submission generation: a read after a submit never joins an older fetch.
func load[T any](
	ctx context.Context, s *Service, key listing.Key, fetch func(context.Context) (T, error),
) (T, error) {
	gen := s.gen.Load()

	var cached T
	ok, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("Cache read failed, fetching", zap.String("key", string(key)), zap.Error(err))
	}
	if ok {
		return cached, nil
	}

	flight := string(key) + "#" + strconv.FormatUint(gen, 10)
	v, err, shared := s.group.Do(flight, func() (any, error) {
		fresh, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if s.gen.Load() != gen {
			s.logger.Debug("Skipping cache write for a listing fetched before a submission",
				zap.String("key", string(key)))
			return fresh, nil
		}
		if err := s.cache.Set(ctx, key, fresh); err != nil {
			s.logger.Warn("Cache write failed", zap.String("key", string(key)), zap.Error(err))
		}
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, fmt.Errorf("load %s: %w", key, err)
	}
	if shared {
		s.logger.Debug("Shared in-flight fetch", zap.String("key", string(key)))
	}
	return v.(T), nil
}
