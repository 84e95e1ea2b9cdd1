package catalog

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Store abstracts catalog persistence for the service.
type Store interface {
	BySlugOrID(ctx context.Context, key string) (Product, error)
	BatchGet(ctx context.Context, keys []string) (map[string]Product, error)
	List(ctx context.Context, limit, offset int) ([]Product, error)
}

// ServiceConfig groups the collaborators the catalog service needs.
type ServiceConfig struct {
	Store        Store
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
	Logger       zerolog.Logger
}

// Service serves catalog reads with a Redis read-through cache. It is the
// Product Lookup collaborator the cart engine revalidates against.
type Service struct {
	store        Store
	cache        *Cache
	defaultLimit int
	maxLimit     int
	logger       zerolog.Logger
}

// NewService validates the configuration and builds a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	return &Service{
		store:        cfg.Store,
		cache:        cfg.Cache,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
		logger:       cfg.Logger,
	}, nil
}

// Detail returns a single product by slug or id, cache first.
func (s *Service) Detail(ctx context.Context, key string) (Product, error) {
	cacheKey := "catalog:product:" + key
	var cached Product
	if hit, err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		cached.Normalize()
		return cached, nil
	}
	p, err := s.store.BySlugOrID(ctx, key)
	if err != nil {
		return Product{}, err
	}
	if err := s.cache.SetJSON(ctx, cacheKey, p); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache product")
	}
	return p, nil
}

// BatchGet resolves the given slugs or ids against current catalog truth.
// Reads go straight to the store: revalidation needs authoritative prices and
// stock, not cached ones.
func (s *Service) BatchGet(ctx context.Context, keys []string) (map[string]Product, error) {
	return s.store.BatchGet(ctx, keys)
}

// List returns a page of products.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Product, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, limit, offset)
}
