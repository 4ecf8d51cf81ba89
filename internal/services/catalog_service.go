package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"shopapi/internal/cache"
	"shopapi/internal/domain"
	applog "shopapi/internal/log"
	"shopapi/internal/repos"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultCacheTTL = 600 * time.Second
)

// ProductStore is the persistence the catalog reads through to.
type ProductStore interface {
	Get(ctx context.Context, id int64) (domain.Product, error)
	List(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error)
	Create(ctx context.Context, p domain.NewProduct) (domain.Product, error)
	Update(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

// CatalogService serves product reads from the cache when it can and drops
// the affected entries after every write. Cache failures are logged and
// never returned.
type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods ProductStore
	Cache cache.Cache
	TTL   time.Duration

	// gen counts invalidations; a read fills the cache only if gen has not
	// moved since it started.
	mu  sync.RWMutex
	gen uint64
}

func NewCatalogService(cats *repos.CategoryRepo, prods ProductStore, c cache.Cache, ttl time.Duration) *CatalogService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CatalogService{Cats: cats, Prods: prods, Cache: c, TTL: ttl}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	return s.Cats.Create(ctx, name)
}

func (s *CatalogService) ListProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error) {
	// The key and the store query must see the same term.
	q.Q = strings.TrimSpace(q.Q)
	if q.Skip < 0 {
		q.Skip = 0
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	key := cache.ListKey(q.Q, q.Skip, q.Limit)
	var cached []domain.Product
	if s.lookup(ctx, key, &cached) {
		return cached, nil
	}

	gen := s.generation()
	products, err := s.Prods.List(ctx, q)
	if err != nil {
		return nil, err
	}
	s.store(ctx, gen, key, products)
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	key := cache.ProductKey(id)
	var cached domain.Product
	if s.lookup(ctx, key, &cached) {
		return cached, nil
	}

	gen := s.generation()
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	s.store(ctx, gen, key, p)
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, np domain.NewProduct) (domain.Product, error) {
	p, err := s.Prods.Create(ctx, np)
	if err != nil {
		return domain.Product{}, err
	}
	s.invalidate(ctx, 0)
	applog.Info(nil, "catalog.product.create", map[string]any{"product_id": p.ID, "name": p.Name})
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error) {
	p, err := s.Prods.Update(ctx, id, patch)
	if err != nil {
		return domain.Product{}, err
	}
	s.invalidate(ctx, id)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.Prods.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// lookup decodes a cached value into dst and reports whether it was a usable hit.
func (s *CatalogService) lookup(ctx context.Context, key string, dst any) bool {
	b, ok, err := s.Cache.Get(ctx, key)
	if err != nil {
		applog.Error(nil, "cache.get.fail", err, map[string]any{"key": key})
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		applog.Error(nil, "cache.decode.fail", err, map[string]any{"key": key})
		return false
	}
	return true
}

func (s *CatalogService) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// store caches v under key unless an invalidation ran after gen was taken.
func (s *CatalogService) store(ctx context.Context, gen uint64, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		applog.Error(nil, "cache.encode.fail", err, map[string]any{"key": key})
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gen != gen {
		return
	}
	if err := s.Cache.Set(ctx, key, b, s.TTL); err != nil {
		applog.Error(nil, "cache.set.fail", err, map[string]any{"key": key})
	}
}

// invalidate drops every listing entry and, for id > 0, that product's entry.
func (s *CatalogService) invalidate(ctx context.Context, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if _, err := s.Cache.DeletePrefix(ctx, cache.ListPrefix); err != nil {
		applog.Error(nil, "cache.invalidate.fail", err, map[string]any{"prefix": cache.ListPrefix})
	}
	if id > 0 {
		if err := s.Cache.Delete(ctx, cache.ProductKey(id)); err != nil {
			applog.Error(nil, "cache.invalidate.fail", err, map[string]any{"product_id": id})
		}
	}
}
