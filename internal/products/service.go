package products

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arcay3dlabs/storefront/internal/ventify"
	pkgerrors "github.com/arcay3dlabs/storefront/pkg/errors"
	"github.com/arcay3dlabs/storefront/pkg/logger"
	"github.com/arcay3dlabs/storefront/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// RemoteSource is the slice of the platform client the catalog reads from.
type RemoteSource interface {
	ListProducts(ctx context.Context, params ventify.ListParams) ([]ventify.RemoteProduct, json.RawMessage, error)
	GetProduct(ctx context.Context, id string) (*ventify.RemoteProduct, json.RawMessage, error)
}

// Cache stores adapted catalog payloads between requests.
type Cache interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CatalogKey(parts ...string) string
}

// Filter narrows a remote product listing.
type Filter struct {
	Category   string
	ActiveOnly bool
	Limit      *int
}

func (f Filter) validate() error {
	if f.Limit != nil && *f.Limit <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "limit must be positive").
			WithDetails(map[string]any{"limit": *f.Limit})
	}
	return nil
}

func (f Filter) cacheKey() []string {
	limit := "all"
	if f.Limit != nil {
		limit = strconv.Itoa(*f.Limit)
	}
	return []string{"list", strings.ToLower(strings.TrimSpace(f.Category)), strconv.FormatBool(f.ActiveOnly), limit}
}

// Service fetches products from the platform and adapts them.
type Service struct {
	remote  RemoteSource
	cache   Cache
	ttl     time.Duration
	group   singleflight.Group
	logg    *logger.Logger
	metrics *metrics.UpstreamMetrics
}

type ServiceOption func(*Service)

// WithCache enables caching of adapted results for ttl.
func WithCache(cache Cache, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if cache != nil && ttl > 0 {
			s.cache = cache
			s.ttl = ttl
		}
	}
}

func WithMetrics(m *metrics.UpstreamMetrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(remote RemoteSource, logg *logger.Logger, opts ...ServiceOption) (*Service, error) {
	if remote == nil {
		return nil, fmt.Errorf("remote source required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	svc := &Service{remote: remote, logg: logg}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// FetchProducts lists and adapts remote products. Concurrent identical
// requests share one upstream call, which ignores any single caller's
// cancellation; the client's read timeout bounds it.
func (s *Service) FetchProducts(ctx context.Context, filter Filter) ([]Product, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}

	key := ""
	if s.cache != nil {
		key = s.cache.CatalogKey(filter.cacheKey()...)
		var cached []Product
		if s.readCache(ctx, key, &cached) {
			return cached, nil
		}
	}

	params := ventify.ListParams{Category: strings.TrimSpace(filter.Category), Limit: filter.Limit}
	if filter.ActiveOnly {
		active := true
		params.Active = &active
	}

	v, err, _ := s.group.Do("list:"+strings.Join(filter.cacheKey(), ":"), func() (any, error) {
		remote, _, err := s.remote.ListProducts(context.WithoutCancel(ctx), params)
		if err != nil {
			return nil, err
		}
		out := make([]Product, 0, len(remote))
		for _, r := range remote {
			out = append(out, Adapt(r))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	out := v.([]Product)
	s.writeCache(ctx, key, out)
	return cloneProducts(out), nil
}

// FetchProduct reads one remote product. A missing product surfaces as a
// NOT_FOUND error.
func (s *Service) FetchProduct(ctx context.Context, id string) (Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	key := ""
	if s.cache != nil {
		key = s.cache.CatalogKey("product", id)
		var cached Product
		if s.readCache(ctx, key, &cached) {
			return cached, nil
		}
	}

	v, err, _ := s.group.Do("product:"+id, func() (any, error) {
		remote, _, err := s.remote.GetProduct(context.WithoutCancel(ctx), id)
		if err != nil {
			return nil, err
		}
		return Adapt(*remote), nil
	})
	if err != nil {
		return Product{}, err
	}
	p := v.(Product)
	s.writeCache(ctx, key, p)
	p.Images = append([]string(nil), p.Images...)
	return p, nil
}

func (s *Service) readCache(ctx context.Context, key string, dest any) bool {
	raw, ok, err := s.cache.Lookup(ctx, key)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "catalog cache lookup failed")
		s.metrics.IncCache("error")
		return false
	}
	if !ok {
		s.metrics.IncCache("miss")
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		s.metrics.IncCache("corrupt")
		return false
	}
	s.metrics.IncCache("hit")
	return true
}

func (s *Service) writeCache(ctx context.Context, key string, value any) {
	if s.cache == nil || key == "" {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "catalog cache write failed")
	}
}

// IsNotFound reports whether err means the platform has no such product.
func IsNotFound(err error) bool {
	if f := ventify.FailureFrom(err); f != nil {
		return f.NotFound()
	}
	return pkgerrors.CodeOf(err) == pkgerrors.CodeNotFound
}

// IsRemoteUnavailable reports whether err means the platform could not be
// reached or answered with a failure other than not found.
func IsRemoteUnavailable(err error) bool {
	if err == nil || IsNotFound(err) {
		return false
	}
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeValidation:
		return false
	}
	return true
}

func cloneProducts(in []Product) []Product {
	out := make([]Product, len(in))
	for i, p := range in {
		p.Images = append([]string(nil), p.Images...)
		out[i] = p
	}
	return out
}
