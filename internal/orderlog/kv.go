package orderlog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arcay3dlabs/storefront/pkg/db"
	"github.com/arcay3dlabs/storefront/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KV stores one string value per key.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	// Update reads the current value, lets fn compute the next one and writes it.
	Update(ctx context.Context, key string, fn func(current string, found bool) (string, error)) error
}

type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: map[string]string{}}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) Update(_ context.Context, key string, fn func(string, bool) (string, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.values[key]
	next, err := fn(current, ok)
	if err != nil {
		return err
	}
	m.values[key] = next
	return nil
}

// Put overwrites key, used to seed state.
func (m *MemoryKV) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

type redisStore interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	StorageKey(name string) string
}

// RedisKV keeps each key as a plain redis string without expiry.
type RedisKV struct {
	store redisStore
}

func NewRedisKV(store redisStore) (*RedisKV, error) {
	if store == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisKV{store: store}, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	return r.store.Lookup(ctx, r.store.StorageKey(key))
}

func (r *RedisKV) Update(ctx context.Context, key string, fn func(string, bool) (string, error)) error {
	redisKey := r.store.StorageKey(key)
	current, found, err := r.store.Lookup(ctx, redisKey)
	if err != nil {
		return err
	}
	next, err := fn(current, found)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, redisKey, next, 0)
}

// DBKV keeps keys in the storage_entries table.
type DBKV struct {
	client *db.Client
	now    func() time.Time
}

func NewDBKV(client *db.Client) (*DBKV, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &DBKV{client: client, now: time.Now}, nil
}

func (d *DBKV) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.StorageEntry
	err := d.client.DB().WithContext(ctx).Where(&models.StorageEntry{Key: key}).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (d *DBKV) Update(ctx context.Context, key string, fn func(string, bool) (string, error)) error {
	return d.client.WithTx(ctx, func(tx *gorm.DB) error {
		query := tx.Where(&models.StorageEntry{Key: key})
		if !d.client.IsSQLite() {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var entry models.StorageEntry
		found := true
		if err := query.Take(&entry).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			found = false
		}

		next, err := fn(entry.Value, found)
		if err != nil {
			return err
		}

		row := models.StorageEntry{Key: key, Value: next, UpdatedAt: d.now().UTC()}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&row).Error
	})
}
