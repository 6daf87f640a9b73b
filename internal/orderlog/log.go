package orderlog

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/arcay3dlabs/storefront/pkg/errors"
	"github.com/arcay3dlabs/storefront/pkg/logger"
)

const (
	DefaultKey        = "arcay3dlabs_orders"
	DefaultMaxRecords = 500
)

// Log appends order records to a single key. Appends from separate processes
// race and the last writer wins.
type Log struct {
	kv         KV
	key        string
	maxRecords int
	logg       *logger.Logger
}

func New(kv KV, key string, maxRecords int, logg *logger.Logger) (*Log, error) {
	if kv == nil {
		return nil, fmt.Errorf("order log store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(key) == "" {
		key = DefaultKey
	}
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	return &Log{kv: kv, key: key, maxRecords: maxRecords, logg: logg}, nil
}

// Append adds record to the stored list, keeping only the newest maxRecords.
// A missing or unreadable list starts over empty.
func (l *Log) Append(ctx context.Context, record LocalOrderRecord) error {
	err := l.kv.Update(ctx, l.key, func(current string, found bool) (string, error) {
		records := []LocalOrderRecord{}
		if found {
			decoded, err := Decode(current)
			if err != nil {
				l.logg.Warn(l.logg.WithField(ctx, "key", l.key), "orderlog.corrupt_list_reset")
			} else {
				records = decoded
			}
		}
		records = append(records, record)
		if len(records) > l.maxRecords {
			records = records[len(records)-l.maxRecords:]
		}
		return Encode(records)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "failed to append order record")
	}
	return nil
}

// Records returns the stored list, oldest first.
func (l *Log) Records(ctx context.Context) ([]LocalOrderRecord, error) {
	raw, found, err := l.kv.Get(ctx, l.key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "failed to read order log")
	}
	if !found {
		return []LocalOrderRecord{}, nil
	}
	return Decode(raw)
}
