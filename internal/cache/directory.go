package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

// DefaultOwnerTTL is how long a directory answer stays cached.
const DefaultOwnerTTL = time.Hour

// Directory is a read-through cache in front of a types.Directory. Only
// successful lookups are cached. A failing cache is logged and bypassed.
type Directory struct {
	kv     KV
	inner  types.Directory
	ttl    time.Duration
	logger *zap.Logger
}

// NewDirectory creates a Directory caching answers from inner in kv.
// A non-positive ttl selects DefaultOwnerTTL.
func NewDirectory(kv KV, inner types.Directory, ttl time.Duration, logger *zap.Logger) *Directory {
	if ttl <= 0 {
		ttl = DefaultOwnerTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{kv: kv, inner: inner, ttl: ttl, logger: logger}
}

func keyName(ownerID string) string {
	return fmt.Sprintf("owner:name:%s", ownerID)
}

func keyContact(ownerID string) string {
	return fmt.Sprintf("owner:contact:%s", ownerID)
}

// GetOwnerDisplayName implements types.Directory.
func (d *Directory) GetOwnerDisplayName(ctx context.Context, ownerID string) (string, error) {
	return d.get(ctx, keyName(ownerID), ownerID, d.inner.GetOwnerDisplayName)
}

// GetOwnerContact implements types.Directory.
func (d *Directory) GetOwnerContact(ctx context.Context, ownerID string) (string, error) {
	return d.get(ctx, keyContact(ownerID), ownerID, d.inner.GetOwnerContact)
}

func (d *Directory) get(ctx context.Context, key, ownerID string, load func(context.Context, string) (string, error)) (string, error) {
	v, err := d.kv.Get(ctx, key)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrMiss) {
		d.logger.Warn("directory cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err = load(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if err := d.kv.Set(ctx, key, v, d.ttl); err != nil {
		d.logger.Warn("directory cache write failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

// Invalidate drops the cached answers for an owner.
func (d *Directory) Invalidate(ctx context.Context, ownerID string) error {
	return d.kv.Delete(ctx, keyName(ownerID), keyContact(ownerID))
}

var _ types.Directory = (*Directory)(nil)
