package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-creddef/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const schemaCacheKeyPrefix = "creddef::schema::v1"

var errSchemaNotFound = errors.New("sqlstore: schema not found")

// CachedSchemaStore memoizes schema lookups by ledger id. Misses are never
// cached so a schema published later becomes visible immediately.
type CachedSchemaStore struct {
	base  core.SchemaStore
	cache repositorycache.CacheService
}

func NewCachedSchemaStore(base core.SchemaStore, cacheService repositorycache.CacheService) (*CachedSchemaStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base schema store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: schema cache service is required")
	}
	return &CachedSchemaStore{base: base, cache: cacheService}, nil
}

// SchemaCacheKey returns creddef::schema::v1::<schema_ledger_id> with the id
// URL-path escaped.
func SchemaCacheKey(schemaLedgerID string) string {
	return schemaCacheKeyPrefix + "::" + url.PathEscape(strings.TrimSpace(schemaLedgerID))
}

func (s *CachedSchemaStore) GetByLedgerID(ctx context.Context, schemaLedgerID string) (core.Schema, bool, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Schema{}, false, fmt.Errorf("sqlstore: cached schema store is not configured")
	}
	schemaLedgerID = strings.TrimSpace(schemaLedgerID)
	if schemaLedgerID == "" {
		return core.Schema{}, false, nil
	}

	schema, err := repositorycache.GetOrFetch(ctx, s.cache, SchemaCacheKey(schemaLedgerID), func(ctx context.Context) (core.Schema, error) {
		fetched, found, fetchErr := s.base.GetByLedgerID(ctx, schemaLedgerID)
		if fetchErr != nil {
			return core.Schema{}, fetchErr
		}
		if !found {
			return core.Schema{}, errSchemaNotFound
		}
		return fetched, nil
	})
	if err != nil {
		if errors.Is(err, errSchemaNotFound) {
			return core.Schema{}, false, nil
		}
		return core.Schema{}, false, err
	}
	return schema, true, nil
}

func (s *CachedSchemaStore) ListByOrgAndType(ctx context.Context, orgID string, schemaType core.SchemaType) ([]core.Schema, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached schema store is not configured")
	}
	return s.base.ListByOrgAndType(ctx, orgID, schemaType)
}

// Invalidate drops the cached entry after a schema changes, for example when
// it is archived.
func (s *CachedSchemaStore) Invalidate(ctx context.Context, schemaLedgerID string) error {
	if s == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached schema store is not configured")
	}
	return s.cache.Delete(ctx, SchemaCacheKey(schemaLedgerID))
}
