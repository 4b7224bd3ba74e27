package sqlstore

import (
	"fmt"

	"github.com/goliatone/go-creddef/core"
	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db           *bun.DB
	schemaCache  repositorycache.CacheService
	cachedSchema *CachedSchemaStore

	credentialDefinitionStore *CredentialDefinitionStore
	agentStore                *AgentStore
	schemaStore               *SchemaStore
	organizationStore         *OrganizationStore
}

type FactoryOption func(*RepositoryFactory)

// WithSchemaCache serves schema lookups through the given cache service.
func WithSchemaCache(cacheService repositorycache.CacheService) FactoryOption {
	return func(f *RepositoryFactory) {
		f.schemaCache = cacheService
	}
}

func NewRepositoryFactory(opts ...FactoryOption) *RepositoryFactory {
	factory := &RepositoryFactory{}
	for _, opt := range opts {
		if opt != nil {
			opt(factory)
		}
	}
	return factory
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.credentialDefinitionStore != nil && f.schemaStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) CredentialDefinitionStore() core.CredentialDefinitionStore {
	if f == nil {
		return nil
	}
	return f.credentialDefinitionStore
}

func (f *RepositoryFactory) AgentStore() core.AgentStore {
	if f == nil {
		return nil
	}
	return f.agentStore
}

// SchemaStore returns the cached decorator when a schema cache is configured.
func (f *RepositoryFactory) SchemaStore() core.SchemaStore {
	if f == nil {
		return nil
	}
	if f.cachedSchema != nil {
		return f.cachedSchema
	}
	return f.schemaStore
}

func (f *RepositoryFactory) OrganizationStore() core.OrganizationStore {
	if f == nil {
		return nil
	}
	return f.organizationStore
}

// SchemaRegistry serves archival lookups from the local schemas table.
func (f *RepositoryFactory) SchemaRegistry() core.SchemaRegistry {
	if f == nil || f.schemaStore == nil {
		return nil
	}
	return f.schemaStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	credentialDefinitionStore, err := NewCredentialDefinitionStore(f.db)
	if err != nil {
		return err
	}
	f.credentialDefinitionStore = credentialDefinitionStore

	agentStore, err := NewAgentStore(f.db)
	if err != nil {
		return err
	}
	f.agentStore = agentStore

	schemaStore, err := NewSchemaStore(f.db)
	if err != nil {
		return err
	}
	f.schemaStore = schemaStore
	if f.schemaCache != nil {
		cached, cacheErr := NewCachedSchemaStore(schemaStore, f.schemaCache)
		if cacheErr != nil {
			return cacheErr
		}
		f.cachedSchema = cached
	}

	organizationStore, err := NewOrganizationStore(f.db)
	if err != nil {
		return err
	}
	f.organizationStore = organizationStore
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
