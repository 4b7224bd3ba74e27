package core

import (
	"context"
	"encoding/json"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type CredentialDefinitionService interface {
	CreateCredentialDefinition(ctx context.Context, req CreateCredentialDefinitionRequest) (CredentialDefinition, error)
	GetCredentialDefinitionByID(ctx context.Context, req GetCredentialDefinitionRequest) (CredentialDefinitionLookup, error)
	GetCredentialDefinitionsBySchemaID(ctx context.Context, schemaLedgerID string) ([]CredentialDefinition, error)
	GetAllPlatformCredentialDefinitions(ctx context.Context, criteria ListCriteria) (ListingEnvelope[CredentialDefinition], error)
	GetAllCredentialDefinitions(ctx context.Context, req OrgListRequest) (ListingEnvelope[CredentialDefinition], error)
	GetAllCredentialTemplates(ctx context.Context, orgID string, schemaType string) ([]CredentialTemplate, error)
	StoreCredentialDefinitionRecord(ctx context.Context, req StoreCredentialDefinitionRequest) (CredentialDefinition, error)
	GetAgentAPIKey(ctx context.Context, orgID string) (string, error)
}

type CredentialDefinitionStore interface {
	GetByAttribute(ctx context.Context, schemaLedgerID string, tag string) (CredentialDefinition, bool, error)
	Save(ctx context.Context, in SaveCredentialDefinitionInput) (CredentialDefinition, error)
	ListBySchemaLedgerID(ctx context.Context, schemaLedgerID string) ([]CredentialDefinition, error)
	ListPlatform(ctx context.Context, criteria ListCriteria) (CredentialDefinitionPage, error)
	ListByOrg(ctx context.Context, orgID string, criteria ListCriteria) (CredentialDefinitionPage, error)
	ListTemplatesByOrg(ctx context.Context, orgID string, order SortOrder) ([]CredentialTemplate, error)
}

type AgentStore interface {
	GetAgentDetailsByOrgID(ctx context.Context, orgID string) (AgentDetails, bool, error)
	GetAgentTypeID(ctx context.Context, orgID string) (string, bool, error)
	GetOrgAgentType(ctx context.Context, agentTypeID string) (string, error)
}

type SchemaStore interface {
	GetByLedgerID(ctx context.Context, schemaLedgerID string) (Schema, bool, error)
	ListByOrgAndType(ctx context.Context, orgID string, schemaType SchemaType) ([]Schema, error)
}

type OrganizationStore interface {
	GetDisplay(ctx context.Context, orgID string) (OrganizationDisplay, bool, error)
}

// SchemaRegistry reports archival state for a batch of schema ledger ids in a
// single round-trip.
type SchemaRegistry interface {
	GetSchemaDetails(ctx context.Context, schemaLedgerIDs []string) ([]SchemaArchiveStatus, error)
}

// RPCChannel is the request/response channel to agents and sibling services.
// Implementations return *RemoteError for remote fault envelopes.
type RPCChannel interface {
	Send(ctx context.Context, command string, payload any) (json.RawMessage, error)
}

type TopologyCache interface {
	Get(ctx context.Context, key string) (AgentTopology, bool)
	Set(ctx context.Context, key string, value AgentTopology, ttl time.Duration)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type StoreProvider interface {
	CredentialDefinitionStore() CredentialDefinitionStore
	AgentStore() AgentStore
	SchemaStore() SchemaStore
	OrganizationStore() OrganizationStore
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
