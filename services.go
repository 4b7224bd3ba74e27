package creddef

import "github.com/goliatone/go-creddef/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type CredentialDefinition = core.CredentialDefinition
type CredentialTemplate = core.CredentialTemplate
type CredentialDefinitionLookup = core.CredentialDefinitionLookup
type ListCriteria = core.ListCriteria
type ListingEnvelope[T any] = core.ListingEnvelope[T]

type CreateCredentialDefinitionRequest = core.CreateCredentialDefinitionRequest
type StoreCredentialDefinitionRequest = core.StoreCredentialDefinitionRequest
type GetCredentialDefinitionRequest = core.GetCredentialDefinitionRequest
type OrgListRequest = core.OrgListRequest

type RPCChannel = core.RPCChannel
type SchemaRegistry = core.SchemaRegistry
type TopologyCache = core.TopologyCache
type MetricsRecorder = core.MetricsRecorder
type RemoteError = core.RemoteError

var (
	WithLogger                    = core.WithLogger
	WithLoggerProvider            = core.WithLoggerProvider
	WithMetricsRecorder           = core.WithMetricsRecorder
	WithErrorFactory              = core.WithErrorFactory
	WithErrorMapper               = core.WithErrorMapper
	WithPersistenceClient         = core.WithPersistenceClient
	WithRepositoryFactory         = core.WithRepositoryFactory
	WithConfigProvider            = core.WithConfigProvider
	WithOptionsResolver           = core.WithOptionsResolver
	WithRPCChannel                = core.WithRPCChannel
	WithSchemaRegistry            = core.WithSchemaRegistry
	WithTopologyCache             = core.WithTopologyCache
	WithCredentialDefinitionStore = core.WithCredentialDefinitionStore
	WithAgentStore                = core.WithAgentStore
	WithSchemaStore               = core.WithSchemaStore
	WithOrganizationStore         = core.WithOrganizationStore
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
