package core

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	channel           RPCChannel
	agents            *AgentClient
	schemaRegistry    SchemaRegistry
	topologyCache     TopologyCache
	topology          *TopologyResolver
	credDefStore      CredentialDefinitionStore
	agentStore        AgentStore
	schemaStore       SchemaStore
	organizationStore OrganizationStore
}

type ServiceDependencies struct {
	Logger                    Logger
	LoggerProvider            LoggerProvider
	MetricsRecorder           MetricsRecorder
	ErrorFactory              ErrorFactory
	ErrorMapper               ErrorMapper
	PersistenceClient         any
	RepositoryFactory         any
	ConfigProvider            ConfigProvider
	OptionsResolver           OptionsResolver
	RPCChannel                RPCChannel
	SchemaRegistry            SchemaRegistry
	TopologyCache             TopologyCache
	CredentialDefinitionStore CredentialDefinitionStore
	AgentStore                AgentStore
	SchemaStore               SchemaStore
	OrganizationStore         OrganizationStore
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	// provider > logger > nop
	provider, logger := glog.Resolve("creddef", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	var localRegistry SchemaRegistry
	if builder.repositoryFactory != nil {
		var stores StoreProvider
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			built, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			stores = built
		} else if provided, ok := builder.repositoryFactory.(StoreProvider); ok {
			stores = provided
		}
		if stores != nil {
			if builder.credDefStore == nil {
				builder.credDefStore = stores.CredentialDefinitionStore()
			}
			if builder.agentStore == nil {
				builder.agentStore = stores.AgentStore()
			}
			if builder.schemaStore == nil {
				builder.schemaStore = stores.SchemaStore()
			}
			if builder.organizationStore == nil {
				builder.organizationStore = stores.OrganizationStore()
			}
			if registryProvider, ok := stores.(schemaRegistryProvider); ok {
				localRegistry = registryProvider.SchemaRegistry()
			}
		}
	}
	if builder.schemaRegistry == nil && builder.channel != nil {
		builder.schemaRegistry = NewSchemaRegistryClient(builder.channel)
	}
	// without a channel the store provider's local registry serves archival lookups
	if builder.schemaRegistry == nil && localRegistry != nil {
		builder.schemaRegistry = localRegistry
	}
	ttl := finalConfig.TopologyCacheTTL()
	if builder.topologyCache == nil && !builder.noTopologyCache && ttl > 0 {
		builder.topologyCache = NewMemoryTopologyCache(ttl, 2*ttl)
	}

	return &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		channel:           builder.channel,
		agents:            NewAgentClient(builder.channel),
		schemaRegistry:    builder.schemaRegistry,
		topologyCache:     builder.topologyCache,
		topology:          NewTopologyResolver(builder.agentStore, builder.topologyCache, ttl),
		credDefStore:      builder.credDefStore,
		agentStore:        builder.agentStore,
		schemaStore:       builder.schemaStore,
		organizationStore: builder.organizationStore,
	}, nil
}

type schemaRegistryProvider interface {
	SchemaRegistry() SchemaRegistry
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:                    s.logger,
		LoggerProvider:            s.loggerProvider,
		MetricsRecorder:           s.metricsRecorder,
		ErrorFactory:              s.errorFactory,
		ErrorMapper:               s.errorMapper,
		PersistenceClient:         s.persistenceClient,
		RepositoryFactory:         s.repositoryFactory,
		ConfigProvider:            s.configProvider,
		OptionsResolver:           s.optionsResolver,
		RPCChannel:                s.channel,
		SchemaRegistry:            s.schemaRegistry,
		TopologyCache:             s.topologyCache,
		CredentialDefinitionStore: s.credDefStore,
		AgentStore:                s.agentStore,
		SchemaStore:               s.schemaStore,
		OrganizationStore:         s.organizationStore,
	}
}

func (s *Service) CreateCredentialDefinition(
	ctx context.Context,
	req CreateCredentialDefinitionRequest,
) (record CredentialDefinition, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"org_id":           req.OrgID,
		"schema_ledger_id": req.SchemaLedgerID,
		"tag":              strings.TrimSpace(req.Tag),
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "create_credential_definition", err, fields)
	}()

	if err = req.Validate(); err != nil {
		err = s.mapError(err)
		return CredentialDefinition{}, err
	}
	if err = s.requireStores(); err != nil {
		return CredentialDefinition{}, err
	}
	orgID := strings.TrimSpace(req.OrgID)
	schemaLedgerID := strings.TrimSpace(req.SchemaLedgerID)

	topology, err := s.topology.Resolve(ctx, orgID)
	if err != nil {
		err = s.mapError(err)
		return CredentialDefinition{}, err
	}
	fields["topology_class"] = string(topology.Class)
	issuerID := selectIssuerDID(req.OrgDID, topology.OrgDID, s.config.DID.MinSegments)

	tag := strings.TrimSpace(req.Tag)
	if err = s.ensureUnique(ctx, schemaLedgerID, tag); err != nil {
		return CredentialDefinition{}, err
	}

	payload, err := buildCreatePayload(topology, orgID, tag, schemaLedgerID, issuerID)
	if err != nil {
		err = s.mapError(err)
		return CredentialDefinition{}, err
	}
	response, err := s.agents.Send(ctx, CommandCreateCredentialDefinition, payload)
	if err != nil {
		err = s.mapError(err)
		return CredentialDefinition{}, err
	}
	draft, err := ReconcileCredentialDefinition(response)
	if err != nil {
		err = s.mapError(err)
		return CredentialDefinition{}, err
	}

	schema, err := s.requireSchema(ctx, schemaLedgerID)
	if err != nil {
		return CredentialDefinition{}, err
	}
	saved, err := s.credDefStore.Save(ctx, SaveCredentialDefinitionInput{
		Draft:         draft,
		SchemaID:      schema.ID,
		Revocable:     req.Revocable,
		OrgID:         orgID,
		CreatedBy:     req.UserID,
		LastChangedBy: req.UserID,
	})
	if err != nil {
		err = s.mapError(err)
		return CredentialDefinition{}, err
	}
	fields["credential_definition_id"] = saved.CredentialDefinitionID
	return saved.PublicView(), nil
}

func (s *Service) StoreCredentialDefinitionRecord(
	ctx context.Context,
	req StoreCredentialDefinitionRequest,
) (record CredentialDefinition, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"org_id":                   req.OrgID,
		"schema_ledger_id":         req.SchemaLedgerID,
		"credential_definition_id": req.CredentialDefinitionID,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "store_credential_definition_record", err, fields)
	}()

	if err = req.Validate(); err != nil {
		err = s.mapError(err)
		return CredentialDefinition{}, err
	}
	if err = s.requireStores(); err != nil {
		return CredentialDefinition{}, err
	}
	schemaLedgerID := strings.TrimSpace(req.SchemaLedgerID)
	tag := strings.TrimSpace(req.Tag)
	if err = s.ensureUnique(ctx, schemaLedgerID, tag); err != nil {
		return CredentialDefinition{}, err
	}
	schema, err := s.requireSchema(ctx, schemaLedgerID)
	if err != nil {
		return CredentialDefinition{}, err
	}
	saved, err := s.credDefStore.Save(ctx, SaveCredentialDefinitionInput{
		Draft: CredentialDefinitionDraft{
			Tag:                    tag,
			SchemaLedgerID:         schemaLedgerID,
			IssuerID:               strings.TrimSpace(req.IssuerID),
			CredentialDefinitionID: strings.TrimSpace(req.CredentialDefinitionID),
		},
		SchemaID:      schema.ID,
		Revocable:     req.Revocable,
		OrgID:         strings.TrimSpace(req.OrgID),
		CreatedBy:     req.UserID,
		LastChangedBy: req.UserID,
	})
	if err != nil {
		err = s.mapError(err)
		return CredentialDefinition{}, err
	}
	return saved.PublicView(), nil
}

func (s *Service) GetCredentialDefinitionByID(
	ctx context.Context,
	req GetCredentialDefinitionRequest,
) (lookup CredentialDefinitionLookup, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"org_id":                   req.OrgID,
		"credential_definition_id": req.CredentialDefinitionID,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_credential_definition_by_id", err, fields)
	}()

	if err = req.Validate(); err != nil {
		err = s.mapError(err)
		return CredentialDefinitionLookup{}, err
	}
	orgID := strings.TrimSpace(req.OrgID)
	topology, err := s.topology.Resolve(ctx, orgID)
	if err != nil {
		err = s.mapError(err)
		return CredentialDefinitionLookup{}, err
	}
	fields["topology_class"] = string(topology.Class)

	payload, err := buildGetPayload(topology, orgID, strings.TrimSpace(req.CredentialDefinitionID))
	if err != nil {
		err = s.mapError(err)
		return CredentialDefinitionLookup{}, err
	}
	response, err := s.agents.Send(ctx, CommandGetCredentialDefinition, payload)
	if err != nil {
		err = s.mapError(err)
		return CredentialDefinitionLookup{}, err
	}
	if resolution := resolutionError(response); resolution != "" {
		err = notFoundError("credential definition not found: "+resolution, map[string]any{
			"credential_definition_id": req.CredentialDefinitionID,
		})
		return CredentialDefinitionLookup{}, err
	}
	return CredentialDefinitionLookup{Response: response}, nil
}

func (s *Service) GetCredentialDefinitionsBySchemaID(
	ctx context.Context,
	schemaLedgerID string,
) (records []CredentialDefinition, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"schema_ledger_id": schemaLedgerID}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_credential_definitions_by_schema_id", err, fields)
	}()

	schemaLedgerID = strings.TrimSpace(schemaLedgerID)
	if schemaLedgerID == "" {
		err = s.mapError(errRequired("schema ledger id"))
		return nil, err
	}
	if err = s.requireStores(); err != nil {
		return nil, err
	}
	records, err = s.credDefStore.ListBySchemaLedgerID(ctx, schemaLedgerID)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	if records == nil {
		records = []CredentialDefinition{}
	}
	fields["count"] = len(records)
	return records, nil
}

type apiKeyEnvelope struct {
	APIKey string `json:"apiKey"`
}

func (s *Service) GetAgentAPIKey(ctx context.Context, orgID string) (apiKey string, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"org_id": orgID}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_agent_api_key", err, fields)
	}()

	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		err = s.mapError(errRequired("org id"))
		return "", err
	}
	response, err := s.agents.Send(ctx, CommandGetOrgAgentAPIKey, apiKeyPayload{OrgID: orgID})
	if err != nil {
		err = s.mapError(err)
		return "", err
	}
	if err = json.Unmarshal(response, &apiKey); err != nil {
		var envelope apiKeyEnvelope
		if envErr := json.Unmarshal(response, &envelope); envErr != nil {
			err = unexpectedError("core: decode agent api key response", map[string]any{"org_id": orgID})
			return "", err
		}
		apiKey = envelope.APIKey
		err = nil
	}
	if strings.TrimSpace(apiKey) == "" {
		err = notFoundError("agent api key not found for organization", map[string]any{"org_id": orgID})
		return "", err
	}
	return apiKey, nil
}

func (s *Service) ensureUnique(ctx context.Context, schemaLedgerID string, tag string) error {
	existing, found, err := s.credDefStore.GetByAttribute(ctx, schemaLedgerID, tag)
	if err != nil {
		return s.mapError(err)
	}
	if found {
		return conflictError("credential definition already exists for schema and tag", map[string]any{
			"schema_ledger_id":         schemaLedgerID,
			"tag":                      tag,
			"credential_definition_id": existing.CredentialDefinitionID,
		})
	}
	return nil
}

func (s *Service) requireSchema(ctx context.Context, schemaLedgerID string) (Schema, error) {
	if s.schemaStore == nil {
		return Schema{}, unexpectedError("core: schema store is not configured", nil)
	}
	schema, found, err := s.schemaStore.GetByLedgerID(ctx, schemaLedgerID)
	if err != nil {
		return Schema{}, s.mapError(err)
	}
	if !found {
		return Schema{}, notFoundError("schema not found", map[string]any{"schema_ledger_id": schemaLedgerID})
	}
	return schema, nil
}

func (s *Service) requireStores() error {
	if s.credDefStore == nil {
		return unexpectedError("core: credential definition store is not configured", nil)
	}
	return nil
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

// selectIssuerDID prefers a caller-supplied DID with at least minSegments
// non-empty colon-separated segments over the organization DID.
func selectIssuerDID(callerDID string, orgDID string, minSegments int) string {
	callerDID = strings.TrimSpace(callerDID)
	if callerDID == "" {
		return orgDID
	}
	segments := strings.Split(callerDID, ":")
	if len(segments) < minSegments {
		return orgDID
	}
	for _, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			return orgDID
		}
	}
	return callerDID
}

func errRequired(field string) error {
	return goerrors.New("core: "+field+" is required", goerrors.CategoryBadInput).
		WithTextCode(ErrorBadInput)
}
