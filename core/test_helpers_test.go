package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

type memoryCredDefStore struct {
	mu            sync.Mutex
	records       []CredentialDefinition
	platformPage  CredentialDefinitionPage
	orgPage       CredentialDefinitionPage
	templates     []CredentialTemplate
	saveErr       error
	getCalls      int
	saveCalls     int
	lastCriteria  ListCriteria
	templateCalls int
}

func newMemoryCredDefStore() *memoryCredDefStore {
	return &memoryCredDefStore{}
}

func (s *memoryCredDefStore) GetByAttribute(_ context.Context, schemaLedgerID string, tag string) (CredentialDefinition, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	for _, record := range s.records {
		if record.SchemaLedgerID == schemaLedgerID && record.Tag == tag {
			return record, true, nil
		}
	}
	return CredentialDefinition{}, false, nil
}

func (s *memoryCredDefStore) Save(_ context.Context, in SaveCredentialDefinitionInput) (CredentialDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCalls++
	if s.saveErr != nil {
		return CredentialDefinition{}, s.saveErr
	}
	now := time.Now().UTC()
	record := CredentialDefinition{
		ID:                     fmt.Sprintf("cd_%d", len(s.records)+1),
		Tag:                    in.Draft.Tag,
		SchemaLedgerID:         in.Draft.SchemaLedgerID,
		SchemaID:               in.SchemaID,
		IssuerID:               in.Draft.IssuerID,
		CredentialDefinitionID: in.Draft.CredentialDefinitionID,
		Revocable:              in.Revocable,
		OrgID:                  in.OrgID,
		CreatedBy:              in.CreatedBy,
		LastChangedBy:          in.LastChangedBy,
		CreatedAt:              now,
		UpdatedAt:              &now,
	}
	s.records = append(s.records, record)
	return record, nil
}

func (s *memoryCredDefStore) ListBySchemaLedgerID(_ context.Context, schemaLedgerID string) ([]CredentialDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []CredentialDefinition{}
	for _, record := range s.records {
		if record.SchemaLedgerID == schemaLedgerID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *memoryCredDefStore) ListPlatform(_ context.Context, criteria ListCriteria) (CredentialDefinitionPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCriteria = criteria
	return s.platformPage, nil
}

func (s *memoryCredDefStore) ListByOrg(_ context.Context, _ string, criteria ListCriteria) (CredentialDefinitionPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCriteria = criteria
	return s.orgPage, nil
}

func (s *memoryCredDefStore) ListTemplatesByOrg(context.Context, string, SortOrder) ([]CredentialTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templateCalls++
	return append([]CredentialTemplate(nil), s.templates...), nil
}

type stubAgentStore struct {
	mu          sync.Mutex
	details     map[string]AgentDetails
	agentTypes  map[string]string
	classes     map[string]string
	detailCalls int
}

func newStubAgentStore() *stubAgentStore {
	return &stubAgentStore{
		details:    map[string]AgentDetails{},
		agentTypes: map[string]string{},
		classes: map[string]string{
			"type_dedicated": string(TopologyDedicated),
			"type_shared":    string(TopologyShared),
		},
	}
}

func (s *stubAgentStore) register(orgID string, class TopologyClass, tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[orgID] = AgentDetails{
		AgentEndpoint: "http://agent.local/" + orgID,
		OrgDID:        "did:indy:bcovrin:" + orgID,
		TenantID:      tenantID,
	}
	s.agentTypes[orgID] = "type_" + strings.ToLower(string(class))
	if _, ok := s.classes[s.agentTypes[orgID]]; !ok {
		s.classes[s.agentTypes[orgID]] = string(class)
	}
}

func (s *stubAgentStore) GetAgentDetailsByOrgID(_ context.Context, orgID string) (AgentDetails, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detailCalls++
	details, ok := s.details[orgID]
	return details, ok, nil
}

func (s *stubAgentStore) GetAgentTypeID(_ context.Context, orgID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.agentTypes[orgID]
	return id, ok, nil
}

func (s *stubAgentStore) GetOrgAgentType(_ context.Context, agentTypeID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classes[agentTypeID], nil
}

type stubSchemaStore struct {
	mu      sync.Mutex
	schemas map[string]Schema
	byOrg   []Schema
	calls   int
}

func newStubSchemaStore(ledgerIDs ...string) *stubSchemaStore {
	store := &stubSchemaStore{schemas: map[string]Schema{}}
	for index, ledgerID := range ledgerIDs {
		store.schemas[ledgerID] = Schema{
			ID:             fmt.Sprintf("schema_row_%d", index+1),
			Name:           "schema",
			Version:        "1.0",
			SchemaLedgerID: ledgerID,
			Type:           SchemaTypeIndy,
		}
	}
	return store
}

func (s *stubSchemaStore) GetByLedgerID(_ context.Context, schemaLedgerID string) (Schema, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	schema, ok := s.schemas[schemaLedgerID]
	return schema, ok, nil
}

func (s *stubSchemaStore) ListByOrgAndType(context.Context, string, SchemaType) ([]Schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return append([]Schema(nil), s.byOrg...), nil
}

type stubOrganizationStore struct {
	mu       sync.Mutex
	displays map[string]OrganizationDisplay
	delay    func(orgID string) time.Duration
	calls    int
}

func (s *stubOrganizationStore) GetDisplay(ctx context.Context, orgID string) (OrganizationDisplay, bool, error) {
	if s.delay != nil {
		select {
		case <-time.After(s.delay(orgID)):
		case <-ctx.Done():
			return OrganizationDisplay{}, false, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	display, ok := s.displays[orgID]
	return display, ok, nil
}

type sentCommand struct {
	command string
	payload map[string]any
}

// recordingChannel captures every command and answers through handler.
type recordingChannel struct {
	mu      sync.Mutex
	sent    []sentCommand
	handler func(command string, payload map[string]any) (json.RawMessage, error)
}

func (c *recordingChannel) Send(_ context.Context, command string, payload any) (json.RawMessage, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	decoded := map[string]any{}
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.sent = append(c.sent, sentCommand{command: command, payload: decoded})
	handler := c.handler
	c.mu.Unlock()
	if handler == nil {
		return json.RawMessage(`{}`), nil
	}
	return handler(command, decoded)
}

func (c *recordingChannel) commands() []sentCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentCommand(nil), c.sent...)
}

// finishedAgent answers creation commands with a flat finished response built
// from the request payload.
func finishedAgent(command string, payload map[string]any) (json.RawMessage, error) {
	body := payload
	if inner, ok := payload["payload"].(map[string]any); ok {
		body = inner
	}
	switch command {
	case CommandCreateCredentialDefinition:
		response := map[string]any{
			"state":                  "finished",
			"credentialDefinitionId": fmt.Sprintf("%s:3:CL:%s:%s", body["issuerId"], body["schemaId"], body["tag"]),
			"credentialDefinition": map[string]any{
				"tag":      body["tag"],
				"schemaId": body["schemaId"],
				"issuerId": body["issuerId"],
			},
		}
		return json.Marshal(response)
	case CommandGetCredentialDefinition:
		return json.Marshal(map[string]any{
			"credentialDefinitionId": body["credentialDefinitionId"],
			"credentialDefinition":   map[string]any{"tag": "default"},
			"resolutionMetadata":     map[string]any{},
		})
	case CommandGetOrgAgentAPIKey:
		return json.RawMessage(`"api-key-` + fmt.Sprint(payload["orgId"]) + `"`), nil
	default:
		return nil, &RemoteError{StatusCode: 404, Message: "unknown command " + command}
	}
}

type stubSchemaRegistry struct {
	mu       sync.Mutex
	archived map[string]bool
	calls    [][]string
}

func (r *stubSchemaRegistry) GetSchemaDetails(_ context.Context, schemaLedgerIDs []string) ([]SchemaArchiveStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string(nil), schemaLedgerIDs...))
	out := make([]SchemaArchiveStatus, 0, len(schemaLedgerIDs))
	for _, id := range schemaLedgerIDs {
		out = append(out, SchemaArchiveStatus{SchemaLedgerID: id, IsSchemaArchived: r.archived[id]})
	}
	return out, nil
}

type testFixture struct {
	service       *Service
	credDefs      *memoryCredDefStore
	agents        *stubAgentStore
	schemas       *stubSchemaStore
	organizations *stubOrganizationStore
	channel       *recordingChannel
	registry      *stubSchemaRegistry
}

func newTestFixture(t *testing.T, opts ...Option) *testFixture {
	t.Helper()
	fixture := &testFixture{
		credDefs:      newMemoryCredDefStore(),
		agents:        newStubAgentStore(),
		schemas:       newStubSchemaStore("schema-1"),
		organizations: &stubOrganizationStore{displays: map[string]OrganizationDisplay{}},
		channel:       &recordingChannel{handler: finishedAgent},
		registry:      &stubSchemaRegistry{archived: map[string]bool{}},
	}
	base := []Option{
		WithCredentialDefinitionStore(fixture.credDefs),
		WithAgentStore(fixture.agents),
		WithSchemaStore(fixture.schemas),
		WithOrganizationStore(fixture.organizations),
		WithRPCChannel(fixture.channel),
		WithSchemaRegistry(fixture.registry),
		WithLogger(stubLogger{}),
	}
	svc, err := NewService(DefaultConfig(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	fixture.service = svc
	return fixture
}

func commandNames(commands []sentCommand) []string {
	out := make([]string, 0, len(commands))
	for _, command := range commands {
		out = append(out, command.command)
	}
	return out
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
