package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestCreateCredentialDefinition_DedicatedAgentPersistsRecord(t *testing.T) {
	ctx := context.Background()
	fixture := newTestFixture(t)
	fixture.agents.register("org-1", TopologyDedicated, "")

	record, err := fixture.service.CreateCredentialDefinition(ctx, CreateCredentialDefinitionRequest{
		OrgID:          "org-1",
		UserID:         "user-1",
		SchemaLedgerID: "schema-1",
		Tag:            "  driver-license  ",
		Revocable:      true,
	})
	if err != nil {
		t.Fatalf("create credential definition: %v", err)
	}
	if record.Tag != "driver-license" {
		t.Fatalf("expected trimmed tag, got %q", record.Tag)
	}
	if record.CredentialDefinitionID == "" {
		t.Fatalf("expected ledger credential definition id")
	}
	if record.CreatedBy != "user-1" {
		t.Fatalf("expected createdBy user-1, got %q", record.CreatedBy)
	}
	if record.LastChangedBy != "" || record.UpdatedAt != nil {
		t.Fatalf("expected change tracking fields to be stripped, got %+v", record)
	}
	if record.SchemaID != "schema_row_1" {
		t.Fatalf("expected local schema id, got %q", record.SchemaID)
	}
	if !record.Revocable {
		t.Fatalf("expected revocable flag to be persisted")
	}

	stored := fixture.credDefs.records[0]
	if stored.LastChangedBy != "user-1" {
		t.Fatalf("expected stored lastChangedBy user-1, got %q", stored.LastChangedBy)
	}

	commands := fixture.channel.commands()
	if len(commands) != 1 || commands[0].command != CommandCreateCredentialDefinition {
		t.Fatalf("expected a single create command, got %v", commandNames(commands))
	}
	payload := commands[0].payload
	if _, ok := payload["tenantId"]; ok {
		t.Fatalf("dedicated payload must not carry tenantId: %v", sortedKeys(payload))
	}
	if payload["agentType"] != string(TopologyDedicated) {
		t.Fatalf("expected dedicated agent type, got %v", payload["agentType"])
	}
	if payload["issuerId"] != "did:indy:bcovrin:org-1" {
		t.Fatalf("expected org did as issuer, got %v", payload["issuerId"])
	}
}

func TestCreateCredentialDefinition_SecondSubmissionConflictsWithoutDispatch(t *testing.T) {
	ctx := context.Background()
	fixture := newTestFixture(t)
	fixture.agents.register("org-1", TopologyDedicated, "")
	req := CreateCredentialDefinitionRequest{
		OrgID:          "org-1",
		UserID:         "user-1",
		SchemaLedgerID: "schema-1",
		Tag:            "driver-license",
	}

	if _, err := fixture.service.CreateCredentialDefinition(ctx, req); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := fixture.service.CreateCredentialDefinition(ctx, req)
	if err == nil {
		t.Fatalf("expected conflict on second create")
	}
	if !IsConflict(err) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.Code != http.StatusConflict {
		t.Fatalf("expected 409 envelope, got %#v", err)
	}
	if got := len(fixture.channel.commands()); got != 1 {
		t.Fatalf("expected conflict to skip dispatch, saw %d commands", got)
	}
	if fixture.credDefs.saveCalls != 1 {
		t.Fatalf("expected a single save, got %d", fixture.credDefs.saveCalls)
	}
}

func TestCreateCredentialDefinition_ConflictUsesTrimmedTag(t *testing.T) {
	ctx := context.Background()
	fixture := newTestFixture(t)
	fixture.agents.register("org-1", TopologyDedicated, "")
	fixture.credDefs.records = append(fixture.credDefs.records, CredentialDefinition{
		SchemaLedgerID: "schema-1",
		Tag:            "membership",
	})

	_, err := fixture.service.CreateCredentialDefinition(ctx, CreateCredentialDefinitionRequest{
		OrgID:          "org-1",
		SchemaLedgerID: "schema-1",
		Tag:            "\tmembership ",
	})
	if !IsConflict(err) {
		t.Fatalf("expected conflict for padded duplicate tag, got %v", err)
	}
	if got := len(fixture.channel.commands()); got != 0 {
		t.Fatalf("expected no backend calls, got %d", got)
	}
}

func TestCreateCredentialDefinition_SharedAgentWrapsTenantEnvelope(t *testing.T) {
	ctx := context.Background()
	fixture := newTestFixture(t)
	fixture.agents.register("org-2", TopologyShared, "tenant-9")
	fixture.channel.handler = func(command string, payload map[string]any) (json.RawMessage, error) {
		return json.RawMessage(`{
			"credentialDefinition": {
				"state": "finished",
				"credentialDefinitionId": "did:2:3:CL:schema-1:gold",
				"credentialDefinition": {"tag": "gold", "schemaId": "schema-1", "issuerId": "did:2"}
			}
		}`), nil
	}

	record, err := fixture.service.CreateCredentialDefinition(ctx, CreateCredentialDefinitionRequest{
		OrgID:          "org-2",
		UserID:         "user-2",
		SchemaLedgerID: "schema-1",
		Tag:            "gold",
	})
	if err != nil {
		t.Fatalf("create credential definition: %v", err)
	}
	if record.CredentialDefinitionID != "did:2:3:CL:schema-1:gold" {
		t.Fatalf("expected nested credential definition id, got %q", record.CredentialDefinitionID)
	}

	payload := fixture.channel.commands()[0].payload
	if payload["tenantId"] != "tenant-9" {
		t.Fatalf("expected tenant id in shared envelope, got %v", payload["tenantId"])
	}
	if payload["method"] != SharedMethodRegisterCredentialDefinition {
		t.Fatalf("expected register method, got %v", payload["method"])
	}
	inner, ok := payload["payload"].(map[string]any)
	if !ok || inner["tag"] != "gold" || inner["schemaId"] != "schema-1" {
		t.Fatalf("expected nested creation payload, got %v", payload["payload"])
	}
}

func TestCreateCredentialDefinition_UnknownTopologyClassIsUnexpected(t *testing.T) {
	ctx := context.Background()
	fixture := newTestFixture(t)
	fixture.agents.register("org-3", TopologyClass("CLUSTERED"), "")

	_, err := fixture.service.CreateCredentialDefinition(ctx, CreateCredentialDefinitionRequest{
		OrgID:          "org-3",
		SchemaLedgerID: "schema-1",
		Tag:            "silver",
	})
	if !IsUnexpected(err) {
		t.Fatalf("expected unexpected fault, got %v", err)
	}
	if got := len(fixture.channel.commands()); got != 0 {
		t.Fatalf("expected no dispatch for unknown topology, got %d", got)
	}
}

func TestCreateCredentialDefinition_MissingAgentIsNotFound(t *testing.T) {
	fixture := newTestFixture(t)
	_, err := fixture.service.CreateCredentialDefinition(context.Background(), CreateCredentialDefinitionRequest{
		OrgID:          "org-unknown",
		SchemaLedgerID: "schema-1",
		Tag:            "silver",
	})
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateCredentialDefinition_RemoteFaultCarriesStatusAndReason(t *testing.T) {
	ctx := context.Background()
	fixture := newTestFixture(t)
	fixture.agents.register("org-1", TopologyDedicated, "")
	fixture.channel.handler = func(string, map[string]any) (json.RawMessage, error) {
		return nil, &RemoteError{StatusCode: http.StatusUnprocessableEntity, Message: "Unprocessable", Reason: "schema not on ledger"}
	}

	_, err := fixture.service.CreateCredentialDefinition(ctx, CreateCredentialDefinitionRequest{
		OrgID:          "org-1",
		SchemaLedgerID: "schema-1",
		Tag:            "bronze",
	})
	if !IsRemoteFault(err) {
		t.Fatalf("expected remote fault, got %v", err)
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if richErr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected remote status code, got %d", richErr.Code)
	}
	if richErr.Message != "schema not on ledger" {
		t.Fatalf("expected remote reason as message, got %q", richErr.Message)
	}
	if fixture.credDefs.saveCalls != 0 {
		t.Fatalf("expected no persistence on remote fault")
	}
}

func TestCreateCredentialDefinition_TransportFailureBecomesBadGateway(t *testing.T) {
	fixture := newTestFixture(t)
	fixture.agents.register("org-1", TopologyDedicated, "")
	fixture.channel.handler = func(string, map[string]any) (json.RawMessage, error) {
		return nil, errors.New("dial tcp: connection refused")
	}

	_, err := fixture.service.CreateCredentialDefinition(context.Background(), CreateCredentialDefinitionRequest{
		OrgID:          "org-1",
		SchemaLedgerID: "schema-1",
		Tag:            "bronze",
	})
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors envelope, got %v", err)
	}
	if richErr.TextCode != ErrorRemoteFault || richErr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 remote fault, got %s/%d", richErr.TextCode, richErr.Code)
	}
}

func TestCreateCredentialDefinition_UnfinishedResponseIsUnexpected(t *testing.T) {
	fixture := newTestFixture(t)
	fixture.agents.register("org-1", TopologyDedicated, "")
	fixture.channel.handler = func(string, map[string]any) (json.RawMessage, error) {
		return json.RawMessage(`{"state":"failed","reason":"ledger rejected"}`), nil
	}

	_, err := fixture.service.CreateCredentialDefinition(context.Background(), CreateCredentialDefinitionRequest{
		OrgID:          "org-1",
		SchemaLedgerID: "schema-1",
		Tag:            "bronze",
	})
	if !IsUnexpected(err) {
		t.Fatalf("expected unexpected fault, got %v", err)
	}
	if fixture.credDefs.saveCalls != 0 {
		t.Fatalf("expected no persistence for unmatched response")
	}
}

func TestCreateCredentialDefinition_FinishedResponseWithoutTagIsUnexpected(t *testing.T) {
	fixture := newTestFixture(t)
	fixture.agents.register("org-1", TopologyDedicated, "")
	fixture.channel.handler = func(string, map[string]any) (json.RawMessage, error) {
		return json.RawMessage(`{
			"state": "finished",
			"credentialDefinitionId": "did:1:3:CL:schema-1:bronze",
			"credentialDefinition": {"schemaId": "schema-1", "issuerId": "did:1"}
		}`), nil
	}

	_, err := fixture.service.CreateCredentialDefinition(context.Background(), CreateCredentialDefinitionRequest{
		OrgID:          "org-1",
		SchemaLedgerID: "schema-1",
		Tag:            "bronze",
	})
	if !IsUnexpected(err) || IsBadInput(err) {
		t.Fatalf("expected unexpected fault for malformed agent reply, got %v", err)
	}
	if fixture.credDefs.saveCalls != 0 {
		t.Fatalf("expected no persistence for malformed agent reply")
	}
}

func TestCreateCredentialDefinition_MissingSchemaIsNotFoundAfterDispatch(t *testing.T) {
	fixture := newTestFixture(t)
	fixture.agents.register("org-1", TopologyDedicated, "")

	_, err := fixture.service.CreateCredentialDefinition(context.Background(), CreateCredentialDefinitionRequest{
		OrgID:          "org-1",
		SchemaLedgerID: "schema-missing",
		Tag:            "bronze",
	})
	if !IsNotFound(err) {
		t.Fatalf("expected schema not found, got %v", err)
	}
	if fixture.credDefs.saveCalls != 0 {
		t.Fatalf("expected no persistence when schema is missing")
	}
}

func TestCreateCredentialDefinition_ValidatesRequest(t *testing.T) {
	fixture := newTestFixture(t)
	_, err := fixture.service.CreateCredentialDefinition(context.Background(), CreateCredentialDefinitionRequest{
		OrgID:          "org-1",
		SchemaLedgerID: "schema-1",
		Tag:            "   ",
	})
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != ErrorBadInput {
		t.Fatalf("expected bad input, got %v", err)
	}
	if fixture.agents.detailCalls != 0 {
		t.Fatalf("expected validation before topology resolution")
	}
}

func TestSelectIssuerDID(t *testing.T) {
	cases := []struct {
		name   string
		caller string
		want   string
	}{
		{name: "empty caller", caller: "", want: "did:org"},
		{name: "short caller", caller: "did:sov:abc", want: "did:org"},
		{name: "qualified caller", caller: "did:indy:bcovrin:abc", want: "did:indy:bcovrin:abc"},
		{name: "empty segment", caller: "did:indy::abc", want: "did:org"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := selectIssuerDID(tc.caller, "did:org", 4); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestCreateCredentialDefinition_CallerDIDOverridesOrgDID(t *testing.T) {
	fixture := newTestFixture(t)
	fixture.agents.register("org-1", TopologyDedicated, "")

	_, err := fixture.service.CreateCredentialDefinition(context.Background(), CreateCredentialDefinitionRequest{
		OrgID:          "org-1",
		SchemaLedgerID: "schema-1",
		Tag:            "platinum",
		OrgDID:         "did:indy:bcovrin:testnet:caller",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := fixture.channel.commands()[0].payload["issuerId"]; got != "did:indy:bcovrin:testnet:caller" {
		t.Fatalf("expected caller DID as issuer, got %v", got)
	}
}

func TestCreateThenListBySchemaID_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fixture := newTestFixture(t)
	fixture.agents.register("org-1", TopologyDedicated, "")

	created, err := fixture.service.CreateCredentialDefinition(ctx, CreateCredentialDefinitionRequest{
		OrgID:          "org-1",
		UserID:         "user-1",
		SchemaLedgerID: "schema-1",
		Tag:            "round-trip",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	records, err := fixture.service.GetCredentialDefinitionsBySchemaID(ctx, created.SchemaLedgerID)
	if err != nil {
		t.Fatalf("list by schema id: %v", err)
	}
	found := false
	for _, record := range records {
		if record.CredentialDefinitionID == created.CredentialDefinitionID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected created record in schema listing, got %+v", records)
	}
}

func TestGetCredentialDefinitionByID_ReturnsAgentResponse(t *testing.T) {
	ctx := context.Background()
	fixture := newTestFixture(t)
	fixture.agents.register("org-2", TopologyShared, "tenant-2")

	lookup, err := fixture.service.GetCredentialDefinitionByID(ctx, GetCredentialDefinitionRequest{
		OrgID:                  "org-2",
		CredentialDefinitionID: "did:2:3:CL:1:default",
	})
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if !strings.Contains(string(lookup.Response), "did:2:3:CL:1:default") {
		t.Fatalf("expected raw agent response, got %s", lookup.Response)
	}
	payload := fixture.channel.commands()[0].payload
	if payload["method"] != SharedMethodGetCredentialDefinitionByID || payload["tenantId"] != "tenant-2" {
		t.Fatalf("expected shared lookup envelope, got %v", payload)
	}
}

func TestGetCredentialDefinitionByID_ResolutionErrorIsNotFound(t *testing.T) {
	fixture := newTestFixture(t)
	fixture.agents.register("org-1", TopologyDedicated, "")
	fixture.channel.handler = func(string, map[string]any) (json.RawMessage, error) {
		return json.RawMessage(`{"credentialDefinitionId":"x","resolutionMetadata":{"error":"notFound","message":"no such cred def"}}`), nil
	}

	_, err := fixture.service.GetCredentialDefinitionByID(context.Background(), GetCredentialDefinitionRequest{
		OrgID:                  "org-1",
		CredentialDefinitionID: "x",
	})
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	payload := fixture.channel.commands()[0].payload
	if _, ok := payload["tenantId"]; ok {
		t.Fatalf("dedicated lookup must not carry tenantId")
	}
}

func TestStoreCredentialDefinitionRecord(t *testing.T) {
	ctx := context.Background()
	fixture := newTestFixture(t)
	req := StoreCredentialDefinitionRequest{
		OrgID:                  "org-1",
		UserID:                 "user-1",
		SchemaLedgerID:         "schema-1",
		Tag:                    " endorsed ",
		IssuerID:               "did:indy:x:y",
		CredentialDefinitionID: "did:indy:x:y/anoncreds/v0/CLAIM_DEF/1/endorsed",
	}

	record, err := fixture.service.StoreCredentialDefinitionRecord(ctx, req)
	if err != nil {
		t.Fatalf("store record: %v", err)
	}
	if record.Tag != "endorsed" || record.SchemaID != "schema_row_1" {
		t.Fatalf("unexpected stored record %+v", record)
	}
	if len(fixture.channel.commands()) != 0 {
		t.Fatalf("expected store record to skip the agent")
	}
	if _, err := fixture.service.StoreCredentialDefinitionRecord(ctx, req); !IsConflict(err) {
		t.Fatalf("expected conflict on duplicate store, got %v", err)
	}
}

func TestGetAgentAPIKey(t *testing.T) {
	fixture := newTestFixture(t)
	key, err := fixture.service.GetAgentAPIKey(context.Background(), "org-7")
	if err != nil {
		t.Fatalf("get api key: %v", err)
	}
	if key != "api-key-org-7" {
		t.Fatalf("unexpected api key %q", key)
	}

	fixture.channel.handler = func(string, map[string]any) (json.RawMessage, error) {
		return json.RawMessage(`{"apiKey":""}`), nil
	}
	if _, err := fixture.service.GetAgentAPIKey(context.Background(), "org-7"); !IsNotFound(err) {
		t.Fatalf("expected not found for empty api key, got %v", err)
	}
}

func TestTopologyCache_ServesRepeatedResolutions(t *testing.T) {
	ctx := context.Background()
	fixture := newTestFixture(t)
	fixture.agents.register("org-1", TopologyDedicated, "")

	for range 3 {
		if _, err := fixture.service.GetCredentialDefinitionByID(ctx, GetCredentialDefinitionRequest{
			OrgID:                  "org-1",
			CredentialDefinitionID: "cd-1",
		}); err != nil {
			t.Fatalf("get by id: %v", err)
		}
	}
	if fixture.agents.detailCalls != 1 {
		t.Fatalf("expected cached topology, store saw %d lookups", fixture.agents.detailCalls)
	}
}

func TestTopologyCache_CanBeDisabled(t *testing.T) {
	ctx := context.Background()
	fixture := newTestFixture(t, WithTopologyCache(nil))
	fixture.agents.register("org-1", TopologyDedicated, "")

	for range 2 {
		if _, err := fixture.service.GetCredentialDefinitionByID(ctx, GetCredentialDefinitionRequest{
			OrgID:                  "org-1",
			CredentialDefinitionID: "cd-1",
		}); err != nil {
			t.Fatalf("get by id: %v", err)
		}
	}
	if fixture.agents.detailCalls != 2 {
		t.Fatalf("expected uncached lookups, got %d", fixture.agents.detailCalls)
	}
}
