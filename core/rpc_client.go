package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// AgentClient sends commands over an RPCChannel and normalizes every failure
// into a remote fault. It never retries.
type AgentClient struct {
	channel RPCChannel
}

func NewAgentClient(channel RPCChannel) *AgentClient {
	return &AgentClient{channel: channel}
}

func (c *AgentClient) Send(ctx context.Context, command string, payload any) (json.RawMessage, error) {
	if c == nil || c.channel == nil {
		return nil, unexpectedError("core: rpc channel is not configured", map[string]any{"command": command})
	}
	result, err := c.channel.Send(ctx, command, payload)
	if err != nil {
		return nil, normalizeRemoteError(command, err)
	}
	return result, nil
}

func normalizeRemoteError(command string, err error) error {
	if err == nil {
		return nil
	}
	metadata := map[string]any{"command": command}

	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteFaultError(remoteErr.StatusCode, remoteErr.DisplayMessage(), err, metadata)
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if richErr.Category == goerrors.CategoryExternal {
			return ensureServiceErrorEnvelope(richErr)
		}
		return remoteFaultError(richErr.Code, richErr.Message, err, metadata)
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return remoteFaultError(http.StatusGatewayTimeout, err.Error(), err, metadata)
	case errors.Is(err, context.Canceled):
		return remoteFaultError(http.StatusServiceUnavailable, err.Error(), err, metadata)
	}
	return remoteFaultError(http.StatusBadGateway, err.Error(), err, metadata)
}

type schemaDetailsPayload struct {
	TemplateIDs []string `json:"templateIds"`
}

// SchemaRegistryClient resolves schema archival state through the
// get-schemas-details command.
type SchemaRegistryClient struct {
	client *AgentClient
}

func NewSchemaRegistryClient(channel RPCChannel) *SchemaRegistryClient {
	return &SchemaRegistryClient{client: NewAgentClient(channel)}
}

func (c *SchemaRegistryClient) GetSchemaDetails(ctx context.Context, schemaLedgerIDs []string) ([]SchemaArchiveStatus, error) {
	if len(schemaLedgerIDs) == 0 {
		return []SchemaArchiveStatus{}, nil
	}
	raw, err := c.client.Send(ctx, CommandGetSchemasDetails, schemaDetailsPayload{
		TemplateIDs: append([]string(nil), schemaLedgerIDs...),
	})
	if err != nil {
		return nil, err
	}
	var statuses []SchemaArchiveStatus
	if trimmed := strings.TrimSpace(string(raw)); trimmed == "" || trimmed == "null" {
		return []SchemaArchiveStatus{}, nil
	}
	if err := json.Unmarshal(raw, &statuses); err != nil {
		return nil, unexpectedError("core: decode schema details: "+err.Error(), map[string]any{
			"command": CommandGetSchemasDetails,
		})
	}
	return statuses, nil
}

type dedicatedCreatePayload struct {
	Tag           string        `json:"tag"`
	SchemaID      string        `json:"schemaId"`
	IssuerID      string        `json:"issuerId"`
	AgentEndpoint string        `json:"agentEndPoint"`
	OrgID         string        `json:"orgId"`
	AgentType     TopologyClass `json:"agentType"`
}

type dedicatedGetPayload struct {
	CredentialDefinitionID string        `json:"credentialDefinitionId"`
	OrgID                  string        `json:"orgId"`
	AgentEndpoint          string        `json:"agentEndPoint"`
	AgentType              TopologyClass `json:"agentType"`
}

// sharedEnvelope addresses a tenant on a shared agent. TenantID is always
// serialized.
type sharedEnvelope struct {
	TenantID      string        `json:"tenantId"`
	Method        string        `json:"method"`
	Payload       any           `json:"payload"`
	AgentEndpoint string        `json:"agentEndPoint"`
	OrgID         string        `json:"orgId"`
	AgentType     TopologyClass `json:"agentType"`
}

type sharedCreateBody struct {
	Tag      string `json:"tag"`
	SchemaID string `json:"schemaId"`
	IssuerID string `json:"issuerId"`
}

type sharedGetBody struct {
	CredentialDefinitionID string `json:"credentialDefinitionId"`
}

type apiKeyPayload struct {
	OrgID string `json:"orgId"`
}

func buildCreatePayload(topology AgentTopology, orgID string, tag string, schemaLedgerID string, issuerID string) (any, error) {
	switch topology.Class {
	case TopologyDedicated:
		return dedicatedCreatePayload{
			Tag:           tag,
			SchemaID:      schemaLedgerID,
			IssuerID:      issuerID,
			AgentEndpoint: topology.AgentEndpoint,
			OrgID:         orgID,
			AgentType:     TopologyDedicated,
		}, nil
	case TopologyShared:
		return sharedEnvelope{
			TenantID: topology.TenantID,
			Method:   SharedMethodRegisterCredentialDefinition,
			Payload: sharedCreateBody{
				Tag:      tag,
				SchemaID: schemaLedgerID,
				IssuerID: issuerID,
			},
			AgentEndpoint: topology.AgentEndpoint,
			OrgID:         orgID,
			AgentType:     TopologyShared,
		}, nil
	default:
		return nil, unexpectedError("core: unsupported topology class", map[string]any{
			"org_id":         orgID,
			"topology_class": string(topology.Class),
		})
	}
}

func buildGetPayload(topology AgentTopology, orgID string, credentialDefinitionID string) (any, error) {
	switch topology.Class {
	case TopologyDedicated:
		return dedicatedGetPayload{
			CredentialDefinitionID: credentialDefinitionID,
			OrgID:                  orgID,
			AgentEndpoint:          topology.AgentEndpoint,
			AgentType:              TopologyDedicated,
		}, nil
	case TopologyShared:
		return sharedEnvelope{
			TenantID:      topology.TenantID,
			Method:        SharedMethodGetCredentialDefinitionByID,
			Payload:       sharedGetBody{CredentialDefinitionID: credentialDefinitionID},
			AgentEndpoint: topology.AgentEndpoint,
			OrgID:         orgID,
			AgentType:     TopologyShared,
		}, nil
	default:
		return nil, unexpectedError("core: unsupported topology class", map[string]any{
			"org_id":         orgID,
			"topology_class": string(topology.Class),
		})
	}
}
