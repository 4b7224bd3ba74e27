package query

import (
	"strings"

	"github.com/goliatone/go-creddef/core"
)

const (
	TypeGetCredentialDefinitionByID = "creddef.query.credential_definition.get"
	TypeListBySchemaID              = "creddef.query.credential_definition.list_by_schema"
	TypeListPlatform                = "creddef.query.credential_definition.list_platform"
	TypeListByOrg                   = "creddef.query.credential_definition.list_by_org"
	TypeListTemplates               = "creddef.query.credential_template.list"
	TypeGetAgentAPIKey              = "creddef.query.agent_api_key.get"
)

type GetCredentialDefinitionByIDMessage struct {
	Request core.GetCredentialDefinitionRequest
}

func (GetCredentialDefinitionByIDMessage) Type() string { return TypeGetCredentialDefinitionByID }

func (m GetCredentialDefinitionByIDMessage) Validate() error {
	if strings.TrimSpace(m.Request.OrgID) == "" {
		return queryValidationError("org_id", "org id is required")
	}
	if strings.TrimSpace(m.Request.CredentialDefinitionID) == "" {
		return queryValidationError("credential_definition_id", "credential definition id is required")
	}
	return nil
}

type ListBySchemaIDMessage struct {
	SchemaLedgerID string
}

func (ListBySchemaIDMessage) Type() string { return TypeListBySchemaID }

func (m ListBySchemaIDMessage) Validate() error {
	if strings.TrimSpace(m.SchemaLedgerID) == "" {
		return queryValidationError("schema_ledger_id", "schema ledger id is required")
	}
	return nil
}

type ListPlatformMessage struct {
	Criteria core.ListCriteria
}

func (ListPlatformMessage) Type() string { return TypeListPlatform }

// Validate accepts any paging input; the service clamps it to the configured
// bounds.
func (m ListPlatformMessage) Validate() error {
	return nil
}

type ListByOrgMessage struct {
	Request core.OrgListRequest
}

func (ListByOrgMessage) Type() string { return TypeListByOrg }

func (m ListByOrgMessage) Validate() error {
	if strings.TrimSpace(m.Request.OrgID) == "" {
		return queryValidationError("org_id", "org id is required")
	}
	return nil
}

type ListTemplatesMessage struct {
	OrgID      string
	SchemaType string
}

func (ListTemplatesMessage) Type() string { return TypeListTemplates }

func (m ListTemplatesMessage) Validate() error {
	if strings.TrimSpace(m.OrgID) == "" {
		return queryValidationError("org_id", "org id is required")
	}
	return nil
}

type GetAgentAPIKeyMessage struct {
	OrgID string
}

func (GetAgentAPIKeyMessage) Type() string { return TypeGetAgentAPIKey }

func (m GetAgentAPIKeyMessage) Validate() error {
	if strings.TrimSpace(m.OrgID) == "" {
		return queryValidationError("org_id", "org id is required")
	}
	return nil
}
