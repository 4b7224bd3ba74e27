package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type organisationRecord struct {
	bun.BaseModel `bun:"table:organisations,alias:o"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type userOrgRoleRecord struct {
	bun.BaseModel `bun:"table:user_org_roles,alias:uor"`

	ID        string    `bun:"id,pk"`
	UserID    string    `bun:"user_id,notnull"`
	OrgID     string    `bun:"org_id,notnull"`
	Role      string    `bun:"role,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type orgAgentTypeRecord struct {
	bun.BaseModel `bun:"table:org_agent_types,alias:oat"`

	ID    string `bun:"id,pk"`
	Agent string `bun:"agent,notnull"`
}

type orgAgentRecord struct {
	bun.BaseModel `bun:"table:org_agents,alias:oa"`

	ID             string    `bun:"id,pk"`
	OrgID          string    `bun:"org_id,notnull"`
	OrgAgentTypeID string    `bun:"org_agent_type_id"`
	AgentEndpoint  string    `bun:"agent_endpoint"`
	OrgDID         string    `bun:"org_did"`
	TenantID       string    `bun:"tenant_id"`
	APIKey         string    `bun:"api_key"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type schemaRecord struct {
	bun.BaseModel `bun:"table:schemas,alias:s"`

	ID               string    `bun:"id,pk"`
	Name             string    `bun:"name,notnull"`
	Version          string    `bun:"version,notnull"`
	Attributes       string    `bun:"attributes,notnull"`
	SchemaLedgerID   string    `bun:"schema_ledger_id,notnull"`
	IssuerID         string    `bun:"issuer_id,notnull"`
	PublisherDID     string    `bun:"publisher_did"`
	OrgID            string    `bun:"org_id,notnull"`
	LedgerID         string    `bun:"ledger_id"`
	Type             string    `bun:"type,notnull"`
	IsSchemaArchived bool      `bun:"is_schema_archived,notnull"`
	CreatedBy        string    `bun:"created_by,notnull"`
	LastChangedBy    string    `bun:"last_changed_by,notnull"`
	CreatedAt        time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt        time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type credentialDefinitionRecord struct {
	bun.BaseModel `bun:"table:credential_definitions,alias:cd"`

	ID                     string    `bun:"id,pk"`
	Tag                    string    `bun:"tag,notnull"`
	SchemaLedgerID         string    `bun:"schema_ledger_id,notnull"`
	SchemaID               string    `bun:"schema_id,notnull"`
	IssuerID               string    `bun:"issuer_id,notnull"`
	CredentialDefinitionID string    `bun:"credential_definition_id,notnull"`
	Revocable              bool      `bun:"revocable,notnull"`
	OrgID                  string    `bun:"org_id,notnull"`
	CreatedBy              string    `bun:"created_by,notnull"`
	LastChangedBy          string    `bun:"last_changed_by,notnull"`
	CreatedAt              time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt              time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// credentialTemplateRow is the joined credential definition and schema
// projection served by the indy template listing.
type credentialTemplateRow struct {
	CredentialDefinitionID string    `bun:"credential_definition_id"`
	Tag                    string    `bun:"tag"`
	CreatedAt              time.Time `bun:"created_at"`
	SchemaLedgerID         string    `bun:"schema_ledger_id"`
	SchemaName             string    `bun:"schema_name"`
	SchemaVersion          string    `bun:"schema_version"`
	SchemaAttributes       string    `bun:"schema_attributes"`
	SchemaType             string    `bun:"schema_type"`
	IsSchemaArchived       bool      `bun:"is_schema_archived"`
}
