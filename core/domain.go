package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidTopologyClass = errors.New("core: invalid topology class")
	ErrInvalidSchemaType    = errors.New("core: invalid schema type")
	ErrUnmatchedResponse    = errors.New("core: unmatched credential definition response")
)

type TopologyClass string

const (
	TopologyDedicated TopologyClass = "DEDICATED"
	TopologyShared    TopologyClass = "SHARED"
)

func ParseTopologyClass(value string) (TopologyClass, error) {
	switch TopologyClass(strings.ToUpper(strings.TrimSpace(value))) {
	case TopologyDedicated:
		return TopologyDedicated, nil
	case TopologyShared:
		return TopologyShared, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTopologyClass, value)
	}
}

// SchemaType selects the credential template family. The W3C family is
// stored under the "json" discriminator.
type SchemaType string

const (
	SchemaTypeIndy SchemaType = "indy"
	SchemaTypeW3C  SchemaType = "json"
)

func ParseSchemaType(value string) (SchemaType, error) {
	switch SchemaType(strings.TrimSpace(value)) {
	case SchemaTypeIndy:
		return SchemaTypeIndy, nil
	case SchemaTypeW3C:
		return SchemaTypeW3C, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSchemaType, value)
	}
}

const (
	CommandCreateCredentialDefinition = "agent-create-credential-definition"
	CommandGetCredentialDefinition    = "agent-get-credential-definition"
	CommandGetSchemasDetails          = "get-schemas-details"
	CommandGetOrgAgentAPIKey          = "get-org-agent-api-key"
)

const (
	SharedMethodRegisterCredentialDefinition = "registerCredentialDefinition"
	SharedMethodGetCredentialDefinitionByID  = "getCredentialDefinitionById"
)

type SortOrder string

const (
	SortAscending  SortOrder = "ASC"
	SortDescending SortOrder = "DESC"
)

func (o SortOrder) Normalize() SortOrder {
	if SortOrder(strings.ToUpper(strings.TrimSpace(string(o)))) == SortAscending {
		return SortAscending
	}
	return SortDescending
}

type CredentialDefinition struct {
	ID                     string     `json:"id"`
	Tag                    string     `json:"tag"`
	SchemaLedgerID         string     `json:"schemaLedgerId"`
	SchemaID               string     `json:"schemaId,omitempty"`
	IssuerID               string     `json:"issuerId"`
	CredentialDefinitionID string     `json:"credentialDefinitionId"`
	Revocable              bool       `json:"revocable"`
	OrgID                  string     `json:"orgId"`
	CreatedBy              string     `json:"createdBy"`
	LastChangedBy          string     `json:"lastChangedBy,omitempty"`
	CreatedAt              time.Time  `json:"createDateTime"`
	UpdatedAt              *time.Time `json:"lastChangedDateTime,omitempty"`
}

// PublicView drops the change-tracking attributes returned to callers after
// creation.
func (c CredentialDefinition) PublicView() CredentialDefinition {
	c.LastChangedBy = ""
	c.UpdatedAt = nil
	return c
}

// CredentialDefinitionDraft is the canonical shape produced from an agent
// response, regardless of which response variant the agent used.
type CredentialDefinitionDraft struct {
	Tag                    string `json:"tag"`
	SchemaLedgerID         string `json:"schemaLedgerId"`
	IssuerID               string `json:"issuerId"`
	CredentialDefinitionID string `json:"credentialDefinitionId"`
}

type SaveCredentialDefinitionInput struct {
	Draft         CredentialDefinitionDraft
	SchemaID      string
	Revocable     bool
	OrgID         string
	CreatedBy     string
	LastChangedBy string
}

type AgentDetails struct {
	AgentEndpoint string
	OrgDID        string
	TenantID      string
}

type AgentTopology struct {
	AgentEndpoint string
	OrgDID        string
	TenantID      string
	Class         TopologyClass
}

type Schema struct {
	ID             string
	Name           string
	Version        string
	Attributes     string
	SchemaLedgerID string
	IssuerID       string
	OrgID          string
	LedgerID       string
	Type           SchemaType
	Archived       bool
	CreatedBy      string
	CreatedAt      time.Time
}

type OrganizationDisplay struct {
	OrgID            string
	OrganizationName string
	UserName         string
}

type SchemaArchiveStatus struct {
	SchemaLedgerID   string `json:"schemaLedgerId"`
	IsSchemaArchived bool   `json:"isSchemaArchived"`
}

// CredentialTemplate is the display record served by template listings. The
// indy family carries credential definition fields; the W3C family carries
// organization display fields.
type CredentialTemplate struct {
	SchemaCredDefName      string     `json:"schemaCredDefName"`
	SchemaName             string     `json:"schemaName"`
	SchemaVersion          string     `json:"schemaVersion"`
	SchemaAttributes       string     `json:"schemaAttributes"`
	Type                   SchemaType `json:"type,omitempty"`
	SchemaIdentifier       string     `json:"schemaIdentifier,omitempty"`
	CredentialDefinitionID string     `json:"credentialDefinitionId,omitempty"`
	CredentialDefinition   string     `json:"credentialDefinition,omitempty"`
	SchemaArchived         bool       `json:"isSchemaArchived"`
	CreatedAt              time.Time  `json:"createDateTime"`
	OrganizationName       string     `json:"organizationName,omitempty"`
	UserName               string     `json:"userName,omitempty"`
}

type CredentialDefinitionPage struct {
	Total int
	Items []CredentialDefinition
}

type ListCriteria struct {
	PageNumber int
	PageSize   int
	SortField  string
	SortOrder  SortOrder
	SearchText string
}

type ListingEnvelope[T any] struct {
	TotalItems      int  `json:"totalItems"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
	NextPage        int  `json:"nextPage"`
	PreviousPage    int  `json:"previousPage"`
	LastPage        int  `json:"lastPage"`
	Data            []T  `json:"data"`
}

type CreateCredentialDefinitionRequest struct {
	OrgID          string
	UserID         string
	SchemaLedgerID string
	Tag            string
	OrgDID         string
	Revocable      bool
}

func (r CreateCredentialDefinitionRequest) Validate() error {
	if strings.TrimSpace(r.OrgID) == "" {
		return fmt.Errorf("core: org id is required")
	}
	if strings.TrimSpace(r.SchemaLedgerID) == "" {
		return fmt.Errorf("core: schema ledger id is required")
	}
	if strings.TrimSpace(r.Tag) == "" {
		return fmt.Errorf("core: tag is required")
	}
	return nil
}

type GetCredentialDefinitionRequest struct {
	OrgID                  string
	CredentialDefinitionID string
}

func (r GetCredentialDefinitionRequest) Validate() error {
	if strings.TrimSpace(r.OrgID) == "" {
		return fmt.Errorf("core: org id is required")
	}
	if strings.TrimSpace(r.CredentialDefinitionID) == "" {
		return fmt.Errorf("core: credential definition id is required")
	}
	return nil
}

// StoreCredentialDefinitionRequest persists a record whose ledger write
// happened outside the create flow.
type StoreCredentialDefinitionRequest struct {
	OrgID                  string
	UserID                 string
	SchemaLedgerID         string
	Tag                    string
	IssuerID               string
	CredentialDefinitionID string
	Revocable              bool
}

func (r StoreCredentialDefinitionRequest) Validate() error {
	if strings.TrimSpace(r.OrgID) == "" {
		return fmt.Errorf("core: org id is required")
	}
	if strings.TrimSpace(r.SchemaLedgerID) == "" {
		return fmt.Errorf("core: schema ledger id is required")
	}
	if strings.TrimSpace(r.Tag) == "" {
		return fmt.Errorf("core: tag is required")
	}
	if strings.TrimSpace(r.CredentialDefinitionID) == "" {
		return fmt.Errorf("core: credential definition id is required")
	}
	return nil
}

type OrgListRequest struct {
	OrgID    string
	Criteria ListCriteria
}

// CredentialDefinitionLookup wraps the agent response for a read-through
// credential definition lookup.
type CredentialDefinitionLookup struct {
	Response json.RawMessage `json:"response"`
}
