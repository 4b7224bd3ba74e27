package query

import (
	"context"

	"github.com/goliatone/go-creddef/core"
)

type CredentialDefinitionReader interface {
	GetCredentialDefinitionByID(ctx context.Context, req core.GetCredentialDefinitionRequest) (core.CredentialDefinitionLookup, error)
	GetCredentialDefinitionsBySchemaID(ctx context.Context, schemaLedgerID string) ([]core.CredentialDefinition, error)
	GetAllPlatformCredentialDefinitions(ctx context.Context, criteria core.ListCriteria) (core.ListingEnvelope[core.CredentialDefinition], error)
	GetAllCredentialDefinitions(ctx context.Context, req core.OrgListRequest) (core.ListingEnvelope[core.CredentialDefinition], error)
}

type TemplateReader interface {
	GetAllCredentialTemplates(ctx context.Context, orgID string, schemaType string) ([]core.CredentialTemplate, error)
}

type AgentAPIKeyReader interface {
	GetAgentAPIKey(ctx context.Context, orgID string) (string, error)
}

type GetCredentialDefinitionByIDQuery struct {
	reader CredentialDefinitionReader
}

func NewGetCredentialDefinitionByIDQuery(reader CredentialDefinitionReader) *GetCredentialDefinitionByIDQuery {
	return &GetCredentialDefinitionByIDQuery{reader: reader}
}

func (q *GetCredentialDefinitionByIDQuery) Query(
	ctx context.Context,
	msg GetCredentialDefinitionByIDMessage,
) (core.CredentialDefinitionLookup, error) {
	if q == nil || q.reader == nil {
		return core.CredentialDefinitionLookup{}, queryDependencyError("query: credential definition reader is required")
	}
	return q.reader.GetCredentialDefinitionByID(ctx, msg.Request)
}

type ListBySchemaIDQuery struct {
	reader CredentialDefinitionReader
}

func NewListBySchemaIDQuery(reader CredentialDefinitionReader) *ListBySchemaIDQuery {
	return &ListBySchemaIDQuery{reader: reader}
}

func (q *ListBySchemaIDQuery) Query(ctx context.Context, msg ListBySchemaIDMessage) ([]core.CredentialDefinition, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: credential definition reader is required")
	}
	return q.reader.GetCredentialDefinitionsBySchemaID(ctx, msg.SchemaLedgerID)
}

type ListPlatformQuery struct {
	reader CredentialDefinitionReader
}

func NewListPlatformQuery(reader CredentialDefinitionReader) *ListPlatformQuery {
	return &ListPlatformQuery{reader: reader}
}

func (q *ListPlatformQuery) Query(
	ctx context.Context,
	msg ListPlatformMessage,
) (core.ListingEnvelope[core.CredentialDefinition], error) {
	if q == nil || q.reader == nil {
		return core.ListingEnvelope[core.CredentialDefinition]{}, queryDependencyError("query: credential definition reader is required")
	}
	return q.reader.GetAllPlatformCredentialDefinitions(ctx, msg.Criteria)
}

type ListByOrgQuery struct {
	reader CredentialDefinitionReader
}

func NewListByOrgQuery(reader CredentialDefinitionReader) *ListByOrgQuery {
	return &ListByOrgQuery{reader: reader}
}

func (q *ListByOrgQuery) Query(
	ctx context.Context,
	msg ListByOrgMessage,
) (core.ListingEnvelope[core.CredentialDefinition], error) {
	if q == nil || q.reader == nil {
		return core.ListingEnvelope[core.CredentialDefinition]{}, queryDependencyError("query: credential definition reader is required")
	}
	return q.reader.GetAllCredentialDefinitions(ctx, msg.Request)
}

type ListTemplatesQuery struct {
	reader TemplateReader
}

func NewListTemplatesQuery(reader TemplateReader) *ListTemplatesQuery {
	return &ListTemplatesQuery{reader: reader}
}

func (q *ListTemplatesQuery) Query(ctx context.Context, msg ListTemplatesMessage) ([]core.CredentialTemplate, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: template reader is required")
	}
	return q.reader.GetAllCredentialTemplates(ctx, msg.OrgID, msg.SchemaType)
}

type GetAgentAPIKeyQuery struct {
	reader AgentAPIKeyReader
}

func NewGetAgentAPIKeyQuery(reader AgentAPIKeyReader) *GetAgentAPIKeyQuery {
	return &GetAgentAPIKeyQuery{reader: reader}
}

func (q *GetAgentAPIKeyQuery) Query(ctx context.Context, msg GetAgentAPIKeyMessage) (string, error) {
	if q == nil || q.reader == nil {
		return "", queryDependencyError("query: agent api key reader is required")
	}
	return q.reader.GetAgentAPIKey(ctx, msg.OrgID)
}
