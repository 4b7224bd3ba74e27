package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-creddef/core"
)

var (
	_ gocmd.Querier[GetCredentialDefinitionByIDMessage, core.CredentialDefinitionLookup]  = (*GetCredentialDefinitionByIDQuery)(nil)
	_ gocmd.Querier[ListBySchemaIDMessage, []core.CredentialDefinition]                   = (*ListBySchemaIDQuery)(nil)
	_ gocmd.Querier[ListPlatformMessage, core.ListingEnvelope[core.CredentialDefinition]] = (*ListPlatformQuery)(nil)
	_ gocmd.Querier[ListByOrgMessage, core.ListingEnvelope[core.CredentialDefinition]]    = (*ListByOrgQuery)(nil)
	_ gocmd.Querier[ListTemplatesMessage, []core.CredentialTemplate]                      = (*ListTemplatesQuery)(nil)
	_ gocmd.Querier[GetAgentAPIKeyMessage, string]                                        = (*GetAgentAPIKeyQuery)(nil)
	_ CredentialDefinitionReader                                                          = (*core.Service)(nil)
	_ TemplateReader                                                                      = (*core.Service)(nil)
	_ AgentAPIKeyReader                                                                   = (*core.Service)(nil)
)
