package sqlstore

import "github.com/goliatone/go-creddef/core"

var (
	_ core.CredentialDefinitionStore = (*CredentialDefinitionStore)(nil)
	_ core.AgentStore                = (*AgentStore)(nil)
	_ core.SchemaStore               = (*SchemaStore)(nil)
	_ core.SchemaStore               = (*CachedSchemaStore)(nil)
	_ core.SchemaRegistry            = (*SchemaStore)(nil)
	_ core.OrganizationStore         = (*OrganizationStore)(nil)
	_ core.StoreProvider             = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory    = (*RepositoryFactory)(nil)
)
