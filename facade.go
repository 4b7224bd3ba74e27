package creddef

import (
	"fmt"

	"github.com/goliatone/go-command/runner"
	"github.com/goliatone/go-creddef/adapters/gocommand"
	creddefcommand "github.com/goliatone/go-creddef/command"
	creddefquery "github.com/goliatone/go-creddef/query"
)

type CommandQueryService interface {
	creddefcommand.MutatingService
	creddefquery.CredentialDefinitionReader
	creddefquery.TemplateReader
	creddefquery.AgentAPIKeyReader
}

type Commands struct {
	Create      *creddefcommand.CreateCredentialDefinitionCommand
	StoreRecord *creddefcommand.StoreCredentialDefinitionCommand
}

type Queries struct {
	GetByID        *creddefquery.GetCredentialDefinitionByIDQuery
	ListBySchemaID *creddefquery.ListBySchemaIDQuery
	ListPlatform   *creddefquery.ListPlatformQuery
	ListByOrg      *creddefquery.ListByOrgQuery
	ListTemplates  *creddefquery.ListTemplatesQuery
	GetAgentAPIKey *creddefquery.GetAgentAPIKeyQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("creddef: command/query service is required")
	}
	return &Facade{
		service: service,
		commands: Commands{
			Create:      creddefcommand.NewCreateCredentialDefinitionCommand(service),
			StoreRecord: creddefcommand.NewStoreCredentialDefinitionCommand(service),
		},
		queries: Queries{
			GetByID:        creddefquery.NewGetCredentialDefinitionByIDQuery(service),
			ListBySchemaID: creddefquery.NewListBySchemaIDQuery(service),
			ListPlatform:   creddefquery.NewListPlatformQuery(service),
			ListByOrg:      creddefquery.NewListByOrgQuery(service),
			ListTemplates:  creddefquery.NewListTemplatesQuery(service),
			GetAgentAPIKey: creddefquery.NewGetAgentAPIKeyQuery(service),
		},
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

// Register exposes every command and query on the go-command dispatcher.
// Callers release the handlers with Subscriptions.Unsubscribe.
func (f *Facade) Register(adapter *gocommand.RegistryAdapter, runnerOpts ...runner.Option) (gocommand.Subscriptions, error) {
	if f == nil {
		return nil, fmt.Errorf("creddef: facade is not configured")
	}
	return gocommand.RegisterCredentialDefinitionHandlers(adapter, gocommand.CredentialDefinitionHandlers{
		Create:         f.commands.Create,
		StoreRecord:    f.commands.StoreRecord,
		GetByID:        f.queries.GetByID,
		ListBySchemaID: f.queries.ListBySchemaID,
		ListPlatform:   f.queries.ListPlatform,
		ListByOrg:      f.queries.ListByOrg,
		ListTemplates:  f.queries.ListTemplates,
		GetAgentAPIKey: f.queries.GetAgentAPIKey,
	}, runnerOpts...)
}

var _ CommandQueryService = (*Service)(nil)
