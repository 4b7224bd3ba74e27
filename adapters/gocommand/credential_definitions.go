package gocommand

import (
	"fmt"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	creddefcommand "github.com/goliatone/go-creddef/command"
	"github.com/goliatone/go-creddef/core"
	creddefquery "github.com/goliatone/go-creddef/query"
)

// CredentialDefinitionHandlers lists the commanders and queriers exposed on
// the dispatcher. Nil entries are skipped.
type CredentialDefinitionHandlers struct {
	Create         *creddefcommand.CreateCredentialDefinitionCommand
	StoreRecord    *creddefcommand.StoreCredentialDefinitionCommand
	GetByID        *creddefquery.GetCredentialDefinitionByIDQuery
	ListBySchemaID *creddefquery.ListBySchemaIDQuery
	ListPlatform   *creddefquery.ListPlatformQuery
	ListByOrg      *creddefquery.ListByOrgQuery
	ListTemplates  *creddefquery.ListTemplatesQuery
	GetAgentAPIKey *creddefquery.GetAgentAPIKeyQuery
}

type Subscriptions []commanddispatcher.Subscription

func (s Subscriptions) Unsubscribe() {
	for _, subscription := range s {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
}

// RegisterCredentialDefinitionHandlers registers and subscribes every non-nil
// handler. On failure the subscriptions made so far are released.
func RegisterCredentialDefinitionHandlers(
	adapter *RegistryAdapter,
	handlers CredentialDefinitionHandlers,
	runnerOpts ...runner.Option,
) (Subscriptions, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}

	subs := Subscriptions{}
	var err error
	if handlers.Create != nil {
		subs, err = appendCommand[creddefcommand.CreateCredentialDefinitionMessage](subs, adapter, handlers.Create, runnerOpts)
	}
	if err == nil && handlers.StoreRecord != nil {
		subs, err = appendCommand[creddefcommand.StoreCredentialDefinitionMessage](subs, adapter, handlers.StoreRecord, runnerOpts)
	}
	if err == nil && handlers.GetByID != nil {
		subs, err = appendQuery[creddefquery.GetCredentialDefinitionByIDMessage, core.CredentialDefinitionLookup](
			subs, adapter, handlers.GetByID, runnerOpts,
		)
	}
	if err == nil && handlers.ListBySchemaID != nil {
		subs, err = appendQuery[creddefquery.ListBySchemaIDMessage, []core.CredentialDefinition](
			subs, adapter, handlers.ListBySchemaID, runnerOpts,
		)
	}
	if err == nil && handlers.ListPlatform != nil {
		subs, err = appendQuery[creddefquery.ListPlatformMessage, core.ListingEnvelope[core.CredentialDefinition]](
			subs, adapter, handlers.ListPlatform, runnerOpts,
		)
	}
	if err == nil && handlers.ListByOrg != nil {
		subs, err = appendQuery[creddefquery.ListByOrgMessage, core.ListingEnvelope[core.CredentialDefinition]](
			subs, adapter, handlers.ListByOrg, runnerOpts,
		)
	}
	if err == nil && handlers.ListTemplates != nil {
		subs, err = appendQuery[creddefquery.ListTemplatesMessage, []core.CredentialTemplate](
			subs, adapter, handlers.ListTemplates, runnerOpts,
		)
	}
	if err == nil && handlers.GetAgentAPIKey != nil {
		subs, err = appendQuery[creddefquery.GetAgentAPIKeyMessage, string](subs, adapter, handlers.GetAgentAPIKey, runnerOpts)
	}
	if err != nil {
		subs.Unsubscribe()
		return nil, err
	}
	return subs, nil
}

func appendCommand[T any](
	subs Subscriptions,
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts []runner.Option,
) (Subscriptions, error) {
	subscription, err := RegisterAndSubscribe(adapter, cmd, runnerOpts...)
	if err != nil {
		return subs, err
	}
	return append(subs, subscription), nil
}

func appendQuery[T any, R any](
	subs Subscriptions,
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts []runner.Option,
) (Subscriptions, error) {
	subscription, err := RegisterAndSubscribeQuery(adapter, qry, runnerOpts...)
	if err != nil {
		return subs, err
	}
	return append(subs, subscription), nil
}
