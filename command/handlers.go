package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-creddef/core"
)

type MutatingService interface {
	CreateCredentialDefinition(ctx context.Context, req core.CreateCredentialDefinitionRequest) (core.CredentialDefinition, error)
	StoreCredentialDefinitionRecord(ctx context.Context, req core.StoreCredentialDefinitionRequest) (core.CredentialDefinition, error)
}

type CreateCredentialDefinitionCommand struct {
	service MutatingService
}

func NewCreateCredentialDefinitionCommand(service MutatingService) *CreateCredentialDefinitionCommand {
	return &CreateCredentialDefinitionCommand{service: service}
}

func (c *CreateCredentialDefinitionCommand) Execute(ctx context.Context, msg CreateCredentialDefinitionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: credential definition service is required")
	}
	out, err := c.service.CreateCredentialDefinition(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type StoreCredentialDefinitionCommand struct {
	service MutatingService
}

func NewStoreCredentialDefinitionCommand(service MutatingService) *StoreCredentialDefinitionCommand {
	return &StoreCredentialDefinitionCommand{service: service}
}

func (c *StoreCredentialDefinitionCommand) Execute(ctx context.Context, msg StoreCredentialDefinitionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: credential definition service is required")
	}
	out, err := c.service.StoreCredentialDefinitionRecord(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
