package command

import (
	"strings"

	"github.com/goliatone/go-creddef/core"
)

const (
	TypeCreateCredentialDefinition = "creddef.command.credential_definition.create"
	TypeStoreCredentialDefinition  = "creddef.command.credential_definition.store_record"
)

type CreateCredentialDefinitionMessage struct {
	Request core.CreateCredentialDefinitionRequest
}

func (CreateCredentialDefinitionMessage) Type() string { return TypeCreateCredentialDefinition }

func (m CreateCredentialDefinitionMessage) Validate() error {
	if strings.TrimSpace(m.Request.OrgID) == "" {
		return commandValidationError("org_id", "org id is required")
	}
	if strings.TrimSpace(m.Request.SchemaLedgerID) == "" {
		return commandValidationError("schema_ledger_id", "schema ledger id is required")
	}
	if strings.TrimSpace(m.Request.Tag) == "" {
		return commandValidationError("tag", "tag is required")
	}
	return nil
}

// StoreCredentialDefinitionMessage records a credential definition that was
// already written to the ledger.
type StoreCredentialDefinitionMessage struct {
	Request core.StoreCredentialDefinitionRequest
}

func (StoreCredentialDefinitionMessage) Type() string { return TypeStoreCredentialDefinition }

func (m StoreCredentialDefinitionMessage) Validate() error {
	if strings.TrimSpace(m.Request.OrgID) == "" {
		return commandValidationError("org_id", "org id is required")
	}
	if strings.TrimSpace(m.Request.SchemaLedgerID) == "" {
		return commandValidationError("schema_ledger_id", "schema ledger id is required")
	}
	if strings.TrimSpace(m.Request.Tag) == "" {
		return commandValidationError("tag", "tag is required")
	}
	if strings.TrimSpace(m.Request.CredentialDefinitionID) == "" {
		return commandValidationError("credential_definition_id", "credential definition id is required")
	}
	return nil
}
