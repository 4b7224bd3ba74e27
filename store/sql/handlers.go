package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func credentialDefinitionHandlers() repository.ModelHandlers[*credentialDefinitionRecord] {
	return repository.ModelHandlers[*credentialDefinitionRecord]{
		NewRecord: func() *credentialDefinitionRecord {
			return &credentialDefinitionRecord{}
		},
		GetID: func(record *credentialDefinitionRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *credentialDefinitionRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *credentialDefinitionRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func schemaHandlers() repository.ModelHandlers[*schemaRecord] {
	return repository.ModelHandlers[*schemaRecord]{
		NewRecord: func() *schemaRecord {
			return &schemaRecord{}
		},
		GetID: func(record *schemaRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *schemaRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *schemaRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func orgAgentHandlers() repository.ModelHandlers[*orgAgentRecord] {
	return repository.ModelHandlers[*orgAgentRecord]{
		NewRecord: func() *orgAgentRecord {
			return &orgAgentRecord{}
		},
		GetID: func(record *orgAgentRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *orgAgentRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *orgAgentRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
