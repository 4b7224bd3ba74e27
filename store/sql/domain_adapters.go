package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-creddef/core"
	"github.com/google/uuid"
)

func newCredentialDefinitionRecord(in core.SaveCredentialDefinitionInput, now time.Time) *credentialDefinitionRecord {
	lastChangedBy := strings.TrimSpace(in.LastChangedBy)
	if lastChangedBy == "" {
		lastChangedBy = strings.TrimSpace(in.CreatedBy)
	}
	return &credentialDefinitionRecord{
		ID:                     uuid.NewString(),
		Tag:                    strings.TrimSpace(in.Draft.Tag),
		SchemaLedgerID:         strings.TrimSpace(in.Draft.SchemaLedgerID),
		SchemaID:               strings.TrimSpace(in.SchemaID),
		IssuerID:               strings.TrimSpace(in.Draft.IssuerID),
		CredentialDefinitionID: strings.TrimSpace(in.Draft.CredentialDefinitionID),
		Revocable:              in.Revocable,
		OrgID:                  strings.TrimSpace(in.OrgID),
		CreatedBy:              strings.TrimSpace(in.CreatedBy),
		LastChangedBy:          lastChangedBy,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

func (r *credentialDefinitionRecord) toDomain() core.CredentialDefinition {
	if r == nil {
		return core.CredentialDefinition{}
	}
	updatedAt := r.UpdatedAt
	return core.CredentialDefinition{
		ID:                     r.ID,
		Tag:                    r.Tag,
		SchemaLedgerID:         r.SchemaLedgerID,
		SchemaID:               r.SchemaID,
		IssuerID:               r.IssuerID,
		CredentialDefinitionID: r.CredentialDefinitionID,
		Revocable:              r.Revocable,
		OrgID:                  r.OrgID,
		CreatedBy:              r.CreatedBy,
		LastChangedBy:          r.LastChangedBy,
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              &updatedAt,
	}
}

func (r *schemaRecord) toDomain() core.Schema {
	if r == nil {
		return core.Schema{}
	}
	return core.Schema{
		ID:             r.ID,
		Name:           r.Name,
		Version:        r.Version,
		Attributes:     r.Attributes,
		SchemaLedgerID: r.SchemaLedgerID,
		IssuerID:       r.IssuerID,
		OrgID:          r.OrgID,
		LedgerID:       r.LedgerID,
		Type:           core.SchemaType(r.Type),
		Archived:       r.IsSchemaArchived,
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
	}
}

func (r credentialTemplateRow) toDomain() core.CredentialTemplate {
	return core.CredentialTemplate{
		SchemaCredDefName:      r.SchemaName + ":" + r.SchemaVersion + "-" + r.Tag,
		SchemaName:             r.SchemaName,
		SchemaVersion:          r.SchemaVersion,
		SchemaAttributes:       r.SchemaAttributes,
		Type:                   core.SchemaType(r.SchemaType),
		SchemaIdentifier:       r.SchemaLedgerID,
		CredentialDefinitionID: r.CredentialDefinitionID,
		CredentialDefinition:   r.Tag,
		SchemaArchived:         r.IsSchemaArchived,
		CreatedAt:              r.CreatedAt,
	}
}

func credentialDefinitionRecordsToDomain(records []*credentialDefinitionRecord) []core.CredentialDefinition {
	out := make([]core.CredentialDefinition, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out
}
