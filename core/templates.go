package core

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

func (s *Service) GetAllCredentialTemplates(
	ctx context.Context,
	orgID string,
	schemaType string,
) (templates []CredentialTemplate, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"org_id":      orgID,
		"schema_type": schemaType,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_all_credential_templates", err, fields)
	}()

	parsed, err := ParseSchemaType(schemaType)
	if err != nil {
		err = notFoundError("unsupported schema type", map[string]any{"schema_type": schemaType})
		return nil, err
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		err = s.mapError(errRequired("org id"))
		return nil, err
	}

	switch parsed {
	case SchemaTypeW3C:
		templates, err = s.w3cTemplates(ctx, orgID)
	case SchemaTypeIndy:
		templates, err = s.indyTemplates(ctx, orgID)
	}
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	fields["count"] = len(templates)
	return templates, nil
}

// w3cTemplates composes each schema with its organization display fields.
// Composition runs concurrently up to templates.concurrency; output order
// matches the schema listing.
func (s *Service) w3cTemplates(ctx context.Context, orgID string) ([]CredentialTemplate, error) {
	if s.schemaStore == nil || s.organizationStore == nil {
		return nil, unexpectedError("core: schema and organization stores are required", nil)
	}
	schemas, err := s.schemaStore.ListByOrgAndType(ctx, orgID, SchemaTypeW3C)
	if err != nil {
		return nil, err
	}
	out := make([]CredentialTemplate, len(schemas))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(1, s.config.Templates.Concurrency))
	for index, schema := range schemas {
		group.Go(func() error {
			display, found, displayErr := s.organizationStore.GetDisplay(groupCtx, schema.OrgID)
			if displayErr != nil {
				return displayErr
			}
			if !found {
				s.logWarn(groupCtx, "organization display not found for template", map[string]any{
					"org_id":           schema.OrgID,
					"schema_ledger_id": schema.SchemaLedgerID,
				})
			}
			out[index] = CredentialTemplate{
				SchemaCredDefName: schema.Name + "-" + schema.Version,
				SchemaName:        schema.Name,
				SchemaVersion:     schema.Version,
				SchemaAttributes:  schema.Attributes,
				Type:              SchemaTypeW3C,
				SchemaIdentifier:  schema.SchemaLedgerID,
				SchemaArchived:    schema.Archived,
				CreatedAt:         schema.CreatedAt,
				OrganizationName:  display.OrganizationName,
				UserName:          display.UserName,
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) indyTemplates(ctx context.Context, orgID string) ([]CredentialTemplate, error) {
	if err := s.requireStores(); err != nil {
		return nil, err
	}
	rows, err := s.credDefStore.ListTemplatesByOrg(ctx, orgID, SortAscending)
	if err != nil {
		return nil, err
	}
	out := make([]CredentialTemplate, 0, len(rows))
	for _, row := range rows {
		if row.SchemaArchived {
			continue
		}
		if row.Type == "" {
			row.Type = SchemaTypeIndy
		}
		out = append(out, row)
	}
	return out, nil
}
