package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-creddef/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// credentialDefinitionSortColumns maps accepted sort fields onto columns.
var credentialDefinitionSortColumns = map[string]string{
	"":                         "created_at",
	"createdatetime":           "created_at",
	"created_at":               "created_at",
	"tag":                      "tag",
	"credentialdefinitionid":   "credential_definition_id",
	"credential_definition_id": "credential_definition_id",
	"schemaledgerid":           "schema_ledger_id",
	"schema_ledger_id":         "schema_ledger_id",
	"revocable":                "revocable",
}

type CredentialDefinitionStore struct {
	db   *bun.DB
	repo repository.Repository[*credentialDefinitionRecord]
}

func NewCredentialDefinitionStore(db *bun.DB) (*CredentialDefinitionStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*credentialDefinitionRecord](db, credentialDefinitionHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid credential definition repository wiring: %w", err)
		}
	}
	return &CredentialDefinitionStore{db: db, repo: repo}, nil
}

func (s *CredentialDefinitionStore) GetByAttribute(
	ctx context.Context,
	schemaLedgerID string,
	tag string,
) (core.CredentialDefinition, bool, error) {
	if s == nil || s.repo == nil {
		return core.CredentialDefinition{}, false, fmt.Errorf("sqlstore: credential definition store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("schema_ledger_id", "=", strings.TrimSpace(schemaLedgerID)),
		repository.SelectBy("tag", "=", strings.TrimSpace(tag)),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.CredentialDefinition{}, false, err
	}
	if len(records) == 0 {
		return core.CredentialDefinition{}, false, nil
	}
	return records[0].toDomain(), true, nil
}

// Save inserts a new record. A duplicate (schema_ledger_id, tag) pair fails on
// the unique index.
func (s *CredentialDefinitionStore) Save(
	ctx context.Context,
	in core.SaveCredentialDefinitionInput,
) (core.CredentialDefinition, error) {
	if s == nil || s.repo == nil {
		return core.CredentialDefinition{}, fmt.Errorf("sqlstore: credential definition store is not configured")
	}
	record := newCredentialDefinitionRecord(in, time.Now().UTC())
	if record.Tag == "" {
		return core.CredentialDefinition{}, fmt.Errorf("sqlstore: tag is required")
	}
	if record.SchemaLedgerID == "" {
		return core.CredentialDefinition{}, fmt.Errorf("sqlstore: schema ledger id is required")
	}
	if record.CredentialDefinitionID == "" {
		return core.CredentialDefinition{}, fmt.Errorf("sqlstore: credential definition id is required")
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.CredentialDefinition{}, err
	}
	return created.toDomain(), nil
}

func (s *CredentialDefinitionStore) ListBySchemaLedgerID(
	ctx context.Context,
	schemaLedgerID string,
) ([]core.CredentialDefinition, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: credential definition store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("schema_ledger_id", "=", strings.TrimSpace(schemaLedgerID)),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	return credentialDefinitionRecordsToDomain(records), nil
}

func (s *CredentialDefinitionStore) ListPlatform(
	ctx context.Context,
	criteria core.ListCriteria,
) (core.CredentialDefinitionPage, error) {
	return s.listPage(ctx, "", criteria)
}

func (s *CredentialDefinitionStore) ListByOrg(
	ctx context.Context,
	orgID string,
	criteria core.ListCriteria,
) (core.CredentialDefinitionPage, error) {
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return core.CredentialDefinitionPage{}, fmt.Errorf("sqlstore: org id is required")
	}
	return s.listPage(ctx, orgID, criteria)
}

func (s *CredentialDefinitionStore) listPage(
	ctx context.Context,
	orgID string,
	criteria core.ListCriteria,
) (core.CredentialDefinitionPage, error) {
	if s == nil || s.repo == nil {
		return core.CredentialDefinitionPage{}, fmt.Errorf("sqlstore: credential definition store is not configured")
	}
	pageSize := criteria.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	pageNumber := criteria.PageNumber
	if pageNumber <= 0 {
		pageNumber = 1
	}
	if maxPage := core.MaxPageNumber(pageSize); pageNumber > maxPage {
		pageNumber = maxPage
	}
	column, ok := credentialDefinitionSortColumns[strings.ToLower(strings.TrimSpace(criteria.SortField))]
	if !ok {
		return core.CredentialDefinitionPage{}, fmt.Errorf("sqlstore: invalid sort field %q", criteria.SortField)
	}

	selectors := []repository.SelectCriteria{
		repository.OrderBy(column + " " + string(criteria.SortOrder.Normalize())),
		repository.SelectPaginate(pageSize, (pageNumber-1)*pageSize),
	}
	if orgID != "" {
		selectors = append(selectors, repository.SelectBy("org_id", "=", orgID))
	}
	if search := strings.ToLower(strings.TrimSpace(criteria.SearchText)); search != "" {
		pattern := "%" + search + "%"
		selectors = append(selectors, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.
					Where("LOWER(?TableAlias.tag) LIKE ?", pattern).
					WhereOr("LOWER(?TableAlias.credential_definition_id) LIKE ?", pattern).
					WhereOr("LOWER(?TableAlias.schema_ledger_id) LIKE ?", pattern)
			})
		}))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return core.CredentialDefinitionPage{}, err
	}
	return core.CredentialDefinitionPage{
		Total: total,
		Items: credentialDefinitionRecordsToDomain(records),
	}, nil
}

// ListTemplatesByOrg joins each of the organization's credential definitions
// with its schema and archival flag.
func (s *CredentialDefinitionStore) ListTemplatesByOrg(
	ctx context.Context,
	orgID string,
	order core.SortOrder,
) ([]core.CredentialTemplate, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: credential definition store is not configured")
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return nil, fmt.Errorf("sqlstore: org id is required")
	}
	direction := string(order.Normalize())

	rows := []credentialTemplateRow{}
	err := s.db.NewSelect().
		Model((*credentialDefinitionRecord)(nil)).
		ColumnExpr("?TableAlias.credential_definition_id AS credential_definition_id").
		ColumnExpr("?TableAlias.tag AS tag").
		ColumnExpr("?TableAlias.created_at AS created_at").
		ColumnExpr("s.schema_ledger_id AS schema_ledger_id").
		ColumnExpr("s.name AS schema_name").
		ColumnExpr("s.version AS schema_version").
		ColumnExpr("s.attributes AS schema_attributes").
		ColumnExpr("s.type AS schema_type").
		ColumnExpr("s.is_schema_archived AS is_schema_archived").
		Join("JOIN schemas AS s ON s.schema_ledger_id = ?TableAlias.schema_ledger_id").
		Where("?TableAlias.org_id = ?", orgID).
		OrderExpr("?TableAlias.created_at " + direction).
		OrderExpr("?TableAlias.id " + direction).
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]core.CredentialTemplate, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
