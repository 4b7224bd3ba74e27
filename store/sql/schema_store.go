package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-creddef/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type SchemaStore struct {
	db   *bun.DB
	repo repository.Repository[*schemaRecord]
}

func NewSchemaStore(db *bun.DB) (*SchemaStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*schemaRecord](db, schemaHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid schema repository wiring: %w", err)
		}
	}
	return &SchemaStore{db: db, repo: repo}, nil
}

func (s *SchemaStore) GetByLedgerID(ctx context.Context, schemaLedgerID string) (core.Schema, bool, error) {
	if s == nil || s.repo == nil {
		return core.Schema{}, false, fmt.Errorf("sqlstore: schema store is not configured")
	}
	schemaLedgerID = strings.TrimSpace(schemaLedgerID)
	if schemaLedgerID == "" {
		return core.Schema{}, false, nil
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("schema_ledger_id", "=", schemaLedgerID),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Schema{}, false, err
	}
	if len(records) == 0 {
		return core.Schema{}, false, nil
	}
	return records[0].toDomain(), true, nil
}

func (s *SchemaStore) ListByOrgAndType(ctx context.Context, orgID string, schemaType core.SchemaType) ([]core.Schema, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: schema store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("org_id", "=", strings.TrimSpace(orgID)),
		repository.SelectBy("type", "=", string(schemaType)),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Schema, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

// GetSchemaDetails reports archival flags for the requested ledger ids in one
// query. Unknown ids are omitted.
func (s *SchemaStore) GetSchemaDetails(ctx context.Context, schemaLedgerIDs []string) ([]core.SchemaArchiveStatus, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: schema store is not configured")
	}
	ids := make([]string, 0, len(schemaLedgerIDs))
	for _, id := range schemaLedgerIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	if len(ids) == 0 {
		return []core.SchemaArchiveStatus{}, nil
	}
	records := []*schemaRecord{}
	err := s.db.NewSelect().
		Model(&records).
		Column("schema_ledger_id", "is_schema_archived").
		Where("?TableAlias.schema_ledger_id IN (?)", bun.In(ids)).
		OrderExpr("?TableAlias.schema_ledger_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.SchemaArchiveStatus, 0, len(records))
	for _, record := range records {
		out = append(out, core.SchemaArchiveStatus{
			SchemaLedgerID:   record.SchemaLedgerID,
			IsSchemaArchived: record.IsSchemaArchived,
		})
	}
	return out, nil
}
