package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-creddef/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type AgentStore struct {
	db   *bun.DB
	repo repository.Repository[*orgAgentRecord]
}

func NewAgentStore(db *bun.DB) (*AgentStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*orgAgentRecord](db, orgAgentHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid org agent repository wiring: %w", err)
		}
	}
	return &AgentStore{db: db, repo: repo}, nil
}

func (s *AgentStore) GetAgentDetailsByOrgID(ctx context.Context, orgID string) (core.AgentDetails, bool, error) {
	record, found, err := s.findByOrg(ctx, orgID)
	if err != nil || !found {
		return core.AgentDetails{}, found, err
	}
	return core.AgentDetails{
		AgentEndpoint: strings.TrimSpace(record.AgentEndpoint),
		OrgDID:        strings.TrimSpace(record.OrgDID),
		TenantID:      strings.TrimSpace(record.TenantID),
	}, true, nil
}

func (s *AgentStore) GetAgentTypeID(ctx context.Context, orgID string) (string, bool, error) {
	record, found, err := s.findByOrg(ctx, orgID)
	if err != nil || !found {
		return "", found, err
	}
	typeID := strings.TrimSpace(record.OrgAgentTypeID)
	return typeID, typeID != "", nil
}

func (s *AgentStore) GetOrgAgentType(ctx context.Context, agentTypeID string) (string, error) {
	if s == nil || s.db == nil {
		return "", fmt.Errorf("sqlstore: agent store is not configured")
	}
	agentTypeID = strings.TrimSpace(agentTypeID)
	if agentTypeID == "" {
		return "", fmt.Errorf("sqlstore: agent type id is required")
	}
	record := &orgAgentTypeRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", agentTypeID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("sqlstore: org agent type %q not found", agentTypeID)
		}
		return "", err
	}
	return strings.TrimSpace(record.Agent), nil
}

func (s *AgentStore) findByOrg(ctx context.Context, orgID string) (*orgAgentRecord, bool, error) {
	if s == nil || s.repo == nil {
		return nil, false, fmt.Errorf("sqlstore: agent store is not configured")
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return nil, false, fmt.Errorf("sqlstore: org id is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("org_id", "=", orgID),
		repository.OrderBy("created_at ASC"),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	return records[0], true, nil
}
