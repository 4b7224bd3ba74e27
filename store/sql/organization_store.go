package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-creddef/core"
	"github.com/uptrace/bun"
)

type OrganizationStore struct {
	db *bun.DB
}

func NewOrganizationStore(db *bun.DB) (*OrganizationStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &OrganizationStore{db: db}, nil
}

// GetDisplay returns the organization name and the first name of the
// organization's earliest member.
func (s *OrganizationStore) GetDisplay(ctx context.Context, orgID string) (core.OrganizationDisplay, bool, error) {
	if s == nil || s.db == nil {
		return core.OrganizationDisplay{}, false, fmt.Errorf("sqlstore: organization store is not configured")
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return core.OrganizationDisplay{}, false, nil
	}

	organisation := &organisationRecord{}
	err := s.db.NewSelect().
		Model(organisation).
		Where("?TableAlias.id = ?", orgID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.OrganizationDisplay{}, false, nil
		}
		return core.OrganizationDisplay{}, false, err
	}

	display := core.OrganizationDisplay{
		OrgID:            organisation.ID,
		OrganizationName: organisation.Name,
	}
	var firstName string
	err = s.db.NewSelect().
		Model((*userOrgRoleRecord)(nil)).
		ColumnExpr("u.first_name").
		Join("JOIN users AS u ON u.id = ?TableAlias.user_id").
		Where("?TableAlias.org_id = ?", orgID).
		OrderExpr("?TableAlias.created_at ASC").
		Limit(1).
		Scan(ctx, &firstName)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return core.OrganizationDisplay{}, false, err
	}
	display.UserName = firstName
	return display, true, nil
}
