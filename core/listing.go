package core

import (
	"context"
	"math"
	"strings"
	"time"
)

// MaxPageNumber is the largest page whose offset and successor page still fit
// in an int for the given page size.
func MaxPageNumber(pageSize int) int {
	if pageSize < 1 {
		pageSize = 1
	}
	return math.MaxInt/pageSize - 1
}

// NormalizeListCriteria clamps paging to the configured bounds: a page below 1
// becomes 1, a missing size takes the default and an oversized one the max.
// Page numbers are capped at MaxPageNumber.
func NormalizeListCriteria(criteria ListCriteria, cfg ListingConfig) ListCriteria {
	if criteria.PageNumber < 1 {
		criteria.PageNumber = 1
	}
	if criteria.PageSize < 1 {
		criteria.PageSize = cfg.DefaultPageSize
	}
	if cfg.MaxPageSize > 0 && criteria.PageSize > cfg.MaxPageSize {
		criteria.PageSize = cfg.MaxPageSize
	}
	if criteria.PageSize < 1 {
		criteria.PageSize = 1
	}
	if maxPage := MaxPageNumber(criteria.PageSize); criteria.PageNumber > maxPage {
		criteria.PageNumber = maxPage
	}
	criteria.SortField = strings.TrimSpace(criteria.SortField)
	criteria.SortOrder = criteria.SortOrder.Normalize()
	criteria.SearchText = strings.TrimSpace(criteria.SearchText)
	return criteria
}

// BuildListingEnvelope derives navigation from the repository total. The
// reported totalItems excludes the records filtered out of the current page.
func BuildListingEnvelope[T any](pageNumber int, pageSize int, total int, excluded int, data []T) ListingEnvelope[T] {
	if pageSize < 1 {
		pageSize = 1
	}
	if pageNumber < 1 {
		pageNumber = 1
	}
	if maxPage := MaxPageNumber(pageSize); pageNumber > maxPage {
		pageNumber = maxPage
	}
	if total < 0 {
		total = 0
	}
	if data == nil {
		data = []T{}
	}
	totalItems := total - excluded
	if totalItems < 0 {
		totalItems = 0
	}
	lastPage := total / pageSize
	if total%pageSize != 0 {
		lastPage++
	}
	return ListingEnvelope[T]{
		TotalItems:      totalItems,
		HasNextPage:     pageNumber < lastPage,
		HasPreviousPage: pageNumber > 1,
		NextPage:        pageNumber + 1,
		PreviousPage:    pageNumber - 1,
		LastPage:        lastPage,
		Data:            data,
	}
}

func (s *Service) GetAllPlatformCredentialDefinitions(
	ctx context.Context,
	criteria ListCriteria,
) (envelope ListingEnvelope[CredentialDefinition], err error) {
	startedAt := time.Now().UTC()
	criteria = NormalizeListCriteria(criteria, s.config.Listing)
	fields := map[string]any{
		"page_number": criteria.PageNumber,
		"page_size":   criteria.PageSize,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_all_platform_credential_definitions", err, fields)
	}()

	if err = s.requireStores(); err != nil {
		return ListingEnvelope[CredentialDefinition]{}, err
	}
	page, err := s.credDefStore.ListPlatform(ctx, criteria)
	if err != nil {
		err = s.mapError(err)
		return ListingEnvelope[CredentialDefinition]{}, err
	}
	if page.Total == 0 {
		err = notFoundError("no credential definitions found", nil)
		return ListingEnvelope[CredentialDefinition]{}, err
	}
	fields["total"] = page.Total
	return BuildListingEnvelope(criteria.PageNumber, criteria.PageSize, page.Total, 0, page.Items), nil
}

func (s *Service) GetAllCredentialDefinitions(
	ctx context.Context,
	req OrgListRequest,
) (envelope ListingEnvelope[CredentialDefinition], err error) {
	startedAt := time.Now().UTC()
	criteria := NormalizeListCriteria(req.Criteria, s.config.Listing)
	fields := map[string]any{
		"org_id":      req.OrgID,
		"page_number": criteria.PageNumber,
		"page_size":   criteria.PageSize,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_all_credential_definitions", err, fields)
	}()

	orgID := strings.TrimSpace(req.OrgID)
	if orgID == "" {
		err = s.mapError(errRequired("org id"))
		return ListingEnvelope[CredentialDefinition]{}, err
	}
	if err = s.requireStores(); err != nil {
		return ListingEnvelope[CredentialDefinition]{}, err
	}
	page, err := s.credDefStore.ListByOrg(ctx, orgID, criteria)
	if err != nil {
		err = s.mapError(err)
		return ListingEnvelope[CredentialDefinition]{}, err
	}
	if len(page.Items) == 0 {
		err = notFoundError("no credential definitions found for organization", map[string]any{"org_id": orgID})
		return ListingEnvelope[CredentialDefinition]{}, err
	}

	archived, err := s.archivedSchemas(ctx, distinctSchemaLedgerIDs(page.Items))
	if err != nil {
		err = s.mapError(err)
		return ListingEnvelope[CredentialDefinition]{}, err
	}
	active := make([]CredentialDefinition, 0, len(page.Items))
	for _, item := range page.Items {
		if _, skip := archived[item.SchemaLedgerID]; skip {
			continue
		}
		active = append(active, item)
	}
	if len(active) == 0 {
		err = notFoundError("no active credential definitions found for organization", map[string]any{"org_id": orgID})
		return ListingEnvelope[CredentialDefinition]{}, err
	}
	excluded := len(page.Items) - len(active)
	fields["total"] = page.Total
	fields["excluded"] = excluded
	return BuildListingEnvelope(criteria.PageNumber, criteria.PageSize, page.Total, excluded, active), nil
}

// archivedSchemas performs one batched registry lookup.
func (s *Service) archivedSchemas(ctx context.Context, schemaLedgerIDs []string) (map[string]struct{}, error) {
	archived := map[string]struct{}{}
	if len(schemaLedgerIDs) == 0 {
		return archived, nil
	}
	if s.schemaRegistry == nil {
		return nil, unexpectedError("core: schema registry is not configured", nil)
	}
	statuses, err := s.schemaRegistry.GetSchemaDetails(ctx, schemaLedgerIDs)
	if err != nil {
		return nil, err
	}
	for _, status := range statuses {
		if status.IsSchemaArchived {
			archived[status.SchemaLedgerID] = struct{}{}
		}
	}
	return archived, nil
}

func distinctSchemaLedgerIDs(records []CredentialDefinition) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0, len(records))
	for _, record := range records {
		id := strings.TrimSpace(record.SchemaLedgerID)
		if id == "" {
			continue
		}
		if _, exists := seen[id]; exists {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
