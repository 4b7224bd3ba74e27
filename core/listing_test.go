package core

import (
	"context"
	"fmt"
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestBuildListingEnvelope_PaginationFormulas(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pageSize := rapid.IntRange(1, 500).Draw(t, "pageSize")
		pageNumber := rapid.OneOf(
			rapid.IntRange(1, 200),
			rapid.IntRange(1, math.MaxInt),
		).Draw(t, "pageNumber")
		total := rapid.IntRange(0, 100000).Draw(t, "total")

		envelope := BuildListingEnvelope[int](pageNumber, pageSize, total, 0, nil)
		page := min(pageNumber, MaxPageNumber(pageSize))
		if envelope.HasNextPage != (pageSize*page < total) {
			t.Fatalf("hasNextPage mismatch for size=%d page=%d total=%d", pageSize, page, total)
		}
		if envelope.HasPreviousPage != (page > 1) {
			t.Fatalf("hasPreviousPage mismatch for page=%d", page)
		}
		lastPage := total / pageSize
		if total%pageSize != 0 {
			lastPage++
		}
		if envelope.LastPage != lastPage {
			t.Fatalf("lastPage %d, expected %d", envelope.LastPage, lastPage)
		}
		if envelope.NextPage != page+1 || envelope.PreviousPage != page-1 {
			t.Fatalf("unexpected neighbours %+v", envelope)
		}
		if envelope.NextPage < 1 {
			t.Fatalf("next page overflowed for size=%d page=%d", pageSize, pageNumber)
		}
		if envelope.TotalItems != total {
			t.Fatalf("totalItems %d, expected %d", envelope.TotalItems, total)
		}
		if envelope.Data == nil {
			t.Fatalf("expected non-nil data slice")
		}
	})
}

func TestBuildListingEnvelope_HugePageNumberDoesNotOverflow(t *testing.T) {
	envelope := BuildListingEnvelope[int](math.MaxInt, 10, 5, 0, nil)
	if envelope.NextPage < 1 {
		t.Fatalf("expected positive next page, got %d", envelope.NextPage)
	}
	if envelope.HasNextPage {
		t.Fatalf("expected no next page past the end, got %+v", envelope)
	}
	if envelope.LastPage != 1 || !envelope.HasPreviousPage {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
}

func TestNormalizeListCriteria(t *testing.T) {
	cfg := DefaultConfig().Listing
	got := NormalizeListCriteria(ListCriteria{PageNumber: -3, PageSize: 0, SortOrder: "asc", SearchText: "  gold "}, cfg)
	if got.PageNumber != 1 || got.PageSize != cfg.DefaultPageSize {
		t.Fatalf("expected defaults, got %+v", got)
	}
	if got.SortOrder != SortAscending || got.SearchText != "gold" {
		t.Fatalf("expected normalized sort/search, got %+v", got)
	}
	got = NormalizeListCriteria(ListCriteria{PageNumber: 2, PageSize: 10000}, cfg)
	if got.PageSize != cfg.MaxPageSize {
		t.Fatalf("expected clamped page size %d, got %d", cfg.MaxPageSize, got.PageSize)
	}
	if got.SortOrder != SortDescending {
		t.Fatalf("expected descending default, got %q", got.SortOrder)
	}
	got = NormalizeListCriteria(ListCriteria{PageNumber: math.MaxInt / 50, PageSize: 100}, cfg)
	if got.PageNumber != MaxPageNumber(got.PageSize) {
		t.Fatalf("expected page number capped at %d, got %d", MaxPageNumber(got.PageSize), got.PageNumber)
	}
	if offset := (got.PageNumber - 1) * got.PageSize; offset < 0 {
		t.Fatalf("offset overflowed: %d", offset)
	}
}

func TestGetAllPlatformCredentialDefinitions_EmptyCorpusIsNotFound(t *testing.T) {
	fixture := newTestFixture(t)
	_, err := fixture.service.GetAllPlatformCredentialDefinitions(context.Background(), ListCriteria{PageSize: 10, PageNumber: 1})
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetAllPlatformCredentialDefinitions_Envelope(t *testing.T) {
	fixture := newTestFixture(t)
	fixture.credDefs.platformPage = CredentialDefinitionPage{
		Total: 25,
		Items: []CredentialDefinition{{ID: "a"}, {ID: "b"}},
	}
	envelope, err := fixture.service.GetAllPlatformCredentialDefinitions(context.Background(), ListCriteria{PageSize: 10, PageNumber: 2})
	if err != nil {
		t.Fatalf("platform listing: %v", err)
	}
	if envelope.TotalItems != 25 || !envelope.HasNextPage || !envelope.HasPreviousPage || envelope.LastPage != 3 {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected page data, got %d", len(envelope.Data))
	}
	if fixture.credDefs.lastCriteria.PageNumber != 2 || fixture.credDefs.lastCriteria.PageSize != 10 {
		t.Fatalf("expected criteria passthrough, got %+v", fixture.credDefs.lastCriteria)
	}
}

func TestGetAllCredentialDefinitions_FiltersArchivedWithOneBatchedLookup(t *testing.T) {
	fixture := newTestFixture(t)
	fixture.credDefs.orgPage = CredentialDefinitionPage{
		Total: 4,
		Items: []CredentialDefinition{
			{ID: "1", SchemaLedgerID: "s-active"},
			{ID: "2", SchemaLedgerID: "s-archived"},
			{ID: "3", SchemaLedgerID: "s-active"},
			{ID: "4", SchemaLedgerID: "s-archived"},
		},
	}
	fixture.registry.archived["s-archived"] = true

	envelope, err := fixture.service.GetAllCredentialDefinitions(context.Background(), OrgListRequest{
		OrgID:    "org-1",
		Criteria: ListCriteria{PageNumber: 1, PageSize: 10},
	})
	if err != nil {
		t.Fatalf("org listing: %v", err)
	}
	if len(fixture.registry.calls) != 1 {
		t.Fatalf("expected one batched registry call, got %d", len(fixture.registry.calls))
	}
	if got := fixture.registry.calls[0]; len(got) != 2 {
		t.Fatalf("expected distinct schema ids, got %v", got)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected two active records, got %d", len(envelope.Data))
	}
	if envelope.TotalItems != 2 {
		t.Fatalf("expected post-filter total 2, got %d", envelope.TotalItems)
	}
	if envelope.LastPage != 1 || envelope.HasNextPage {
		t.Fatalf("expected navigation from repository total, got %+v", envelope)
	}
}

func TestGetAllCredentialDefinitions_AllArchivedIsNotFound(t *testing.T) {
	fixture := newTestFixture(t)
	fixture.credDefs.orgPage = CredentialDefinitionPage{
		Total: 1,
		Items: []CredentialDefinition{{ID: "1", SchemaLedgerID: "s-archived"}},
	}
	fixture.registry.archived["s-archived"] = true

	_, err := fixture.service.GetAllCredentialDefinitions(context.Background(), OrgListRequest{OrgID: "org-1"})
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetAllCredentialDefinitions_EmptyPageSkipsRegistry(t *testing.T) {
	fixture := newTestFixture(t)
	_, err := fixture.service.GetAllCredentialDefinitions(context.Background(), OrgListRequest{OrgID: "org-1"})
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(fixture.registry.calls) != 0 {
		t.Fatalf("expected no registry lookup for empty page")
	}
}

func TestGetAllCredentialDefinitions_NeverReturnsArchivedSchemas(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		fixture := newTestFixture(t)
		schemaCount := rapid.IntRange(1, 6).Draw(rt, "schemaCount")
		archived := map[string]bool{}
		for index := range schemaCount {
			archived[fmt.Sprintf("schema-%d", index)] = rapid.Bool().Draw(rt, fmt.Sprintf("archived-%d", index))
		}
		itemCount := rapid.IntRange(1, 20).Draw(rt, "itemCount")
		items := make([]CredentialDefinition, 0, itemCount)
		for index := range itemCount {
			schema := rapid.IntRange(0, schemaCount-1).Draw(rt, fmt.Sprintf("schemaOf-%d", index))
			items = append(items, CredentialDefinition{
				ID:             fmt.Sprintf("cd-%d", index),
				SchemaLedgerID: fmt.Sprintf("schema-%d", schema),
			})
		}
		fixture.credDefs.orgPage = CredentialDefinitionPage{Total: itemCount, Items: items}
		fixture.registry.archived = archived

		envelope, err := fixture.service.GetAllCredentialDefinitions(context.Background(), OrgListRequest{OrgID: "org-1"})
		activeExpected := 0
		for _, item := range items {
			if !archived[item.SchemaLedgerID] {
				activeExpected++
			}
		}
		if activeExpected == 0 {
			if !IsNotFound(err) {
				rt.Fatalf("expected not found when all schemas are archived, got %v", err)
			}
			return
		}
		if err != nil {
			rt.Fatalf("org listing: %v", err)
		}
		for _, record := range envelope.Data {
			if archived[record.SchemaLedgerID] {
				rt.Fatalf("archived schema %s leaked into listing", record.SchemaLedgerID)
			}
		}
		if len(envelope.Data) != activeExpected || envelope.TotalItems != activeExpected {
			rt.Fatalf("expected %d active records, got data=%d total=%d", activeExpected, len(envelope.Data), envelope.TotalItems)
		}
	})
}
