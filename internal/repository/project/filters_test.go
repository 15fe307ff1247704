package project

import (
	"strings"
	"testing"

	"studiosite/internal/query"
)

func TestBuildFiltersNarrowsVisibility(t *testing.T) {
	p := query.Params{Filters: map[string]string{"public": "true", "featured": "false"}}
	where, args := buildFilters(p).Clause()
	if !strings.Contains(where, "p.is_public = $") {
		t.Errorf("public filter missing from clause: %q", where)
	}
	if !strings.Contains(where, "p.is_featured = $") {
		t.Errorf("featured filter missing from clause: %q", where)
	}
	if len(args) != 2 {
		t.Fatalf("args = %v, want both boolean values", args)
	}
}

func TestBuildFiltersIgnoresUnknownKeys(t *testing.T) {
	p := query.Params{Filters: map[string]string{"is_public": "true", "visible": "true"}}
	where, args := buildFilters(p).Clause()
	if where != "WHERE p.deleted_at IS NULL" || len(args) != 0 {
		t.Fatalf("unknown keys must not filter, got clause %q args %v", where, args)
	}
}

func TestBuildFiltersCustomerByPublicID(t *testing.T) {
	p := query.Params{Filters: map[string]string{"customer_id": "2f4edc2a-9525-4465-9b5a-eec3d60ecf43"}}
	where, args := buildFilters(p).Clause()
	if !strings.Contains(where, "c.public_id::text = $1") {
		t.Errorf("customer filter missing from clause: %q", where)
	}
	if len(args) != 1 {
		t.Fatalf("args = %v, want the public id", args)
	}
}
