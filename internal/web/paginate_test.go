package web

import (
	"net/http/httptest"
	"testing"
)

func TestParsePage(t *testing.T) {
	cases := []struct {
		query string
		page  int
		ok    bool
	}{
		{"", 1, true},
		{"page=1", 1, true},
		{"page=7", 7, true},
		{"page=0", 0, false},
		{"page=-2", 0, false},
		{"page=zero", 0, false},
		{"page=1.5", 0, false},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", "/catalog/books/?"+tc.query, nil)
		page, ok := parsePage(r)
		if ok != tc.ok || page != tc.page {
			t.Fatalf("parsePage(%q) = %d, %v; want %d, %v", tc.query, page, ok, tc.page, tc.ok)
		}
	}
}

func TestNewPaginator(t *testing.T) {
	// Four items at three per page make two pages.
	p, ok := newPaginator(1, 3, 4)
	if !ok {
		t.Fatalf("expected page 1 to be valid")
	}
	if p.Pages != 2 || !p.IsPaginated() || p.HasPrev() || !p.HasNext() {
		t.Fatalf("unexpected first page state: %+v", p)
	}
	if p.NextPage() != 2 {
		t.Fatalf("expected next page 2, got %d", p.NextPage())
	}

	p, ok = newPaginator(2, 3, 4)
	if !ok {
		t.Fatalf("expected page 2 to be valid")
	}
	if !p.HasPrev() || p.HasNext() || p.PrevPage() != 1 {
		t.Fatalf("unexpected last page state: %+v", p)
	}

	if _, ok := newPaginator(3, 3, 4); ok {
		t.Fatalf("expected page past the end to be invalid")
	}

	// An empty result set still renders page 1 without pagination links.
	p, ok = newPaginator(1, 10, 0)
	if !ok {
		t.Fatalf("expected the empty set to have one page")
	}
	if p.IsPaginated() || p.HasPrev() || p.HasNext() {
		t.Fatalf("unexpected empty set state: %+v", p)
	}

	// A total equal to the page size stays on a single page.
	p, _ = newPaginator(1, 10, 10)
	if p.IsPaginated() || p.Pages != 1 {
		t.Fatalf("unexpected single page state: %+v", p)
	}

	if offsetFor(3, 10) != 20 {
		t.Fatalf("expected offset 20, got %d", offsetFor(3, 10))
	}
}
