package web

import (
	"net/http"
	"strconv"
)

// paginator describes one page of a larger result set.
type paginator struct {
	Page    int
	PerPage int
	Total   int
	Pages   int
}

// parsePage reads the ?page query parameter, defaulting to the first page.
// A non-numeric or non-positive value is reported as invalid.
func parsePage(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

// newPaginator validates a requested page against the total count. An empty
// result set still has one valid page; anything past the end is invalid.
func newPaginator(page, perPage, total int) (paginator, bool) {
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	if page > pages {
		return paginator{}, false
	}
	return paginator{Page: page, PerPage: perPage, Total: total, Pages: pages}, true
}

func (p paginator) IsPaginated() bool { return p.Total > p.PerPage }

func (p paginator) HasPrev() bool { return p.Page > 1 }

func (p paginator) HasNext() bool { return p.Page < p.Pages }

func (p paginator) PrevPage() int { return p.Page - 1 }

func (p paginator) NextPage() int { return p.Page + 1 }

func offsetFor(page, perPage int) int {
	return (page - 1) * perPage
}
