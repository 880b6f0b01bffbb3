package web

import (
	"net/http"

	"github.com/readstack/catalog/internal/catalog"
	catalogsvc "github.com/readstack/catalog/internal/services/catalog"
)

type indexPage struct {
	basePage
	Stats catalogsvc.Stats
}

type bookListPage struct {
	basePage
	Items     []catalogsvc.BookListItem
	Paginator paginator
}

type bookDetailPage struct {
	basePage
	Detail catalogsvc.BookDetail
}

type authorListPage struct {
	basePage
	Authors   []catalog.Author
	Paginator paginator
}

type authorDetailPage struct {
	basePage
	Detail catalogsvc.AuthorDetail
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.render(w, http.StatusOK, "index", indexPage{
		basePage: h.page(r, "Home"),
		Stats:    stats,
	})
}

func (h *Handler) bookList(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(r)
	if !ok {
		respondNotFound(w)
		return
	}

	items, total, err := h.catalog.ListBooks(r.Context(), booksPerPage, offsetFor(page, booksPerPage))
	if err != nil {
		h.serverError(w, err)
		return
	}
	pager, ok := newPaginator(page, booksPerPage, total)
	if !ok {
		respondNotFound(w)
		return
	}

	h.render(w, http.StatusOK, "book_list", bookListPage{
		basePage:  h.page(r, "Books"),
		Items:     items,
		Paginator: pager,
	})
}

func (h *Handler) bookDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondNotFound(w)
		return
	}
	detail, err := h.catalog.GetBook(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.render(w, http.StatusOK, "book_detail", bookDetailPage{
		basePage: h.page(r, detail.Book.Title),
		Detail:   detail,
	})
}

func (h *Handler) authorList(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(r)
	if !ok {
		respondNotFound(w)
		return
	}

	authors, total, err := h.catalog.ListAuthors(r.Context(), listPerPage, offsetFor(page, listPerPage))
	if err != nil {
		h.serverError(w, err)
		return
	}
	pager, ok := newPaginator(page, listPerPage, total)
	if !ok {
		respondNotFound(w)
		return
	}

	h.render(w, http.StatusOK, "author_list", authorListPage{
		basePage:  h.page(r, "Authors"),
		Authors:   authors,
		Paginator: pager,
	})
}

func (h *Handler) authorDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondNotFound(w)
		return
	}
	detail, err := h.catalog.GetAuthor(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.render(w, http.StatusOK, "author_detail", authorDetailPage{
		basePage: h.page(r, detail.Author.DisplayName()),
		Detail:   detail,
	})
}
