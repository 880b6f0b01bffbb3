package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/readstack/catalog/internal/catalog"
	"github.com/readstack/catalog/internal/storage"
)

type bookFormPage struct {
	basePage
	Form      *bookForm
	Authors   []catalog.Author
	Genres    []catalog.Genre
	Languages []catalog.Language
}

func (h *Handler) bookCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.renderBookForm(w, r, &bookForm{Errors: map[string]string{}})
		return
	}

	form := readBookForm(r)
	if r.PostFormValue("action") == "lookup" {
		h.lookupBook(w, r, form)
		return
	}

	params, ok := form.validate()
	if !ok {
		h.renderBookForm(w, r, form)
		return
	}

	book, err := h.catalog.CreateBook(r.Context(), params)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			form.Errors["form"] = msgInvalidChoice
			h.renderBookForm(w, r, form)
			return
		}
		h.serverError(w, err)
		return
	}

	h.recordAction(r, userFrom(r.Context()), "book-create", strconv.FormatInt(book.ID, 10))
	http.Redirect(w, r, fmt.Sprintf("/catalog/books/%d", book.ID), http.StatusFound)
}

// lookupBook prefills empty title and summary fields from Open Library and
// re-renders the form for review.
func (h *Handler) lookupBook(w http.ResponseWriter, r *http.Request, form *bookForm) {
	switch {
	case h.bookinfo == nil:
		form.Errors["isbn"] = "Lookup is not available."
	case form.ISBN == "":
		form.Errors["isbn"] = msgRequired
	default:
		info, err := h.bookinfo.LookupISBN(r.Context(), form.ISBN)
		if err != nil {
			h.log.WithError(err).WithField("isbn", form.ISBN).Warn("isbn lookup failed")
			form.Errors["isbn"] = "No record found for this ISBN."
			break
		}
		if form.Title == "" {
			form.Title = info.Title
		}
		if form.Summary == "" {
			form.Summary = info.Summary
		}
	}
	h.renderBookForm(w, r, form)
}

func (h *Handler) renderBookForm(w http.ResponseWriter, r *http.Request, form *bookForm) {
	authors, _, err := h.catalog.ListAuthors(r.Context(), 0, 0)
	if err != nil {
		h.serverError(w, err)
		return
	}
	genres, err := h.catalog.ListGenres(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	languages, err := h.catalog.ListLanguages(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.render(w, http.StatusOK, "book_form", bookFormPage{
		basePage:  h.page(r, "New book"),
		Form:      form,
		Authors:   authors,
		Genres:    genres,
		Languages: languages,
	})
}
