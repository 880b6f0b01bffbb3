package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	catalogsvc "github.com/readstack/catalog/internal/services/catalog"
)

type authorFormPage struct {
	basePage
	Form *authorForm
}

type authorDeletePage struct {
	basePage
	Detail catalogsvc.AuthorDetail
}

func (h *Handler) authorCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, http.StatusOK, "author_form", authorFormPage{
			basePage: h.page(r, "New author"),
			Form:     &authorForm{Errors: map[string]string{}},
		})
		return
	}

	form := readAuthorForm(r)
	params, ok := form.validate()
	if !ok {
		h.render(w, http.StatusOK, "author_form", authorFormPage{
			basePage: h.page(r, "New author"),
			Form:     form,
		})
		return
	}

	author, err := h.catalog.CreateAuthor(r.Context(), params)
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.recordAction(r, userFrom(r.Context()), "author-create", strconv.FormatInt(author.ID, 10))
	http.Redirect(w, r, fmt.Sprintf("/catalog/authors/%d", author.ID), http.StatusFound)
}

func (h *Handler) authorUpdate(w http.ResponseWriter, r *http.Request) {
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

	if r.Method == http.MethodGet {
		h.render(w, http.StatusOK, "author_form", authorFormPage{
			basePage: h.page(r, "Update author"),
			Form:     authorFormFrom(detail),
		})
		return
	}

	form := readAuthorForm(r)
	params, ok := form.validate()
	if !ok {
		h.render(w, http.StatusOK, "author_form", authorFormPage{
			basePage: h.page(r, "Update author"),
			Form:     form,
		})
		return
	}

	author, err := h.catalog.UpdateAuthor(r.Context(), id, params)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.recordAction(r, userFrom(r.Context()), "author-update", strconv.FormatInt(author.ID, 10))
	http.Redirect(w, r, fmt.Sprintf("/catalog/authors/%d", author.ID), http.StatusFound)
}

func (h *Handler) authorDelete(w http.ResponseWriter, r *http.Request) {
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

	if r.Method == http.MethodGet {
		h.render(w, http.StatusOK, "author_confirm_delete", authorDeletePage{
			basePage: h.page(r, "Delete author"),
			Detail:   detail,
		})
		return
	}

	if err := h.catalog.DeleteAuthor(r.Context(), id); err != nil {
		if errors.Is(err, catalogsvc.ErrAuthorHasBooks) {
			// Re-render the confirmation page, which lists the blocking books.
			h.render(w, http.StatusOK, "author_confirm_delete", authorDeletePage{
				basePage: h.page(r, "Delete author"),
				Detail:   detail,
			})
			return
		}
		h.respondError(w, err)
		return
	}

	h.recordAction(r, userFrom(r.Context()), "author-delete", strconv.FormatInt(id, 10))
	http.Redirect(w, r, "/catalog/authors/", http.StatusFound)
}
