package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/readstack/catalog/internal/catalog"
	catalogsvc "github.com/readstack/catalog/internal/services/catalog"
	loanssvc "github.com/readstack/catalog/internal/services/loans"
	"github.com/readstack/catalog/internal/storage"
)

type borrowedPage struct {
	basePage
	Loans     []loanssvc.Loan
	Paginator paginator
}

type renewPage struct {
	basePage
	Loan loanssvc.Loan
	Form *renewForm
}

type copyFormPage struct {
	basePage
	Form     *copyForm
	Books    []catalogsvc.BookListItem
	Statuses []catalog.CopyStatus
}

func (h *Handler) myBooks(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	page, ok := parsePage(r)
	if !ok {
		respondNotFound(w)
		return
	}

	loans, total, err := h.loans.Borrowed(r.Context(), user.ID, listPerPage, offsetFor(page, listPerPage))
	if err != nil {
		h.serverError(w, err)
		return
	}
	pager, ok := newPaginator(page, listPerPage, total)
	if !ok {
		respondNotFound(w)
		return
	}

	h.render(w, http.StatusOK, "borrowed_user", borrowedPage{
		basePage:  h.page(r, "Borrowed books"),
		Loans:     loans,
		Paginator: pager,
	})
}

func (h *Handler) allBorrowed(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(r)
	if !ok {
		respondNotFound(w)
		return
	}

	loans, total, err := h.loans.AllBorrowed(r.Context(), listPerPage, offsetFor(page, listPerPage))
	if err != nil {
		h.serverError(w, err)
		return
	}
	pager, ok := newPaginator(page, listPerPage, total)
	if !ok {
		respondNotFound(w)
		return
	}

	h.render(w, http.StatusOK, "borrowed_all", borrowedPage{
		basePage:  h.page(r, "All borrowed"),
		Loans:     loans,
		Paginator: pager,
	})
}

func (h *Handler) renewLoan(w http.ResponseWriter, r *http.Request) {
	copyID := mux.Vars(r)["id"]
	loan, err := h.loans.Loan(r.Context(), copyID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if r.Method == http.MethodGet {
		form := &renewForm{
			RenewalDate: h.loans.DefaultRenewalDate().Format(dateInputLayout),
			Errors:      map[string]string{},
		}
		h.renderRenewForm(w, r, loan, form)
		return
	}

	form := readRenewForm(r)
	date, ok := form.parse()
	if ok {
		_, err := h.loans.Renew(r.Context(), copyID, date)
		switch {
		case err == nil:
			h.recordAction(r, userFrom(r.Context()), "renew", copyID)
			http.Redirect(w, r, "/catalog/borrowed/", http.StatusFound)
			return
		case errors.Is(err, loanssvc.ErrRenewalInPast):
			form.Errors["renewal_date"] = msgRenewInPast
		case errors.Is(err, loanssvc.ErrRenewalTooFar):
			form.Errors["renewal_date"] = msgRenewTooFar
		default:
			h.respondError(w, err)
			return
		}
	}
	h.renderRenewForm(w, r, loan, form)
}

func (h *Handler) renderRenewForm(w http.ResponseWriter, r *http.Request, loan loanssvc.Loan, form *renewForm) {
	h.render(w, http.StatusOK, "renew_form", renewPage{
		basePage: h.page(r, "Renew: "+loan.Book.Title),
		Loan:     loan,
		Form:     form,
	})
}

func (h *Handler) returnCopy(w http.ResponseWriter, r *http.Request) {
	copyID := mux.Vars(r)["id"]
	if _, err := h.loans.Return(r.Context(), copyID); err != nil {
		if errors.Is(err, loanssvc.ErrNotOnLoan) {
			http.Error(w, "409 Conflict", http.StatusConflict)
			return
		}
		h.respondError(w, err)
		return
	}
	h.recordAction(r, userFrom(r.Context()), "return", copyID)
	http.Redirect(w, r, "/catalog/borrowed/", http.StatusFound)
}

func (h *Handler) copyCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.renderCopyForm(w, r, &copyForm{Errors: map[string]string{}})
		return
	}

	form := readCopyForm(r)
	bookID, ok := form.validate()
	if !ok {
		h.renderCopyForm(w, r, form)
		return
	}

	cp, err := h.loans.CreateCopy(r.Context(), bookID, form.Imprint, catalog.CopyStatus(form.Status))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			form.Errors["book"] = msgInvalidChoice
			h.renderCopyForm(w, r, form)
			return
		}
		h.serverError(w, err)
		return
	}

	h.recordAction(r, userFrom(r.Context()), "copy-create", cp.ID)
	http.Redirect(w, r, fmt.Sprintf("/catalog/books/%d", bookID), http.StatusFound)
}

func (h *Handler) renderCopyForm(w http.ResponseWriter, r *http.Request, form *copyForm) {
	books, _, err := h.catalog.ListBooks(r.Context(), 0, 0)
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.render(w, http.StatusOK, "copy_form", copyFormPage{
		basePage: h.page(r, "New copy"),
		Form:     form,
		Books:    books,
		Statuses: catalog.CopyStatuses(),
	})
}
