// Package web serves the server-rendered catalog site.
package web

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/readstack/catalog/internal/bookinfo"
	"github.com/readstack/catalog/internal/catalog"
	"github.com/readstack/catalog/internal/metrics"
	"github.com/readstack/catalog/internal/middleware"
	accountssvc "github.com/readstack/catalog/internal/services/accounts"
	catalogsvc "github.com/readstack/catalog/internal/services/catalog"
	loanssvc "github.com/readstack/catalog/internal/services/loans"
	"github.com/readstack/catalog/internal/storage"
	"github.com/readstack/catalog/pkg/logger"
)

// Page sizes match the original site: short book pages, longer lists
// elsewhere.
const (
	booksPerPage = 3
	listPerPage  = 10
)

// Handler bundles the HTTP pages over the application services.
type Handler struct {
	catalog  *catalogsvc.Service
	loans    *loanssvc.Service
	accounts *accountssvc.Service
	bookinfo *bookinfo.Client

	templates    map[string]*template.Template
	audit        *auditLog
	loginLimiter *middleware.RateLimiter
	log          *logger.Logger
}

// Options carries the optional pieces of the web handler.
type Options struct {
	// BookInfo enables the ISBN lookup action on the book form.
	BookInfo *bookinfo.Client
	// AuditLogPath mirrors the staff audit trail to a JSONL file.
	AuditLogPath string
	// LoginLimiter throttles credential attempts per client address.
	LoginLimiter *middleware.RateLimiter
}

// NewHandler parses the embedded templates and wires the page handlers.
func NewHandler(catalogSvc *catalogsvc.Service, loansSvc *loanssvc.Service, accountsSvc *accountssvc.Service, opts Options, log *logger.Logger) (*Handler, error) {
	if log == nil {
		log = logger.NewDefault("web")
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	sink, err := newFileAuditSink(opts.AuditLogPath)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	h := &Handler{
		catalog:      catalogSvc,
		loans:        loansSvc,
		accounts:     accountsSvc,
		bookinfo:     opts.BookInfo,
		templates:    templates,
		audit:        newAuditLog(0, sink),
		loginLimiter: opts.LoginLimiter,
		log:          log,
	}
	return h, nil
}

// Router builds the site routes. Auth checks wrap individual handlers so
// public pages stay public and staff pages carry their permission.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.withUser)

	r.HandleFunc("/", h.index).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/catalog/books/", h.bookList).Methods(http.MethodGet)
	r.HandleFunc("/catalog/books/{id:[0-9]+}", h.bookDetail).Methods(http.MethodGet)
	r.HandleFunc("/catalog/authors/", h.authorList).Methods(http.MethodGet)
	r.HandleFunc("/catalog/authors/{id:[0-9]+}", h.authorDetail).Methods(http.MethodGet)

	r.HandleFunc("/catalog/mybooks/", h.requireUser(h.myBooks)).Methods(http.MethodGet)
	r.HandleFunc("/catalog/borrowed/",
		h.requirePermission(catalog.PermViewAllLoans, h.allBorrowed)).Methods(http.MethodGet)
	r.HandleFunc("/catalog/book/{id}/renew/",
		h.requirePermission(catalog.PermRenew, h.renewLoan)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/catalog/copy/{id}/return/",
		h.requirePermission(catalog.PermMarkReturned, h.returnCopy)).Methods(http.MethodPost)

	r.HandleFunc("/catalog/author/create/",
		h.requirePermission(catalog.PermAddAuthor, h.authorCreate)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/catalog/author/{id:[0-9]+}/update/",
		h.requirePermission(catalog.PermChangeAuthor, h.authorUpdate)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/catalog/author/{id:[0-9]+}/delete/",
		h.requirePermission(catalog.PermDeleteAuthor, h.authorDelete)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/catalog/book/create/",
		h.requirePermission(catalog.PermAddBook, h.bookCreate)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/catalog/copy/create/",
		h.requirePermission(catalog.PermAddCopy, h.copyCreate)).Methods(http.MethodGet, http.MethodPost)

	r.HandleFunc("/accounts/login/", h.login).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/accounts/logout/", h.logout).Methods(http.MethodPost)

	// Router middleware does not run for the NotFoundHandler, so the user
	// context is attached here explicitly.
	r.NotFoundHandler = h.withUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondNotFound(w)
	}))
	return r
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "catalog",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = auditJSON.NewEncoder(w).Encode(v)
}

func respondNotFound(w http.ResponseWriter) {
	http.Error(w, "404 Not Found", http.StatusNotFound)
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	h.log.WithError(err).Error("request failed")
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// respondError maps missing records to 404 and everything else to 500.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		respondNotFound(w)
		return
	}
	h.serverError(w, err)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
