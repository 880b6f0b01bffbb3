package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/readstack/catalog/internal/catalog"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"index",
	"book_list",
	"book_detail",
	"author_list",
	"author_detail",
	"borrowed_user",
	"borrowed_all",
	"renew_form",
	"author_form",
	"author_confirm_delete",
	"book_form",
	"copy_form",
	"login",
}

var templateFuncs = template.FuncMap{
	"date":        formatDate,
	"overdue":     copyOverdue,
	"statusClass": statusClass,
}

// parseTemplates builds one template set per page, each sharing the base
// layout so pages only define their "content" block.
func parseTemplates() (map[string]*template.Template, error) {
	sets := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("base.html").Funcs(templateFuncs).
			ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		sets[name] = t
	}
	return sets, nil
}

// basePage carries the fields every template needs. Page view models embed
// it so the layout can render the navigation for the signed-in user.
type basePage struct {
	Title string
	Path  string
	User  *catalog.User
}

// Can reports whether the signed-in user holds a permission.
func (p basePage) Can(permission string) bool {
	return p.User != nil && p.User.HasPermission(permission)
}

func (h *Handler) page(r *http.Request, title string) basePage {
	return basePage{
		Title: title,
		Path:  r.URL.Path,
		User:  userFrom(r.Context()),
	}
}

// render writes a page. Templates execute into a buffer first so a render
// failure can still produce a clean 500 instead of a half-written body.
func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	t, ok := h.templates[name]
	if !ok {
		h.log.WithField("template", name).Error("unknown template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base.html", data); err != nil {
		h.log.WithError(err).WithField("template", name).Error("render failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func copyOverdue(c catalog.Copy) bool {
	return c.Overdue(time.Now())
}

func statusClass(status catalog.CopyStatus) string {
	switch status {
	case catalog.StatusAvailable:
		return "text-success"
	case catalog.StatusMaintenance:
		return "text-danger"
	default:
		return "text-warning"
	}
}
