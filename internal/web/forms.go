package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	catalogsvc "github.com/readstack/catalog/internal/services/catalog"
)

// Validation messages shown next to form fields. The renewal strings are
// part of the page contract and must not be reworded.
const (
	msgRequired       = "This field is required."
	msgInvalidDate    = "Enter a valid date."
	msgInvalidChoice  = "Select a valid choice."
	msgISBNTooLong    = "Ensure this value has at most 13 characters."
	msgRenewInPast    = "Invalid date - renewal in past"
	msgRenewTooFar    = "Invalid date - renewal more than 4 weeks ahead"
	msgBadCredentials = "Please enter a correct username and password. Note that both fields may be case-sensitive."
)

const dateInputLayout = "2006-01-02"

// renewForm backs the loan renewal page.
type renewForm struct {
	RenewalDate string
	Errors      map[string]string
}

func readRenewForm(r *http.Request) *renewForm {
	return &renewForm{
		RenewalDate: strings.TrimSpace(r.PostFormValue("renewal_date")),
		Errors:      map[string]string{},
	}
}

// parse returns the submitted date. Window validation happens in the loans
// service; this only covers presence and format.
func (f *renewForm) parse() (time.Time, bool) {
	if f.RenewalDate == "" {
		f.Errors["renewal_date"] = msgRequired
		return time.Time{}, false
	}
	date, err := time.Parse(dateInputLayout, f.RenewalDate)
	if err != nil {
		f.Errors["renewal_date"] = msgInvalidDate
		return time.Time{}, false
	}
	return date, true
}

// authorForm backs author create and update.
type authorForm struct {
	FirstName   string
	LastName    string
	DateOfBirth string
	DateOfDeath string
	Errors      map[string]string
}

func readAuthorForm(r *http.Request) *authorForm {
	return &authorForm{
		FirstName:   strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:    strings.TrimSpace(r.PostFormValue("last_name")),
		DateOfBirth: strings.TrimSpace(r.PostFormValue("date_of_birth")),
		DateOfDeath: strings.TrimSpace(r.PostFormValue("date_of_death")),
		Errors:      map[string]string{},
	}
}

func authorFormFrom(params catalogsvc.AuthorDetail) *authorForm {
	f := &authorForm{
		FirstName: params.Author.FirstName,
		LastName:  params.Author.LastName,
		Errors:    map[string]string{},
	}
	if params.Author.DateOfBirth != nil {
		f.DateOfBirth = params.Author.DateOfBirth.Format(dateInputLayout)
	}
	if params.Author.DateOfDeath != nil {
		f.DateOfDeath = params.Author.DateOfDeath.Format(dateInputLayout)
	}
	return f
}

func (f *authorForm) validate() (catalogsvc.AuthorParams, bool) {
	if f.FirstName == "" {
		f.Errors["first_name"] = msgRequired
	}
	if f.LastName == "" {
		f.Errors["last_name"] = msgRequired
	}

	params := catalogsvc.AuthorParams{FirstName: f.FirstName, LastName: f.LastName}
	params.DateOfBirth = f.parseOptionalDate("date_of_birth", f.DateOfBirth)
	params.DateOfDeath = f.parseOptionalDate("date_of_death", f.DateOfDeath)

	return params, len(f.Errors) == 0
}

func (f *authorForm) parseOptionalDate(field, raw string) *time.Time {
	if raw == "" {
		return nil
	}
	date, err := time.Parse(dateInputLayout, raw)
	if err != nil {
		f.Errors[field] = msgInvalidDate
		return nil
	}
	return &date
}

// bookForm backs book create, including the optional ISBN lookup action.
type bookForm struct {
	Title      string
	Summary    string
	ISBN       string
	AuthorID   string
	LanguageID string
	GenreIDs   []string
	Errors     map[string]string
}

func readBookForm(r *http.Request) *bookForm {
	return &bookForm{
		Title:      strings.TrimSpace(r.PostFormValue("title")),
		Summary:    strings.TrimSpace(r.PostFormValue("summary")),
		ISBN:       strings.TrimSpace(r.PostFormValue("isbn")),
		AuthorID:   strings.TrimSpace(r.PostFormValue("author")),
		LanguageID: strings.TrimSpace(r.PostFormValue("language")),
		GenreIDs:   r.PostForm["genre"],
		Errors:     map[string]string{},
	}
}

func (f *bookForm) validate() (catalogsvc.BookParams, bool) {
	if f.Title == "" {
		f.Errors["title"] = msgRequired
	}
	if f.ISBN == "" {
		f.Errors["isbn"] = msgRequired
	} else if len(f.ISBN) > 13 {
		f.Errors["isbn"] = msgISBNTooLong
	}

	params := catalogsvc.BookParams{Title: f.Title, Summary: f.Summary, ISBN: f.ISBN}

	authorID, err := strconv.ParseInt(f.AuthorID, 10, 64)
	if err != nil || authorID < 1 {
		f.Errors["author"] = msgInvalidChoice
	} else {
		params.AuthorID = authorID
	}

	languageID, err := strconv.ParseInt(f.LanguageID, 10, 64)
	if err != nil || languageID < 1 {
		f.Errors["language"] = msgInvalidChoice
	} else {
		params.LanguageID = languageID
	}

	for _, raw := range f.GenreIDs {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			f.Errors["genre"] = msgInvalidChoice
			break
		}
		params.GenreIDs = append(params.GenreIDs, id)
	}

	return params, len(f.Errors) == 0
}

// Selected reports whether a genre id is part of the submitted selection,
// so re-rendered forms keep the user's choices.
func (f *bookForm) Selected(id int64) bool {
	raw := strconv.FormatInt(id, 10)
	for _, g := range f.GenreIDs {
		if g == raw {
			return true
		}
	}
	return false
}

// copyForm backs copy create.
type copyForm struct {
	BookID  string
	Imprint string
	Status  string
	Errors  map[string]string
}

func readCopyForm(r *http.Request) *copyForm {
	return &copyForm{
		BookID:  strings.TrimSpace(r.PostFormValue("book")),
		Imprint: strings.TrimSpace(r.PostFormValue("imprint")),
		Status:  strings.TrimSpace(r.PostFormValue("status")),
		Errors:  map[string]string{},
	}
}

func (f *copyForm) validate() (int64, bool) {
	if f.Imprint == "" {
		f.Errors["imprint"] = msgRequired
	}

	bookID, err := strconv.ParseInt(f.BookID, 10, 64)
	if err != nil || bookID < 1 {
		f.Errors["book"] = msgInvalidChoice
	}

	return bookID, len(f.Errors) == 0
}

// loginForm backs the login page.
type loginForm struct {
	Username string
	Next     string
	Error    string
}

func readLoginForm(r *http.Request) (*loginForm, string) {
	return &loginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Next:     safeNext(r.PostFormValue("next")),
	}, r.PostFormValue("password")
}
