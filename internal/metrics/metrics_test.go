package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCanonicalPath(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/healthz", "/healthz"},
		{"/accounts/login/", "/accounts/login"},
		{"/catalog/", "/catalog"},
		{"/catalog/books/", "/catalog/books"},
		{"/catalog/book/42/", "/catalog/book/:id"},
		{"/catalog/book/create/", "/catalog/book/create"},
		{"/catalog/author/42/update/", "/catalog/author/:id/update"},
		{"/catalog/copy/7a2f/renew/", "/catalog/copy/:id/renew"},
	}
	for _, tc := range cases {
		if got := canonicalPath(tc.raw); got != tc.want {
			t.Fatalf("canonicalPath(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestInstrumentHandler(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/catalog/books/" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("books"))
			return
		}
		http.NotFound(w, r)
	})
	handler := InstrumentHandler(inner)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/catalog/books/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "books" {
		t.Fatalf("instrumented handler altered the response: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/catalog/nope/", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 passthrough, got %d", rec.Code)
	}

	SetOverdueLoans(3)
	SetOverdueLoans(-1) // clamps to zero
	RecordLoanEvent("renew")
	RecordLoanEvent("")
	RecordLogin(true)
	RecordLogin(false)

	rec = httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics endpoint returned %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`catalog_http_requests_total{method="GET",path="/catalog/books",status="200"}`,
		`catalog_http_requests_total{method="GET",path="/catalog/nope",status="404"}`,
		"catalog_loans_overdue 0",
		`catalog_loans_events_total{action="renew"}`,
		`catalog_loans_events_total{action="unknown"}`,
		`catalog_auth_logins_total{success="true"}`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
