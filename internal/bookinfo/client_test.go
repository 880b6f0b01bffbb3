package bookinfo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookupISBN(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/isbn/9780061054884.json":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"title": "The Dispossessed",
				"description": {"type": "/type/text", "value": "An ambiguous utopia."},
				"publish_date": "1994",
				"number_of_pages": 387
			}`))
		case "/isbn/9780756404079.json":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"title": "The Name of the Wind",
				"description": "A plain string description."
			}`))
		case "/isbn/9999999999999.json":
			http.NotFound(w, r)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client, err := New(server.Client(), server.URL, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()

	info, err := client.LookupISBN(ctx, "9780061054884")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if info.Title != "The Dispossessed" {
		t.Fatalf("unexpected title %q", info.Title)
	}
	// Typed text objects carry the description in their value field.
	if info.Summary != "An ambiguous utopia." {
		t.Fatalf("unexpected summary %q", info.Summary)
	}
	if info.PublishDate != "1994" || info.Pages != 387 {
		t.Fatalf("unexpected metadata: %+v", info)
	}

	info, err = client.LookupISBN(ctx, " 9780756404079 ")
	if err != nil {
		t.Fatalf("lookup with padding: %v", err)
	}
	if info.Summary != "A plain string description." {
		t.Fatalf("unexpected summary %q", info.Summary)
	}
	if info.Pages != 0 {
		t.Fatalf("missing page count should stay zero, got %d", info.Pages)
	}

	if _, err := client.LookupISBN(ctx, "9999999999999"); err == nil {
		t.Fatalf("expected unknown isbn to fail")
	}
	if _, err := client.LookupISBN(ctx, ""); err == nil {
		t.Fatalf("expected empty isbn to fail")
	}
}

func TestLookupISBNRejectsUntitledRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"number_of_pages": 12}`))
	}))
	defer server.Close()

	client, err := New(nil, server.URL+"/", nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.LookupISBN(context.Background(), "123"); err == nil {
		t.Fatalf("expected record without title to fail")
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(nil, "   ", nil); err == nil {
		t.Fatalf("expected empty base URL to fail")
	}
}
