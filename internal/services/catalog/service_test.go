package catalog

import (
	"context"
	"errors"
	"testing"

	domain "github.com/readstack/catalog/internal/catalog"
	"github.com/readstack/catalog/internal/storage"
	"github.com/readstack/catalog/internal/storage/memory"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return New(store, store, store, store, store, nil), store
}

func seedRefs(t *testing.T, store *memory.Store) (domain.Author, domain.Genre, domain.Language) {
	t.Helper()
	ctx := context.Background()
	author, err := store.CreateAuthor(ctx, domain.Author{FirstName: "Ursula", LastName: "Le Guin"})
	if err != nil {
		t.Fatalf("create author: %v", err)
	}
	genre, err := store.CreateGenre(ctx, domain.Genre{Name: "Fantasy"})
	if err != nil {
		t.Fatalf("create genre: %v", err)
	}
	lang, err := store.CreateLanguage(ctx, domain.Language{Name: "English"})
	if err != nil {
		t.Fatalf("create language: %v", err)
	}
	return author, genre, lang
}

func TestStats(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	author, genre, lang := seedRefs(t, store)
	if _, err := store.CreateGenre(ctx, domain.Genre{Name: "Ancient History"}); err != nil {
		t.Fatalf("create genre: %v", err)
	}

	wizard, err := svc.CreateBook(ctx, BookParams{
		Title: "A Wizard of Earthsea", ISBN: "1", AuthorID: author.ID, LanguageID: lang.ID, GenreIDs: []int64{genre.ID},
	})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	if _, err := svc.CreateBook(ctx, BookParams{
		Title: "Harry Potter and the Goblet of Fire", ISBN: "2", AuthorID: author.ID, LanguageID: lang.ID,
	}); err != nil {
		t.Fatalf("create book: %v", err)
	}

	for _, status := range []domain.CopyStatus{domain.StatusAvailable, domain.StatusAvailable, domain.StatusOnLoan} {
		if _, err := store.CreateCopy(ctx, domain.Copy{BookID: wizard.ID, Imprint: "x", Status: status}); err != nil {
			t.Fatalf("create copy: %v", err)
		}
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := Stats{
		Books:            2,
		Copies:           3,
		AvailableCopies:  2,
		Authors:          1,
		HarryPotterBooks: 1,
		HistoryGenres:    1,
	}
	if stats != want {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

type fakeStatsCache struct {
	stats  Stats
	loaded bool
	sets   int
}

func (c *fakeStatsCache) Get(context.Context) (Stats, bool) { return c.stats, c.loaded }

func (c *fakeStatsCache) Set(_ context.Context, stats Stats) {
	c.stats = stats
	c.loaded = true
	c.sets++
}

func TestStatsUsesCache(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	cache := &fakeStatsCache{}
	svc.AttachStatsCache(cache)

	if _, err := store.CreateAuthor(ctx, domain.Author{FirstName: "A", LastName: "B"}); err != nil {
		t.Fatalf("create author: %v", err)
	}

	first, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if first.Authors != 1 || cache.sets != 1 {
		t.Fatalf("expected a computed result stored in the cache")
	}

	// A second author is invisible while the cached value is served.
	if _, err := store.CreateAuthor(ctx, domain.Author{FirstName: "C", LastName: "D"}); err != nil {
		t.Fatalf("create author: %v", err)
	}
	second, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if second.Authors != 1 || cache.sets != 1 {
		t.Fatalf("expected the cached stats to be served")
	}
}

func TestListBooksJoinsAuthors(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	author, genre, lang := seedRefs(t, store)

	if _, err := svc.CreateBook(ctx, BookParams{
		Title: "The Dispossessed", ISBN: "1", AuthorID: author.ID, LanguageID: lang.ID, GenreIDs: []int64{genre.ID},
	}); err != nil {
		t.Fatalf("create book: %v", err)
	}

	items, total, err := svc.ListBooks(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list books: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected 1 book, got %d (total %d)", len(items), total)
	}
	if items[0].Author.DisplayName() != "Le Guin, Ursula" {
		t.Fatalf("author not joined: %+v", items[0].Author)
	}
}

func TestGetBookDetail(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	author, genre, lang := seedRefs(t, store)

	book, err := svc.CreateBook(ctx, BookParams{
		Title: "Tehanu", ISBN: "1", AuthorID: author.ID, LanguageID: lang.ID, GenreIDs: []int64{genre.ID},
	})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	if _, err := store.CreateCopy(ctx, domain.Copy{BookID: book.ID, Imprint: "x", Status: domain.StatusAvailable}); err != nil {
		t.Fatalf("create copy: %v", err)
	}

	detail, err := svc.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if detail.Author.ID != author.ID || detail.Language.ID != lang.ID {
		t.Fatalf("references not resolved: %+v", detail)
	}
	if len(detail.Genres) != 1 || detail.Genres[0].Name != "Fantasy" {
		t.Fatalf("genres not resolved: %+v", detail.Genres)
	}
	if len(detail.Copies) != 1 {
		t.Fatalf("copies not resolved: %+v", detail.Copies)
	}

	if _, err := svc.GetBook(ctx, 999); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateBookValidation(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	author, genre, lang := seedRefs(t, store)

	cases := []struct {
		name   string
		params BookParams
	}{
		{"missing title", BookParams{ISBN: "1", AuthorID: author.ID, LanguageID: lang.ID}},
		{"missing isbn", BookParams{Title: "T", AuthorID: author.ID, LanguageID: lang.ID}},
		{"isbn too long", BookParams{Title: "T", ISBN: "12345678901234", AuthorID: author.ID, LanguageID: lang.ID}},
		{"unknown author", BookParams{Title: "T", ISBN: "1", AuthorID: 999, LanguageID: lang.ID}},
		{"unknown language", BookParams{Title: "T", ISBN: "1", AuthorID: author.ID, LanguageID: 999}},
		{"unknown genre", BookParams{Title: "T", ISBN: "1", AuthorID: author.ID, LanguageID: lang.ID, GenreIDs: []int64{genre.ID, 999}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateBook(ctx, tc.params); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestAuthorLifecycle(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	_, genre, lang := seedRefs(t, store)

	author, err := svc.CreateAuthor(ctx, AuthorParams{FirstName: "Patrick", LastName: "Rothfuss"})
	if err != nil {
		t.Fatalf("create author: %v", err)
	}

	if _, err := svc.CreateAuthor(ctx, AuthorParams{FirstName: " ", LastName: ""}); err == nil {
		t.Fatalf("expected validation error for blank names")
	}

	updated, err := svc.UpdateAuthor(ctx, author.ID, AuthorParams{FirstName: "Pat", LastName: "Rothfuss"})
	if err != nil {
		t.Fatalf("update author: %v", err)
	}
	if updated.FirstName != "Pat" {
		t.Fatalf("author not updated: %+v", updated)
	}

	if _, err := svc.CreateBook(ctx, BookParams{
		Title: "The Name of the Wind", ISBN: "1", AuthorID: author.ID, LanguageID: lang.ID, GenreIDs: []int64{genre.ID},
	}); err != nil {
		t.Fatalf("create book: %v", err)
	}

	if err := svc.DeleteAuthor(ctx, author.ID); !errors.Is(err, ErrAuthorHasBooks) {
		t.Fatalf("expected ErrAuthorHasBooks, got %v", err)
	}

	lonely, err := svc.CreateAuthor(ctx, AuthorParams{FirstName: "No", LastName: "Books"})
	if err != nil {
		t.Fatalf("create author: %v", err)
	}
	if err := svc.DeleteAuthor(ctx, lonely.ID); err != nil {
		t.Fatalf("delete author: %v", err)
	}
	if _, err := store.GetAuthor(ctx, lonely.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected author to be deleted")
	}
}

func TestGetAuthorDetail(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	author, genre, lang := seedRefs(t, store)

	if _, err := svc.CreateBook(ctx, BookParams{
		Title: "The Tombs of Atuan", ISBN: "1", AuthorID: author.ID, LanguageID: lang.ID, GenreIDs: []int64{genre.ID},
	}); err != nil {
		t.Fatalf("create book: %v", err)
	}

	detail, err := svc.GetAuthor(ctx, author.ID)
	if err != nil {
		t.Fatalf("get author: %v", err)
	}
	if len(detail.Books) != 1 || detail.Books[0].Title != "The Tombs of Atuan" {
		t.Fatalf("books not resolved: %+v", detail.Books)
	}

	if _, err := svc.GetAuthor(ctx, 999); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
