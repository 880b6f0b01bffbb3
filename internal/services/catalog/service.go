package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/readstack/catalog/internal/catalog"
	"github.com/readstack/catalog/internal/storage"
	"github.com/readstack/catalog/pkg/logger"
)

// ErrAuthorHasBooks blocks deleting an author who still has books on record.
var ErrAuthorHasBooks = errors.New("author still has books in the catalog")

// Index counts single out two canned searches kept from the original site.
const (
	statsTitleKeyword = "harry potter"
	statsGenreKeyword = "histor"
)

// Stats is the landing page dashboard.
type Stats struct {
	Books            int
	Copies           int
	AvailableCopies  int
	Authors          int
	HarryPotterBooks int
	HistoryGenres    int
}

// StatsCache is an optional read-through cache for Stats.
type StatsCache interface {
	Get(ctx context.Context) (Stats, bool)
	Set(ctx context.Context, stats Stats)
}

// BookListItem pairs a book with its author for list pages.
type BookListItem struct {
	Book   catalog.Book
	Author catalog.Author
}

// BookDetail carries everything the book page shows.
type BookDetail struct {
	Book     catalog.Book
	Author   catalog.Author
	Language catalog.Language
	Genres   []catalog.Genre
	Copies   []catalog.Copy
}

// AuthorDetail carries the author page contents.
type AuthorDetail struct {
	Author catalog.Author
	Books  []catalog.Book
}

// AuthorParams are the fields of the author create/update form.
type AuthorParams struct {
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
	DateOfDeath *time.Time
}

// BookParams are the fields of the book create form.
type BookParams struct {
	Title      string
	Summary    string
	ISBN       string
	AuthorID   int64
	LanguageID int64
	GenreIDs   []int64
}

// Service exposes catalog browsing plus staff authoring of books and authors.
type Service struct {
	authors   storage.AuthorStore
	books     storage.BookStore
	genres    storage.GenreStore
	languages storage.LanguageStore
	copies    storage.CopyStore
	cache     StatsCache
	log       *logger.Logger
}

// New constructs a catalog service.
func New(authors storage.AuthorStore, books storage.BookStore, genres storage.GenreStore, languages storage.LanguageStore, copies storage.CopyStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("catalog")
	}
	return &Service{
		authors:   authors,
		books:     books,
		genres:    genres,
		languages: languages,
		copies:    copies,
		log:       log,
	}
}

// AttachStatsCache installs an optional cache for the index counts.
func (s *Service) AttachStatsCache(cache StatsCache) {
	s.cache = cache
}

// Stats gathers the index page counts.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if s.cache != nil {
		if stats, ok := s.cache.Get(ctx); ok {
			return stats, nil
		}
	}

	var (
		stats Stats
		err   error
	)
	if stats.Books, err = s.books.CountBooks(ctx); err != nil {
		return Stats{}, err
	}
	if stats.Copies, err = s.copies.CountCopies(ctx); err != nil {
		return Stats{}, err
	}
	if stats.AvailableCopies, err = s.copies.CountCopiesByStatus(ctx, catalog.StatusAvailable); err != nil {
		return Stats{}, err
	}
	if stats.Authors, err = s.authors.CountAuthors(ctx); err != nil {
		return Stats{}, err
	}
	if stats.HarryPotterBooks, err = s.books.CountBooksByTitle(ctx, statsTitleKeyword); err != nil {
		return Stats{}, err
	}
	if stats.HistoryGenres, err = s.genres.CountGenresByName(ctx, statsGenreKeyword); err != nil {
		return Stats{}, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, stats)
	}
	return stats, nil
}

// ListBooks returns one page of books with their authors.
func (s *Service) ListBooks(ctx context.Context, limit, offset int) ([]BookListItem, int, error) {
	books, total, err := s.books.ListBooks(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	authors, err := s.authorsByID(ctx, books)
	if err != nil {
		return nil, 0, err
	}

	items := make([]BookListItem, 0, len(books))
	for _, book := range books {
		items = append(items, BookListItem{Book: book, Author: authors[book.AuthorID]})
	}
	return items, total, nil
}

// GetBook loads the book page: record, author, language, genres and copies.
func (s *Service) GetBook(ctx context.Context, id int64) (BookDetail, error) {
	book, err := s.books.GetBook(ctx, id)
	if err != nil {
		return BookDetail{}, err
	}

	detail := BookDetail{Book: book}
	if detail.Author, err = s.authors.GetAuthor(ctx, book.AuthorID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return BookDetail{}, err
	}
	if detail.Language, err = s.languages.GetLanguage(ctx, book.LanguageID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return BookDetail{}, err
	}
	if detail.Genres, err = s.genres.ListGenresByIDs(ctx, book.GenreIDs); err != nil {
		return BookDetail{}, err
	}
	if detail.Copies, err = s.copies.ListCopiesByBook(ctx, id); err != nil {
		return BookDetail{}, err
	}
	return detail, nil
}

// ListAuthors returns one page of authors ordered by name.
func (s *Service) ListAuthors(ctx context.Context, limit, offset int) ([]catalog.Author, int, error) {
	return s.authors.ListAuthors(ctx, limit, offset)
}

// GetAuthor loads the author page with the author's books.
func (s *Service) GetAuthor(ctx context.Context, id int64) (AuthorDetail, error) {
	author, err := s.authors.GetAuthor(ctx, id)
	if err != nil {
		return AuthorDetail{}, err
	}
	books, err := s.books.ListBooksByAuthor(ctx, id)
	if err != nil {
		return AuthorDetail{}, err
	}
	return AuthorDetail{Author: author, Books: books}, nil
}

// CreateAuthor records a new author.
func (s *Service) CreateAuthor(ctx context.Context, params AuthorParams) (catalog.Author, error) {
	author, err := s.buildAuthor(params)
	if err != nil {
		return catalog.Author{}, err
	}

	author, err = s.authors.CreateAuthor(ctx, author)
	if err != nil {
		return catalog.Author{}, err
	}
	s.log.WithField("author_id", author.ID).
		WithField("name", author.DisplayName()).
		Info("author created")
	return author, nil
}

// UpdateAuthor rewrites an author's fields.
func (s *Service) UpdateAuthor(ctx context.Context, id int64, params AuthorParams) (catalog.Author, error) {
	author, err := s.buildAuthor(params)
	if err != nil {
		return catalog.Author{}, err
	}
	author.ID = id

	author, err = s.authors.UpdateAuthor(ctx, author)
	if err != nil {
		return catalog.Author{}, err
	}
	s.log.WithField("author_id", author.ID).Info("author updated")
	return author, nil
}

// DeleteAuthor removes an author with no remaining books.
func (s *Service) DeleteAuthor(ctx context.Context, id int64) error {
	books, err := s.books.ListBooksByAuthor(ctx, id)
	if err != nil {
		return err
	}
	if len(books) > 0 {
		return fmt.Errorf("author %d: %w", id, ErrAuthorHasBooks)
	}

	if err := s.authors.DeleteAuthor(ctx, id); err != nil {
		return err
	}
	s.log.WithField("author_id", id).Info("author deleted")
	return nil
}

func (s *Service) buildAuthor(params AuthorParams) (catalog.Author, error) {
	first := strings.TrimSpace(params.FirstName)
	last := strings.TrimSpace(params.LastName)
	if first == "" || last == "" {
		return catalog.Author{}, fmt.Errorf("first_name and last_name are required")
	}
	return catalog.Author{
		FirstName:   first,
		LastName:    last,
		DateOfBirth: params.DateOfBirth,
		DateOfDeath: params.DateOfDeath,
	}, nil
}

// CreateBook records a new book after checking its references exist.
func (s *Service) CreateBook(ctx context.Context, params BookParams) (catalog.Book, error) {
	title := strings.TrimSpace(params.Title)
	isbn := strings.TrimSpace(params.ISBN)
	if title == "" {
		return catalog.Book{}, fmt.Errorf("title is required")
	}
	if isbn == "" {
		return catalog.Book{}, fmt.Errorf("isbn is required")
	}
	if len(isbn) > 13 {
		return catalog.Book{}, fmt.Errorf("isbn must be at most 13 characters")
	}

	if _, err := s.authors.GetAuthor(ctx, params.AuthorID); err != nil {
		return catalog.Book{}, fmt.Errorf("author validation failed: %w", err)
	}
	if _, err := s.languages.GetLanguage(ctx, params.LanguageID); err != nil {
		return catalog.Book{}, fmt.Errorf("language validation failed: %w", err)
	}

	genreIDs := lo.Uniq(params.GenreIDs)
	if len(genreIDs) > 0 {
		found, err := s.genres.ListGenresByIDs(ctx, genreIDs)
		if err != nil {
			return catalog.Book{}, err
		}
		if len(found) != len(genreIDs) {
			return catalog.Book{}, fmt.Errorf("unknown genre in selection")
		}
	}

	book, err := s.books.CreateBook(ctx, catalog.Book{
		Title:      title,
		Summary:    strings.TrimSpace(params.Summary),
		ISBN:       isbn,
		AuthorID:   params.AuthorID,
		LanguageID: params.LanguageID,
		GenreIDs:   genreIDs,
	})
	if err != nil {
		return catalog.Book{}, err
	}
	s.log.WithField("book_id", book.ID).
		WithField("title", book.Title).
		Info("book created")
	return book, nil
}

// ListGenres returns all genres for form selects.
func (s *Service) ListGenres(ctx context.Context) ([]catalog.Genre, error) {
	return s.genres.ListGenres(ctx)
}

// ListLanguages returns all languages for form selects.
func (s *Service) ListLanguages(ctx context.Context) ([]catalog.Language, error) {
	return s.languages.ListLanguages(ctx)
}

func (s *Service) authorsByID(ctx context.Context, books []catalog.Book) (map[int64]catalog.Author, error) {
	ids := lo.Uniq(lo.Map(books, func(b catalog.Book, _ int) int64 { return b.AuthorID }))
	result := make(map[int64]catalog.Author, len(ids))
	for _, id := range ids {
		author, err := s.authors.GetAuthor(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, err
		}
		result[id] = author
	}
	return result, nil
}
