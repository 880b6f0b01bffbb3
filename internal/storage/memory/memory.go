package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/readstack/catalog/internal/catalog"
	"github.com/readstack/catalog/internal/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu             sync.RWMutex
	nextID         int64
	authors        map[int64]catalog.Author
	books          map[int64]catalog.Book
	genres         map[int64]catalog.Genre
	languages      map[int64]catalog.Language
	copies         map[string]catalog.Copy
	users          map[int64]catalog.User
	usersByName    map[string]int64
	sessions       map[string]catalog.Session
	sessionsByHash map[string]string
}

var _ storage.AuthorStore = (*Store)(nil)
var _ storage.BookStore = (*Store)(nil)
var _ storage.GenreStore = (*Store)(nil)
var _ storage.LanguageStore = (*Store)(nil)
var _ storage.CopyStore = (*Store)(nil)
var _ storage.UserStore = (*Store)(nil)
var _ storage.SessionStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:         1,
		authors:        make(map[int64]catalog.Author),
		books:          make(map[int64]catalog.Book),
		genres:         make(map[int64]catalog.Genre),
		languages:      make(map[int64]catalog.Language),
		copies:         make(map[string]catalog.Copy),
		users:          make(map[int64]catalog.User),
		usersByName:    make(map[string]int64),
		sessions:       make(map[string]catalog.Session),
		sessionsByHash: make(map[string]string),
	}
}

func (s *Store) nextIDLocked() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// AuthorStore implementation -------------------------------------------------

func (s *Store) CreateAuthor(_ context.Context, author catalog.Author) (catalog.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if author.ID == 0 {
		author.ID = s.nextIDLocked()
	} else if _, exists := s.authors[author.ID]; exists {
		return catalog.Author{}, fmt.Errorf("author %d: %w", author.ID, storage.ErrConflict)
	}

	now := time.Now().UTC()
	author.CreatedAt = now
	author.UpdatedAt = now

	s.authors[author.ID] = author
	return author, nil
}

func (s *Store) UpdateAuthor(_ context.Context, author catalog.Author) (catalog.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.authors[author.ID]
	if !ok {
		return catalog.Author{}, fmt.Errorf("author %d: %w", author.ID, storage.ErrNotFound)
	}

	author.CreatedAt = original.CreatedAt
	author.UpdatedAt = time.Now().UTC()

	s.authors[author.ID] = author
	return author, nil
}

func (s *Store) GetAuthor(_ context.Context, id int64) (catalog.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	author, ok := s.authors[id]
	if !ok {
		return catalog.Author{}, fmt.Errorf("author %d: %w", id, storage.ErrNotFound)
	}
	return author, nil
}

func (s *Store) ListAuthors(_ context.Context, limit, offset int) ([]catalog.Author, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]catalog.Author, 0, len(s.authors))
	for _, author := range s.authors {
		all = append(all, author)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].LastName != all[j].LastName {
			return all[i].LastName < all[j].LastName
		}
		if all[i].FirstName != all[j].FirstName {
			return all[i].FirstName < all[j].FirstName
		}
		return all[i].ID < all[j].ID
	})
	total := len(all)
	return window(all, limit, offset), total, nil
}

func (s *Store) DeleteAuthor(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.authors[id]; !ok {
		return fmt.Errorf("author %d: %w", id, storage.ErrNotFound)
	}
	delete(s.authors, id)
	return nil
}

func (s *Store) CountAuthors(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.authors), nil
}

// BookStore implementation ---------------------------------------------------

func (s *Store) CreateBook(_ context.Context, book catalog.Book) (catalog.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if book.ID == 0 {
		book.ID = s.nextIDLocked()
	} else if _, exists := s.books[book.ID]; exists {
		return catalog.Book{}, fmt.Errorf("book %d: %w", book.ID, storage.ErrConflict)
	}

	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now
	book.GenreIDs = append([]int64(nil), book.GenreIDs...)

	s.books[book.ID] = book
	return cloneBook(book), nil
}

func (s *Store) UpdateBook(_ context.Context, book catalog.Book) (catalog.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.books[book.ID]
	if !ok {
		return catalog.Book{}, fmt.Errorf("book %d: %w", book.ID, storage.ErrNotFound)
	}

	book.CreatedAt = original.CreatedAt
	book.UpdatedAt = time.Now().UTC()
	book.GenreIDs = append([]int64(nil), book.GenreIDs...)

	s.books[book.ID] = book
	return cloneBook(book), nil
}

func (s *Store) GetBook(_ context.Context, id int64) (catalog.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, ok := s.books[id]
	if !ok {
		return catalog.Book{}, fmt.Errorf("book %d: %w", id, storage.ErrNotFound)
	}
	return cloneBook(book), nil
}

func (s *Store) ListBooks(_ context.Context, limit, offset int) ([]catalog.Book, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]catalog.Book, 0, len(s.books))
	for _, book := range s.books {
		all = append(all, cloneBook(book))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Title != all[j].Title {
			return all[i].Title < all[j].Title
		}
		return all[i].ID < all[j].ID
	})
	total := len(all)
	return window(all, limit, offset), total, nil
}

func (s *Store) ListBooksByAuthor(_ context.Context, authorID int64) ([]catalog.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]catalog.Book, 0)
	for _, book := range s.books {
		if book.AuthorID == authorID {
			result = append(result, cloneBook(book))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	return result, nil
}

func (s *Store) CountBooks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books), nil
}

func (s *Store) CountBooksByTitle(_ context.Context, substring string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(substring)
	count := 0
	for _, book := range s.books {
		if strings.Contains(strings.ToLower(book.Title), needle) {
			count++
		}
	}
	return count, nil
}

// GenreStore implementation --------------------------------------------------

func (s *Store) CreateGenre(_ context.Context, genre catalog.Genre) (catalog.Genre, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if genre.ID == 0 {
		genre.ID = s.nextIDLocked()
	} else if _, exists := s.genres[genre.ID]; exists {
		return catalog.Genre{}, fmt.Errorf("genre %d: %w", genre.ID, storage.ErrConflict)
	}

	s.genres[genre.ID] = genre
	return genre, nil
}

func (s *Store) ListGenres(_ context.Context) ([]catalog.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]catalog.Genre, 0, len(s.genres))
	for _, genre := range s.genres {
		result = append(result, genre)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *Store) ListGenresByIDs(_ context.Context, ids []int64) ([]catalog.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]catalog.Genre, 0, len(ids))
	for _, id := range ids {
		if genre, ok := s.genres[id]; ok {
			result = append(result, genre)
		}
	}
	return result, nil
}

func (s *Store) CountGenresByName(_ context.Context, substring string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(substring)
	count := 0
	for _, genre := range s.genres {
		if strings.Contains(strings.ToLower(genre.Name), needle) {
			count++
		}
	}
	return count, nil
}

// LanguageStore implementation -----------------------------------------------

func (s *Store) CreateLanguage(_ context.Context, lang catalog.Language) (catalog.Language, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lang.ID == 0 {
		lang.ID = s.nextIDLocked()
	} else if _, exists := s.languages[lang.ID]; exists {
		return catalog.Language{}, fmt.Errorf("language %d: %w", lang.ID, storage.ErrConflict)
	}

	s.languages[lang.ID] = lang
	return lang, nil
}

func (s *Store) GetLanguage(_ context.Context, id int64) (catalog.Language, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lang, ok := s.languages[id]
	if !ok {
		return catalog.Language{}, fmt.Errorf("language %d: %w", id, storage.ErrNotFound)
	}
	return lang, nil
}

func (s *Store) ListLanguages(_ context.Context) ([]catalog.Language, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]catalog.Language, 0, len(s.languages))
	for _, lang := range s.languages {
		result = append(result, lang)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// CopyStore implementation ---------------------------------------------------

func (s *Store) CreateCopy(_ context.Context, c catalog.Copy) (catalog.Copy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	} else if _, exists := s.copies[c.ID]; exists {
		return catalog.Copy{}, fmt.Errorf("copy %s: %w", c.ID, storage.ErrConflict)
	}
	if c.Status == "" {
		c.Status = catalog.StatusMaintenance
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	s.copies[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCopy(_ context.Context, c catalog.Copy) (catalog.Copy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.copies[c.ID]
	if !ok {
		return catalog.Copy{}, fmt.Errorf("copy %s: %w", c.ID, storage.ErrNotFound)
	}

	c.CreatedAt = original.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	s.copies[c.ID] = c
	return c, nil
}

func (s *Store) GetCopy(_ context.Context, id string) (catalog.Copy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.copies[id]
	if !ok {
		return catalog.Copy{}, fmt.Errorf("copy %s: %w", id, storage.ErrNotFound)
	}
	return c, nil
}

func (s *Store) ListCopiesByBook(_ context.Context, bookID int64) ([]catalog.Copy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]catalog.Copy, 0)
	for _, c := range s.copies {
		if c.BookID == bookID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) ListBorrowedByUser(_ context.Context, userID int64, limit, offset int) ([]catalog.Copy, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.borrowedLocked(func(c catalog.Copy) bool {
		return c.BorrowerID != nil && *c.BorrowerID == userID
	})
	total := len(all)
	return window(all, limit, offset), total, nil
}

func (s *Store) ListBorrowed(_ context.Context, limit, offset int) ([]catalog.Copy, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.borrowedLocked(func(catalog.Copy) bool { return true })
	total := len(all)
	return window(all, limit, offset), total, nil
}

func (s *Store) borrowedLocked(match func(catalog.Copy) bool) []catalog.Copy {
	result := make([]catalog.Copy, 0)
	for _, c := range s.copies {
		if c.Status == catalog.StatusOnLoan && match(c) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		di, dj := result[i].DueBack, result[j].DueBack
		switch {
		case di == nil && dj == nil:
			return result[i].ID < result[j].ID
		case di == nil:
			return false
		case dj == nil:
			return true
		case di.Equal(*dj):
			return result[i].ID < result[j].ID
		default:
			return di.Before(*dj)
		}
	})
	return result
}

func (s *Store) CountCopies(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.copies), nil
}

func (s *Store) CountCopiesByStatus(_ context.Context, status catalog.CopyStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, c := range s.copies {
		if c.Status == status {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountOverdue(_ context.Context, asOf time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, c := range s.copies {
		if c.Status == catalog.StatusOnLoan && c.Overdue(asOf) {
			count++
		}
	}
	return count, nil
}

// UserStore implementation ---------------------------------------------------

func (s *Store) CreateUser(_ context.Context, user catalog.User) (catalog.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(user.Username))
	if key == "" {
		return catalog.User{}, fmt.Errorf("username is required")
	}
	if _, exists := s.usersByName[key]; exists {
		return catalog.User{}, fmt.Errorf("username %s: %w", user.Username, storage.ErrConflict)
	}

	if user.ID == 0 {
		user.ID = s.nextIDLocked()
	} else if _, exists := s.users[user.ID]; exists {
		return catalog.User{}, fmt.Errorf("user %d: %w", user.ID, storage.ErrConflict)
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Permissions = append([]string(nil), user.Permissions...)

	s.users[user.ID] = user
	s.usersByName[key] = user.ID
	return cloneUser(user), nil
}

func (s *Store) UpdateUser(_ context.Context, user catalog.User) (catalog.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.users[user.ID]
	if !ok {
		return catalog.User{}, fmt.Errorf("user %d: %w", user.ID, storage.ErrNotFound)
	}

	oldKey := strings.ToLower(original.Username)
	newKey := strings.ToLower(strings.TrimSpace(user.Username))
	if newKey == "" {
		return catalog.User{}, fmt.Errorf("username is required")
	}
	if existing, exists := s.usersByName[newKey]; exists && existing != user.ID {
		return catalog.User{}, fmt.Errorf("username %s: %w", user.Username, storage.ErrConflict)
	}

	user.CreatedAt = original.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	user.Permissions = append([]string(nil), user.Permissions...)

	s.users[user.ID] = user
	if oldKey != newKey {
		delete(s.usersByName, oldKey)
	}
	s.usersByName[newKey] = user.ID
	return cloneUser(user), nil
}

func (s *Store) GetUser(_ context.Context, id int64) (catalog.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return catalog.User{}, fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
	}
	return cloneUser(user), nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (catalog.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.usersByName[strings.ToLower(strings.TrimSpace(username))]; ok {
		return cloneUser(s.users[id]), nil
	}
	return catalog.User{}, fmt.Errorf("user %s: %w", username, storage.ErrNotFound)
}

// SessionStore implementation ------------------------------------------------

func (s *Store) CreateSession(_ context.Context, session catalog.Session) (catalog.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.ID == "" {
		session.ID = uuid.NewString()
	} else if _, exists := s.sessions[session.ID]; exists {
		return catalog.Session{}, fmt.Errorf("session %s: %w", session.ID, storage.ErrConflict)
	}

	now := time.Now().UTC()
	session.CreatedAt = now
	session.LastSeenAt = now

	s.sessions[session.ID] = session
	s.sessionsByHash[session.TokenHash] = session.ID
	return session, nil
}

func (s *Store) GetSessionByTokenHash(_ context.Context, tokenHash string) (catalog.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.sessionsByHash[tokenHash]; ok {
		return s.sessions[id], nil
	}
	return catalog.Session{}, fmt.Errorf("session: %w", storage.ErrNotFound)
}

func (s *Store) TouchSession(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, storage.ErrNotFound)
	}
	session.LastSeenAt = at.UTC()
	s.sessions[id] = session
	return nil
}

func (s *Store) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, storage.ErrNotFound)
	}
	delete(s.sessions, id)
	delete(s.sessionsByHash, session.TokenHash)
	return nil
}

func (s *Store) DeleteExpiredSessions(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, session := range s.sessions {
		if session.ExpiresAt.Before(before) {
			delete(s.sessions, id)
			delete(s.sessionsByHash, session.TokenHash)
			count++
		}
	}
	return count, nil
}

// Helpers --------------------------------------------------------------------

func window[T any](all []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []T{}
	}
	rest := all[offset:]
	if limit <= 0 || limit >= len(rest) {
		return rest
	}
	return rest[:limit]
}

func cloneBook(book catalog.Book) catalog.Book {
	book.GenreIDs = append([]int64(nil), book.GenreIDs...)
	return book
}

func cloneUser(user catalog.User) catalog.User {
	user.Permissions = append([]string(nil), user.Permissions...)
	return user
}
