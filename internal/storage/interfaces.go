package storage

import (
	"context"
	"time"

	"github.com/readstack/catalog/internal/catalog"
)

// AuthorStore persists author records.
type AuthorStore interface {
	CreateAuthor(ctx context.Context, author catalog.Author) (catalog.Author, error)
	UpdateAuthor(ctx context.Context, author catalog.Author) (catalog.Author, error)
	GetAuthor(ctx context.Context, id int64) (catalog.Author, error)
	ListAuthors(ctx context.Context, limit, offset int) ([]catalog.Author, int, error)
	DeleteAuthor(ctx context.Context, id int64) error
	CountAuthors(ctx context.Context) (int, error)
}

// BookStore persists book records and their genre links.
type BookStore interface {
	CreateBook(ctx context.Context, book catalog.Book) (catalog.Book, error)
	UpdateBook(ctx context.Context, book catalog.Book) (catalog.Book, error)
	GetBook(ctx context.Context, id int64) (catalog.Book, error)
	ListBooks(ctx context.Context, limit, offset int) ([]catalog.Book, int, error)
	ListBooksByAuthor(ctx context.Context, authorID int64) ([]catalog.Book, error)
	CountBooks(ctx context.Context) (int, error)
	CountBooksByTitle(ctx context.Context, substring string) (int, error)
}

// GenreStore persists genres.
type GenreStore interface {
	CreateGenre(ctx context.Context, genre catalog.Genre) (catalog.Genre, error)
	ListGenres(ctx context.Context) ([]catalog.Genre, error)
	ListGenresByIDs(ctx context.Context, ids []int64) ([]catalog.Genre, error)
	CountGenresByName(ctx context.Context, substring string) (int, error)
}

// LanguageStore persists languages.
type LanguageStore interface {
	CreateLanguage(ctx context.Context, lang catalog.Language) (catalog.Language, error)
	GetLanguage(ctx context.Context, id int64) (catalog.Language, error)
	ListLanguages(ctx context.Context) ([]catalog.Language, error)
}

// CopyStore persists physical copies. Borrowed listings return only on-loan
// copies ordered by due date, oldest first.
type CopyStore interface {
	CreateCopy(ctx context.Context, c catalog.Copy) (catalog.Copy, error)
	UpdateCopy(ctx context.Context, c catalog.Copy) (catalog.Copy, error)
	GetCopy(ctx context.Context, id string) (catalog.Copy, error)
	ListCopiesByBook(ctx context.Context, bookID int64) ([]catalog.Copy, error)
	ListBorrowedByUser(ctx context.Context, userID int64, limit, offset int) ([]catalog.Copy, int, error)
	ListBorrowed(ctx context.Context, limit, offset int) ([]catalog.Copy, int, error)
	CountCopies(ctx context.Context) (int, error)
	CountCopiesByStatus(ctx context.Context, status catalog.CopyStatus) (int, error)
	CountOverdue(ctx context.Context, asOf time.Time) (int, error)
}

// UserStore persists library members.
type UserStore interface {
	CreateUser(ctx context.Context, user catalog.User) (catalog.User, error)
	UpdateUser(ctx context.Context, user catalog.User) (catalog.User, error)
	GetUser(ctx context.Context, id int64) (catalog.User, error)
	GetUserByUsername(ctx context.Context, username string) (catalog.User, error)
}

// SessionStore persists login sessions keyed by token hash.
type SessionStore interface {
	CreateSession(ctx context.Context, session catalog.Session) (catalog.Session, error)
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (catalog.Session, error)
	TouchSession(ctx context.Context, id string, at time.Time) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int, error)
}
