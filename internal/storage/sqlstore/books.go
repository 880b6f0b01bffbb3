package sqlstore

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/readstack/catalog/internal/catalog"
)

type bookRow struct {
	ID         int64     `db:"id"`
	Title      string    `db:"title"`
	Summary    string    `db:"summary"`
	ISBN       string    `db:"isbn"`
	AuthorID   int64     `db:"author_id"`
	LanguageID int64     `db:"language_id"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r bookRow) toDomain() catalog.Book {
	return catalog.Book{
		ID:         r.ID,
		Title:      r.Title,
		Summary:    r.Summary,
		ISBN:       r.ISBN,
		AuthorID:   r.AuthorID,
		LanguageID: r.LanguageID,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type bookGenreRow struct {
	BookID  int64 `db:"book_id"`
	GenreID int64 `db:"genre_id"`
}

var bookColumns = []string{"id", "title", "summary", "isbn", "author_id", "language_id", "created_at", "updated_at"}

// --- BookStore --------------------------------------------------------------

func (s *Store) CreateBook(ctx context.Context, book catalog.Book) (catalog.Book, error) {
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		ib := s.sb.Insert("books").
			Columns("title", "summary", "isbn", "author_id", "language_id", "created_at", "updated_at").
			Values(book.Title, book.Summary, book.ISBN, book.AuthorID, book.LanguageID, book.CreatedAt, book.UpdatedAt)

		id, err := s.insertID(ctx, tx, ib)
		if err != nil {
			return err
		}
		book.ID = id
		return s.replaceGenresTx(ctx, tx, book.ID, book.GenreIDs, false)
	})
	if err != nil {
		return catalog.Book{}, err
	}
	return book, nil
}

func (s *Store) UpdateBook(ctx context.Context, book catalog.Book) (catalog.Book, error) {
	existing, err := s.GetBook(ctx, book.ID)
	if err != nil {
		return catalog.Book{}, err
	}

	book.CreatedAt = existing.CreatedAt
	book.UpdatedAt = time.Now().UTC()

	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := s.sb.Update("books").
			Set("title", book.Title).
			Set("summary", book.Summary).
			Set("isbn", book.ISBN).
			Set("author_id", book.AuthorID).
			Set("language_id", book.LanguageID).
			Set("updated_at", book.UpdatedAt).
			Where(squirrel.Eq{"id": book.ID}).
			ToSql()
		if err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return missing("book %d", book.ID)
		}
		return s.replaceGenresTx(ctx, tx, book.ID, book.GenreIDs, true)
	})
	if err != nil {
		return catalog.Book{}, err
	}
	return book, nil
}

func (s *Store) replaceGenresTx(ctx context.Context, tx *sqlx.Tx, bookID int64, genreIDs []int64, clear bool) error {
	if clear {
		query, args, err := s.sb.Delete("book_genres").Where(squirrel.Eq{"book_id": bookID}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if len(genreIDs) == 0 {
		return nil
	}

	ib := s.sb.Insert("book_genres").Columns("book_id", "genre_id")
	for _, genreID := range lo.Uniq(genreIDs) {
		ib = ib.Values(bookID, genreID)
	}
	query, args, err := ib.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func (s *Store) GetBook(ctx context.Context, id int64) (catalog.Book, error) {
	var row bookRow
	err := s.getContext(ctx, &row, s.sb.Select(bookColumns...).From("books").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return catalog.Book{}, notFound(err, "book %d", id)
	}

	book := row.toDomain()
	genres, err := s.genreLinks(ctx, []int64{id})
	if err != nil {
		return catalog.Book{}, err
	}
	book.GenreIDs = genres[id]
	return book, nil
}

func (s *Store) ListBooks(ctx context.Context, limit, offset int) ([]catalog.Book, int, error) {
	b := s.sb.Select(bookColumns...).From("books").OrderBy("title", "id")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	if offset > 0 {
		b = b.Offset(uint64(offset))
	}

	var rows []bookRow
	if err := s.selectContext(ctx, &rows, b); err != nil {
		return nil, 0, err
	}

	total, err := s.count(ctx, s.sb.Select("COUNT(*)").From("books"))
	if err != nil {
		return nil, 0, err
	}

	books, err := s.attachGenres(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (s *Store) ListBooksByAuthor(ctx context.Context, authorID int64) ([]catalog.Book, error) {
	var rows []bookRow
	b := s.sb.Select(bookColumns...).From("books").
		Where(squirrel.Eq{"author_id": authorID}).
		OrderBy("title", "id")
	if err := s.selectContext(ctx, &rows, b); err != nil {
		return nil, err
	}

	return s.attachGenres(ctx, rows)
}

func (s *Store) attachGenres(ctx context.Context, rows []bookRow) ([]catalog.Book, error) {
	ids := lo.Map(rows, func(r bookRow, _ int) int64 { return r.ID })
	genres, err := s.genreLinks(ctx, ids)
	if err != nil {
		return nil, err
	}

	books := make([]catalog.Book, 0, len(rows))
	for _, row := range rows {
		book := row.toDomain()
		book.GenreIDs = genres[row.ID]
		books = append(books, book)
	}
	return books, nil
}

func (s *Store) genreLinks(ctx context.Context, bookIDs []int64) (map[int64][]int64, error) {
	if len(bookIDs) == 0 {
		return map[int64][]int64{}, nil
	}

	var links []bookGenreRow
	b := s.sb.Select("book_id", "genre_id").From("book_genres").
		Where(squirrel.Eq{"book_id": bookIDs}).
		OrderBy("genre_id")
	if err := s.selectContext(ctx, &links, b); err != nil {
		return nil, err
	}

	grouped := lo.GroupBy(links, func(l bookGenreRow) int64 { return l.BookID })
	result := make(map[int64][]int64, len(grouped))
	for bookID, ls := range grouped {
		result[bookID] = lo.Map(ls, func(l bookGenreRow, _ int) int64 { return l.GenreID })
	}
	return result, nil
}

func (s *Store) CountBooks(ctx context.Context) (int, error) {
	return s.count(ctx, s.sb.Select("COUNT(*)").From("books"))
}

func (s *Store) CountBooksByTitle(ctx context.Context, substring string) (int, error) {
	b := s.sb.Select("COUNT(*)").From("books").
		Where(squirrel.Expr("title "+s.likeOp()+" ?", "%"+substring+"%"))
	return s.count(ctx, b)
}

// --- GenreStore -------------------------------------------------------------

func (s *Store) CreateGenre(ctx context.Context, genre catalog.Genre) (catalog.Genre, error) {
	ib := s.sb.Insert("genres").Columns("name").Values(genre.Name)
	id, err := s.insertID(ctx, s.db, ib)
	if err != nil {
		return catalog.Genre{}, err
	}
	genre.ID = id
	return genre, nil
}

func (s *Store) ListGenres(ctx context.Context) ([]catalog.Genre, error) {
	var rows []catalog.Genre
	b := s.sb.Select("id", "name").From("genres").OrderBy("name")
	if err := s.selectContext(ctx, &rows, b); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) ListGenresByIDs(ctx context.Context, ids []int64) ([]catalog.Genre, error) {
	if len(ids) == 0 {
		return []catalog.Genre{}, nil
	}
	var rows []catalog.Genre
	b := s.sb.Select("id", "name").From("genres").
		Where(squirrel.Eq{"id": ids}).
		OrderBy("name")
	if err := s.selectContext(ctx, &rows, b); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) CountGenresByName(ctx context.Context, substring string) (int, error) {
	b := s.sb.Select("COUNT(*)").From("genres").
		Where(squirrel.Expr("name "+s.likeOp()+" ?", "%"+substring+"%"))
	return s.count(ctx, b)
}

// --- LanguageStore ----------------------------------------------------------

func (s *Store) CreateLanguage(ctx context.Context, lang catalog.Language) (catalog.Language, error) {
	ib := s.sb.Insert("languages").Columns("name").Values(lang.Name)
	id, err := s.insertID(ctx, s.db, ib)
	if err != nil {
		return catalog.Language{}, err
	}
	lang.ID = id
	return lang, nil
}

func (s *Store) GetLanguage(ctx context.Context, id int64) (catalog.Language, error) {
	var lang catalog.Language
	err := s.getContext(ctx, &lang, s.sb.Select("id", "name").From("languages").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return catalog.Language{}, notFound(err, "language %d", id)
	}
	return lang, nil
}

func (s *Store) ListLanguages(ctx context.Context) ([]catalog.Language, error) {
	var rows []catalog.Language
	b := s.sb.Select("id", "name").From("languages").OrderBy("name")
	if err := s.selectContext(ctx, &rows, b); err != nil {
		return nil, err
	}
	return rows, nil
}
