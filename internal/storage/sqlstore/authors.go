package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/readstack/catalog/internal/catalog"
)

type authorRow struct {
	ID          int64        `db:"id"`
	FirstName   string       `db:"first_name"`
	LastName    string       `db:"last_name"`
	DateOfBirth sql.NullTime `db:"date_of_birth"`
	DateOfDeath sql.NullTime `db:"date_of_death"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

func (r authorRow) toDomain() catalog.Author {
	return catalog.Author{
		ID:          r.ID,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		DateOfBirth: fromNullTime(r.DateOfBirth),
		DateOfDeath: fromNullTime(r.DateOfDeath),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

var authorColumns = []string{"id", "first_name", "last_name", "date_of_birth", "date_of_death", "created_at", "updated_at"}

// --- AuthorStore ------------------------------------------------------------

func (s *Store) CreateAuthor(ctx context.Context, author catalog.Author) (catalog.Author, error) {
	now := time.Now().UTC()
	author.CreatedAt = now
	author.UpdatedAt = now

	ib := s.sb.Insert("authors").
		Columns("first_name", "last_name", "date_of_birth", "date_of_death", "created_at", "updated_at").
		Values(author.FirstName, author.LastName, toNullTime(author.DateOfBirth), toNullTime(author.DateOfDeath), author.CreatedAt, author.UpdatedAt)

	id, err := s.insertID(ctx, s.db, ib)
	if err != nil {
		return catalog.Author{}, err
	}
	author.ID = id
	return author, nil
}

func (s *Store) UpdateAuthor(ctx context.Context, author catalog.Author) (catalog.Author, error) {
	existing, err := s.GetAuthor(ctx, author.ID)
	if err != nil {
		return catalog.Author{}, err
	}

	author.CreatedAt = existing.CreatedAt
	author.UpdatedAt = time.Now().UTC()

	query, args, err := s.sb.Update("authors").
		Set("first_name", author.FirstName).
		Set("last_name", author.LastName).
		Set("date_of_birth", toNullTime(author.DateOfBirth)).
		Set("date_of_death", toNullTime(author.DateOfDeath)).
		Set("updated_at", author.UpdatedAt).
		Where(squirrel.Eq{"id": author.ID}).
		ToSql()
	if err != nil {
		return catalog.Author{}, err
	}

	result, err := s.execContext(ctx, query, args)
	if err != nil {
		return catalog.Author{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return catalog.Author{}, missing("author %d", author.ID)
	}
	return author, nil
}

func (s *Store) GetAuthor(ctx context.Context, id int64) (catalog.Author, error) {
	var row authorRow
	err := s.getContext(ctx, &row, s.sb.Select(authorColumns...).From("authors").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return catalog.Author{}, notFound(err, "author %d", id)
	}
	return row.toDomain(), nil
}

func (s *Store) ListAuthors(ctx context.Context, limit, offset int) ([]catalog.Author, int, error) {
	b := s.sb.Select(authorColumns...).From("authors").
		OrderBy("last_name", "first_name", "id")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	if offset > 0 {
		b = b.Offset(uint64(offset))
	}

	var rows []authorRow
	if err := s.selectContext(ctx, &rows, b); err != nil {
		return nil, 0, err
	}

	total, err := s.count(ctx, s.sb.Select("COUNT(*)").From("authors"))
	if err != nil {
		return nil, 0, err
	}

	result := make([]catalog.Author, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, total, nil
}

func (s *Store) DeleteAuthor(ctx context.Context, id int64) error {
	query, args, err := s.sb.Delete("authors").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	result, err := s.execContext(ctx, query, args)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return missing("author %d", id)
	}
	return nil
}

func (s *Store) CountAuthors(ctx context.Context) (int, error) {
	return s.count(ctx, s.sb.Select("COUNT(*)").From("authors"))
}
