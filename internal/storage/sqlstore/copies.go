package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/readstack/catalog/internal/catalog"
)

type copyRow struct {
	ID         string        `db:"id"`
	BookID     int64         `db:"book_id"`
	Imprint    string        `db:"imprint"`
	DueBack    sql.NullTime  `db:"due_back"`
	BorrowerID sql.NullInt64 `db:"borrower_id"`
	Status     string        `db:"status"`
	CreatedAt  time.Time     `db:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at"`
}

func (r copyRow) toDomain() catalog.Copy {
	return catalog.Copy{
		ID:         r.ID,
		BookID:     r.BookID,
		Imprint:    r.Imprint,
		DueBack:    fromNullTime(r.DueBack),
		BorrowerID: fromNullInt64(r.BorrowerID),
		Status:     catalog.CopyStatus(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

var copyColumns = []string{"id", "book_id", "imprint", "due_back", "borrower_id", "status", "created_at", "updated_at"}

// --- CopyStore --------------------------------------------------------------

func (s *Store) CreateCopy(ctx context.Context, c catalog.Copy) (catalog.Copy, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = catalog.StatusMaintenance
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	query, args, err := s.sb.Insert("copies").
		Columns(copyColumns...).
		Values(c.ID, c.BookID, c.Imprint, toNullTime(c.DueBack), toNullInt64(c.BorrowerID), string(c.Status), c.CreatedAt, c.UpdatedAt).
		ToSql()
	if err != nil {
		return catalog.Copy{}, err
	}
	if _, err := s.execContext(ctx, query, args); err != nil {
		return catalog.Copy{}, err
	}
	return c, nil
}

func (s *Store) UpdateCopy(ctx context.Context, c catalog.Copy) (catalog.Copy, error) {
	existing, err := s.GetCopy(ctx, c.ID)
	if err != nil {
		return catalog.Copy{}, err
	}

	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	query, args, err := s.sb.Update("copies").
		Set("book_id", c.BookID).
		Set("imprint", c.Imprint).
		Set("due_back", toNullTime(c.DueBack)).
		Set("borrower_id", toNullInt64(c.BorrowerID)).
		Set("status", string(c.Status)).
		Set("updated_at", c.UpdatedAt).
		Where(squirrel.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return catalog.Copy{}, err
	}

	result, err := s.execContext(ctx, query, args)
	if err != nil {
		return catalog.Copy{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return catalog.Copy{}, missing("copy %s", c.ID)
	}
	return c, nil
}

func (s *Store) GetCopy(ctx context.Context, id string) (catalog.Copy, error) {
	var row copyRow
	err := s.getContext(ctx, &row, s.sb.Select(copyColumns...).From("copies").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return catalog.Copy{}, notFound(err, "copy %s", id)
	}
	return row.toDomain(), nil
}

func (s *Store) ListCopiesByBook(ctx context.Context, bookID int64) ([]catalog.Copy, error) {
	var rows []copyRow
	b := s.sb.Select(copyColumns...).From("copies").
		Where(squirrel.Eq{"book_id": bookID}).
		OrderBy("id")
	if err := s.selectContext(ctx, &rows, b); err != nil {
		return nil, err
	}

	result := make([]catalog.Copy, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (s *Store) ListBorrowedByUser(ctx context.Context, userID int64, limit, offset int) ([]catalog.Copy, int, error) {
	where := squirrel.Eq{"status": string(catalog.StatusOnLoan), "borrower_id": userID}
	return s.listBorrowed(ctx, where, limit, offset)
}

func (s *Store) ListBorrowed(ctx context.Context, limit, offset int) ([]catalog.Copy, int, error) {
	where := squirrel.Eq{"status": string(catalog.StatusOnLoan)}
	return s.listBorrowed(ctx, where, limit, offset)
}

func (s *Store) listBorrowed(ctx context.Context, where squirrel.Eq, limit, offset int) ([]catalog.Copy, int, error) {
	b := s.sb.Select(copyColumns...).From("copies").
		Where(where).
		OrderBy("(due_back IS NULL)", "due_back", "id")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	if offset > 0 {
		b = b.Offset(uint64(offset))
	}

	var rows []copyRow
	if err := s.selectContext(ctx, &rows, b); err != nil {
		return nil, 0, err
	}

	total, err := s.count(ctx, s.sb.Select("COUNT(*)").From("copies").Where(where))
	if err != nil {
		return nil, 0, err
	}

	result := make([]catalog.Copy, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, total, nil
}

func (s *Store) CountCopies(ctx context.Context) (int, error) {
	return s.count(ctx, s.sb.Select("COUNT(*)").From("copies"))
}

func (s *Store) CountCopiesByStatus(ctx context.Context, status catalog.CopyStatus) (int, error) {
	b := s.sb.Select("COUNT(*)").From("copies").Where(squirrel.Eq{"status": string(status)})
	return s.count(ctx, b)
}

func (s *Store) CountOverdue(ctx context.Context, asOf time.Time) (int, error) {
	y, m, d := asOf.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	b := s.sb.Select("COUNT(*)").From("copies").
		Where(squirrel.Eq{"status": string(catalog.StatusOnLoan)}).
		Where(squirrel.Lt{"due_back": day})
	return s.count(ctx, b)
}
