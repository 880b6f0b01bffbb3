// Package sqlstore implements the storage interfaces on a relational
// database. Queries are built with squirrel and executed through sqlx, with
// postgres and sqlite3 supported through the same code path.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/readstack/catalog/internal/storage"
)

// Store implements the storage interfaces backed by a SQL database.
type Store struct {
	db     *sqlx.DB
	sb     squirrel.StatementBuilderType
	driver string
}

var _ storage.AuthorStore = (*Store)(nil)
var _ storage.BookStore = (*Store)(nil)
var _ storage.GenreStore = (*Store)(nil)
var _ storage.LanguageStore = (*Store)(nil)
var _ storage.CopyStore = (*Store)(nil)
var _ storage.UserStore = (*Store)(nil)
var _ storage.SessionStore = (*Store)(nil)

// New creates a Store using the provided database handle. The driver name
// decides placeholder style and the case-insensitive match operator.
func New(db *sqlx.DB, driver string) *Store {
	sb := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
	if driver == "postgres" {
		sb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return &Store{db: db, sb: sb, driver: driver}
}

func (s *Store) likeOp() string {
	if s.driver == "postgres" {
		return "ILIKE"
	}
	// sqlite LIKE is case-insensitive for ASCII.
	return "LIKE"
}

// runner is satisfied by both *sqlx.DB and *sqlx.Tx so inserts can run inside
// or outside a transaction.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// insertID runs an insert and reports the generated serial key. Postgres
// needs RETURNING; sqlite exposes LastInsertId.
func (s *Store) insertID(ctx context.Context, r runner, ib squirrel.InsertBuilder) (int64, error) {
	if s.driver == "postgres" {
		query, args, err := ib.Suffix("RETURNING id").ToSql()
		if err != nil {
			return 0, err
		}
		var id int64
		if err := r.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	query, args, err := ib.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := r.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) selectContext(ctx context.Context, dest interface{}, b squirrel.SelectBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	return s.db.SelectContext(ctx, dest, query, args...)
}

func (s *Store) getContext(ctx context.Context, dest interface{}, b squirrel.SelectBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	return s.db.GetContext(ctx, dest, query, args...)
}

func (s *Store) execContext(ctx context.Context, query string, args []interface{}) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

func (s *Store) count(ctx context.Context, b squirrel.SelectBuilder) (int, error) {
	var n int
	if err := s.getContext(ctx, &n, b); err != nil {
		return 0, err
	}
	return n, nil
}

// inTx runs fn inside a transaction and commits unless fn fails.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func notFound(err error, what string, args ...interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf(what+": %w", append(args, storage.ErrNotFound)...)
	}
	return err
}

func missing(what string, args ...interface{}) error {
	return fmt.Errorf(what+": %w", append(args, storage.ErrNotFound)...)
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func fromNullInt64(nv sql.NullInt64) *int64 {
	if !nv.Valid {
		return nil
	}
	v := nv.Int64
	return &v
}
