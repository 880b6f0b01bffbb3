package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/readstack/catalog/internal/catalog"
	"github.com/readstack/catalog/internal/storage"
)

type userRow struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r userRow) toDomain() catalog.User {
	return catalog.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

var userColumns = []string{"id", "username", "password_hash", "first_name", "last_name", "created_at", "updated_at"}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, user catalog.User) (catalog.User, error) {
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" {
		return catalog.User{}, fmt.Errorf("username is required")
	}
	if _, err := s.GetUserByUsername(ctx, user.Username); err == nil {
		return catalog.User{}, fmt.Errorf("username %s: %w", user.Username, storage.ErrConflict)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return catalog.User{}, err
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		ib := s.sb.Insert("users").
			Columns("username", "password_hash", "first_name", "last_name", "created_at", "updated_at").
			Values(user.Username, user.PasswordHash, user.FirstName, user.LastName, user.CreatedAt, user.UpdatedAt)

		id, err := s.insertID(ctx, tx, ib)
		if err != nil {
			return err
		}
		user.ID = id
		return s.replacePermissionsTx(ctx, tx, user.ID, user.Permissions, false)
	})
	if err != nil {
		return catalog.User{}, err
	}
	return user, nil
}

func (s *Store) UpdateUser(ctx context.Context, user catalog.User) (catalog.User, error) {
	existing, err := s.GetUser(ctx, user.ID)
	if err != nil {
		return catalog.User{}, err
	}

	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" {
		return catalog.User{}, fmt.Errorf("username is required")
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now().UTC()

	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := s.sb.Update("users").
			Set("username", user.Username).
			Set("password_hash", user.PasswordHash).
			Set("first_name", user.FirstName).
			Set("last_name", user.LastName).
			Set("updated_at", user.UpdatedAt).
			Where(squirrel.Eq{"id": user.ID}).
			ToSql()
		if err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return missing("user %d", user.ID)
		}
		return s.replacePermissionsTx(ctx, tx, user.ID, user.Permissions, true)
	})
	if err != nil {
		return catalog.User{}, err
	}
	return user, nil
}

func (s *Store) replacePermissionsTx(ctx context.Context, tx *sqlx.Tx, userID int64, perms []string, clear bool) error {
	if clear {
		query, args, err := s.sb.Delete("user_permissions").Where(squirrel.Eq{"user_id": userID}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if len(perms) == 0 {
		return nil
	}

	ib := s.sb.Insert("user_permissions").Columns("user_id", "permission")
	for _, perm := range perms {
		ib = ib.Values(userID, perm)
	}
	query, args, err := ib.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func (s *Store) GetUser(ctx context.Context, id int64) (catalog.User, error) {
	var row userRow
	err := s.getContext(ctx, &row, s.sb.Select(userColumns...).From("users").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return catalog.User{}, notFound(err, "user %d", id)
	}
	return s.withPermissions(ctx, row.toDomain())
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (catalog.User, error) {
	var row userRow
	b := s.sb.Select(userColumns...).From("users").
		Where(squirrel.Expr("LOWER(username) = LOWER(?)", strings.TrimSpace(username)))
	err := s.getContext(ctx, &row, b)
	if err != nil {
		return catalog.User{}, notFound(err, "user %s", username)
	}
	return s.withPermissions(ctx, row.toDomain())
}

func (s *Store) withPermissions(ctx context.Context, user catalog.User) (catalog.User, error) {
	var perms []string
	b := s.sb.Select("permission").From("user_permissions").
		Where(squirrel.Eq{"user_id": user.ID}).
		OrderBy("permission")
	if err := s.selectContext(ctx, &perms, b); err != nil {
		return catalog.User{}, err
	}
	user.Permissions = perms
	return user, nil
}

// --- SessionStore -----------------------------------------------------------

type sessionRow struct {
	ID         string    `db:"id"`
	UserID     int64     `db:"user_id"`
	TokenHash  string    `db:"token_hash"`
	ExpiresAt  time.Time `db:"expires_at"`
	CreatedAt  time.Time `db:"created_at"`
	LastSeenAt time.Time `db:"last_seen_at"`
}

func (r sessionRow) toDomain() catalog.Session {
	return catalog.Session(r)
}

func (s *Store) CreateSession(ctx context.Context, session catalog.Session) (catalog.Session, error) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.LastSeenAt = now

	query, args, err := s.sb.Insert("sessions").
		Columns("id", "user_id", "token_hash", "expires_at", "created_at", "last_seen_at").
		Values(session.ID, session.UserID, session.TokenHash, session.ExpiresAt, session.CreatedAt, session.LastSeenAt).
		ToSql()
	if err != nil {
		return catalog.Session{}, err
	}
	if _, err := s.execContext(ctx, query, args); err != nil {
		return catalog.Session{}, err
	}
	return session, nil
}

func (s *Store) GetSessionByTokenHash(ctx context.Context, tokenHash string) (catalog.Session, error) {
	var row sessionRow
	b := s.sb.Select("id", "user_id", "token_hash", "expires_at", "created_at", "last_seen_at").
		From("sessions").
		Where(squirrel.Eq{"token_hash": tokenHash})
	if err := s.getContext(ctx, &row, b); err != nil {
		return catalog.Session{}, notFound(err, "session")
	}
	return row.toDomain(), nil
}

func (s *Store) TouchSession(ctx context.Context, id string, at time.Time) error {
	query, args, err := s.sb.Update("sessions").
		Set("last_seen_at", at.UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	result, err := s.execContext(ctx, query, args)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return missing("session %s", id)
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	query, args, err := s.sb.Delete("sessions").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	result, err := s.execContext(ctx, query, args)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return missing("session %s", id)
	}
	return nil
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, before time.Time) (int, error) {
	query, args, err := s.sb.Delete("sessions").Where(squirrel.Lt{"expires_at": before.UTC()}).ToSql()
	if err != nil {
		return 0, err
	}
	result, err := s.execContext(ctx, query, args)
	if err != nil {
		return 0, err
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}
