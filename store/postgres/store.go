// Package postgres implements store.Store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-lostfound/internal/errors"
	"github.com/gcbaptista/go-lostfound/model"
	"github.com/gcbaptista/go-lostfound/store"
)

const (
	tableName = "items"

	// uniqueViolation is the PostgreSQL SQLSTATE for duplicate keys.
	uniqueViolation = "23505"
)

var itemColumns = []string{"id", "type", "name", "description", "place", "date", "contact", "image_ref"}

const schema = `
CREATE TABLE IF NOT EXISTS items (
	seq         BIGSERIAL PRIMARY KEY,
	id          TEXT NOT NULL UNIQUE,
	type        TEXT NOT NULL CHECK (type IN ('lost', 'found')),
	name        TEXT,
	description TEXT,
	place       TEXT,
	date        TEXT NOT NULL DEFAULT '',
	contact     TEXT NOT NULL DEFAULT '',
	image_ref   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS items_type_seq_idx ON items (type, seq);
`

// DB is the subset of *sqlx.DB the store needs.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	Close() error
}

var _ DB = (*sqlx.DB)(nil)

// Store persists records in a PostgreSQL table ordered by a serial column.
type Store struct {
	db     DB
	logger *zap.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects with the lib/pq driver and pings the server.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("connect", err)
	}
	return New(db, logger), nil
}

// New wraps an existing connection.
func New(db DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// EnsureSchema creates the items table and its index when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.NewStoreUnavailableError("ensure schema", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add implements store.Store.
func (s *Store) Add(ctx context.Context, item model.Item) error {
	query, args := buildInsert(item)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return errors.NewRecordExistsError(item.ID)
		}
		s.logger.Error("failed to insert item", zap.String("id", item.ID), zap.Error(err))
		return errors.NewStoreUnavailableError("add", err)
	}
	return nil
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	query, args := buildDelete(id)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("failed to delete item", zap.String("id", id), zap.Error(err))
		return errors.NewStoreUnavailableError("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewStoreUnavailableError("delete", err)
	}
	if n == 0 {
		return errors.NewRecordNotFoundError(id)
	}
	return nil
}

// Get implements store.Reader.
func (s *Store) Get(ctx context.Context, id string) (model.Item, error) {
	query, args := buildGet(id)
	var item model.Item
	if err := s.db.GetContext(ctx, &item, query, args...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return model.Item{}, errors.NewRecordNotFoundError(id)
		}
		s.logger.Error("failed to get item", zap.String("id", id), zap.Error(err))
		return model.Item{}, errors.NewStoreUnavailableError("get", err)
	}
	return item, nil
}

// GetRecords implements store.Reader.
func (s *Store) GetRecords(ctx context.Context, filter store.Filter) ([]model.Item, error) {
	query, args := buildList(filter)
	items := make([]model.Item, 0)
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		s.logger.Error("failed to list items", zap.String("type", string(filter.Type)), zap.Error(err))
		return nil, errors.NewStoreUnavailableError("get records", err)
	}
	return items, nil
}

func buildInsert(item model.Item) (string, []any) {
	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols(itemColumns...)
	sb.Values(item.ID, string(item.Type), item.Name, item.Description, item.Place, item.Date, item.Contact, item.ImageRef)
	return sb.Build()
}

func buildDelete(id string) (string, []any) {
	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(tableName)
	sb.Where(sb.Equal("id", id))
	return sb.Build()
}

func buildGet(id string) (string, []any) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(itemColumns...)
	sb.From(tableName)
	sb.Where(sb.Equal("id", id))
	return sb.Build()
}

func buildList(filter store.Filter) (string, []any) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(itemColumns...)
	sb.From(tableName)

	var where []string
	if filter.Type != "" {
		where = append(where, sb.Equal("type", string(filter.Type)))
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		where = append(where, sb.Or(
			sb.ILike("name", pattern),
			sb.ILike("description", pattern),
			sb.ILike("place", pattern),
		))
	}
	if len(where) > 0 {
		sb.Where(where...)
	}
	sb.OrderBy("seq").Asc()
	return sb.Build()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
