package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/idilsaglam/tada-remote/internal/model"
)

// ErrNotFound is returned for an id that has no row.
var ErrNotFound = errors.New("todo not found")

// Store is the persistence the handlers need.
type Store interface {
	List(ctx context.Context) ([]model.Item, error)
	Get(ctx context.Context, id int64) (model.Item, error)
	Create(ctx context.Context, it model.Item) (model.Item, error)
	Update(ctx context.Context, id int64, it model.Item) (model.Item, error)
	Delete(ctx context.Context, id int64) error
	Close() error
}

const createTodos = `CREATE TABLE IF NOT EXISTS todos (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    completed INTEGER NOT NULL DEFAULT 0
);`

// SQLiteStore keeps todos in a single SQLite table.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) the database at path. Use
// ":memory:" for a throwaway store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(createTodos); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, description, completed FROM todos ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return items, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (model.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title, description, completed FROM todos WHERE id = ?`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, ErrNotFound
	}
	return it, err
}

func (s *SQLiteStore) Create(ctx context.Context, it model.Item) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO todos (title, description, completed) VALUES (?, ?, ?)`,
		it.Title, it.Description, it.Completed,
	)
	if err != nil {
		return model.Item{}, fmt.Errorf("insert todo: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Item{}, fmt.Errorf("last insert id: %w", err)
	}
	return it.WithID(id), nil
}

func (s *SQLiteStore) Update(ctx context.Context, id int64, it model.Item) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE todos SET title = ?, description = ?, completed = ? WHERE id = ?`,
		it.Title, it.Description, it.Completed, id,
	)
	if err != nil {
		return model.Item{}, fmt.Errorf("update todo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Item{}, ErrNotFound
	}
	return it.WithID(id), nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (model.Item, error) {
	var (
		id        int64
		it        model.Item
		completed int64
	)
	if err := sc.Scan(&id, &it.Title, &it.Description, &completed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Item{}, err
		}
		return model.Item{}, fmt.Errorf("scan todo: %w", err)
	}
	it.Completed = completed != 0
	return it.WithID(id), nil
}
