package configurator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS application (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	description TEXT NOT NULL,
	type        TEXT NOT NULL,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS application_variable (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	application_id INTEGER NOT NULL REFERENCES application(id) ON DELETE CASCADE,
	key            TEXT NOT NULL,
	value          TEXT NOT NULL,
	UNIQUE (application_id, key)
);
`

// SQLStore keeps applications in SQLite.
type SQLStore struct {
	db *sqlx.DB
}

// OpenSQLite opens (and migrates) the database at path. Use ":memory:" for a
// throwaway database.
func OpenSQLite(path string) (*SQLStore, error) {
	dsn := path
	if path == ":memory:" {
		dsn = "file:memdb-" + uuid.NewString() + "?mode=memory&cache=shared"
	}
	if strings.Contains(dsn, "?") {
		dsn += "&_foreign_keys=on"
	} else {
		dsn += "?_foreign_keys=on"
	}
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// sqlite allows one writer
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) List(ctx context.Context) ([]Application, error) {
	var apps []Application
	err := s.db.SelectContext(ctx, &apps,
		`SELECT id, name, description, type, created_at, updated_at FROM application ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

func (s *SQLStore) Get(ctx context.Context, id int64) (*Application, error) {
	var app Application
	err := s.db.GetContext(ctx, &app,
		`SELECT id, name, description, type, created_at, updated_at FROM application WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get application %d: %w", id, err)
	}
	return &app, nil
}

func (s *SQLStore) Create(ctx context.Context, app *Application) error {
	if err := app.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	app.CreatedAt, app.UpdatedAt = now, now
	res, err := s.db.NamedExecContext(ctx,
		`INSERT INTO application (name, description, type, created_at, updated_at)
		 VALUES (:name, :description, :type, :created_at, :updated_at)`, app)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	app.ID, err = res.LastInsertId()
	return err
}

func (s *SQLStore) Update(ctx context.Context, app *Application) error {
	if err := app.Validate(); err != nil {
		return err
	}
	app.UpdatedAt = time.Now().UTC()
	res, err := s.db.NamedExecContext(ctx,
		`UPDATE application SET name = :name, description = :description, type = :type, updated_at = :updated_at
		 WHERE id = :id`, app)
	if err != nil {
		return fmt.Errorf("update application %d: %w", app.ID, err)
	}
	return affected(res)
}

func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM application WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete application %d: %w", id, err)
	}
	return affected(res)
}

func (s *SQLStore) Variables(ctx context.Context, appID int64) ([]Variable, error) {
	if _, err := s.Get(ctx, appID); err != nil {
		return nil, err
	}
	var vars []Variable
	err := s.db.SelectContext(ctx, &vars,
		`SELECT id, application_id, key, value FROM application_variable WHERE application_id = ? ORDER BY id`, appID)
	if err != nil {
		return nil, fmt.Errorf("list variables: %w", err)
	}
	return vars, nil
}

func (s *SQLStore) SetVariable(ctx context.Context, v *Variable) error {
	if _, err := s.Get(ctx, v.ApplicationID); err != nil {
		return err
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO application_variable (application_id, key, value) VALUES (:application_id, :key, :value)
		 ON CONFLICT (application_id, key) DO UPDATE SET value = excluded.value`, v)
	if err != nil {
		return fmt.Errorf("set variable %s: %w", v.Key, err)
	}
	return s.db.GetContext(ctx, &v.ID,
		`SELECT id FROM application_variable WHERE application_id = ? AND key = ?`, v.ApplicationID, v.Key)
}

func (s *SQLStore) Close() error { return s.db.Close() }

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
