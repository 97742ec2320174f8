package bill

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const billColumns = `id, status, amount, date, pct, vat, file_url, file_name,
	email, name, commentary, comment_admin, type`

// SQLiteStore implements Store on a SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at path and applies pending migrations
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(path); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func runMigrations(path string) error {
	// separate connection so closing the migrator leaves the store's pool alone
	migrateDB, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (*Bill, error) {
	var b Bill
	var status string
	err := row.Scan(&b.ID, &status, &b.Amount, &b.Date, &b.Pct, &b.VAT, &b.FileURL,
		&b.FileName, &b.Email, &b.Name, &b.Commentary, &b.CommentAdmin, &b.Type)
	if err != nil {
		return nil, err
	}
	b.Status = Status(status)
	return &b, nil
}

// List returns all bills in insertion order
func (s *SQLiteStore) List(ctx context.Context) ([]*Bill, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+billColumns+` FROM bills ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	bills := make([]*Bill, 0)
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills: %w", err)
	}
	return bills, nil
}

// Get retrieves a bill by ID
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Bill, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+billColumns+` FROM bills WHERE id = ?`, id)
	b, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bill: %w", err)
	}
	return b, nil
}

// Create inserts a new bill. The bill must carry its ID.
func (s *SQLiteStore) Create(ctx context.Context, b *Bill) (*Bill, error) {
	if b.ID == "" {
		return nil, errors.New("bill id is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bills (`+billColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, string(b.Status), b.Amount, b.Date, b.Pct, b.VAT, b.FileURL,
		b.FileName, b.Email, b.Name, b.Commentary, b.CommentAdmin, b.Type)
	if err != nil {
		return nil, fmt.Errorf("insert bill: %w", err)
	}
	return b, nil
}

// Update replaces an existing bill
func (s *SQLiteStore) Update(ctx context.Context, id string, b *Bill) (*Bill, error) {
	b.ID = id
	res, err := s.db.ExecContext(ctx,
		`UPDATE bills SET status = ?, amount = ?, date = ?, pct = ?, vat = ?, file_url = ?,
			file_name = ?, email = ?, name = ?, commentary = ?, comment_admin = ?, type = ?
		 WHERE id = ?`,
		string(b.Status), b.Amount, b.Date, b.Pct, b.VAT, b.FileURL,
		b.FileName, b.Email, b.Name, b.Commentary, b.CommentAdmin, b.Type, id)
	if err != nil {
		return nil, fmt.Errorf("update bill: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update bill: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return b, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
