package patient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// sqliteTime is fixed width so stored values order correctly as text.
const sqliteTime = "2006-01-02T15:04:05.000000000Z07:00"

const sqliteSchema = `CREATE TABLE IF NOT EXISTS patients (
	id TEXT PRIMARY KEY,
	first_name TEXT NOT NULL,
	middle_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL,
	date_of_birth TEXT,
	status TEXT NOT NULL DEFAULT 'Inquiry'
		CHECK (status IN ('Inquiry', 'Onboarding', 'Active', 'Churned')),
	street TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	state TEXT NOT NULL DEFAULT '',
	zip_code TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT 'United States',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

type repoSQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database file at path and
// ensures the patients table exists.
func OpenSQLite(path string) (*sql.DB, error) {
	if path == "" {
		path = "patients.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create patients table: %w", err)
	}
	return db, nil
}

func NewSQLiteRepo(db *sql.DB) Repository {
	return &repoSQLite{db: db, now: time.Now}
}

func (r *repoSQLite) stamp() string {
	return r.now().UTC().Format(sqliteTime)
}

func (r *repoSQLite) Create(ctx context.Context, p *Patient) error {
	now := r.stamp()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO patients (id, first_name, middle_name, last_name, date_of_birth, status,
			street, city, state, zip_code, country, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+patientCols,
		p.ID, p.FirstName, p.MiddleName, p.LastName, formatDOB(p.DateOfBirth), string(p.Status),
		p.Street, p.City, p.State, p.ZipCode, p.Country, now, now,
	)
	created, err := scanSQLitePatient(row)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	*p = *created
	return nil
}

func (r *repoSQLite) GetByID(ctx context.Context, id string) (*Patient, error) {
	p, err := scanSQLitePatient(r.db.QueryRowContext(ctx, `SELECT `+patientCols+` FROM patients WHERE id = ?`, id))
	if err != nil {
		return nil, sqliteNotFound(err)
	}
	return p, nil
}

func (r *repoSQLite) Update(ctx context.Context, id string, u *Update) (*Patient, error) {
	sets, args := updateAssignments(u, func(int) string { return "?" })
	// date_of_birth is stored as text.
	for i, a := range args {
		if t, ok := a.(time.Time); ok {
			args[i] = t.UTC().Format(sqliteTime)
		}
	}
	sets = append(sets, "updated_at = MAX(updated_at, ?)")
	args = append(args, r.stamp(), id)

	query := fmt.Sprintf(`UPDATE patients SET %s WHERE id = ? RETURNING %s`, strings.Join(sets, ", "), patientCols)
	p, err := scanSQLitePatient(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, sqliteNotFound(err)
	}
	return p, nil
}

func (r *repoSQLite) Delete(ctx context.Context, id string) (*Patient, error) {
	p, err := scanSQLitePatient(r.db.QueryRowContext(ctx, `DELETE FROM patients WHERE id = ? RETURNING `+patientCols, id))
	if err != nil {
		return nil, sqliteNotFound(err)
	}
	return p, nil
}

func (r *repoSQLite) List(ctx context.Context, order ListOrder) ([]*Patient, error) {
	order, err := order.Normalize()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+patientCols+` FROM patients ORDER BY `+order.SQL())
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []*Patient{}
	for rows.Next() {
		p, err := scanSQLitePatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repoSQLite) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM patients`)
	return err
}

func (r *repoSQLite) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func sqliteNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLitePatient(row rowScanner) (*Patient, error) {
	var (
		p                Patient
		status           string
		dob              sql.NullString
		created, updated string
	)
	err := row.Scan(
		&p.ID, &p.FirstName, &p.MiddleName, &p.LastName, &dob, &status,
		&p.Street, &p.City, &p.State, &p.ZipCode, &p.Country, &created, &updated,
	)
	if err != nil {
		return nil, err
	}
	p.Status = Status(status)
	if dob.Valid && dob.String != "" {
		t, err := time.Parse(sqliteTime, dob.String)
		if err != nil {
			return nil, fmt.Errorf("parse date_of_birth: %w", err)
		}
		p.DateOfBirth = &t
	}
	if p.CreatedAt, err = time.Parse(sqliteTime, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(sqliteTime, updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &p, nil
}

func formatDOB(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(sqliteTime)
}
