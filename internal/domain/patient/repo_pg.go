package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/patients/internal/platform/db"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repoPG struct {
	pool *pgxpool.Pool
}

func NewPGRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, first_name, middle_name, last_name, date_of_birth, status,
	street, city, state, zip_code, country, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (id, first_name, middle_name, last_name, date_of_birth, status,
			street, city, state, zip_code, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+patientCols,
		p.ID, p.FirstName, p.MiddleName, p.LastName, p.DateOfBirth, p.Status,
		p.Street, p.City, p.State, p.ZipCode, p.Country,
	)
	created, err := scanPatient(row)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	*p = *created
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *repoPG) Update(ctx context.Context, id string, u *Update) (*Patient, error) {
	sets, args := updateAssignments(u, func(n int) string { return fmt.Sprintf("$%d", n) })
	sets = append(sets, "updated_at = GREATEST(updated_at, NOW())")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE patients SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), patientCols)
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *repoPG) Delete(ctx context.Context, id string) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `DELETE FROM patients WHERE id = $1 RETURNING `+patientCols, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *repoPG) List(ctx context.Context, order ListOrder) ([]*Patient, error) {
	order, err := order.Normalize()
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY `+order.SQL())
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	items := []*Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repoPG) DeleteAll(ctx context.Context) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients`)
	return err
}

func (r *repoPG) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.FirstName, &p.MiddleName, &p.LastName, &p.DateOfBirth, &p.Status,
		&p.Street, &p.City, &p.State, &p.ZipCode, &p.Country, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// updateAssignments renders "col = <placeholder>" pairs for the set fields of
// u, numbering placeholders from 1.
func updateAssignments(u *Update, placeholder func(int) string) ([]string, []any) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = "+placeholder(len(args)))
	}
	if u.FirstName != nil {
		add("first_name", *u.FirstName)
	}
	if u.MiddleName != nil {
		add("middle_name", *u.MiddleName)
	}
	if u.LastName != nil {
		add("last_name", *u.LastName)
	}
	if u.DateOfBirth != nil {
		add("date_of_birth", *u.DateOfBirth)
	}
	if u.Status != nil {
		add("status", string(*u.Status))
	}
	if u.Street != nil {
		add("street", *u.Street)
	}
	if u.City != nil {
		add("city", *u.City)
	}
	if u.State != nil {
		add("state", *u.State)
	}
	if u.ZipCode != nil {
		add("zip_code", *u.ZipCode)
	}
	if u.Country != nil {
		add("country", *u.Country)
	}
	return sets, args
}
