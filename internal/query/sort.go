package query

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ehr/patients/internal/domain/patient"
)

// Field is a sortable column.
type Field string

const (
	SortByName        Field = "firstName"
	SortByDateOfBirth Field = "dateOfBirth"
	SortByStatus      Field = "status"
	SortByCreatedAt   Field = "createdAt"
)

func ParseSortField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "name", "firstname":
		return SortByName, nil
	case "dob", "dateofbirth", "birthdate":
		return SortByDateOfBirth, nil
	case "status":
		return SortByStatus, nil
	case "created", "createdat":
		return SortByCreatedAt, nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

type Direction int

const (
	None Direction = iota
	Asc
	Desc
)

// Next cycles None -> Asc -> Desc -> None.
func (d Direction) Next() Direction {
	switch d {
	case None:
		return Asc
	case Asc:
		return Desc
	default:
		return None
	}
}

func (d Direction) String() string {
	switch d {
	case Asc:
		return "asc"
	case Desc:
		return "desc"
	default:
		return "none"
	}
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return None, fmt.Errorf("unknown sort direction %q", s)
}

// Order is a sort directive. The zero value leaves records unsorted.
type Order struct {
	Field     Field
	Direction Direction
}

// Toggle returns the order after clicking field's header: the same field
// advances its direction, a different field starts ascending.
func (o Order) Toggle(field Field) Order {
	if o.Field == field {
		return Order{Field: field, Direction: o.Direction.Next()}
	}
	return Order{Field: field, Direction: Asc}
}

// Sort returns a stably sorted copy of records. Ties keep their input
// order in both directions, and Direction None returns the input order.
func Sort(records []patient.Patient, o Order) []patient.Patient {
	out := slices.Clone(records)
	if o.Direction == None {
		return out
	}
	compare := comparator(o.Field)
	if compare == nil {
		return out
	}
	slices.SortStableFunc(out, func(a, b patient.Patient) int {
		c := compare(&a, &b)
		if o.Direction == Desc {
			return -c
		}
		return c
	})
	return out
}

func comparator(f Field) func(a, b *patient.Patient) int {
	switch f {
	case SortByName:
		return func(a, b *patient.Patient) int {
			return cmp.Compare(nameKey(a), nameKey(b))
		}
	case SortByStatus:
		return func(a, b *patient.Patient) int {
			return cmp.Compare(strings.ToLower(string(a.Status)), strings.ToLower(string(b.Status)))
		}
	case SortByDateOfBirth:
		return func(a, b *patient.Patient) int {
			return compareTimes(a.DateOfBirth, b.DateOfBirth)
		}
	case SortByCreatedAt:
		return func(a, b *patient.Patient) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	return nil
}

func nameKey(p *patient.Patient) string {
	return strings.ToLower(p.FirstName + " " + p.LastName)
}

// compareTimes orders missing values first.
func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}
