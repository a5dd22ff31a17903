package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/ehr/patients/internal/domain/patient"
)

const dateLayout = "2006-01-02"

// DateRange is an optional inclusive [From, To] bound on an instant.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r DateRange) IsZero() bool {
	return r.From == nil && r.To == nil
}

// Contains reports whether t lies within the range. A nil t only satisfies
// an empty range.
func (r DateRange) Contains(t *time.Time) bool {
	if r.IsZero() {
		return true
	}
	if t == nil {
		return false
	}
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// ParseFrom parses a lower bound. A bare date means the start of that day
// in loc; anything else must be RFC 3339.
func ParseFrom(s string, loc *time.Location) (*time.Time, error) {
	return parseBound(s, loc, false)
}

// ParseTo parses an upper bound. A bare date covers the whole day, so the
// bound is the last instant of that day in loc.
func ParseTo(s string, loc *time.Location) (*time.Time, error) {
	return parseBound(s, loc, true)
}

func parseBound(s string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	if d, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		if endOfDay {
			d = d.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return &d, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return &t, nil
}

// Filters narrows the record set. Zero-valued fields do not filter.
type Filters struct {
	Name        string
	City        string
	State       string
	Status      patient.Status
	DateOfBirth DateRange
	CreatedAt   DateRange
}

func (f Filters) IsZero() bool {
	return f.Name == "" && f.City == "" && f.State == "" && f.Status == "" &&
		f.DateOfBirth.IsZero() && f.CreatedAt.IsZero()
}

// Clear resets every filter.
func (f *Filters) Clear() {
	*f = Filters{}
}

// Tag keys accepted by Remove.
const (
	TagName        = "name"
	TagCity        = "city"
	TagState       = "state"
	TagStatus      = "status"
	TagDateOfBirth = "dateOfBirth"
	TagCreatedAt   = "createdAt"
)

// Remove resets the single filter identified by key.
func (f *Filters) Remove(key string) error {
	switch key {
	case TagName:
		f.Name = ""
	case TagCity:
		f.City = ""
	case TagState:
		f.State = ""
	case TagStatus:
		f.Status = ""
	case TagDateOfBirth:
		f.DateOfBirth = DateRange{}
	case TagCreatedAt:
		f.CreatedAt = DateRange{}
	default:
		return fmt.Errorf("unknown filter %q", key)
	}
	return nil
}

// Tag describes one active filter for display.
type Tag struct {
	Key   string
	Label string
	Value string
}

func (t Tag) String() string {
	return t.Label + ": " + t.Value
}

// Tags lists the active filters in display order.
func (f Filters) Tags() []Tag {
	var tags []Tag
	if f.Name != "" {
		tags = append(tags, Tag{TagName, "Name", f.Name})
	}
	if f.City != "" {
		tags = append(tags, Tag{TagCity, "City", f.City})
	}
	if f.State != "" {
		tags = append(tags, Tag{TagState, "State", f.State})
	}
	if f.Status != "" {
		tags = append(tags, Tag{TagStatus, "Status", string(f.Status)})
	}
	if !f.DateOfBirth.IsZero() {
		tags = append(tags, Tag{TagDateOfBirth, "Birth Date", FormatRange(f.DateOfBirth)})
	}
	if !f.CreatedAt.IsZero() {
		tags = append(tags, Tag{TagCreatedAt, "Created", FormatRange(f.CreatedAt)})
	}
	return tags
}

// FormatRange renders a range as "from - to", "From x" or "Until y".
func FormatRange(r DateRange) string {
	switch {
	case r.From != nil && r.To != nil:
		return formatDate(*r.From) + " - " + formatDate(*r.To)
	case r.From != nil:
		return "From " + formatDate(*r.From)
	case r.To != nil:
		return "Until " + formatDate(*r.To)
	}
	return ""
}

func formatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}
