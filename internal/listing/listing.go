// Package listing is the state behind the patient table: search term,
// filters, sort and page. Any change to what is shown sends the view back
// to the first page.
package listing

import (
	"github.com/ehr/patients/internal/domain/patient"
	"github.com/ehr/patients/internal/query"
	"github.com/ehr/patients/pkg/pagination"
)

// Source supplies the current records. *recordstore.Store satisfies it.
type Source interface {
	Records() []patient.Patient
}

type Listing struct {
	src      Source
	search   string
	filters  query.Filters
	order    query.Order
	page     int
	pageSize int
}

func New(src Source, pageSize int) *Listing {
	return &Listing{
		src:      src,
		order:    query.Order{Field: query.SortByName},
		page:     1,
		pageSize: normPageSize(pageSize),
	}
}

func (l *Listing) Search() string         { return l.search }
func (l *Listing) Filters() query.Filters { return l.filters }
func (l *Listing) Order() query.Order     { return l.order }

func (l *Listing) SetSearch(term string) {
	l.search = term
	l.page = 1
}

func (l *Listing) SetFilters(f query.Filters) {
	l.filters = f
	l.page = 1
}

// RemoveFilter clears a single filter by tag key.
func (l *Listing) RemoveFilter(key string) error {
	if err := l.filters.Remove(key); err != nil {
		return err
	}
	l.page = 1
	return nil
}

// ClearFilters resets every filter and the search term.
func (l *Listing) ClearFilters() {
	l.filters.Clear()
	l.search = ""
	l.page = 1
}

func (l *Listing) SetOrder(o query.Order) {
	l.order = o
	l.page = 1
}

// ToggleSort advances the sort for field as a column header click would.
func (l *Listing) ToggleSort(field query.Field) query.Order {
	l.SetOrder(l.order.Toggle(field))
	return l.order
}

func (l *Listing) SetPageSize(n int) {
	l.pageSize = normPageSize(n)
	l.page = 1
}

// PageSize is the size View pages by.
func (l *Listing) PageSize() int { return l.pageSize }

// normPageSize applies the same bounds as pagination.Params.Normalize.
func normPageSize(n int) int {
	switch {
	case n < 1:
		return pagination.DefaultPageSize
	case n > pagination.MaxPageSize:
		return pagination.MaxPageSize
	}
	return n
}

// SetPage moves to page n; View clamps it to the available range.
func (l *Listing) SetPage(n int) {
	l.page = n
}

func (l *Listing) NextPage()     { l.page++ }
func (l *Listing) PreviousPage() { l.page-- }

// View computes the current page from the source's records.
func (l *Listing) View() pagination.Result[patient.Patient] {
	visible := query.Visible(l.src.Records(), l.search, l.filters, l.order)
	res := pagination.Paginate(visible, pagination.Params{Page: l.page, PageSize: l.pageSize})
	l.page = res.Page
	return res
}
