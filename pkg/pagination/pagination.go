package pagination

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Params holds a 1-based page index and a page size.
type Params struct {
	Page     int
	PageSize int
}

// Normalize replaces a non-positive size with the default, caps it at
// MaxPageSize, and clamps the page into [1, TotalPages(total, size)].
func (p Params) Normalize(total int) Params {
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	p.Page = Clamp(p.Page, TotalPages(total, p.PageSize))
	return p
}

// Offset returns the index of the first item on the page.
func (p Params) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// TotalPages is ceil(count/size), never less than 1.
func TotalPages(count, size int) int {
	if size < 1 {
		size = DefaultPageSize
	}
	if count <= 0 {
		return 1
	}
	return (count + size - 1) / size
}

// Clamp pins page into [1, totalPages].
func Clamp(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Page returns the items on the given 1-based page together with the page
// count. Out-of-range pages are clamped and a size below 1 falls back to
// DefaultPageSize. The returned slice shares storage with items.
func Page[T any](items []T, size, page int) ([]T, int) {
	if size < 1 {
		size = DefaultPageSize
	}
	total := TotalPages(len(items), size)
	page = Clamp(page, total)

	start := (page - 1) * size
	if start >= len(items) {
		return items[:0:0], total
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end:end], total
}

// Result is one page of a sequence plus its position in the whole.
type Result[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
	Total      int `json:"total"`
}

// Paginate slices items according to p.
func Paginate[T any](items []T, p Params) Result[T] {
	p = p.Normalize(len(items))
	page, totalPages := Page(items, p.PageSize, p.Page)
	return Result[T]{
		Items:      page,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
		Total:      len(items),
	}
}

// HasNext returns true if there are pages after the current one.
func (r Result[T]) HasNext() bool {
	return r.Page < r.TotalPages
}

// HasPrevious returns true if the current page is not the first.
func (r Result[T]) HasPrevious() bool {
	return r.Page > 1
}
