package pagination

import (
	"slices"
	"testing"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		count, size, want int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{5, 0, 1},
	}
	for _, tc := range cases {
		if got := TotalPages(tc.count, tc.size); got != tc.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tc.count, tc.size, got, tc.want)
		}
	}
}

func TestPage_Basic(t *testing.T) {
	items, total := Page(seq(25), 10, 3)
	if total != 3 {
		t.Errorf("expected 3 pages, got %d", total)
	}
	if !slices.Equal(items, []int{20, 21, 22, 23, 24}) {
		t.Errorf("unexpected last page: %v", items)
	}
}

func TestPage_Empty(t *testing.T) {
	items, total := Page([]string{}, 10, 1)
	if total != 1 {
		t.Errorf("expected 1 page for empty input, got %d", total)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %v", items)
	}
}

func TestPage_ClampsOutOfRange(t *testing.T) {
	items, _ := Page(seq(25), 10, 99)
	if items[0] != 20 {
		t.Errorf("expected page past the end to clamp to the last page, got %v", items)
	}
	items, _ = Page(seq(25), 10, -4)
	if items[0] != 0 {
		t.Errorf("expected negative page to clamp to the first page, got %v", items)
	}
}

func TestPage_InvalidSizeFallsBack(t *testing.T) {
	items, total := Page(seq(25), 0, 1)
	if len(items) != DefaultPageSize || total != 3 {
		t.Errorf("expected default page size, got %d items / %d pages", len(items), total)
	}
}

func TestPage_ReconstructsSequence(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 11, 57} {
		for size := 1; size <= 12; size++ {
			src := seq(n)
			_, total := Page(src, size, 1)
			var joined []int
			for i := 1; i <= total; i++ {
				page, _ := Page(src, size, i)
				joined = append(joined, page...)
			}
			if !slices.Equal(joined, src) && !(n == 0 && len(joined) == 0) {
				t.Fatalf("n=%d size=%d: pages do not rebuild input: %v", n, size, joined)
			}
		}
	}
}

func TestPage_DoesNotAliasAppend(t *testing.T) {
	src := seq(20)
	page, _ := Page(src, 10, 1)
	page = append(page, 99)
	if src[10] != 10 {
		t.Error("append to a page must not overwrite the next page")
	}
}

func TestParams_Offset(t *testing.T) {
	p := Params{Page: 3, PageSize: 10}
	if p.Offset() != 20 {
		t.Errorf("expected offset 20, got %d", p.Offset())
	}
}

func TestParams_NormalizeCapsSize(t *testing.T) {
	p := Params{Page: 1, PageSize: 1000}.Normalize(5)
	if p.PageSize != MaxPageSize {
		t.Errorf("expected page size capped at %d, got %d", MaxPageSize, p.PageSize)
	}
}

func TestPaginate(t *testing.T) {
	r := Paginate(seq(25), Params{Page: 2, PageSize: 10})
	if r.Page != 2 || r.TotalPages != 3 || r.Total != 25 || len(r.Items) != 10 {
		t.Errorf("unexpected result: %+v", r)
	}
	if !r.HasNext() || !r.HasPrevious() {
		t.Error("expected middle page to have both neighbours")
	}

	r = Paginate(seq(3), Params{Page: 7})
	if r.Page != 1 || r.PageSize != DefaultPageSize || r.HasNext() || r.HasPrevious() {
		t.Errorf("unexpected result: %+v", r)
	}
}
