package store

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dmitrijs2005/adminconsole/internal/client/models"
)

// Query describes a derived view of a collection.
type Query struct {
	Filter       string
	SearchFields []string

	SortField string
	Desc      bool

	// Page is 0-based. PageSize <= 0 disables pagination.
	Page     int
	PageSize int
}

// Page is one page of a derived view.
type Page struct {
	Items       []models.Entity
	TotalCount  int
	CurrentPage int
	TotalPages  int
}

// Derive filters, sorts and paginates items. It does not modify items.
// CurrentPage is clamped into the valid range.
func Derive(items []models.Entity, q Query) Page {
	out := Filter(items, q.Filter, q.SearchFields)
	Sort(out, q.SortField, q.Desc)

	p := Page{TotalCount: len(out)}
	if q.PageSize <= 0 {
		p.Items = out
		if len(out) > 0 {
			p.TotalPages = 1
		}
		return p
	}

	p.TotalPages = (len(out) + q.PageSize - 1) / q.PageSize
	p.CurrentPage = max(0, min(q.Page, p.TotalPages-1))
	start := p.CurrentPage * q.PageSize
	end := min(start+q.PageSize, len(out))
	p.Items = out[start:end]
	return p
}

// Filter keeps the entities where any search field contains the trimmed
// needle, ignoring case. An empty needle keeps everything.
func Filter(items []models.Entity, needle string, fields []string) []models.Entity {
	needle = strings.ToLower(strings.TrimSpace(needle))
	out := make([]models.Entity, 0, len(items))
	for _, e := range items {
		if needle == "" || matches(e, needle, fields) {
			out = append(out, e.Clone())
		}
	}
	return out
}

func matches(e models.Entity, needle string, fields []string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(e.Get(f)), needle) {
			return true
		}
	}
	return false
}

var (
	colMu sync.Mutex
	col   = collate.New(language.Und, collate.IgnoreCase)
)

// Sort orders items in place by field using locale-aware comparison. The
// order field compares numerically. Ties keep their relative order.
func Sort(items []models.Entity, field string, desc bool) {
	if field == "" {
		return
	}
	colMu.Lock()
	defer colMu.Unlock()

	slices.SortStableFunc(items, func(a, b models.Entity) int {
		var c int
		if field == models.OrderField {
			c = cmp.Compare(a.Order, b.Order)
		} else {
			c = col.CompareString(a.Get(field), b.Get(field))
		}
		if desc {
			return -c
		}
		return c
	})
}

// Viewer holds the view state of one list screen.
type Viewer struct {
	mu sync.Mutex
	q  Query
}

// NewViewer returns a viewer sorted ascending by sortField.
func NewViewer(searchFields []string, sortField string, pageSize int) *Viewer {
	return &Viewer{q: Query{
		SearchFields: slices.Clone(searchFields),
		SortField:    sortField,
		PageSize:     pageSize,
	}}
}

// SetFilter sets the search term and returns to the first page.
func (v *Viewer) SetFilter(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.q.Filter = term
	v.q.Page = 0
}

// SetSort sorts by field. Selecting the current field again flips the
// direction; a new field starts ascending. The page resets to the first.
func (v *Viewer) SetSort(field string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.q.SortField == field {
		v.q.Desc = !v.q.Desc
	} else {
		v.q.SortField = field
		v.q.Desc = false
	}
	v.q.Page = 0
}

func (v *Viewer) SetPage(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.q.Page = max(0, n)
}

func (v *Viewer) Query() Query {
	v.mu.Lock()
	defer v.mu.Unlock()
	q := v.q
	q.SearchFields = slices.Clone(v.q.SearchFields)
	return q
}

// View derives the current page of items.
func (v *Viewer) View(items []models.Entity) Page {
	return Derive(items, v.Query())
}
