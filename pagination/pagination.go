// Package pagination serves list endpoints with one request/response contract and
// two interchangeable strategies: offset (page x limit) and keyset (cursor).
package pagination

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gautam-ch/KrashiDukan/apperr"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 20
	MaxLimit     = 50
	// MaxPage keeps (page-1)*limit well inside int range.
	MaxPage = 100000
)

type Mode int

const (
	ModeOffset Mode = iota
	ModeKeyset
)

// Key is the position of a row in a (column, id) ordering.
type Key struct {
	Time time.Time
	ID   uint
}

type Cursor struct {
	Cursor   string `json:"cursor"`
	CursorID uint   `json:"cursorId"`
}

func (k Key) Cursor() *Cursor {
	return &Cursor{Cursor: k.Time.UTC().Format(time.RFC3339Nano), CursorID: k.ID}
}

// Params is what a list request asked for.
type Params struct {
	Limit        int
	Page         int
	After        *Key
	IncludeTotal bool
}

// Page is returned next to every paginated list.
type Page struct {
	Limit       int     `json:"limit"`
	HasNextPage bool    `json:"hasNextPage"`
	NextCursor  *Cursor `json:"nextCursor"`
	TotalCount  *int64  `json:"totalCount,omitempty"`
	CurrentPage int     `json:"currentPage,omitempty"`
	TotalPages  int     `json:"totalPages,omitempty"`
}

// Sort is the ordering a list is paginated over; id breaks ties in the same direction.
type Sort struct {
	Column string
	Desc   bool
}

func clampLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n == 0 {
		return DefaultLimit
	}
	if n < 1 {
		return 1
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// ParseQuery reads limit, page, cursor, cursorId and includeTotal.
func ParseQuery(values url.Values) (Params, error) {
	params := Params{Limit: clampLimit(values.Get("limit"))}

	if raw := values.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			page = 1
		}
		if page > MaxPage {
			return params, apperr.Validation("Invalid page", apperr.Fields{"page": "Page cannot exceed 100000"})
		}
		params.Page = page
	}

	cursor := values.Get("cursor")
	cursorID := values.Get("cursorId")
	if cursor != "" && cursorID != "" {
		id, err := strconv.ParseUint(cursorID, 10, 64)
		if err != nil || id == 0 {
			return params, apperr.Validation("Invalid cursor id", apperr.Fields{"cursorId": "Invalid cursor id"})
		}
		at, err := time.Parse(time.RFC3339Nano, cursor)
		if err != nil {
			return params, apperr.Validation("Invalid cursor date", apperr.Fields{"cursor": "Invalid cursor date"})
		}
		params.After = &Key{Time: at.UTC(), ID: uint(id)}
	}

	params.IncludeTotal = values.Get("includeTotal") == "true" || cursor == ""
	return params, nil
}

// Strategy picks keyset when a cursor was sent, offset when a page was sent, and
// fallback otherwise.
func (p Params) Strategy(sort Sort, fallback Mode) Strategy {
	if p.Limit < 1 || p.Limit > MaxLimit {
		p.Limit = DefaultLimit
	}
	if p.After != nil {
		return &Keyset{Sort: sort, Size: p.Limit, After: p.After, IncludeTotal: p.IncludeTotal}
	}
	if p.Page > 0 || fallback == ModeOffset {
		page := p.Page
		if page < 1 {
			page = 1
		}
		if page > MaxPage {
			page = MaxPage
		}
		return &Offset{Sort: sort, Size: p.Limit, Number: page}
	}
	return &Keyset{Sort: sort, Size: p.Limit, IncludeTotal: p.IncludeTotal}
}

type Strategy interface {
	limit() int
	wantsTotal() bool
	scope(query *gorm.DB) *gorm.DB
	page(hasNext bool, total int64, last *Key) Page
}

func (s Sort) direction() (string, string) {
	if s.Desc {
		return "DESC", "<"
	}
	return "ASC", ">"
}

func (s Sort) order(query *gorm.DB) *gorm.DB {
	dir, _ := s.direction()
	return query.Order(s.Column + " " + dir).Order("id " + dir)
}

// Offset skips (Number-1)*Size rows and always counts.
type Offset struct {
	Sort   Sort
	Size   int
	Number int
}

func (o *Offset) limit() int       { return o.Size }
func (o *Offset) wantsTotal() bool { return true }

func (o *Offset) scope(query *gorm.DB) *gorm.DB {
	return o.Sort.order(query).Offset((o.Number - 1) * o.Size).Limit(o.Size + 1)
}

func (o *Offset) page(hasNext bool, total int64, _ *Key) Page {
	totalPages := int((total + int64(o.Size) - 1) / int64(o.Size))
	if totalPages < 1 {
		totalPages = 1
	}
	return Page{
		Limit:       o.Size,
		HasNextPage: hasNext,
		TotalCount:  &total,
		CurrentPage: o.Number,
		TotalPages:  totalPages,
	}
}

// Keyset keeps the rows strictly after After in Sort order.
type Keyset struct {
	Sort         Sort
	Size         int
	After        *Key
	IncludeTotal bool
}

func (k *Keyset) limit() int       { return k.Size }
func (k *Keyset) wantsTotal() bool { return k.IncludeTotal }

func (k *Keyset) scope(query *gorm.DB) *gorm.DB {
	if k.After != nil {
		_, op := k.Sort.direction()
		col := k.Sort.Column
		query = query.Where(
			fmt.Sprintf("((%s %s ?) OR (%s = ? AND id %s ?))", col, op, col, op),
			k.After.Time, k.After.Time, k.After.ID,
		)
	}
	return k.Sort.order(query).Limit(k.Size + 1)
}

func (k *Keyset) page(hasNext bool, total int64, last *Key) Page {
	page := Page{Limit: k.Size, HasNextPage: hasNext}
	if hasNext && last != nil {
		page.NextCursor = last.Cursor()
	}
	if k.IncludeTotal {
		page.TotalCount = &total
	}
	return page
}

// Find runs query under strategy. query must already carry the model and filters;
// keyOf reports the sort key of a row.
func Find[T any](query *gorm.DB, strategy Strategy, keyOf func(*T) Key) ([]T, Page, error) {
	base := query.Session(&gorm.Session{})

	var total int64
	if strategy.wantsTotal() {
		if err := base.Count(&total).Error; err != nil {
			return nil, Page{}, err
		}
	}

	rows := make([]T, 0, strategy.limit()+1)
	if err := strategy.scope(base).Find(&rows).Error; err != nil {
		return nil, Page{}, err
	}

	hasNext := len(rows) > strategy.limit()
	if hasNext {
		rows = rows[:strategy.limit()]
	}

	var last *Key
	if len(rows) > 0 {
		key := keyOf(&rows[len(rows)-1])
		last = &key
	}

	return rows, strategy.page(hasNext, total, last), nil
}
