// Package query turns a bag of recognized request parameters into SQL
// fragments: a WHERE clause with positional arguments, an allow-listed ORDER
// BY, and bounded LIMIT/OFFSET values. It never mutates anything; repositories
// feed its output into their own statements.
package query

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// MaxPerPage caps page size regardless of what the caller asks for.
	MaxPerPage = 100
	// DefaultAdminPerPage is the page size for admin listings.
	DefaultAdminPerPage = 15
	// DefaultPublicPerPage is the page size for public listings.
	DefaultPublicPerPage = 12
)

// Params is the normalized set of listing parameters. Filters holds raw
// recognized key/value pairs; repositories interpret the keys they know and
// ignore the rest.
type Params struct {
	Filters map[string]string
	SortBy  string
	SortDir string
	Page    int
	PerPage int
}

// Filter returns the raw filter value and whether the key was supplied.
func (p Params) Filter(key string) (string, bool) {
	if p.Filters == nil {
		return "", false
	}
	v, ok := p.Filters[key]
	return v, ok
}

// BoolFilter interprets a filter as tri-state: nil when absent or not a
// parseable boolean, otherwise the parsed value. An empty string is treated
// as absent so a dangling `?featured=` never activates the filter.
func (p Params) BoolFilter(key string) *bool {
	raw, ok := p.Filter(key)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

// Normalize clamps paging to sane bounds: page >= 1, per-page within
// [1, MaxPerPage], with def applied when the caller sent nothing.
func (p Params) Normalize(def int) Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = def
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset returns the row offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// OrderBy resolves the requested sort against an allow-list mapping request
// field names to SQL expressions. Anything outside the allow-list falls back
// to fallback silently, never an error.
func (p Params) OrderBy(allowed map[string]string, fallback string) string {
	col, ok := allowed[p.SortBy]
	if !ok {
		return fallback
	}
	dir := "ASC"
	if strings.EqualFold(p.SortDir, "desc") {
		dir = "DESC"
	}
	return col + " " + dir
}

// Meta describes one page of results.
type Meta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PerPage  int   `json:"perPage"`
	LastPage int   `json:"lastPage"`
}

// NewMeta computes pagination metadata for a total row count.
func NewMeta(total int64, page, perPage int) Meta {
	last := int(total) / perPage
	if int(total)%perPage != 0 || last == 0 {
		last++
	}
	return Meta{Total: total, Page: page, PerPage: perPage, LastPage: last}
}

// Builder accumulates WHERE conditions with positional arguments. Conditions
// are written with `?` placeholders and rewritten to `$n` on output.
type Builder struct {
	conds []string
	args  []any
}

// Where appends one condition. Arguments map to `?` placeholders in expr.
func (b *Builder) Where(expr string, args ...any) *Builder {
	b.conds = append(b.conds, expr)
	b.args = append(b.args, args...)
	return b
}

// Clause renders the accumulated conditions as an AND-joined WHERE clause
// (empty string when no condition was added) plus the positional args.
func (b *Builder) Clause() (string, []any) {
	if len(b.conds) == 0 {
		return "", nil
	}
	var sb strings.Builder
	sb.WriteString("WHERE ")
	n := 0
	for i, cond := range b.conds {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		for _, r := range cond {
			if r == '?' {
				n++
				sb.WriteString(fmt.Sprintf("$%d", n))
				continue
			}
			sb.WriteRune(r)
		}
	}
	return sb.String(), b.args
}

// NextArg returns the positional index the next added argument will get.
// Useful when a repository appends its own LIMIT/OFFSET args after the clause.
func (b *Builder) NextArg() int {
	return len(b.args) + 1
}
