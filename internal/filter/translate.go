package filter

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// Table and column names cannot be bound as placeholders, so this allow-list
// regex is the primary injection defense before anything is interpolated.
var nameRE = regexp.MustCompile(`(?i)^[a-z0-9_]+$`)

// ValidName reports whether s is safe to interpolate as an identifier.
func ValidName(s string) bool {
	return nameRE.MatchString(s)
}

// isoRE matches the leading date-time portion of an ISO-8601 timestamp.
var isoRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(:\d{2})?`)

// NormalizeValue rewrites ISO-8601 timestamps ("2025-01-02T10:30:00.123Z")
// into the space-separated datetime literal the store expects, dropping the
// zone and fractional-second suffix. Anything else passes through unchanged.
func NormalizeValue(v string) string {
	if !isoRE.MatchString(v) {
		return v
	}
	v = strings.Replace(v, "T", " ", 1)
	if i := strings.IndexAny(v, ".Z+"); i >= 0 {
		v = v[:i]
	}
	return v
}

// Reserved query parameters that are modifiers, not filters.
func reserved(key string) bool {
	switch key {
	case "select", "order", "limit", "offset":
		return true
	}
	return false
}

// Translation is the decoded form of a request's query string.
type Translation struct {
	Filters    []Expression
	Conditions []string
	Args       []interface{}
	Columns    []string
	OrderBy    string
	Limit      int
	Offset     int
}

// Translate decodes the query string against a registered table, producing
// parameterized predicates. Unknown columns and malformed modifiers are
// rejected so nothing unvetted reaches the SQL layer.
func Translate(tbl *Table, params url.Values) (*Translation, error) {
	tr := &Translation{Limit: -1, Offset: -1}

	// Stable iteration keeps generated SQL deterministic for a given URL.
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if reserved(key) {
			continue
		}
		if !ValidName(key) || !tbl.HasColumn(key) {
			return nil, fmt.Errorf("unknown column: %s", key)
		}
		// The same column may appear twice (gte + lte range queries);
		// every occurrence is applied, AND-combined.
		for _, raw := range params[key] {
			expr := ParseParam(key, raw)
			cond, args := expr.Clause()
			tr.Filters = append(tr.Filters, expr)
			tr.Conditions = append(tr.Conditions, cond)
			tr.Args = append(tr.Args, args...)
		}
	}

	if sel := params.Get("select"); sel != "" && sel != "*" {
		for _, col := range strings.Split(sel, ",") {
			col = strings.TrimSpace(col)
			if !ValidName(col) || !tbl.HasColumn(col) {
				return nil, fmt.Errorf("unknown column: %s", col)
			}
			tr.Columns = append(tr.Columns, col)
		}
	}

	if ord := params.Get("order"); ord != "" {
		col, dir := ord, "asc"
		if i := strings.Index(ord, "."); i > 0 {
			col, dir = ord[:i], ord[i+1:]
		}
		if !ValidName(col) || !tbl.HasColumn(col) {
			return nil, fmt.Errorf("unknown order column: %s", col)
		}
		if dir != "asc" && dir != "desc" {
			return nil, fmt.Errorf("invalid order direction: %s", dir)
		}
		tr.OrderBy = col + " " + dir
	} else if tbl.DefaultOrder != "" {
		// Per-table default-ordering policy; explicit order wins.
		tr.OrderBy = tbl.DefaultOrder
	}

	if raw := params.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid limit: %s", raw)
		}
		tr.Limit = n
	}
	if raw := params.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid offset: %s", raw)
		}
		tr.Offset = n
	}

	return tr, nil
}

// Where joins all predicates into a single AND clause.
func (tr *Translation) Where() (string, []interface{}) {
	return strings.Join(tr.Conditions, " AND "), tr.Args
}

// Apply chains the translation onto a gorm query.
func (tr *Translation) Apply(db *gorm.DB) *gorm.DB {
	if len(tr.Conditions) > 0 {
		cond, args := tr.Where()
		db = db.Where(cond, args...)
	}
	if len(tr.Columns) > 0 {
		db = db.Select(tr.Columns)
	}
	if tr.OrderBy != "" {
		db = db.Order(tr.OrderBy)
	}
	if tr.Limit >= 0 {
		db = db.Limit(tr.Limit)
	}
	if tr.Offset > 0 {
		db = db.Offset(tr.Offset)
	}
	return db
}
