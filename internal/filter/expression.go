// Package filter is the shared filter grammar: the client builder encodes
// expressions into query-string values ("price=gte.100"), the server decodes
// them back and translates them into parameterized SQL predicates.
package filter

import "strings"

type Operator string

const (
	OpEq    Operator = "eq"
	OpNeq   Operator = "neq"
	OpGt    Operator = "gt"
	OpGte   Operator = "gte"
	OpLt    Operator = "lt"
	OpLte   Operator = "lte"
	OpLike  Operator = "like"
	OpIlike Operator = "ilike"
	OpIn    Operator = "in"
)

// Expression is one column/operator/value triple. Multiple expressions on a
// query are AND-combined. Immutable once built.
type Expression struct {
	Column   string
	Operator Operator
	Value    string   // scalar operators
	Values   []string // OpIn only
}

var sqlOps = map[Operator]string{
	OpEq:  "=",
	OpNeq: "!=",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// WireValue encodes the operator-tagged value for the query string.
// OpIn serializes as "in.(v1,v2,...)": values must not contain commas or
// parentheses, no escaping is performed.
func (e Expression) WireValue() string {
	if e.Operator == OpIn {
		return "in.(" + strings.Join(e.Values, ",") + ")"
	}
	return string(e.Operator) + "." + e.Value
}

// ParseParam decodes one query parameter back into an Expression.
// An unrecognized prefix falls back to equality on the full raw value, so
// dotted data (emails, version strings) passes through unmangled.
func ParseParam(column, raw string) Expression {
	idx := strings.Index(raw, ".")
	if idx <= 0 {
		return Expression{Column: column, Operator: OpEq, Value: raw}
	}

	op := Operator(raw[:idx])
	rest := raw[idx+1:]
	switch op {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpLike, OpIlike:
		return Expression{Column: column, Operator: op, Value: rest}
	case OpIn:
		list := strings.TrimSuffix(strings.TrimPrefix(rest, "("), ")")
		values := []string{}
		if list != "" {
			values = strings.Split(list, ",")
		}
		return Expression{Column: column, Operator: OpIn, Values: values}
	default:
		return Expression{Column: column, Operator: OpEq, Value: raw}
	}
}

// Clause renders the expression as a parameterized SQL fragment. Only the
// column name and operator are interpolated, and both are allow-list
// checked before this is called; every value goes through a placeholder.
func (e Expression) Clause() (string, []interface{}) {
	switch e.Operator {
	case OpLike:
		return e.Column + " LIKE ?", []interface{}{"%" + e.Value + "%"}
	case OpIlike:
		// LOWER() on both sides keeps case-insensitive match portable
		// between sqlite and mysql collations.
		return "LOWER(" + e.Column + ") LIKE ?", []interface{}{"%" + strings.ToLower(e.Value) + "%"}
	case OpIn:
		placeholders := make([]string, len(e.Values))
		args := make([]interface{}, len(e.Values))
		for i, v := range e.Values {
			placeholders[i] = "?"
			args[i] = NormalizeValue(v)
		}
		return e.Column + " IN (" + strings.Join(placeholders, ",") + ")", args
	default:
		op, ok := sqlOps[e.Operator]
		if !ok {
			op = "="
		}
		return e.Column + " " + op + " ?", []interface{}{NormalizeValue(e.Value)}
	}
}
