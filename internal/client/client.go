// Package client is the fluent, local-first data client the UI layers use
// instead of hand-building requests against the generic table API. A query
// is built incrementally, executed exactly once, and always resolves to a
// {Data, Error} result - server-reported failures come back in the result,
// never as a Go error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go-pharmacy-pos/internal/filter"
	"go-pharmacy-pos/internal/utils"
)

// Error is a server-reported or transport failure attached to a Result.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *Error) Error() string { return e.Message }

// Result is the outcome of every execution. Callers must check Error; it is
// never nil on failure and always nil on success.
type Result struct {
	Data   []map[string]interface{}
	Error  *Error
	Status int
}

// Client talks to one server instance with one bearer token.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// New builds a client. The default HTTP client has no timeout; interactive
// callers should pass a context deadline to Execute instead.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{},
	}
}

// From starts a query against a named table. Builders are single-use: build,
// execute once, throw away.
func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table, action: actionSelect, limit: -1}
}

type action int

const (
	actionSelect action = iota
	actionInsert
	actionUpdate
	actionDelete
)

// Query accumulates filters, projection, ordering and limit, then executes
// once. The action calls are mutually exclusive; the last one wins.
type Query struct {
	client   *Client
	table    string
	action   action
	payload  map[string]interface{}
	filters  []filter.Expression
	columns  []string
	orderCol string
	orderAsc bool
	hasOrder bool
	limit    int
	single   bool
	executed bool
}

// Select sets a column projection (read action).
func (q *Query) Select(columns ...string) *Query {
	q.action = actionSelect
	q.columns = columns
	return q
}

// Insert stages a row write. If the row has no id, one is generated
// client-side so optimistic UI updates can reference it before the
// round-trip completes.
func (q *Query) Insert(row map[string]interface{}) *Query {
	q.action = actionInsert
	q.payload = row
	return q
}

// Update stages a patch; combine with filters to choose the rows.
func (q *Query) Update(patch map[string]interface{}) *Query {
	q.action = actionUpdate
	q.payload = patch
	return q
}

// Delete stages a delete; the server rejects it without at least one filter.
func (q *Query) Delete() *Query {
	q.action = actionDelete
	return q
}

func (q *Query) addFilter(col string, op filter.Operator, value string) *Query {
	q.filters = append(q.filters, filter.Expression{Column: col, Operator: op, Value: value})
	return q
}

// Calling the same column twice with different operators is intentional:
// both apply, AND-combined (range queries use Gte + Lte on one column).
func (q *Query) Eq(col, v string) *Query    { return q.addFilter(col, filter.OpEq, v) }
func (q *Query) Neq(col, v string) *Query   { return q.addFilter(col, filter.OpNeq, v) }
func (q *Query) Gt(col, v string) *Query    { return q.addFilter(col, filter.OpGt, v) }
func (q *Query) Gte(col, v string) *Query   { return q.addFilter(col, filter.OpGte, v) }
func (q *Query) Lt(col, v string) *Query    { return q.addFilter(col, filter.OpLt, v) }
func (q *Query) Lte(col, v string) *Query   { return q.addFilter(col, filter.OpLte, v) }
func (q *Query) Like(col, v string) *Query  { return q.addFilter(col, filter.OpLike, v) }
func (q *Query) Ilike(col, v string) *Query { return q.addFilter(col, filter.OpIlike, v) }

// In matches any of the values. Values must not contain commas or
// parentheses; the wire format does no escaping.
func (q *Query) In(col string, values ...string) *Query {
	q.filters = append(q.filters, filter.Expression{Column: col, Operator: filter.OpIn, Values: values})
	return q
}

// Order sets the sort column and direction.
func (q *Query) Order(col string, ascending bool) *Query {
	q.orderCol = col
	q.orderAsc = ascending
	q.hasOrder = true
	return q
}

// Limit caps the row count.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Single asks for exactly one row; Execute fails the result if none match.
func (q *Query) Single() *Query {
	q.single = true
	q.limit = 1
	return q
}

// Execute performs the network call. It runs at most once per builder: a
// second call is a programmer error and yields an error result without
// touching the network.
func (q *Query) Execute(ctx context.Context) Result {
	if q.executed {
		return Result{Error: &Error{Message: "query already executed; build a fresh one"}}
	}
	q.executed = true

	var body io.Reader
	method := http.MethodGet
	switch q.action {
	case actionInsert:
		method = http.MethodPost
		if q.payload == nil {
			q.payload = map[string]interface{}{}
		}
		if id, _ := q.payload["id"].(string); id == "" {
			q.payload["id"] = utils.NewID()
		}
	case actionUpdate:
		method = http.MethodPatch
	case actionDelete:
		method = http.MethodDelete
	}
	if q.payload != nil && q.action != actionDelete && q.action != actionSelect {
		b, err := json.Marshal(q.payload)
		if err != nil {
			return Result{Error: &Error{Message: "invalid payload: " + err.Error()}}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.buildURL(), body)
	if err != nil {
		return Result{Error: &Error{Message: err.Error()}}
	}
	req.Header.Set("Content-Type", "application/json")
	if q.client.Token != "" {
		req.Header.Set("Authorization", "Bearer "+q.client.Token)
	}

	resp, err := q.client.HTTPClient.Do(req)
	if err != nil {
		// Network failure is an expected failure mode, not a panic.
		return Result{Error: &Error{Message: err.Error()}}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Error: &Error{Message: err.Error()}, Status: resp.StatusCode}
	}

	if resp.StatusCode >= 400 {
		var serverErr struct {
			Error string `json:"error"`
		}
		msg := string(raw)
		if json.Unmarshal(raw, &serverErr) == nil && serverErr.Error != "" {
			msg = serverErr.Error
		}
		return Result{Error: &Error{Message: msg, Status: resp.StatusCode}, Status: resp.StatusCode}
	}

	data, err := decodeRows(raw)
	if err != nil {
		return Result{Error: &Error{Message: err.Error(), Status: resp.StatusCode}, Status: resp.StatusCode}
	}
	if q.single {
		if len(data) == 0 {
			return Result{Error: &Error{Message: "no rows found", Status: resp.StatusCode}, Status: resp.StatusCode}
		}
		data = data[:1]
	}
	return Result{Data: data, Status: resp.StatusCode}
}

func (q *Query) buildURL() string {
	params := url.Values{}
	for _, f := range q.filters {
		params.Add(f.Column, f.WireValue())
	}
	if len(q.columns) > 0 {
		cols := q.columns[0]
		for _, c := range q.columns[1:] {
			cols += "," + c
		}
		params.Set("select", cols)
	}
	if q.hasOrder {
		dir := "desc"
		if q.orderAsc {
			dir = "asc"
		}
		params.Set("order", q.orderCol+"."+dir)
	}
	if q.limit >= 0 {
		params.Set("limit", strconv.Itoa(q.limit))
	}

	u := q.client.BaseURL + "/api/" + q.table
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// decodeRows accepts either a row array (reads) or a single object
// (write acknowledgments), normalizing both into a row slice.
func decodeRows(raw []byte) ([]map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []map[string]interface{}{}, nil
	}
	if trimmed[0] == '[' {
		var rows []map[string]interface{}
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, err
		}
		return rows, nil
	}
	var row map[string]interface{}
	if err := json.Unmarshal(trimmed, &row); err != nil {
		return nil, err
	}
	return []map[string]interface{}{row}, nil
}
