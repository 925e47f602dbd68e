package filter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamRoundTrip(t *testing.T) {
	cases := []Expression{
		{Column: "status", Operator: OpEq, Value: "pending"},
		{Column: "status", Operator: OpNeq, Value: "rejected"},
		{Column: "quantity", Operator: OpGt, Value: "5"},
		{Column: "unit_price", Operator: OpGte, Value: "10.5"},
		{Column: "quantity", Operator: OpLt, Value: "100"},
		{Column: "unit_price", Operator: OpLte, Value: "99.99"},
		{Column: "name", Operator: OpLike, Value: "para"},
		{Column: "name", Operator: OpIlike, Value: "Para"},
		{Column: "id", Operator: OpIn, Values: []string{"a", "b", "c"}},
	}

	for _, want := range cases {
		got := ParseParam(want.Column, want.WireValue())
		assert.Equal(t, want, got, "operator %s", want.Operator)
	}
}

func TestParseParamPlainValue(t *testing.T) {
	got := ParseParam("status", "pending")
	assert.Equal(t, Expression{Column: "status", Operator: OpEq, Value: "pending"}, got)
}

func TestParseParamUnknownPrefixFallsBackToEq(t *testing.T) {
	// Dotted data with an unrecognized prefix must survive intact.
	got := ParseParam("email", "alice.smith@example.com")
	assert.Equal(t, OpEq, got.Operator)
	assert.Equal(t, "alice.smith@example.com", got.Value)
}

func TestParseParamEmptyInList(t *testing.T) {
	got := ParseParam("id", "in.()")
	assert.Equal(t, OpIn, got.Operator)
	assert.Empty(t, got.Values)
}

func TestClauseScalar(t *testing.T) {
	cond, args := Expression{Column: "quantity", Operator: OpGte, Value: "5"}.Clause()
	assert.Equal(t, "quantity >= ?", cond)
	assert.Equal(t, []interface{}{"5"}, args)
}

func TestClauseLike(t *testing.T) {
	cond, args := Expression{Column: "name", Operator: OpLike, Value: "para"}.Clause()
	assert.Equal(t, "name LIKE ?", cond)
	assert.Equal(t, []interface{}{"%para%"}, args)

	cond, args = Expression{Column: "name", Operator: OpIlike, Value: "Para"}.Clause()
	assert.Equal(t, "LOWER(name) LIKE ?", cond)
	assert.Equal(t, []interface{}{"%para%"}, args)
}

func TestClauseIn(t *testing.T) {
	cond, args := Expression{Column: "id", Operator: OpIn, Values: []string{"a", "b"}}.Clause()
	assert.Equal(t, "id IN (?,?)", cond)
	assert.Equal(t, []interface{}{"a", "b"}, args)
}

func TestNormalizeValue(t *testing.T) {
	assert.Equal(t, "2025-01-02 10:30:00", NormalizeValue("2025-01-02T10:30:00.123Z"))
	assert.Equal(t, "2025-01-02 10:30:00", NormalizeValue("2025-01-02T10:30:00Z"))
	assert.Equal(t, "2025-01-02 10:30:00", NormalizeValue("2025-01-02T10:30:00+05:00"))
	// Non-timestamps pass through untouched.
	assert.Equal(t, "hello", NormalizeValue("hello"))
	assert.Equal(t, "2025-01-02", NormalizeValue("2025-01-02"))
	assert.Equal(t, "10.5", NormalizeValue("10.5"))
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("inventory"))
	assert.True(t, ValidName("sale_items"))
	assert.True(t, ValidName("Inventory")) // case-insensitive
	assert.False(t, ValidName("inventory; DROP TABLE sales"))
	assert.False(t, ValidName("inventory name"))
	assert.False(t, ValidName(""))
}

func TestTranslateRangeQuery(t *testing.T) {
	tbl, ok := Lookup("inventory")
	require.True(t, ok)

	params := url.Values{}
	params.Add("unit_price", "gte.10")
	params.Add("unit_price", "lte.20")

	tr, err := Translate(tbl, params)
	require.NoError(t, err)
	require.Len(t, tr.Conditions, 2)

	cond, args := tr.Where()
	assert.Equal(t, "unit_price >= ? AND unit_price <= ?", cond)
	assert.Equal(t, []interface{}{"10", "20"}, args)
}

func TestTranslateDefaultOrder(t *testing.T) {
	tbl, _ := Lookup("inventory")

	tr, err := Translate(tbl, url.Values{})
	require.NoError(t, err)
	assert.Equal(t, "name asc", tr.OrderBy)

	// Explicit order takes precedence over the per-table default.
	tr, err = Translate(tbl, url.Values{"order": {"quantity.desc"}})
	require.NoError(t, err)
	assert.Equal(t, "quantity desc", tr.OrderBy)
}

func TestTranslateRejectsUnknownColumn(t *testing.T) {
	tbl, _ := Lookup("inventory")

	_, err := Translate(tbl, url.Values{"password": {"eq.x"}})
	assert.Error(t, err)

	_, err = Translate(tbl, url.Values{"select": {"id,password"}})
	assert.Error(t, err)

	_, err = Translate(tbl, url.Values{"order": {"nope.asc"}})
	assert.Error(t, err)
}

func TestTranslateModifiers(t *testing.T) {
	tbl, _ := Lookup("sales")

	tr, err := Translate(tbl, url.Values{
		"select": {"id,total"},
		"limit":  {"10"},
		"offset": {"20"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "total"}, tr.Columns)
	assert.Equal(t, 10, tr.Limit)
	assert.Equal(t, 20, tr.Offset)

	_, err = Translate(tbl, url.Values{"limit": {"abc"}})
	assert.Error(t, err)
	_, err = Translate(tbl, url.Values{"order": {"total.sideways"}})
	assert.Error(t, err)
}

func TestShapeRowSynthesizesSKU(t *testing.T) {
	tbl, _ := Lookup("inventory")

	row := map[string]interface{}{
		"name": "Paracetamol", "category": "Tablets", "sku": "",
		"unit_price": []byte("12.50"),
	}
	tbl.ShapeRow(row)

	assert.NotEmpty(t, row["sku"])
	assert.Contains(t, row["sku"], "PH-TA-PAR-")
	assert.Equal(t, 12.5, row["unit_price"])
}

func TestShapeRowKeepsExistingSKU(t *testing.T) {
	tbl, _ := Lookup("inventory")

	row := map[string]interface{}{"sku": "PH-TA-PAR-AAAA", "unit_price": int64(10)}
	tbl.ShapeRow(row)

	assert.Equal(t, "PH-TA-PAR-AAAA", row["sku"])
	assert.Equal(t, 10.0, row["unit_price"])
}
