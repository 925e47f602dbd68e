package client

import (
	"context"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"go-pharmacy-pos/internal/database"
	"go-pharmacy-pos/internal/handlers"
	"go-pharmacy-pos/internal/middleware"
	"go-pharmacy-pos/internal/models"
	"go-pharmacy-pos/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// startTestServer runs the real table API over an in-memory store and
// returns a client pointed at it.
func startTestServer(t *testing.T) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	r := gin.New()
	api := r.Group("/api")
	api.Use(middleware.Identity())
	{
		api.GET("/:table", handlers.ListRows)
		api.POST("/:table", handlers.InsertRow)
		api.PATCH("/:table", handlers.UpdateRows)
		api.DELETE("/:table", handlers.DeleteRows)
	}

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(srv.URL, "")
}

func seedItem(t *testing.T, name string, qty int, unitPrice float64) models.InventoryItem {
	t.Helper()
	item := models.InventoryItem{
		ID:        utils.NewID(),
		Name:      name,
		SKU:       utils.GenerateSKU("Tablets", name),
		Category:  "Tablets",
		Quantity:  qty,
		UnitPrice: unitPrice,
		CostPrice: unitPrice / 2,
		CreatedAt: time.Now(),
	}
	require.NoError(t, database.DB.Create(&item).Error)
	return item
}

func TestBuildURLEncodesFiltersAndModifiers(t *testing.T) {
	c := New("http://localhost:8080", "")
	q := c.From("inventory").
		Gte("quantity", "5").
		Lte("quantity", "50").
		In("category", "Tablets", "Syrup").
		Select("id", "name").
		Order("name", true).
		Limit(10)

	u, err := url.Parse(q.buildURL())
	require.NoError(t, err)
	assert.Equal(t, "/api/inventory", u.Path)

	params := u.Query()
	assert.Equal(t, []string{"gte.5", "lte.50"}, params["quantity"])
	assert.Equal(t, "in.(Tablets,Syrup)", params.Get("category"))
	assert.Equal(t, "id,name", params.Get("select"))
	assert.Equal(t, "name.asc", params.Get("order"))
	assert.Equal(t, "10", params.Get("limit"))
}

func TestSelectRoundTrip(t *testing.T) {
	c := startTestServer(t)
	seedItem(t, "Zinc", 3, 20)
	seedItem(t, "Paracetamol", 12, 50)
	seedItem(t, "Amoxicillin", 8, 80)

	res := c.From("inventory").Gte("quantity", "5").Order("name", true).Execute(context.Background())
	require.Nil(t, res.Error)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "Amoxicillin", res.Data[0]["name"])
	assert.Equal(t, "Paracetamol", res.Data[1]["name"])
}

func TestInsertGeneratesClientSideID(t *testing.T) {
	c := startTestServer(t)

	row := map[string]interface{}{
		"name": "Cetirizine", "category": "Tablets", "quantity": 30,
		"unit_price": 40.0, "cost_price": 22.0,
	}
	res := c.From("inventory").Insert(row).Execute(context.Background())
	require.Nil(t, res.Error)

	// The id was assigned before the round-trip and the server kept it.
	id, _ := row["id"].(string)
	require.NotEmpty(t, id)
	require.Len(t, res.Data, 1)
	assert.Equal(t, id, res.Data[0]["id"])

	var item models.InventoryItem
	require.NoError(t, database.DB.First(&item, "id = ?", id).Error)
	assert.Equal(t, "Cetirizine", item.Name)
}

func TestUpdateWithFilter(t *testing.T) {
	c := startTestServer(t)
	item := seedItem(t, "Paracetamol", 10, 50)

	res := c.From("inventory").
		Update(map[string]interface{}{"unit_price": 55.0}).
		Eq("id", item.ID).
		Execute(context.Background())
	require.Nil(t, res.Error)

	var got models.InventoryItem
	require.NoError(t, database.DB.First(&got, "id = ?", item.ID).Error)
	assert.Equal(t, 55.0, got.UnitPrice)
}

func TestDeleteWithoutFilterFailsInResult(t *testing.T) {
	c := startTestServer(t)
	seedItem(t, "Paracetamol", 10, 50)

	res := c.From("inventory").Delete().Execute(context.Background())
	require.NotNil(t, res.Error)
	assert.Equal(t, 400, res.Error.Status)

	var count int64
	database.DB.Model(&models.InventoryItem{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSingleUnwrapsOneRow(t *testing.T) {
	c := startTestServer(t)
	item := seedItem(t, "Paracetamol", 10, 50)

	res := c.From("inventory").Eq("id", item.ID).Single().Execute(context.Background())
	require.Nil(t, res.Error)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "Paracetamol", res.Data[0]["name"])
}

func TestSingleWithNoMatchFailsInResult(t *testing.T) {
	c := startTestServer(t)

	res := c.From("inventory").Eq("id", "no-such-id").Single().Execute(context.Background())
	require.NotNil(t, res.Error)
	assert.Equal(t, "no rows found", res.Error.Message)
}

func TestUnknownTableReadsEmpty(t *testing.T) {
	c := startTestServer(t)

	res := c.From("weird_table").Execute(context.Background())
	require.Nil(t, res.Error)
	assert.Empty(t, res.Data)
}

func TestExecuteIsSingleUse(t *testing.T) {
	c := startTestServer(t)
	q := c.From("inventory")

	first := q.Execute(context.Background())
	require.Nil(t, first.Error)

	second := q.Execute(context.Background())
	require.NotNil(t, second.Error)
	assert.Contains(t, second.Error.Message, "already executed")
}

func TestNetworkFailureComesBackInResult(t *testing.T) {
	c := New("http://127.0.0.1:1", "")

	res := c.From("inventory").Execute(context.Background())
	require.NotNil(t, res.Error)
	assert.Empty(t, res.Data)
}
