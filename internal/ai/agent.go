package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-pharmacy-pos/internal/audit"
	"go-pharmacy-pos/internal/database"
	"go-pharmacy-pos/internal/events"
	"go-pharmacy-pos/internal/models"
	"go-pharmacy-pos/internal/utils"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// RunAgent answers a back-office question, calling the pharmacy's own data
// layer as tools when the model asks for them.
func RunAgent(userMessage string, apiKey string) (string, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel("gemini-2.0-flash-001")

	today := time.Now().Format("2006-01-02")
	systemPrompt := fmt.Sprintf(`SYSTEM: Today is %s. You are the pharmacy back-office assistant.

	RULES:
	1. UPDATE: If a user asks to update an item by NAME (e.g. "Update Paracetamol price"), you must NOT ask them for the ID. Instead:
	   - Call 'check_inventory' to find the ID.
	   - Call 'update_item_price' using that ID.

	2. READ: If a user asks for PRICE, COST, STOCK, SKU or DETAILS of an item:
	   - You MUST call 'check_inventory' to get the full list.
	   - Then read the JSON to find the specific item and answer the user.
	   - Do NOT say "I cannot get the price". You CAN get it by checking inventory.

	3. SALES: If the user asks for sales/revenue, use 'get_sales_report'.

	USER: %s`, today, userMessage)

	model.Tools = []*genai.Tool{
		{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name:        "check_inventory",
					Description: "Get the full inventory list. Use this to find ANY item details like ID, Name, SKU, Price, Cost, or Stock.",
				},
				{
					Name:        "update_item_price",
					Description: "Update the unit price of a specific inventory item using its ID",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"item_id":   {Type: genai.TypeString, Description: "ID of the inventory item"},
							"new_price": {Type: genai.TypeNumber, Description: "New unit price"},
						},
						Required: []string{"item_id", "new_price"},
					},
				},
				{
					Name:        "create_inventory_item",
					Description: "Add a new item to the pharmacy inventory",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"name":       {Type: genai.TypeString, Description: "Name of the item"},
							"unit_price": {Type: genai.TypeNumber, Description: "Selling price"},
							"cost_price": {Type: genai.TypeNumber, Description: "Cost price"},
							"category":   {Type: genai.TypeString, Description: "Category (Tablets, Syrups, etc)"},
							"quantity":   {Type: genai.TypeInteger, Description: "Initial stock count"},
						},
						Required: []string{"name", "unit_price", "category", "quantity"},
					},
				},
				{
					Name:        "get_sales_report",
					Description: "Get total sales revenue for a date range.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
							"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
						},
						Required: []string{"start_date", "end_date"},
					},
				},
			},
		},
	}

	session := model.StartChat()

	resp, err := session.SendMessage(ctx, genai.Text(systemPrompt))
	if err != nil {
		return "", err
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if funcCall, ok := part.(genai.FunctionCall); ok {
			switch funcCall.Name {
			case "check_inventory":
				return executeCheckInventory(ctx, session)
			case "update_item_price":
				return executeUpdatePrice(ctx, session, funcCall), nil
			case "create_inventory_item":
				return executeCreateItem(ctx, session, funcCall), nil
			case "get_sales_report":
				return executeSalesReport(ctx, session, funcCall), nil
			}
		}
	}

	return printResponse(resp), nil
}

func executeCheckInventory(ctx context.Context, session *genai.ChatSession) (string, error) {
	var items []models.InventoryItem
	database.DB.Find(&items)

	type simpleItem struct {
		ID    string  `json:"id"`
		Name  string  `json:"name"`
		SKU   string  `json:"sku"`
		Stock int     `json:"stock"`
		Price float64 `json:"price"`
		Cost  float64 `json:"cost"`
	}
	var simpleList []simpleItem
	for _, it := range items {
		simpleList = append(simpleList, simpleItem{
			ID:    it.ID,
			Name:  it.Name,
			SKU:   it.SKU,
			Stock: it.Quantity,
			Price: it.UnitPrice,
			Cost:  it.CostPrice,
		})
	}

	jsonBytes, _ := json.Marshal(simpleList)

	finalResp, err := session.SendMessage(ctx, genai.FunctionResponse{
		Name:     "check_inventory",
		Response: map[string]interface{}{"inventory": string(jsonBytes)},
	})
	if err != nil {
		return "", err
	}

	return handleRecursiveToolCalls(ctx, session, finalResp), nil
}

// handleRecursiveToolCalls covers the lookup-then-update chain: the model
// reads the inventory first, then immediately asks for the price update.
func handleRecursiveToolCalls(ctx context.Context, session *genai.ChatSession, resp *genai.GenerateContentResponse) string {
	for _, part := range resp.Candidates[0].Content.Parts {
		if funcCall, ok := part.(genai.FunctionCall); ok {
			if funcCall.Name == "update_item_price" {
				return executeUpdatePrice(ctx, session, funcCall)
			}
		}
	}
	return printResponse(resp)
}

func executeUpdatePrice(ctx context.Context, session *genai.ChatSession, funcCall genai.FunctionCall) string {
	args := funcCall.Args
	itemID, _ := args["item_id"].(string)
	newPrice, _ := args["new_price"].(float64)

	result := database.DB.Model(&models.InventoryItem{}).Where("id = ?", itemID).Update("unit_price", newPrice)

	msg := "Success"
	if result.RowsAffected == 0 {
		msg = "Item ID not found"
	} else {
		audit.Log(audit.Entry{
			EventType:    "ROW_UPDATED",
			Action:       fmt.Sprintf("Assistant updated price of item %s", itemID),
			ResourceType: "inventory",
			ResourceID:   itemID,
			Details:      map[string]interface{}{"unit_price": newPrice},
		})
		events.Emit("inventory", map[string]interface{}{"id": itemID, "unit_price": newPrice})
	}

	finalResp, _ := session.SendMessage(ctx, genai.FunctionResponse{
		Name:     "update_item_price",
		Response: map[string]interface{}{"status": msg, "new_price": newPrice},
	})
	return printResponse(finalResp)
}

func executeCreateItem(ctx context.Context, session *genai.ChatSession, funcCall genai.FunctionCall) string {
	args := funcCall.Args
	name, _ := args["name"].(string)
	category, _ := args["category"].(string)
	costPrice, _ := args["cost_price"].(float64)
	quantity, _ := args["quantity"].(float64)
	unitPrice, _ := args["unit_price"].(float64)

	item := models.InventoryItem{
		ID:        utils.NewID(),
		Name:      name,
		SKU:       utils.GenerateSKU(category, name),
		Category:  category,
		Quantity:  int(quantity),
		UnitPrice: unitPrice,
		CostPrice: costPrice,
	}
	database.DB.Create(&item)

	audit.Log(audit.Entry{
		EventType:    "ROW_INSERTED",
		Action:       fmt.Sprintf("Assistant created inventory item %s", item.Name),
		ResourceType: "inventory",
		ResourceID:   item.ID,
	})
	events.Emit("inventory", item)

	finalResp, _ := session.SendMessage(ctx, genai.FunctionResponse{
		Name:     "create_inventory_item",
		Response: map[string]interface{}{"status": "created", "id": item.ID, "sku": item.SKU},
	})
	return printResponse(finalResp)
}

func executeSalesReport(ctx context.Context, session *genai.ChatSession, funcCall genai.FunctionCall) string {
	args := funcCall.Args
	startStr, _ := args["start_date"].(string)
	endStr, _ := args["end_date"].(string)

	start, err1 := time.Parse("2006-01-02", startStr)
	end, err2 := time.Parse("2006-01-02", endStr)

	if err1 != nil || err2 != nil {
		return "Error: Dates must be in YYYY-MM-DD format."
	}
	end = end.Add(23*time.Hour + 59*time.Minute)

	report, err := database.GetSalesReport(start, end)
	if err != nil {
		return "Error calculating sales."
	}

	finalResp, _ := session.SendMessage(ctx, genai.FunctionResponse{
		Name: "get_sales_report",
		Response: map[string]interface{}{
			"revenue":     report.TotalRevenue,
			"sales_count": report.TotalCount,
		},
	})
	return printResponse(finalResp)
}

func printResponse(resp *genai.GenerateContentResponse) string {
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt)
		}
	}
	return "I completed the action."
}
