package main

import (
	"log"
	"os"
	"strings"
	"time"

	"go-pharmacy-pos/internal/database"
	"go-pharmacy-pos/internal/handlers"
	"go-pharmacy-pos/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: No .env file found")
	}

	database.Connect()
	r := gin.Default()

	origins := []string{"http://localhost:5173"}
	if env := os.Getenv("ALLOWED_ORIGINS"); env != "" {
		origins = strings.Split(env, ",")
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Instance-Id", "X-Instance-Started-At"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Every response identifies the serving process so clients can detect
	// a restart.
	r.Use(middleware.InstanceHeaders())

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "online"}) })

	api := r.Group("/api")
	api.Use(middleware.RateLimit())
	api.Use(middleware.Identity())
	{
		api.GET("/system/status", handlers.GetSystemStatus)

		// Two sale entry points, one pipeline: /functions/complete-sale is
		// the older caller convention.
		api.POST("/sales", handlers.CompleteSale)
		api.POST("/functions/complete-sale", handlers.CompleteSale)

		api.POST("/rpc/:func", handlers.CallFunction)

		// Generic table surface. Static routes above win over :table.
		api.GET("/:table", handlers.ListRows)
		api.POST("/:table", handlers.InsertRow)
		api.PATCH("/:table", handlers.UpdateRows)
		api.DELETE("/:table", handlers.DeleteRows)

		// The assistant can rewrite prices, so it stays admin-only.
		admin := api.Group("/")
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.POST("/ask", handlers.AskAI)
		}
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Println("🚀 Pharmacy POS server starting on " + addr)
	if err := r.Run(addr); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
