package database

import (
	"log"
	"os"
	"time"

	"go-pharmacy-pos/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the store. Local-first default is an sqlite file next to the
// binary; a DB_DSN in .env switches to MySQL for shop-network deployments.
func Connect() {
	dsn := os.Getenv("DB_DSN")

	var err error
	if dsn != "" {
		// Wait for MySQL to come up; POS terminals often boot faster
		// than the database box.
		for i := 0; i < 5; i++ {
			DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
				Logger: logger.Default.LogMode(logger.Warn),
			})
			if err == nil {
				break
			}
			log.Printf("Failed to connect to database. Retrying in 2 seconds... (%d/5)", i+1)
			time.Sleep(2 * time.Second)
		}
		if err != nil {
			log.Fatal("Failed to connect to MySQL after 5 attempts:", err)
		}
		log.Println("✅ Connected to MySQL")
	} else {
		path := os.Getenv("POS_DB_PATH")
		if path == "" {
			path = "pharmacy.db"
		}
		DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			log.Fatal("Failed to open local database:", err)
		}
		log.Println("✅ Connected to local SQLite store: " + path)
	}

	if err := Migrate(DB); err != nil {
		log.Fatal("Failed to sync database schema:", err)
	}
	log.Println("✅ Database Schema Synced!")
}

// Migrate syncs the schema. Exposed so tests can run it against their own
// in-memory databases.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.InventoryItem{},
		&models.Sale{},
		&models.SaleItem{},
		&models.Refund{},
		&models.Receipt{},
		&models.AuditLog{},
	)
}
