package config

import (
	"fmt"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// InitDB opens the database connection. MySQL is the default; set
// DB_DRIVER=sqlite for a file-backed local database.
func InitDB() (*gorm.DB, error) {
	if getEnv("DB_DRIVER", "mysql") == "sqlite" {
		path := getEnv("DB_PATH", "lead_intake.db")
		return gorm.Open(sqlite.Open(path), &gorm.Config{})
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		getEnv("DB_USER", "root"),
		os.Getenv("DB_PASSWORD"),
		getEnv("DB_HOST", "127.0.0.1"),
		getEnv("DB_PORT", "3306"),
		getEnv("DB_NAME", "lead_intake"),
	)
	return gorm.Open(mysql.Open(dsn), &gorm.Config{})
}
