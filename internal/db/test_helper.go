package db

import (
	"database/sql"
	"fmt"
	"log"
	"testing"

	"github.com/stockdesk/backend/internal/config"
)

// SetupTestDB creates a test database connection, skipping the test
// when no Postgres is reachable
func SetupTestDB(t *testing.T) *sql.DB {
	cfg := config.Load()
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	database, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Skipf("Skipping, failed to open test database: %v", err)
	}

	if err = database.Ping(); err != nil {
		t.Skipf("Skipping, no test database reachable: %v", err)
	}

	// Set global DB for handlers
	DB = database

	return database
}

// CleanupTestDB cleans up test data
func CleanupTestDB(t *testing.T, database *sql.DB) {
	_, err := database.Exec("DELETE FROM records WHERE natural_key LIKE 'test_%'")
	if err != nil {
		log.Printf("Warning: Failed to cleanup records: %v", err)
	}
}
