package dao

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"careflow/careflow/sources/psql/models"
	"careflow/careflow/utils/logging"
)

// --- Helpers ---

func setupTestDB(t *testing.T) *gorm.DB {
	logging.InitLogger() // ensures loggers aren't nil
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.ChatSession{},
		&models.ChatMessage{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func createTestUsers(t *testing.T, db *gorm.DB) (int, int) {
	userDAO := NewUserDAO(db)
	alice, err := userDAO.CreateUser(context.Background(), "alice", "alice@example.com", nil)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	bob, err := userDAO.CreateUser(context.Background(), "bob", "bob@example.com", nil)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return alice.ID, bob.ID
}
