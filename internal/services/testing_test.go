package services_test

import (
	"testing"

	"github.com/knightquest/kq-api/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.TeacherStudent{},
		&models.ParentChild{},
		&models.AuthPin{},
		&models.Save{},
		&models.Module{},
		&models.Question{},
		&models.ModuleAssignment{},
		&models.Certificate{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// createStudent inserts a student user directly, bypassing the registration
// flows, so tests can control exactly which rows exist.
func createStudent(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := models.User{
		Username:  username,
		FirstName: "Test",
		LastName:  "Student",
		Role:      models.RoleStudent,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create student %s: %v", username, err)
	}
	return &user
}

func createTeacher(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := models.User{
		Username:  username,
		FirstName: "Test",
		LastName:  "Teacher",
		Role:      models.RoleTeacher,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create teacher %s: %v", username, err)
	}
	return &user
}

func linkStudent(t *testing.T, db *gorm.DB, teacherID, studentID uint64) {
	t.Helper()

	link := models.TeacherStudent{TeacherID: teacherID, StudentID: studentID}
	if err := db.Create(&link).Error; err != nil {
		t.Fatalf("Failed to link student: %v", err)
	}
}
