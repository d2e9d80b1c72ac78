package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/knightquest/kq-api/internal/auth"
	"github.com/knightquest/kq-api/internal/handlers"
	"github.com/knightquest/kq-api/internal/middleware"
	"github.com/knightquest/kq-api/internal/models"
	"github.com/knightquest/kq-api/internal/services"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

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

func setupSaveApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false})
		},
	})
	handler := &handlers.SaveHandler{
		Saves:  services.NewSaveService(db, zerolog.Nop()),
		Logger: zerolog.Nop(),
	}
	authenticated := middleware.Authenticate(testSecret)
	app.Get("/api/save", authenticated, handler.Get)
	app.Put("/api/save", authenticated, handler.Put)
	app.Delete("/api/save", authenticated, handler.Delete)
	return app
}

func createStudentWithToken(t *testing.T, db *gorm.DB) (*models.User, string) {
	t.Helper()

	user := models.User{
		Username:  "#123456789",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Role:      models.RoleStudent,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create student: %v", err)
	}
	token, err := auth.Sign(testSecret, &user, auth.StudentTokenTTL)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return &user, token
}

func TestSaveRequiresAuthentication(t *testing.T) {
	db := setupTestDB(t)
	app := setupSaveApp(t, db)

	req := httptest.NewRequest("GET", "/api/save", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.StatusCode)
	}
}

func TestSaveGetReturnsNullWithoutSave(t *testing.T) {
	db := setupTestDB(t)
	app := setupSaveApp(t, db)
	_, token := createStudentWithToken(t, db)

	req := httptest.NewRequest("GET", "/api/save", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if _, present := result["data"]; present && result["data"] != nil {
		t.Errorf("Expected null data for missing save, got %v", result["data"])
	}
}

func TestSavePutRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	app := setupSaveApp(t, db)
	user, token := createStudentWithToken(t, db)

	save := models.Save{UserID: user.ID, Data: models.DefaultSaveData()}
	if err := db.Create(&save).Error; err != nil {
		t.Fatalf("Failed to create save: %v", err)
	}

	doc := []byte(`{"progression":{"totalStarsEarned":7},"inventory":["shield"]}`)
	req := httptest.NewRequest("PUT", "/api/save", bytes.NewReader(doc))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/api/save", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}

	var result struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	prog, ok := result.Data["progression"].(map[string]interface{})
	if !ok || prog["totalStarsEarned"] != float64(7) {
		t.Errorf("Expected stored document to round-trip, got %v", result.Data)
	}
}

func TestSaveGetReturnsDocumentNotRow(t *testing.T) {
	db := setupTestDB(t)
	app := setupSaveApp(t, db)
	user, token := createStudentWithToken(t, db)

	save := models.Save{UserID: user.ID, Data: models.DefaultSaveData()}
	if err := db.Create(&save).Error; err != nil {
		t.Fatalf("Failed to create save: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/save", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}

	var result struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	// The payload is the game document itself, not the save record.
	if _, ok := result.Data["progression"]; !ok {
		t.Errorf("Expected document keys at the top level, got %v", result.Data)
	}
	for _, key := range []string{"data", "createdAt", "updatedAt"} {
		if _, present := result.Data[key]; present {
			t.Errorf("Unexpected record field %q in save payload", key)
		}
	}
}

func TestSavePutFailsWithoutExistingSave(t *testing.T) {
	db := setupTestDB(t)
	app := setupSaveApp(t, db)
	_, token := createStudentWithToken(t, db)

	req := httptest.NewRequest("PUT", "/api/save", bytes.NewReader([]byte(`{"a":1}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
}

func TestSavePutRejectsInvalidJSON(t *testing.T) {
	db := setupTestDB(t)
	app := setupSaveApp(t, db)
	user, token := createStudentWithToken(t, db)

	save := models.Save{UserID: user.ID, Data: models.DefaultSaveData()}
	if err := db.Create(&save).Error; err != nil {
		t.Fatalf("Failed to create save: %v", err)
	}

	req := httptest.NewRequest("PUT", "/api/save", bytes.NewReader([]byte(`{not json`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
}

func TestSaveDeleteResets(t *testing.T) {
	db := setupTestDB(t)
	app := setupSaveApp(t, db)
	user, token := createStudentWithToken(t, db)

	save := models.Save{UserID: user.ID, Data: models.NewJSON([]byte(`{"progression":{"totalStarsEarned":50}}`))}
	if err := db.Create(&save).Error; err != nil {
		t.Fatalf("Failed to create save: %v", err)
	}

	req := httptest.NewRequest("DELETE", "/api/save", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var stored models.Save
	if err := db.Where("user_id = ?", user.ID).First(&stored).Error; err != nil {
		t.Fatalf("Failed to load save: %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(stored.Data.JSON, &doc); err != nil {
		t.Fatalf("Stored document is not valid JSON: %v", err)
	}
	prog := doc["progression"].(map[string]interface{})
	if prog["totalStarsEarned"] != float64(0) {
		t.Errorf("Expected default after reset, got %v", prog)
	}
}
