package services_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/knightquest/kq-api/internal/models"
	"github.com/knightquest/kq-api/internal/services"
)

func TestSaveGetReturnsNilWhenAbsent(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewSaveService(db, testLogger())
	student := createStudent(t, db, "#100000001")

	save, err := svc.Get(student.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if save != nil {
		t.Error("Expected nil save for user without save data")
	}
}

func TestSaveReplaceRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewSaveService(db, testLogger())
	student := createStudent(t, db, "#100000002")

	if _, err := svc.Ensure(student.ID, models.DefaultSaveData()); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	doc := []byte(`{"progression":{"totalStarsEarned":42},"inventory":["sword"]}`)
	if _, err := svc.Replace(student.ID, models.NewJSON(doc)); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	save, err := svc.Get(student.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if save == nil {
		t.Fatal("Expected save after replace")
	}

	var stored map[string]interface{}
	if err := json.Unmarshal(save.Data.JSON, &stored); err != nil {
		t.Fatalf("Stored document is not valid JSON: %v", err)
	}
	prog, ok := stored["progression"].(map[string]interface{})
	if !ok || prog["totalStarsEarned"] != float64(42) {
		t.Errorf("Expected replaced document to round-trip, got %v", stored)
	}
}

func TestSaveReplaceFailsWithoutExistingSave(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewSaveService(db, testLogger())
	student := createStudent(t, db, "#100000003")

	_, err := svc.Replace(student.ID, models.NewJSON([]byte(`{}`)))
	if !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSaveResetRestoresDefault(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewSaveService(db, testLogger())
	student := createStudent(t, db, "#100000004")

	if _, err := svc.Ensure(student.ID, models.DefaultSaveData()); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if _, err := svc.Replace(student.ID, models.NewJSON([]byte(`{"progression":{"totalStarsEarned":99}}`))); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	// Resetting twice must land on the same default document.
	for i := 0; i < 2; i++ {
		if err := svc.Reset(student.ID); err != nil {
			t.Fatalf("Reset #%d failed: %v", i+1, err)
		}
	}

	save, err := svc.Get(student.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	var stored map[string]interface{}
	if err := json.Unmarshal(save.Data.JSON, &stored); err != nil {
		t.Fatalf("Stored document is not valid JSON: %v", err)
	}
	prog := stored["progression"].(map[string]interface{})
	if prog["totalStarsEarned"] != float64(0) {
		t.Errorf("Expected default progression after reset, got %v", prog)
	}
}

func TestSaveEnsureNeverOverwrites(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewSaveService(db, testLogger())
	student := createStudent(t, db, "#100000005")

	created, err := svc.Ensure(student.ID, models.NewJSON([]byte(`{"generation":1}`)))
	if err != nil {
		t.Fatalf("First Ensure failed: %v", err)
	}
	if !created {
		t.Error("Expected first Ensure to create the save")
	}

	created, err = svc.Ensure(student.ID, models.NewJSON([]byte(`{"generation":2}`)))
	if err != nil {
		t.Fatalf("Second Ensure failed: %v", err)
	}
	if created {
		t.Error("Expected second Ensure to be a no-op")
	}

	save, err := svc.Get(student.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	var stored map[string]interface{}
	if err := json.Unmarshal(save.Data.JSON, &stored); err != nil {
		t.Fatalf("Stored document is not valid JSON: %v", err)
	}
	if stored["generation"] != float64(1) {
		t.Errorf("Expected original document to survive second Ensure, got %v", stored)
	}
}
