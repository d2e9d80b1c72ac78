package services_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/knightquest/kq-api/internal/services"
)

var certNumberPattern = regexp.MustCompile(`^KQ-\d{13}-[0-9A-F]{8}$`)

func TestCertificateCreateGeneratesUniqueNumbers(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewCertificateService(db, testLogger())
	student := createStudent(t, db, "#123456789")
	teacher := createTeacher(t, db, "teacher1")

	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		cert, err := svc.Create(student.ID, "3", "Completed Grade 3", teacher.Username)
		if err != nil {
			t.Fatalf("Create #%d failed: %v", i+1, err)
		}
		if !certNumberPattern.MatchString(cert.CertificateNumber) {
			t.Errorf("Unexpected certificate number format: %s", cert.CertificateNumber)
		}
		if _, dup := seen[cert.CertificateNumber]; dup {
			t.Errorf("Duplicate certificate number: %s", cert.CertificateNumber)
		}
		seen[cert.CertificateNumber] = struct{}{}
	}
}

func TestCertificateCreateRejectsNonStudents(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewCertificateService(db, testLogger())
	teacher := createTeacher(t, db, "teacher1")

	if _, err := svc.Create(teacher.ID, "3", "x", "teacher1"); !errors.Is(err, services.ErrInvalidRole) {
		t.Errorf("Expected ErrInvalidRole, got %v", err)
	}
	if _, err := svc.Create(99999, "3", "x", "teacher1"); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCertificateGetByNumberLoadsStudent(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewCertificateService(db, testLogger())
	student := createStudent(t, db, "#123456789")

	created, err := svc.Create(student.ID, "5", "Completed Grade 5", "teacher1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	cert, err := svc.GetByNumber(created.CertificateNumber)
	if err != nil {
		t.Fatalf("GetByNumber failed: %v", err)
	}
	if cert.Student.Username != "#123456789" {
		t.Errorf("Expected preloaded student, got %+v", cert.Student)
	}

	if _, err := svc.GetByNumber("KQ-0-DEADBEEF"); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown number, got %v", err)
	}
}

func TestVerifyStudentNormalizesIdentifier(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewCertificateService(db, testLogger())
	createStudent(t, db, "#123456789")

	// With and without the "#" marker.
	for _, id := range []string{"#123456789", "123456789"} {
		info, err := svc.VerifyStudent(id)
		if err != nil {
			t.Fatalf("VerifyStudent(%s) failed: %v", id, err)
		}
		if info.FullName != "Test Student" {
			t.Errorf("Expected full name, got %s", info.FullName)
		}
	}

	if _, err := svc.VerifyStudent("999999999"); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCertificateListNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	svc := services.NewCertificateService(db, testLogger())
	student := createStudent(t, db, "#123456789")

	for _, grade := range []string{"1", "2", "3"} {
		if _, err := svc.Create(student.ID, grade, "Completed Grade "+grade, "teacher1"); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	certs, err := svc.List(student.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(certs) != 3 {
		t.Fatalf("Expected 3 certificates, got %d", len(certs))
	}
	for i := 1; i < len(certs); i++ {
		if certs[i].CreatedAt.After(certs[i-1].CreatedAt) {
			t.Errorf("Expected newest-first ordering")
		}
	}
}
