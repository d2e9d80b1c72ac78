package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/knightquest/kq-api/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// CertificateService issues completion certificates and keeps the append-only
// ledger of everything issued. PDF bytes are produced on demand by the pdf
// package, never at creation time.
type CertificateService struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewCertificateService(db *gorm.DB, logger zerolog.Logger) *CertificateService {
	return &CertificateService{db: db, logger: logger.With().Str("component", "certificates").Logger()}
}

// StudentInfo is the projection returned by VerifyStudent.
type StudentInfo struct {
	StudentID string `json:"studentId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"fullName"`
}

// VerifyStudent normalizes the identifier to the "#"-prefixed business key
// and resolves it to a student.
func (s *CertificateService) VerifyStudent(identifier string) (*StudentInfo, error) {
	username := NormalizeStudentID(identifier)

	var student models.User
	if err := s.db.Where("username = ? AND role = ?", username, models.RoleStudent).
		First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &StudentInfo{
		StudentID: fmt.Sprintf("%d", student.ID),
		FirstName: student.FirstName,
		LastName:  student.LastName,
		FullName:  student.FirstName + " " + student.LastName,
	}, nil
}

// newCertificateNumber generates the globally-unique human-readable number:
// KQ-<unix millis>-<8 uppercase hex chars>.
func newCertificateNumber() string {
	random := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("KQ-%d-%s", time.Now().UnixMilli(), random)
}

// Create validates the student, generates a certificate number and persists
// the row. No PDF is rendered here.
func (s *CertificateService) Create(studentID uint64, gradeLevel, achievement, issuedBy string) (*models.Certificate, error) {
	var student models.User
	if err := s.db.First(&student, studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if student.Role != models.RoleStudent {
		return nil, ErrInvalidRole
	}

	cert := models.Certificate{
		CertificateNumber: newCertificateNumber(),
		StudentID:         student.ID,
		GradeLevel:        gradeLevel,
		Achievement:       achievement,
		IssuedBy:          issuedBy,
	}
	if err := s.db.Create(&cert).Error; err != nil {
		return nil, err
	}
	cert.Student = student

	s.logger.Info().Str("certificate_number", cert.CertificateNumber).
		Uint64("student_id", student.ID).Msg("certificate created")
	return &cert, nil
}

// GetByNumber loads a certificate with its student for rendering.
func (s *CertificateService) GetByNumber(certificateNumber string) (*models.Certificate, error) {
	var cert models.Certificate
	if err := s.db.Where("certificate_number = ?", certificateNumber).
		Preload("Student").
		First(&cert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cert, nil
}

// List returns every certificate for a student, newest first.
func (s *CertificateService) List(studentID uint64) ([]models.Certificate, error) {
	var certs []models.Certificate
	if err := s.db.Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&certs).Error; err != nil {
		return nil, err
	}
	return certs, nil
}
