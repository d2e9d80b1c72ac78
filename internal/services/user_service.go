package services

import (
	"errors"
	"regexp"
	"strings"

	"github.com/knightquest/kq-api/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// studentIDPattern is the business-key format for student usernames.
var studentIDPattern = regexp.MustCompile(`^#\d{9}$`)

// NormalizeStudentID applies the "#" prefix convention in one place. Clients
// send the nine digits with or without the marker character.
func NormalizeStudentID(id string) string {
	if !strings.HasPrefix(id, "#") {
		return "#" + id
	}
	return id
}

// IsStudentID reports whether the username matches the student-ID format.
func IsStudentID(username string) bool {
	return studentIDPattern.MatchString(username)
}

// UserService is the identity store: user records plus the teacher/student
// and parent/child link relations.
type UserService struct {
	db         *gorm.DB
	logger     zerolog.Logger
	bcryptCost int
}

// RegisterInput is the password-flow registration payload.
type RegisterInput struct {
	Username  string      `json:"username"`
	Password  string      `json:"password"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      models.Role `json:"role"`
	TeacherID uint64      `json:"teacherId,omitempty"`
	ParentID  uint64      `json:"parentId,omitempty"`
}

func NewUserService(db *gorm.DB, logger zerolog.Logger, bcryptCost int) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{db: db, logger: logger.With().Str("component", "identity").Logger(), bcryptCost: bcryptCost}
}

// GetByUsername looks a user up by its business key. role filters the match
// when non-empty.
func (s *UserService) GetByUsername(username string, role models.Role) (*models.User, error) {
	var user models.User
	query := s.db.Where("username = ?", username)
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if err := query.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByID looks a user up by its numeric id.
func (s *UserService) GetByID(id uint64) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Register creates a user via the password flow. Students get their Save row
// in the same transaction (the eager path; the student-ID flow defers save
// creation to first login instead). Optional teacher/parent links are created
// after validating the referenced account's role.
func (s *UserService) Register(in RegisterInput) (*models.User, error) {
	if _, err := s.GetByUsername(in.Username, ""); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if in.TeacherID != 0 {
		teacher, err := s.GetByID(in.TeacherID)
		if err != nil || teacher.Role != models.RoleTeacher {
			return nil, ErrNotFound
		}
	}
	if in.ParentID != 0 {
		parent, err := s.GetByID(in.ParentID)
		if err != nil || parent.Role != models.RoleParent {
			return nil, ErrNotFound
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:  in.Username,
		Password:  string(hashed),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      in.Role,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if user.Role == models.RoleStudent {
			save := models.Save{UserID: user.ID, Data: models.DefaultSaveData()}
			if err := tx.Create(&save).Error; err != nil {
				return err
			}
		}
		if in.TeacherID != 0 {
			link := models.TeacherStudent{TeacherID: in.TeacherID, StudentID: user.ID}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		if in.ParentID != 0 {
			link := models.ParentChild{ParentID: in.ParentID, ChildID: user.ID}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Uint64("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return &user, nil
}

// RegisterStudentID creates a passwordless student account keyed by the
// "#"-prefixed student ID. No Save row is created here; the student-ID login
// flow creates it lazily on first login.
func (s *UserService) RegisterStudentID(firstName, lastName, studentID string) (*models.User, error) {
	if !IsStudentID(studentID) {
		return nil, ErrValidation
	}

	if _, err := s.GetByUsername(studentID, ""); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user := models.User{
		Username:  studentID,
		Password:  "",
		FirstName: firstName,
		LastName:  lastName,
		Role:      models.RoleStudent,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	s.logger.Info().Uint64("user_id", user.ID).Msg("student registered (ID flow)")
	return &user, nil
}

// UpsertOAuthUser creates or refreshes a user keyed by its email. Repeated
// OAuth logins never fail: an existing account only gets its name fields
// updated. New accounts are students with a sentinel password and an eagerly
// created Save.
func (s *UserService) UpsertOAuthUser(email, firstName, lastName string) (*models.User, error) {
	var user models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("username = ?", email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{
				Username:  email,
				Password:  "google-oauth-no-password",
				FirstName: firstName,
				LastName:  lastName,
				Role:      models.RoleStudent,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			save := models.Save{UserID: user.ID, Data: models.DefaultSaveData()}
			return tx.Create(&save).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&user).Updates(models.User{FirstName: firstName, LastName: lastName}).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Uint64("user_id", user.ID).Msg("oauth user upserted")
	return &user, nil
}

// LinkStudentToTeacher adds the student to the teacher's roster. The pair is
// unique; linking twice is a no-op at the database level.
func (s *UserService) LinkStudentToTeacher(teacherID, studentID uint64) error {
	link := models.TeacherStudent{TeacherID: teacherID, StudentID: studentID}
	return s.db.Create(&link).Error
}

// LinkChildToParent records the parent/child relation.
func (s *UserService) LinkChildToParent(parentID, childID uint64) error {
	link := models.ParentChild{ParentID: parentID, ChildID: childID}
	return s.db.Create(&link).Error
}

// VerifyPassword compares a plaintext password against the stored hash.
// A mismatch is always ErrInvalidPassword, never a different kind.
func (s *UserService) VerifyPassword(user *models.User, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return ErrInvalidPassword
	}
	return nil
}
