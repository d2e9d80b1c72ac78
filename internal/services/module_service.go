package services

import (
	"strings"
	"time"

	"github.com/knightquest/kq-api/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Assignment provenance tags on the student-facing module list.
const (
	AssignmentSpecific = "specific"
	AssignmentAll      = "all"
)

// ModuleService owns teacher-authored modules and the assignment model:
// explicit per-student rows plus the derived roster-coverage classification.
type ModuleService struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewModuleService(db *gorm.DB, logger zerolog.Logger) *ModuleService {
	return &ModuleService{db: db, logger: logger.With().Str("component", "modules").Logger()}
}

// QuestionInput is one question of a module creation request.
type QuestionInput struct {
	Text    string      `json:"text"`
	Options models.JSON `json:"options"`
	Answer  string      `json:"answer"`
}

// AssignedModule is one entry of a student's effective assignment list.
type AssignedModule struct {
	ID             uint64            `json:"id"`
	Name           string            `json:"name"`
	Grade          string            `json:"grade"`
	Subject        string            `json:"subject"`
	Questions      []models.Question `json:"questions"`
	AssignedAt     time.Time         `json:"assignedAt"`
	AssignmentType string            `json:"assignmentType"`
}

// TeacherModule is one entry of a teacher's module list.
type TeacherModule struct {
	ID               uint64            `json:"id"`
	Name             string            `json:"name"`
	Grade            string            `json:"grade"`
	Subject          string            `json:"subject"`
	Questions        []models.Question `json:"questions"`
	AssignedStudents []string          `json:"assignedStudents"`
}

// Create persists a module and its question set in one transaction. A module
// is never left behind without its questions.
func (s *ModuleService) Create(teacherID uint64, name, grade, subject string, questions []QuestionInput) (*models.Module, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrValidation
	}
	for _, q := range questions {
		if strings.TrimSpace(q.Text) == "" {
			return nil, ErrValidation
		}
	}

	module := models.Module{
		TeacherID: teacherID,
		Name:      name,
		Grade:     grade,
		Subject:   subject,
	}
	for _, q := range questions {
		module.Questions = append(module.Questions, models.Question{
			Text:    q.Text,
			Options: q.Options,
			Answer:  q.Answer,
		})
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&module).Error
	}); err != nil {
		return nil, err
	}

	s.logger.Info().Uint64("module_id", module.ID).Uint64("teacher_id", teacherID).
		Int("questions", len(questions)).Msg("module created")
	return &module, nil
}

// AssignExplicit assigns a module to the named students. Every username must
// resolve to an existing student; one miss rejects the whole request with a
// StudentsNotFoundError listing all misses and commits nothing. Resolution
// succeeds as a whole, then one assignment row per student is inserted
// idempotently (duplicate pairs are silently skipped).
func (s *ModuleService) AssignExplicit(moduleID uint64, studentUsernames []string) (int, error) {
	if len(studentUsernames) == 0 {
		return 0, ErrValidation
	}

	normalized := make([]string, len(studentUsernames))
	for i, u := range studentUsernames {
		normalized[i] = NormalizeStudentID(u)
	}

	var students []models.User
	if err := s.db.Where("username IN ? AND role = ?", normalized, models.RoleStudent).
		Find(&students).Error; err != nil {
		return 0, err
	}

	found := make(map[string]uint64, len(students))
	for _, st := range students {
		found[st.Username] = st.ID
	}

	// Misses are reported exactly as the caller spelled them, not in the
	// normalized form used for lookup.
	var missing []string
	for i, u := range normalized {
		if _, ok := found[u]; !ok {
			missing = append(missing, studentUsernames[i])
		}
	}
	if len(missing) > 0 {
		return 0, &StudentsNotFoundError{Missing: missing}
	}

	ids := make([]uint64, 0, len(found))
	for _, id := range found {
		ids = append(ids, id)
	}

	if err := s.insertAssignments(moduleID, ids); err != nil {
		return 0, err
	}

	s.logger.Info().Uint64("module_id", moduleID).Int("students", len(ids)).Msg("module assigned")
	return len(ids), nil
}

// AssignToAllCurrentStudents assigns the module to every student currently
// linked to the teacher. This is a snapshot at call time, not a live flag:
// students linked later are not picked up retroactively.
func (s *ModuleService) AssignToAllCurrentStudents(moduleID, teacherID uint64) (int, error) {
	var links []models.TeacherStudent
	if err := s.db.Where("teacher_id = ?", teacherID).Find(&links).Error; err != nil {
		return 0, err
	}
	if len(links) == 0 {
		return 0, ErrNoStudentsLinked
	}

	ids := make([]uint64, len(links))
	for i, l := range links {
		ids[i] = l.StudentID
	}

	if err := s.insertAssignments(moduleID, ids); err != nil {
		return 0, err
	}

	s.logger.Info().Uint64("module_id", moduleID).Uint64("teacher_id", teacherID).
		Int("students", len(ids)).Msg("module assigned to current roster")
	return len(ids), nil
}

// insertAssignments bulk-inserts assignment rows, skipping pairs that already
// exist. All rows commit or none do.
func (s *ModuleService) insertAssignments(moduleID uint64, studentIDs []uint64) error {
	rows := make([]models.ModuleAssignment, len(studentIDs))
	for i, id := range studentIDs {
		rows[i] = models.ModuleAssignment{ModuleID: moduleID, StudentID: id}
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "module_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).Create(&rows).Error
	})
}

// EffectiveAssignmentsForStudent resolves the set of modules visible to a
// student: the union of explicitly assigned modules and any module of a
// linked teacher whose assignment rows currently cover that teacher's entire
// roster. The coverage check is recomputed on every read and never stored;
// a module explicitly assigned to every current student is indistinguishable
// from one assigned "to all", and linking one more student reclassifies it
// until the new student is assigned too.
func (s *ModuleService) EffectiveAssignmentsForStudent(studentID uint64) ([]AssignedModule, error) {
	var explicit []models.ModuleAssignment
	if err := s.db.Where("student_id = ?", studentID).
		Preload("Module").
		Preload("Module.Questions").
		Find(&explicit).Error; err != nil {
		return nil, err
	}

	var myTeachers []models.TeacherStudent
	if err := s.db.Where("student_id = ?", studentID).Find(&myTeachers).Error; err != nil {
		return nil, err
	}
	teacherIDs := make([]uint64, len(myTeachers))
	for i, l := range myTeachers {
		teacherIDs[i] = l.TeacherID
	}

	var teacherModules []models.Module
	if len(teacherIDs) > 0 {
		if err := s.db.Where("teacher_id IN ?", teacherIDs).
			Preload("Questions").
			Preload("Assignments").
			Find(&teacherModules).Error; err != nil {
			return nil, err
		}
	}

	// Current roster per teacher, fetched once per distinct teacher.
	rosters := make(map[uint64][]uint64, len(teacherIDs))
	for _, tid := range teacherIDs {
		var links []models.TeacherStudent
		if err := s.db.Where("teacher_id = ?", tid).Find(&links).Error; err != nil {
			return nil, err
		}
		ids := make([]uint64, len(links))
		for i, l := range links {
			ids[i] = l.StudentID
		}
		rosters[tid] = ids
	}

	seen := make(map[uint64]struct{})
	var result []AssignedModule

	// Explicit assignments first; first occurrence wins on dedupe.
	for _, a := range explicit {
		if _, ok := seen[a.ModuleID]; ok {
			continue
		}
		seen[a.ModuleID] = struct{}{}
		result = append(result, AssignedModule{
			ID:             a.Module.ID,
			Name:           a.Module.Name,
			Grade:          a.Module.Grade,
			Subject:        a.Module.Subject,
			Questions:      a.Module.Questions,
			AssignedAt:     a.CreatedAt,
			AssignmentType: s.classify(a.Module, rosters[a.Module.TeacherID]),
		})
	}

	for _, m := range teacherModules {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		if s.classify(m, rosters[m.TeacherID]) != AssignmentAll {
			continue
		}
		seen[m.ID] = struct{}{}
		result = append(result, AssignedModule{
			ID:             m.ID,
			Name:           m.Name,
			Grade:          m.Grade,
			Subject:        m.Subject,
			Questions:      m.Questions,
			AssignedAt:     m.CreatedAt,
			AssignmentType: AssignmentAll,
		})
	}

	return result, nil
}

// classify computes the roster-coverage predicate for one module: "all" iff
// the roster is non-empty and every student on it has an assignment row.
func (s *ModuleService) classify(m models.Module, roster []uint64) string {
	if len(roster) == 0 {
		return AssignmentSpecific
	}

	assignments := m.Assignments
	if assignments == nil {
		if err := s.db.Where("module_id = ?", m.ID).Find(&assignments).Error; err != nil {
			return AssignmentSpecific
		}
	}

	assigned := make(map[uint64]struct{}, len(assignments))
	for _, a := range assignments {
		assigned[a.StudentID] = struct{}{}
	}
	for _, id := range roster {
		if _, ok := assigned[id]; !ok {
			return AssignmentSpecific
		}
	}
	return AssignmentAll
}

// ListForTeacher returns the teacher's modules with questions and the
// usernames (student IDs, not numeric ids) of every assigned student.
func (s *ModuleService) ListForTeacher(teacherID uint64) ([]TeacherModule, error) {
	var modules []models.Module
	if err := s.db.Where("teacher_id = ?", teacherID).
		Preload("Questions").
		Preload("Assignments").
		Preload("Assignments.Student").
		Find(&modules).Error; err != nil {
		return nil, err
	}

	result := make([]TeacherModule, len(modules))
	for i, m := range modules {
		usernames := make([]string, len(m.Assignments))
		for j, a := range m.Assignments {
			usernames[j] = a.Student.Username
		}
		result[i] = TeacherModule{
			ID:               m.ID,
			Name:             m.Name,
			Grade:            m.Grade,
			Subject:          m.Subject,
			Questions:        m.Questions,
			AssignedStudents: usernames,
		}
	}
	return result, nil
}
