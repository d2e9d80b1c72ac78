package models

import (
	"time"
)

// Module is a teacher-authored set of questions assignable to students.
// The owning teacher never changes after creation.
type Module struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	TeacherID uint64    `gorm:"not null;index" json:"teacherId"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Grade     string    `gorm:"size:32;not null" json:"grade"`
	Subject   string    `gorm:"size:255;not null" json:"subject"`
	CreatedAt time.Time `json:"createdAt"`

	Teacher     User               `gorm:"foreignKey:TeacherID" json:"-"`
	Questions   []Question         `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE" json:"questions"`
	Assignments []ModuleAssignment `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE" json:"-"`
}

// Question belongs to exactly one module and is created atomically with it.
// Options is an opaque JSON value; the question schema is owned by the game
// client, the backend only requires non-empty text.
type Question struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ModuleID uint64 `gorm:"not null;index" json:"-"`
	Text     string `gorm:"type:text;not null" json:"text"`
	Options  JSON   `json:"options"`
	Answer   string `gorm:"size:512" json:"answer"`
}

// ModuleAssignment records an explicit (module, student) assignment.
// The pair is unique; re-assignment is an idempotent no-op.
type ModuleAssignment struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	ModuleID  uint64 `gorm:"not null;index:idx_module_student,unique"`
	StudentID uint64 `gorm:"not null;index:idx_module_student,unique"`
	CreatedAt time.Time

	Module  Module `gorm:"foreignKey:ModuleID"`
	Student User   `gorm:"foreignKey:StudentID"`
}

// TableName overrides the table name for Module
func (Module) TableName() string {
	return "modules"
}

// TableName overrides the table name for Question
func (Question) TableName() string {
	return "questions"
}

// TableName overrides the table name for ModuleAssignment
func (ModuleAssignment) TableName() string {
	return "module_assignments"
}
