package models

import (
	"time"
)

// Role is the user role enumeration. Stored as text so the values survive
// dialect changes without an enum migration.
type Role string

const (
	RoleStudent Role = "Student"
	RoleTeacher Role = "Teacher"
	RoleParent  Role = "Parent"
)

// User is the identity record for students, teachers and parents.
// Username is the immutable business key: students use "#" + 9 digits,
// everyone else free text or an email address.
type User struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:255;not null" json:"username"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	FirstName string    `gorm:"size:255;not null" json:"firstName"`
	LastName  string    `gorm:"size:255;not null" json:"lastName"`
	Role      Role      `gorm:"size:16;not null;index" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TeacherStudent links a student to a teacher's roster. A student may appear
// on any number of rosters.
type TeacherStudent struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	TeacherID uint64 `gorm:"not null;index:idx_teacher_student,unique"`
	StudentID uint64 `gorm:"not null;index:idx_teacher_student,unique"`
	CreatedAt time.Time

	Teacher User `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE"`
	Student User `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
}

// ParentChild links a student to a parent account. Informational only, it
// plays no part in module assignment.
type ParentChild struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	ParentID  uint64 `gorm:"not null;index:idx_parent_child,unique"`
	ChildID   uint64 `gorm:"not null;index:idx_parent_child,unique"`
	CreatedAt time.Time

	Parent User `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
	Child  User `gorm:"foreignKey:ChildID;constraint:OnDelete:CASCADE"`
}

// AuthPin is a one-time 6-digit login PIN with an expiry. A row is consumed
// (deleted) on first successful verification.
type AuthPin struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Pin       string    `gorm:"size:6;uniqueIndex;not null"`
	Token     string    `gorm:"type:text;not null"`
	Username  string    `gorm:"size:255;not null"`
	FirstName string    `gorm:"size:255"`
	LastName  string    `gorm:"size:255"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// TableName overrides the table name for TeacherStudent
func (TeacherStudent) TableName() string {
	return "teacher_students"
}

// TableName overrides the table name for ParentChild
func (ParentChild) TableName() string {
	return "parent_children"
}

// TableName overrides the table name for AuthPin
func (AuthPin) TableName() string {
	return "auth_pins"
}
