package models

import (
	"time"
)

// Certificate is one issuance event. Rows are append-only: there is no update
// or delete surface, the table is the ledger of everything ever issued.
type Certificate struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CertificateNumber string    `gorm:"uniqueIndex;size:64;not null" json:"certificateNumber"`
	StudentID         uint64    `gorm:"not null;index" json:"studentId"`
	GradeLevel        string    `gorm:"size:32;not null" json:"gradeLevel"`
	Achievement       string    `gorm:"size:512;not null" json:"achievement"`
	IssuedBy          string    `gorm:"size:255;not null" json:"issuedBy"`
	PdfURL            *string   `gorm:"size:512" json:"pdfUrl"`
	CreatedAt         time.Time `json:"createdAt"`

	Student User `gorm:"foreignKey:StudentID" json:"-"`
}

// TableName overrides the table name for Certificate
func (Certificate) TableName() string {
	return "certificates"
}
