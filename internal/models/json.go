package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// JSON is the column type for opaque documents (save data, question options).
// It embeds gorm.io/datatypes.JSON for Value/Scan/Marshal behavior and only
// overrides the DDL type, because not every dialect has a native 'json' type.
type JSON struct {
	datatypes.JSON
}

// NewJSON wraps raw JSON bytes into the column type.
func NewJSON(raw []byte) JSON {
	return JSON{JSON: datatypes.JSON(raw)}
}

// GormDBDataType selects the DDL type per dialect.
func (JSON) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	case "sqlserver", "mssql":
		return "NVARCHAR(MAX)"
	}
	return "TEXT"
}
