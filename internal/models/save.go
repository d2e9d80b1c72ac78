package models

import (
	"encoding/json"
	"time"
)

// Save holds one opaque JSON game-state document per user. The document is
// replaced wholesale on update, never merged or patched field-by-field.
type Save struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID    uint64    `gorm:"uniqueIndex;not null" json:"-"`
	Data      JSON      `gorm:"not null" json:"data"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the table name for Save
func (Save) TableName() string {
	return "saves"
}

// SaveAccount is the account section of a freshly created save document.
type SaveAccount struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// DefaultSaveData returns the system default skeleton document: empty
// account, zero progression, empty inventory and shop. Reset always restores
// exactly this value.
func DefaultSaveData() JSON {
	return StudentSaveData(SaveAccount{})
}

// StudentSaveData returns the default skeleton pre-filled with the student's
// account section. Used by the student-ID login flow when it creates the save
// lazily on first login.
func StudentSaveData(account SaveAccount) JSON {
	doc := map[string]interface{}{
		"account": account,
		"progression": map[string]interface{}{
			"totalStarsEarned": 0,
			"levelsFinished":   []interface{}{},
			"current_level_id": "",
		},
		"inventory": []interface{}{},
		"shop": map[string]interface{}{
			"stars":           0,
			"purchaseHistory": []interface{}{},
		},
	}
	raw, _ := json.Marshal(doc)
	return NewJSON(raw)
}
