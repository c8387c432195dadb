package entities

import (
	"time"
)

// APIToken is the locally persisted bearer token for the StudyMate API.
// The token value is stored encrypted; see internal/tokenstore.
type APIToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Account   string    `gorm:"uniqueIndex;size:255" json:"account"`
	Token     string    `gorm:"type:text" json:"-"` // encrypted, hidden from JSON
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (APIToken) TableName() string {
	return "api_tokens"
}

// DefaultAccount identifies the single signed-in account on this device.
const DefaultAccount = "default"
