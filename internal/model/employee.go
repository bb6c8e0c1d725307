package model

import (
	"time"

	"github.com/google/uuid"
)

// Employee is a staff member; RequiresCashUp marks who is expected to submit
// a daily cash-up.
type Employee struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name           string    `gorm:"not null"`
	Email          *string
	Branch         string `gorm:"type:varchar(80)"`
	RequiresCashUp bool   `gorm:"not null"`
	Active         bool   `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
