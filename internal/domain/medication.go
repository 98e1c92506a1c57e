package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserMedication is an active or retired medication schedule for a user.
// TimesPerDay is the expected daily dose count used by the compliance
// calculation.
type UserMedication struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Name        string `gorm:"column:name;not null" json:"name"`
	Dosage      string `gorm:"column:dosage" json:"dosage,omitempty"`
	TimesPerDay int    `gorm:"column:times_per_day;not null;default:0" json:"times_per_day"`
	Notes       string `gorm:"column:notes;type:text" json:"notes,omitempty"`
	IsActive    bool   `gorm:"column:is_active;not null;default:true;index" json:"is_active"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (UserMedication) TableName() string { return "user_medication" }

// MedicationIntake records a single dose taken.
type MedicationIntake struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	MedicationID uuid.UUID `gorm:"type:uuid;not null;index" json:"medication_id"`

	TakenAt time.Time `gorm:"column:taken_at;not null;index" json:"taken_at"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MedicationIntake) TableName() string { return "medication_intake" }
