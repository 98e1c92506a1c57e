package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ScoreRun is the ledger row for one batch recomputation pass.
type ScoreRun struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	StartedAt  time.Time  `gorm:"column:started_at;not null;index" json:"started_at"`
	FinishedAt *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`

	Pairs   int `gorm:"column:pairs;not null;default:0" json:"pairs"`
	Saved   int `gorm:"column:saved;not null;default:0" json:"saved"`
	Skipped int `gorm:"column:skipped;not null;default:0" json:"skipped"`
	Errored int `gorm:"column:errored;not null;default:0" json:"errored"`

	// Per-pair error details, keyed by "<user_id>/<condition_code>".
	Errors datatypes.JSON `gorm:"column:errors;type:jsonb" json:"errors,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ScoreRun) TableName() string { return "score_run" }
