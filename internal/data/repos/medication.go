package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/julihealth/wellness-backend/internal/domain"
	"github.com/julihealth/wellness-backend/internal/platform/dbctx"
	"github.com/julihealth/wellness-backend/internal/platform/logger"
)

// MedicationRepo backs the medication-compliance calculation.
type MedicationRepo interface {
	CreateMedications(dbc dbctx.Context, rows []*domain.UserMedication) ([]*domain.UserMedication, error)
	CreateIntakes(dbc dbctx.Context, rows []*domain.MedicationIntake) ([]*domain.MedicationIntake, error)

	// ActiveMedications returns the user's active medication schedules.
	ActiveMedications(dbc dbctx.Context, userID uuid.UUID) ([]*domain.UserMedication, error)

	// IntakeCountsOnDate returns doses taken on the given date, keyed by
	// medication ID.
	IntakeCountsOnDate(dbc dbctx.Context, userID uuid.UUID, onDate time.Time) (map[uuid.UUID]int, error)
}

type medicationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMedicationRepo(db *gorm.DB, baseLog *logger.Logger) MedicationRepo {
	return &medicationRepo{db: db, log: baseLog.With("repo", "MedicationRepo")}
}

func (r *medicationRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *medicationRepo) CreateMedications(dbc dbctx.Context, rows []*domain.UserMedication) ([]*domain.UserMedication, error) {
	if len(rows) == 0 {
		return []*domain.UserMedication{}, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *medicationRepo) CreateIntakes(dbc dbctx.Context, rows []*domain.MedicationIntake) ([]*domain.MedicationIntake, error) {
	if len(rows) == 0 {
		return []*domain.MedicationIntake{}, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *medicationRepo) ActiveMedications(dbc dbctx.Context, userID uuid.UUID) ([]*domain.UserMedication, error) {
	var rows []*domain.UserMedication
	if userID == uuid.Nil {
		return rows, nil
	}
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *medicationRepo) IntakeCountsOnDate(dbc dbctx.Context, userID uuid.UUID, onDate time.Time) (map[uuid.UUID]int, error) {
	type countRow struct {
		MedicationID uuid.UUID `gorm:"column:medication_id"`
		Count        int       `gorm:"column:count"`
	}

	var rows []countRow
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&domain.MedicationIntake{}).
		Select("medication_id, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Where("taken_at >= ? AND taken_at <= ?", dayStart(onDate), dayEnd(onDate)).
		Group("medication_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		counts[row.MedicationID] = row.Count
	}
	return counts, nil
}
