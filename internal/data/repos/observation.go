package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/julihealth/wellness-backend/internal/domain"
	"github.com/julihealth/wellness-backend/internal/platform/dbctx"
	"github.com/julihealth/wellness-backend/internal/platform/logger"
)

// ObservationRepo is the observation query gateway consumed by the score
// engine, plus the write path used by the ingest API.
type ObservationRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Observation) ([]*domain.Observation, error)

	// LatestOnDate returns the numeric value of the most recent observation
	// effective on the given date, or nil when none exists.
	LatestOnDate(dbc dbctx.Context, userID uuid.UUID, code string, variant *string, onDate time.Time) (*float64, error)

	// LatestStringOnDate is LatestOnDate for string-valued observations.
	LatestStringOnDate(dbc dbctx.Context, userID uuid.UUID, code string, variant *string, onDate time.Time) (*string, error)

	// AverageInWindow returns the arithmetic mean of all numeric values in the
	// trailing window, or nil when the window holds no values.
	AverageInWindow(dbc dbctx.Context, userID uuid.UUID, code string, variant *string, days int, endDate time.Time) (*float64, error)

	// LatestInWindow returns the most recent numeric value in the trailing
	// window, or nil when none exists.
	LatestInWindow(dbc dbctx.Context, userID uuid.UUID, code string, variant *string, days int, endDate time.Time) (*float64, error)

	// AllInWindow returns every numeric value in the trailing window ordered
	// most recent first.
	AllInWindow(dbc dbctx.Context, userID uuid.UUID, code string, variant *string, days int, endDate time.Time) ([]float64, error)
}

type observationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewObservationRepo(db *gorm.DB, baseLog *logger.Logger) ObservationRepo {
	return &observationRepo{db: db, log: baseLog.With("repo", "ObservationRepo")}
}

func (r *observationRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *observationRepo) Create(dbc dbctx.Context, rows []*domain.Observation) ([]*domain.Observation, error) {
	if len(rows) == 0 {
		return []*domain.Observation{}, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *observationRepo) scoped(dbc dbctx.Context, userID uuid.UUID, code string, variant *string, from, to time.Time) *gorm.DB {
	q := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&domain.Observation{}).
		Where("user_id = ? AND code = ?", userID, code).
		Where("effective_at >= ? AND effective_at <= ?", from, to)
	if variant != nil {
		q = q.Where("variant = ?", *variant)
	}
	return q
}

func (r *observationRepo) latestRow(dbc dbctx.Context, userID uuid.UUID, code string, variant *string, from, to time.Time) (*domain.Observation, error) {
	var rows []*domain.Observation
	err := r.scoped(dbc, userID, code, variant, from, to).
		Order("effective_at DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *observationRepo) LatestOnDate(dbc dbctx.Context, userID uuid.UUID, code string, variant *string, onDate time.Time) (*float64, error) {
	row, err := r.latestRow(dbc, userID, code, variant, dayStart(onDate), dayEnd(onDate))
	if err != nil || row == nil {
		return nil, err
	}
	return row.NumericValue(), nil
}

func (r *observationRepo) LatestStringOnDate(dbc dbctx.Context, userID uuid.UUID, code string, variant *string, onDate time.Time) (*string, error) {
	row, err := r.latestRow(dbc, userID, code, variant, dayStart(onDate), dayEnd(onDate))
	if err != nil || row == nil {
		return nil, err
	}
	return row.ValueString, nil
}

func (r *observationRepo) AverageInWindow(dbc dbctx.Context, userID uuid.UUID, code string, variant *string, days int, endDate time.Time) (*float64, error) {
	from, to := windowBounds(endDate, days)
	var avg *float64
	err := r.scoped(dbc, userID, code, variant, from, to).
		Select("AVG(COALESCE(value_decimal, value_integer))").
		Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	return avg, nil
}

func (r *observationRepo) LatestInWindow(dbc dbctx.Context, userID uuid.UUID, code string, variant *string, days int, endDate time.Time) (*float64, error) {
	from, to := windowBounds(endDate, days)
	row, err := r.latestRow(dbc, userID, code, variant, from, to)
	if err != nil || row == nil {
		return nil, err
	}
	return row.NumericValue(), nil
}

func (r *observationRepo) AllInWindow(dbc dbctx.Context, userID uuid.UUID, code string, variant *string, days int, endDate time.Time) ([]float64, error) {
	from, to := windowBounds(endDate, days)
	var rows []*domain.Observation
	err := r.scoped(dbc, userID, code, variant, from, to).
		Order("effective_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		if v := row.NumericValue(); v != nil {
			values = append(values, *v)
		}
	}
	return values, nil
}
