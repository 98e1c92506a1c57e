package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/julihealth/wellness-backend/internal/domain"
	"github.com/julihealth/wellness-backend/internal/platform/dbctx"
	"github.com/julihealth/wellness-backend/internal/platform/logger"
)

// ScoreRunRepo records batch recomputation runs.
type ScoreRunRepo interface {
	Create(dbc dbctx.Context, row *domain.ScoreRun) (*domain.ScoreRun, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
}

type scoreRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScoreRunRepo(db *gorm.DB, baseLog *logger.Logger) ScoreRunRepo {
	return &scoreRunRepo{db: db, log: baseLog.With("repo", "ScoreRunRepo")}
}

func (r *scoreRunRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *scoreRunRepo) Create(dbc dbctx.Context, row *domain.ScoreRun) (*domain.ScoreRun, error) {
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *scoreRunRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return r.tx(dbc).WithContext(dbc.Ctx).
		Model(&domain.ScoreRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}
