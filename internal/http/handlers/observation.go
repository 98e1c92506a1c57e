package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/julihealth/wellness-backend/internal/data/repos"
	"github.com/julihealth/wellness-backend/internal/domain"
	"github.com/julihealth/wellness-backend/internal/http/response"
	"github.com/julihealth/wellness-backend/internal/platform/dbctx"
	"github.com/julihealth/wellness-backend/internal/platform/logger"
)

type ObservationHandler struct {
	observations repos.ObservationRepo
	log          *logger.Logger
}

func NewObservationHandler(observations repos.ObservationRepo, baseLog *logger.Logger) *ObservationHandler {
	return &ObservationHandler{
		observations: observations,
		log:          baseLog.With("handler", "ObservationHandler"),
	}
}

type observationInput struct {
	Code         string     `json:"code" binding:"required"`
	Variant      *string    `json:"variant"`
	ValueInteger *int64     `json:"value_integer"`
	ValueDecimal *float64   `json:"value_decimal"`
	ValueString  *string    `json:"value_string"`
	ValueBoolean *bool      `json:"value_boolean"`
	EffectiveAt  time.Time  `json:"effective_at" binding:"required"`
	PeriodStart  *time.Time `json:"period_start"`
	PeriodEnd    *time.Time `json:"period_end"`
	Category     string     `json:"category"`
	DataSource   string     `json:"data_source"`
	Unit         string     `json:"unit"`
	SourceID     *string    `json:"source_id"`
}

func (in *observationInput) hasValue() bool {
	return in.ValueInteger != nil || in.ValueDecimal != nil ||
		in.ValueString != nil || in.ValueBoolean != nil
}

type ingestRequest struct {
	Observations []observationInput `json:"observations" binding:"required,min=1,max=500"`
}

// Ingest accepts a batch of observations for the authenticated user. Rows
// that collide with an already-ingested source record are rejected by the
// unique index and surface as a conflict.
func (h *ObservationHandler) Ingest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}

	rows := make([]*domain.Observation, 0, len(req.Observations))
	for i := range req.Observations {
		in := &req.Observations[i]
		if !in.hasValue() {
			response.RespondError(c, http.StatusBadRequest, "observation_missing_value", nil)
			return
		}
		rows = append(rows, &domain.Observation{
			UserID:       userID,
			Code:         in.Code,
			Variant:      in.Variant,
			ValueInteger: in.ValueInteger,
			ValueDecimal: in.ValueDecimal,
			ValueString:  in.ValueString,
			ValueBoolean: in.ValueBoolean,
			EffectiveAt:  in.EffectiveAt,
			PeriodStart:  in.PeriodStart,
			PeriodEnd:    in.PeriodEnd,
			Category:     in.Category,
			DataSource:   in.DataSource,
			Unit:         in.Unit,
			SourceID:     in.SourceID,
		})
	}

	saved, err := h.observations.Create(dbctx.Context{Ctx: c.Request.Context()}, rows)
	if err != nil {
		if isDuplicateKeyError(err) {
			response.RespondError(c, http.StatusConflict, "observation_already_ingested", nil)
			return
		}
		h.log.Error("Failed to ingest observations", "error", err, "user_id", userID)
		response.RespondError(c, http.StatusInternalServerError, "observation_ingest_failed", err)
		return
	}

	response.RespondOK(c, gin.H{"ingested": len(saved)})
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
