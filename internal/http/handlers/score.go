package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/julihealth/wellness-backend/internal/domain"
	"github.com/julihealth/wellness-backend/internal/http/response"
	"github.com/julihealth/wellness-backend/internal/requestdata"
	"github.com/julihealth/wellness-backend/internal/score"
)

type ScoreHandler struct {
	scores *score.Service
}

func NewScoreHandler(scores *score.Service) *ScoreHandler {
	return &ScoreHandler{scores: scores}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return uuid.Nil, false
	}
	return rd.UserID, true
}

// conditionParam validates the :condition_code path param against the
// supported set before anything reaches the engine.
func conditionParam(c *gin.Context) (string, bool) {
	code := c.Param("condition_code")
	if !domain.IsSupportedCondition(code) {
		response.RespondError(c, http.StatusBadRequest, "unsupported_condition", nil)
		return "", false
	}
	return code, true
}

// GetLatestAll returns the most recent stored score for each of the user's
// conditions. Stored scores only; nothing is recomputed here.
func (h *ScoreHandler) GetLatestAll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	out, err := h.scores.LatestForAllConditions(c.Request.Context(), userID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "score_read_failed", err)
		return
	}
	response.RespondOK(c, out)
}

func (h *ScoreHandler) GetLatest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	code, ok := conditionParam(c)
	if !ok {
		return
	}
	out, err := h.scores.Latest(c.Request.Context(), userID, code)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "score_read_failed", err)
		return
	}
	if out == nil {
		response.RespondError(c, http.StatusNotFound, "score_not_found", nil)
		return
	}
	response.RespondOK(c, out)
}

func (h *ScoreHandler) GetHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	code, ok := conditionParam(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize > 100 {
		pageSize = 100
	}

	out, err := h.scores.History(c.Request.Context(), userID, code, page, pageSize)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "score_read_failed", err)
		return
	}
	response.RespondOK(c, out)
}

// GetFactors evaluates the user's factors live for today, without persisting
// anything. Shows what data the engine can currently see.
func (h *ScoreHandler) GetFactors(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	code, ok := conditionParam(c)
	if !ok {
		return
	}

	result, err := h.scores.LiveFactors(c.Request.Context(), userID, code, time.Now())
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "factor_eval_failed", err)
		return
	}

	response.RespondOK(c, gin.H{
		"condition_code":   code,
		"condition_name":   domain.ConditionName(code),
		"data_points":      result.DataPoints,
		"minimum_required": score.MinDataPoints,
		"can_calculate":    result.Sufficient,
		"factors":          result.Factors,
	})
}
