package domain

import (
	"time"

	"github.com/google/uuid"
)

// WellnessScore is one computed composite score for a user and condition.
// History is append-only: rows are never updated or deleted except by the
// cascading removal of the owning user.
//
// Factor inputs and contributions are flattened into nullable columns so a
// stored score stays explainable without recomputation. A nil pair means the
// factor had no resolvable data when the score was computed.
type WellnessScore struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index:idx_wellness_score_user_condition;uniqueIndex:uq_wellness_score_user_condition_time,priority:1" json:"user_id"`
	ConditionCode string    `gorm:"column:condition_code;not null;index:idx_wellness_score_user_condition;uniqueIndex:uq_wellness_score_user_condition_time,priority:2" json:"condition_code"`

	Score       int       `gorm:"column:score;not null" json:"score"`
	EffectiveAt time.Time `gorm:"column:effective_at;not null;uniqueIndex:uq_wellness_score_user_condition_time,priority:3" json:"effective_at"`

	AirQualityInput   *float64 `gorm:"column:air_quality_input;type:numeric(10,4)" json:"air_quality_input,omitempty"`
	AirQualityScore   *float64 `gorm:"column:air_quality_score;type:numeric(10,4)" json:"air_quality_score,omitempty"`
	SleepInput        *float64 `gorm:"column:sleep_input;type:numeric(10,4)" json:"sleep_input,omitempty"`
	SleepScore        *float64 `gorm:"column:sleep_score;type:numeric(10,4)" json:"sleep_score,omitempty"`
	BiweeklyInput     *float64 `gorm:"column:biweekly_input;type:numeric(10,4)" json:"biweekly_input,omitempty"`
	BiweeklyScore     *float64 `gorm:"column:biweekly_score;type:numeric(10,4)" json:"biweekly_score,omitempty"`
	ActiveEnergyInput *float64 `gorm:"column:active_energy_input;type:numeric(10,4)" json:"active_energy_input,omitempty"`
	ActiveEnergyScore *float64 `gorm:"column:active_energy_score;type:numeric(10,4)" json:"active_energy_score,omitempty"`
	MedicationInput   *float64 `gorm:"column:medication_input;type:numeric(10,4)" json:"medication_input,omitempty"`
	MedicationScore   *float64 `gorm:"column:medication_score;type:numeric(10,4)" json:"medication_score,omitempty"`
	MoodInput         *float64 `gorm:"column:mood_input;type:numeric(10,4)" json:"mood_input,omitempty"`
	MoodScore         *float64 `gorm:"column:mood_score;type:numeric(10,4)" json:"mood_score,omitempty"`
	HrvInput          *float64 `gorm:"column:hrv_input;type:numeric(10,4)" json:"hrv_input,omitempty"`
	HrvScore          *float64 `gorm:"column:hrv_score;type:numeric(10,4)" json:"hrv_score,omitempty"`
	PollenInput       *float64 `gorm:"column:pollen_input;type:numeric(10,4)" json:"pollen_input,omitempty"`
	PollenScore       *float64 `gorm:"column:pollen_score;type:numeric(10,4)" json:"pollen_score,omitempty"`
	InhalerInput      *float64 `gorm:"column:inhaler_input;type:numeric(10,4)" json:"inhaler_input,omitempty"`
	InhalerScore      *float64 `gorm:"column:inhaler_score;type:numeric(10,4)" json:"inhaler_score,omitempty"`

	DataPointsUsed int `gorm:"column:data_points_used;not null" json:"data_points_used"`
	TotalWeight    int `gorm:"column:total_weight;not null" json:"total_weight"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (WellnessScore) TableName() string { return "wellness_score" }

// FactorPair returns the stored (input, contribution) columns for a factor name.
func (s *WellnessScore) FactorPair(name string) (input, contribution *float64) {
	switch name {
	case "air_quality":
		return s.AirQualityInput, s.AirQualityScore
	case "sleep":
		return s.SleepInput, s.SleepScore
	case "biweekly":
		return s.BiweeklyInput, s.BiweeklyScore
	case "active_energy":
		return s.ActiveEnergyInput, s.ActiveEnergyScore
	case "medication":
		return s.MedicationInput, s.MedicationScore
	case "mood":
		return s.MoodInput, s.MoodScore
	case "hrv":
		return s.HrvInput, s.HrvScore
	case "pollen":
		return s.PollenInput, s.PollenScore
	case "inhaler":
		return s.InhalerInput, s.InhalerScore
	}
	return nil, nil
}

// SetFactorPair stores the (input, contribution) columns for a factor name.
func (s *WellnessScore) SetFactorPair(name string, input, contribution *float64) {
	switch name {
	case "air_quality":
		s.AirQualityInput, s.AirQualityScore = input, contribution
	case "sleep":
		s.SleepInput, s.SleepScore = input, contribution
	case "biweekly":
		s.BiweeklyInput, s.BiweeklyScore = input, contribution
	case "active_energy":
		s.ActiveEnergyInput, s.ActiveEnergyScore = input, contribution
	case "medication":
		s.MedicationInput, s.MedicationScore = input, contribution
	case "mood":
		s.MoodInput, s.MoodScore = input, contribution
	case "hrv":
		s.HrvInput, s.HrvScore = input, contribution
	case "pollen":
		s.PollenInput, s.PollenScore = input, contribution
	case "inhaler":
		s.InhalerInput, s.InhalerScore = input, contribution
	}
}
