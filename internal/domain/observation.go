package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Observation codes consumed by the wellness score engine.
const (
	ObsAirQuality         = "air-quality"
	ObsAirQualityPollen   = "air-quality-pollen"
	ObsTimeAsleep         = "time-asleep"
	ObsTimeLightSleep     = "time-light-sleep"
	ObsTimeRemSleep       = "time-rem-sleep"
	ObsTimeDeepSleep      = "time-deep-sleep"
	ObsActiveEnergyBurned = "active-energy-burned"
	ObsHeartRateVar       = "heart-rate-variability"
	ObsInhalerUsageCount  = "inhaler-usage-count"
	ObsDailyMood          = "daily-questionnaire-mood"

	ObsBiweeklyDepressionScore = "bi-weekly-depression-questionnaire-score"
	ObsBiweeklyAsthmaScore     = "bi-weekly-asthma-questionnaire-score"
	ObsBiweeklyMigraineScore   = "bi-weekly-migraine-questionnaire-score"
)

// Observation is a single health measurement for a user. Exactly one of the
// value columns is expected to be populated per row.
type Observation struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_observation_source,priority:1" json:"user_id"`

	Code    string  `gorm:"column:code;not null;index:idx_observation_lookup;uniqueIndex:uq_observation_source,priority:2" json:"code"`
	Variant *string `gorm:"column:variant;uniqueIndex:uq_observation_source,priority:3" json:"variant,omitempty"`

	ValueInteger *int64   `gorm:"column:value_integer" json:"value_integer,omitempty"`
	ValueDecimal *float64 `gorm:"column:value_decimal;type:numeric(10,4)" json:"value_decimal,omitempty"`
	ValueString  *string  `gorm:"column:value_string" json:"value_string,omitempty"`
	ValueBoolean *bool    `gorm:"column:value_boolean" json:"value_boolean,omitempty"`

	EffectiveAt time.Time  `gorm:"column:effective_at;not null;index:idx_observation_lookup;uniqueIndex:uq_observation_source,priority:4" json:"effective_at"`
	PeriodStart *time.Time `gorm:"column:period_start" json:"period_start,omitempty"`
	PeriodEnd   *time.Time `gorm:"column:period_end" json:"period_end,omitempty"`

	Category   string `gorm:"column:category" json:"category,omitempty"`
	DataSource string `gorm:"column:data_source" json:"data_source,omitempty"`
	Unit       string `gorm:"column:unit" json:"unit,omitempty"`

	// External ID from the data source, part of the dedup key for ingested rows.
	SourceID *string `gorm:"column:source_id;uniqueIndex:uq_observation_source,priority:5" json:"source_id,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Observation) TableName() string { return "observation" }

// NumericValue extracts the numeric payload of an observation, preferring the
// decimal column over the integer one.
func (o *Observation) NumericValue() *float64 {
	if o.ValueDecimal != nil {
		return o.ValueDecimal
	}
	if o.ValueInteger != nil {
		v := float64(*o.ValueInteger)
		return &v
	}
	return nil
}
