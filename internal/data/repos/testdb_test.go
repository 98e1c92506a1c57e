package repos

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/julihealth/wellness-backend/internal/domain"
	"github.com/julihealth/wellness-backend/internal/platform/logger"
)

// The production schema uses postgres defaults (uuid_generate_v4, now) that
// sqlite cannot express, so tests create the tables explicitly and set IDs in
// fixtures.
var testSchema = []string{
	`CREATE TABLE user_condition (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		condition_code TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		deleted_at DATETIME,
		UNIQUE (user_id, condition_code)
	)`,
	`CREATE TABLE observation (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		code TEXT NOT NULL,
		variant TEXT,
		value_integer INTEGER,
		value_decimal REAL,
		value_string TEXT,
		value_boolean BOOLEAN,
		effective_at DATETIME NOT NULL,
		period_start DATETIME,
		period_end DATETIME,
		category TEXT,
		data_source TEXT,
		unit TEXT,
		source_id TEXT,
		created_at DATETIME NOT NULL,
		deleted_at DATETIME,
		UNIQUE (user_id, code, variant, effective_at, source_id)
	)`,
	`CREATE TABLE wellness_score (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		condition_code TEXT NOT NULL,
		score INTEGER NOT NULL,
		effective_at DATETIME NOT NULL,
		air_quality_input REAL, air_quality_score REAL,
		sleep_input REAL, sleep_score REAL,
		biweekly_input REAL, biweekly_score REAL,
		active_energy_input REAL, active_energy_score REAL,
		medication_input REAL, medication_score REAL,
		mood_input REAL, mood_score REAL,
		hrv_input REAL, hrv_score REAL,
		pollen_input REAL, pollen_score REAL,
		inhaler_input REAL, inhaler_score REAL,
		data_points_used INTEGER NOT NULL,
		total_weight INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (user_id, condition_code, effective_at)
	)`,
	`CREATE TABLE user_medication (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		dosage TEXT,
		times_per_day INTEGER NOT NULL DEFAULT 0,
		notes TEXT,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		deleted_at DATETIME
	)`,
	`CREATE TABLE medication_intake (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		medication_id TEXT NOT NULL,
		taken_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL,
		deleted_at DATETIME
	)`,
	`CREATE TABLE score_run (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		pairs INTEGER NOT NULL DEFAULT 0,
		saved INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		errored INTEGER NOT NULL DEFAULT 0,
		errors TEXT,
		created_at DATETIME NOT NULL
	)`,
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Every pooled connection of a plain :memory: DSN would get its own
	// database; pin the pool to one connection.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	for _, stmt := range testSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newRepoTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func seedObservation(t *testing.T, db *gorm.DB, row *domain.Observation) *domain.Observation {
	t.Helper()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seed observation: %v", err)
	}
	return row
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int64) *int64       { return &v }
func strPtr(v string) *string     { return &v }
