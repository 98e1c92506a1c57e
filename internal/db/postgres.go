package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/julihealth/wellness-backend/internal/domain"
	"github.com/julihealth/wellness-backend/internal/platform/envutil"
	"github.com/julihealth/wellness-backend/internal/platform/logger"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	host := envutil.String("POSTGRES_HOST", "localhost")
	port := envutil.String("POSTGRES_PORT", "5432")
	user := envutil.String("POSTGRES_USER", "postgres")
	password := envutil.String("POSTGRES_PASSWORD", "")
	name := envutil.String("POSTGRES_NAME", "wellness")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	serviceLog.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&domain.User{},
		&domain.UserCondition{},
		&domain.UserMedication{},
		&domain.MedicationIntake{},
		&domain.Observation{},
		&domain.WellnessScore{},
		&domain.ScoreRun{},
	)
	if err != nil {
		return fmt.Errorf("auto migration: %w", err)
	}

	// Score history cascades away with its owning user; nothing else ever
	// deletes score rows.
	constraints := []struct{ table, name, sql string }{
		{"user_condition", "fk_user_condition_user_id",
			`ALTER TABLE "user_condition" ADD CONSTRAINT "fk_user_condition_user_id" FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`},
		{"observation", "fk_observation_user_id",
			`ALTER TABLE "observation" ADD CONSTRAINT "fk_observation_user_id" FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`},
		{"user_medication", "fk_user_medication_user_id",
			`ALTER TABLE "user_medication" ADD CONSTRAINT "fk_user_medication_user_id" FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`},
		{"medication_intake", "fk_medication_intake_user_id",
			`ALTER TABLE "medication_intake" ADD CONSTRAINT "fk_medication_intake_user_id" FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`},
		{"wellness_score", "fk_wellness_score_user_id",
			`ALTER TABLE "wellness_score" ADD CONSTRAINT "fk_wellness_score_user_id" FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`},
	}
	for _, c := range constraints {
		if s.db.Migrator().HasConstraint(c.table, c.name) {
			continue
		}
		if err := s.db.Exec(c.sql).Error; err != nil {
			return fmt.Errorf("add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
