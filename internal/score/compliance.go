package score

import (
	"time"

	"github.com/google/uuid"

	"github.com/julihealth/wellness-backend/internal/data/repos"
	"github.com/julihealth/wellness-backend/internal/platform/dbctx"
)

// Medication compliance is fully specified and tested but not yet wired into
// the resolver: the medication factor stays a placeholder until product
// enables it. When it is enabled, the factor's raw value is the ratio below
// and its contribution is ratio * multiplier, clamped as usual.

// MedicationSchedule is one active medication with its expected daily doses.
type MedicationSchedule struct {
	ID       uuid.UUID
	Name     string
	Expected int
}

// ComplianceRatio computes the day's medication compliance in [0, 1]:
// sum(min(taken, expected)) / sum(expected) across all active medications.
// Overconsumption never raises compliance. No active medications (or none
// with expected doses) yields 0.
func ComplianceRatio(schedules []MedicationSchedule, taken map[uuid.UUID]int) float64 {
	totalExpected := 0
	totalTaken := 0

	for _, s := range schedules {
		if s.Expected <= 0 {
			continue
		}
		t := taken[s.ID]
		if t > s.Expected {
			t = s.Expected
		}
		totalExpected += s.Expected
		totalTaken += t
	}

	if totalExpected == 0 {
		return 0
	}
	return float64(totalTaken) / float64(totalExpected)
}

// ComplianceService resolves the day's compliance ratio from stored
// medication schedules and intakes.
type ComplianceService struct {
	meds repos.MedicationRepo
}

func NewComplianceService(meds repos.MedicationRepo) *ComplianceService {
	return &ComplianceService{meds: meds}
}

func (s *ComplianceService) RatioForDate(dbc dbctx.Context, userID uuid.UUID, onDate time.Time) (float64, error) {
	meds, err := s.meds.ActiveMedications(dbc, userID)
	if err != nil {
		return 0, err
	}
	taken, err := s.meds.IntakeCountsOnDate(dbc, userID, onDate)
	if err != nil {
		return 0, err
	}

	schedules := make([]MedicationSchedule, 0, len(meds))
	for _, m := range meds {
		schedules = append(schedules, MedicationSchedule{
			ID:       m.ID,
			Name:     m.Name,
			Expected: m.TimesPerDay,
		})
	}
	return ComplianceRatio(schedules, taken), nil
}
