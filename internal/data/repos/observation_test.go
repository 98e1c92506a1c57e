package repos

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/julihealth/wellness-backend/internal/domain"
	"github.com/julihealth/wellness-backend/internal/platform/dbctx"
)

var testDay = time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

func TestObservationRepo_LatestOnDate(t *testing.T) {
	db := newTestDB(t)
	repo := NewObservationRepo(db, newRepoTestLogger(t))
	userID := uuid.New()

	seedObservation(t, db, &domain.Observation{
		UserID:       userID,
		Code:         domain.ObsAirQuality,
		ValueInteger: intPtr(40),
		EffectiveAt:  testDay.Add(8 * time.Hour),
	})
	seedObservation(t, db, &domain.Observation{
		UserID:       userID,
		Code:         domain.ObsAirQuality,
		ValueInteger: intPtr(72),
		EffectiveAt:  testDay.Add(17 * time.Hour),
	})
	// Previous day, must not win.
	seedObservation(t, db, &domain.Observation{
		UserID:       userID,
		Code:         domain.ObsAirQuality,
		ValueInteger: intPtr(120),
		EffectiveAt:  testDay.Add(-3 * time.Hour),
	})

	got, err := repo.LatestOnDate(dbctx.Background(), userID, domain.ObsAirQuality, nil, testDay)
	if err != nil {
		t.Fatalf("LatestOnDate: %v", err)
	}
	if got == nil || *got != 72 {
		t.Fatalf("got %v, want 72", got)
	}

	// Another user's data is invisible.
	got, err = repo.LatestOnDate(dbctx.Background(), uuid.New(), domain.ObsAirQuality, nil, testDay)
	if err != nil {
		t.Fatalf("LatestOnDate other user: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for other user, got %v", *got)
	}
}

func TestObservationRepo_DecimalPreferredOverInteger(t *testing.T) {
	db := newTestDB(t)
	repo := NewObservationRepo(db, newRepoTestLogger(t))
	userID := uuid.New()

	seedObservation(t, db, &domain.Observation{
		UserID:       userID,
		Code:         domain.ObsHeartRateVar,
		ValueInteger: intPtr(60),
		ValueDecimal: floatPtr(61.5),
		EffectiveAt:  testDay.Add(9 * time.Hour),
	})

	got, err := repo.LatestOnDate(dbctx.Background(), userID, domain.ObsHeartRateVar, nil, testDay)
	if err != nil {
		t.Fatalf("LatestOnDate: %v", err)
	}
	if got == nil || *got != 61.5 {
		t.Fatalf("got %v, want 61.5", got)
	}
}

func TestObservationRepo_VariantFiltering(t *testing.T) {
	db := newTestDB(t)
	repo := NewObservationRepo(db, newRepoTestLogger(t))
	userID := uuid.New()

	seedObservation(t, db, &domain.Observation{
		UserID:       userID,
		Code:         domain.ObsAirQuality,
		Variant:      strPtr("outdoor"),
		ValueInteger: intPtr(55),
		EffectiveAt:  testDay.Add(10 * time.Hour),
	})
	seedObservation(t, db, &domain.Observation{
		UserID:       userID,
		Code:         domain.ObsAirQuality,
		Variant:      strPtr("indoor"),
		ValueInteger: intPtr(20),
		EffectiveAt:  testDay.Add(11 * time.Hour),
	})

	got, err := repo.LatestOnDate(dbctx.Background(), userID, domain.ObsAirQuality, strPtr("outdoor"), testDay)
	if err != nil {
		t.Fatalf("LatestOnDate: %v", err)
	}
	if got == nil || *got != 55 {
		t.Fatalf("variant filter: got %v, want 55", got)
	}
}

func TestObservationRepo_LatestStringOnDate(t *testing.T) {
	db := newTestDB(t)
	repo := NewObservationRepo(db, newRepoTestLogger(t))
	userID := uuid.New()

	seedObservation(t, db, &domain.Observation{
		UserID:      userID,
		Code:        domain.ObsDailyMood,
		ValueString: strPtr("bad"),
		EffectiveAt: testDay.Add(8 * time.Hour),
	})
	seedObservation(t, db, &domain.Observation{
		UserID:      userID,
		Code:        domain.ObsDailyMood,
		ValueString: strPtr("good"),
		EffectiveAt: testDay.Add(20 * time.Hour),
	})

	got, err := repo.LatestStringOnDate(dbctx.Background(), userID, domain.ObsDailyMood, nil, testDay)
	if err != nil {
		t.Fatalf("LatestStringOnDate: %v", err)
	}
	if got == nil || *got != "good" {
		t.Fatalf("got %v, want good", got)
	}
}

func TestObservationRepo_AverageInWindow(t *testing.T) {
	db := newTestDB(t)
	repo := NewObservationRepo(db, newRepoTestLogger(t))
	userID := uuid.New()

	for i, v := range []int64{200, 250, 300} {
		seedObservation(t, db, &domain.Observation{
			UserID:       userID,
			Code:         domain.ObsActiveEnergyBurned,
			ValueInteger: intPtr(v),
			EffectiveAt:  testDay.AddDate(0, 0, -i).Add(12 * time.Hour),
		})
	}
	// Outside the 10-day window.
	seedObservation(t, db, &domain.Observation{
		UserID:       userID,
		Code:         domain.ObsActiveEnergyBurned,
		ValueInteger: intPtr(9000),
		EffectiveAt:  testDay.AddDate(0, 0, -11),
	})

	got, err := repo.AverageInWindow(dbctx.Background(), userID, domain.ObsActiveEnergyBurned, nil, 10, testDay)
	if err != nil {
		t.Fatalf("AverageInWindow: %v", err)
	}
	if got == nil || *got != 250 {
		t.Fatalf("got %v, want 250", got)
	}

	// No data in window resolves to nil, not zero.
	empty, err := repo.AverageInWindow(dbctx.Background(), uuid.New(), domain.ObsActiveEnergyBurned, nil, 10, testDay)
	if err != nil {
		t.Fatalf("AverageInWindow empty: %v", err)
	}
	if empty != nil {
		t.Fatalf("expected nil average, got %v", *empty)
	}
}

func TestObservationRepo_LatestInWindow(t *testing.T) {
	db := newTestDB(t)
	repo := NewObservationRepo(db, newRepoTestLogger(t))
	userID := uuid.New()

	seedObservation(t, db, &domain.Observation{
		UserID:       userID,
		Code:         domain.ObsBiweeklyDepressionScore,
		ValueInteger: intPtr(18),
		EffectiveAt:  testDay.AddDate(0, 0, -9),
	})
	seedObservation(t, db, &domain.Observation{
		UserID:       userID,
		Code:         domain.ObsBiweeklyDepressionScore,
		ValueInteger: intPtr(12),
		EffectiveAt:  testDay.AddDate(0, 0, -2),
	})

	got, err := repo.LatestInWindow(dbctx.Background(), userID, domain.ObsBiweeklyDepressionScore, nil, 14, testDay)
	if err != nil {
		t.Fatalf("LatestInWindow: %v", err)
	}
	if got == nil || *got != 12 {
		t.Fatalf("got %v, want 12", got)
	}

	// A 14-day window must not reach a 20-day-old response.
	stale, err := repo.LatestInWindow(dbctx.Background(), userID, domain.ObsBiweeklyDepressionScore, nil, 14, testDay.AddDate(0, 0, 25))
	if err != nil {
		t.Fatalf("LatestInWindow stale: %v", err)
	}
	if stale != nil {
		t.Fatalf("expected nil outside window, got %v", *stale)
	}
}

func TestObservationRepo_AllInWindowOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewObservationRepo(db, newRepoTestLogger(t))
	userID := uuid.New()

	for i, v := range []float64{60, 62, 58} {
		seedObservation(t, db, &domain.Observation{
			UserID:       userID,
			Code:         domain.ObsHeartRateVar,
			ValueDecimal: floatPtr(v),
			EffectiveAt:  testDay.AddDate(0, 0, -i).Add(7 * time.Hour),
		})
	}

	got, err := repo.AllInWindow(dbctx.Background(), userID, domain.ObsHeartRateVar, nil, 30, testDay)
	if err != nil {
		t.Fatalf("AllInWindow: %v", err)
	}
	want := []float64{60, 62, 58}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %v, want %v (most recent first)", i, got[i], want[i])
		}
	}
}

func TestObservationRepo_CreateRejectsDuplicateSourceRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewObservationRepo(db, newRepoTestLogger(t))
	userID := uuid.New()

	row := func() *domain.Observation {
		return &domain.Observation{
			ID:           uuid.New(),
			UserID:       userID,
			Code:         domain.ObsAirQuality,
			Variant:      strPtr("outdoor"),
			ValueInteger: intPtr(44),
			EffectiveAt:  testDay.Add(9 * time.Hour),
			SourceID:     strPtr("healthkit-abc123"),
		}
	}

	if _, err := repo.Create(dbctx.Background(), []*domain.Observation{row()}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := repo.Create(dbctx.Background(), []*domain.Observation{row()}); err == nil {
		t.Fatal("re-ingesting the same source row must fail")
	}
}
