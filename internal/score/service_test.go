package score

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/julihealth/wellness-backend/internal/data/repos"
	"github.com/julihealth/wellness-backend/internal/domain"
	"github.com/julihealth/wellness-backend/internal/platform/dbctx"
)

// fakeScoreStore is an in-memory WellnessScoreRepo. Guarded so concurrent
// batch tests stay race-free.
type fakeScoreStore struct {
	mu   sync.Mutex
	rows []*domain.WellnessScore
}

func (f *fakeScoreStore) Create(dbc dbctx.Context, row *domain.WellnessScore) (*domain.WellnessScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.CreatedAt = time.Now()
	f.rows = append(f.rows, row)
	return row, nil
}

func (f *fakeScoreStore) LatestForUserCondition(dbc dbctx.Context, userID uuid.UUID, conditionCode string) (*domain.WellnessScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *domain.WellnessScore
	for _, row := range f.rows {
		if row.UserID != userID || row.ConditionCode != conditionCode {
			continue
		}
		if latest == nil || row.EffectiveAt.After(latest.EffectiveAt) {
			latest = row
		}
	}
	return latest, nil
}

func (f *fakeScoreStore) History(dbc dbctx.Context, userID uuid.UUID, conditionCode string, page, pageSize int) ([]*domain.WellnessScore, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*domain.WellnessScore
	for _, row := range f.rows {
		if row.UserID == userID && row.ConditionCode == conditionCode {
			matched = append(matched, row)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].EffectiveAt.After(matched[j].EffectiveAt)
	})
	total := int64(len(matched))

	start := (page - 1) * pageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

type fakeConditionDirectory struct {
	conditions map[uuid.UUID][]string
	pairs      []repos.UserConditionPair
}

func (f *fakeConditionDirectory) Create(dbc dbctx.Context, rows []*domain.UserCondition) ([]*domain.UserCondition, error) {
	return rows, nil
}

func (f *fakeConditionDirectory) ConditionsForUser(dbc dbctx.Context, userID uuid.UUID) ([]string, error) {
	return f.conditions[userID], nil
}

func (f *fakeConditionDirectory) ActiveUserConditionPairs(dbc dbctx.Context, activeDays int) ([]repos.UserConditionPair, error) {
	return f.pairs, nil
}

type fakeCache struct {
	sets        int
	invalidated int
	latest      map[string]*domain.WellnessScore
}

func (f *fakeCache) key(userID uuid.UUID, code string) string { return userID.String() + "/" + code }

func (f *fakeCache) GetLatest(ctx context.Context, userID uuid.UUID, code string) (*domain.WellnessScore, bool) {
	row, ok := f.latest[f.key(userID, code)]
	return row, ok
}

func (f *fakeCache) SetLatest(ctx context.Context, userID uuid.UUID, code string, row *domain.WellnessScore) {
	if f.latest == nil {
		f.latest = map[string]*domain.WellnessScore{}
	}
	f.latest[f.key(userID, code)] = row
	f.sets++
}

func (f *fakeCache) Invalidate(ctx context.Context, userID uuid.UUID, code string) {
	delete(f.latest, f.key(userID, code))
	f.invalidated++
}

// scorableObs returns observation data that yields a computable depression
// score: air quality 50 (20), sleep 420 (20), mood good (15).
func scorableObs() *fakeObsRepo {
	return &fakeObsRepo{
		latest: map[string]float64{
			domain.ObsAirQuality: 50,
			domain.ObsTimeAsleep: 420,
		},
		latestString: map[string]string{
			domain.ObsDailyMood: "good",
		},
	}
}

func newTestService(t *testing.T, obs *fakeObsRepo, store *fakeScoreStore, dir *fakeConditionDirectory, cache LatestScoreCache) *Service {
	t.Helper()
	log := newTestLogger(t)
	registry := NewRegistry().Seal()
	agg := NewAggregator(registry, NewResolver(obs, log), log)
	return NewService(nil, log, registry, agg, store, dir, cache)
}

func TestCalculateAndSave_SavesNewScore(t *testing.T) {
	store := &fakeScoreStore{}
	cache := &fakeCache{}
	svc := newTestService(t, scorableObs(), store, &fakeConditionDirectory{}, cache)

	userID := uuid.New()
	row, outcome, err := svc.CalculateAndSave(context.Background(), userID, domain.ConditionDepression, time.Now())
	if err != nil {
		t.Fatalf("CalculateAndSave: %v", err)
	}
	if outcome != OutcomeSaved {
		t.Fatalf("outcome: got %v, want OutcomeSaved", outcome)
	}
	if row.Score != 85 {
		t.Fatalf("score: got %d, want 85", row.Score)
	}
	if len(store.rows) != 1 {
		t.Fatalf("stored rows: got %d, want 1", len(store.rows))
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets: got %d, want 1", cache.sets)
	}
	if row.SleepScore == nil || *row.SleepScore != 20 {
		t.Fatalf("sleep contribution column: got %v, want 20", row.SleepScore)
	}
	if row.MedicationScore != nil {
		t.Fatal("medication columns should stay nil")
	}
}

func TestCalculateAndSave_SkipsUnchangedValue(t *testing.T) {
	store := &fakeScoreStore{}
	svc := newTestService(t, scorableObs(), store, &fakeConditionDirectory{}, nil)

	userID := uuid.New()
	if _, outcome, _ := svc.CalculateAndSave(context.Background(), userID, domain.ConditionDepression, time.Now()); outcome != OutcomeSaved {
		t.Fatalf("first pass: got %v, want OutcomeSaved", outcome)
	}

	// Same inputs produce the same value; the second pass must not append.
	row, outcome, err := svc.CalculateAndSave(context.Background(), userID, domain.ConditionDepression, time.Now())
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if outcome != OutcomeUnchanged {
		t.Fatalf("outcome: got %v, want OutcomeUnchanged", outcome)
	}
	if len(store.rows) != 1 {
		t.Fatalf("stored rows: got %d, want 1", len(store.rows))
	}
	if row == nil || row.Score != 85 {
		t.Fatalf("unchanged pass should return the existing row, got %+v", row)
	}
}

func TestCalculateAndSave_AppendsWhenValueChanges(t *testing.T) {
	obs := scorableObs()
	store := &fakeScoreStore{}
	svc := newTestService(t, obs, store, &fakeConditionDirectory{}, nil)

	userID := uuid.New()
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	clock := base.Add(9 * time.Hour)
	svc.WithClock(func() time.Time { return clock })

	if _, _, err := svc.CalculateAndSave(context.Background(), userID, domain.ConditionDepression, base); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	// Worse sleep changes the composite; a second row is appended.
	obs.latest[domain.ObsTimeAsleep] = 280
	clock = base.Add(15 * time.Hour)
	if _, outcome, err := svc.CalculateAndSave(context.Background(), userID, domain.ConditionDepression, base); err != nil || outcome != OutcomeSaved {
		t.Fatalf("second pass: outcome %v err %v", outcome, err)
	}

	if len(store.rows) != 2 {
		t.Fatalf("stored rows: got %d, want 2", len(store.rows))
	}
	if store.rows[0].EffectiveAt.Equal(store.rows[1].EffectiveAt) {
		t.Fatal("rows on the same date must have distinct effective timestamps")
	}
	for _, row := range store.rows {
		y, m, d := row.EffectiveAt.Date()
		if y != 2026 || m != time.March || d != 10 {
			t.Fatalf("effective date drifted: %v", row.EffectiveAt)
		}
	}
}

func TestCalculateAndSave_InsufficientData(t *testing.T) {
	obs := &fakeObsRepo{
		latest: map[string]float64{domain.ObsAirQuality: 40},
	}
	store := &fakeScoreStore{}
	svc := newTestService(t, obs, store, &fakeConditionDirectory{}, nil)

	row, outcome, err := svc.CalculateAndSave(context.Background(), uuid.New(), domain.ConditionDepression, time.Now())
	if err != nil {
		t.Fatalf("CalculateAndSave: %v", err)
	}
	if outcome != OutcomeInsufficientData {
		t.Fatalf("outcome: got %v, want OutcomeInsufficientData", outcome)
	}
	if row != nil || len(store.rows) != 0 {
		t.Fatal("nothing should be persisted below the data-points gate")
	}
}

func TestLatest_UsesCacheThenStore(t *testing.T) {
	store := &fakeScoreStore{}
	cache := &fakeCache{}
	svc := newTestService(t, scorableObs(), store, &fakeConditionDirectory{}, cache)

	userID := uuid.New()
	if _, err := svc.Latest(context.Background(), userID, domain.ConditionDepression); err != nil {
		t.Fatalf("Latest on empty store: %v", err)
	}

	if _, _, err := svc.CalculateAndSave(context.Background(), userID, domain.ConditionDepression, time.Now()); err != nil {
		t.Fatalf("CalculateAndSave: %v", err)
	}

	resp, err := svc.Latest(context.Background(), userID, domain.ConditionDepression)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if resp == nil || resp.Score != 85 {
		t.Fatalf("latest response: %+v", resp)
	}
	if resp.ConditionName != "Depression" {
		t.Fatalf("condition name: got %q", resp.ConditionName)
	}
	if len(resp.Factors) != 7 {
		t.Fatalf("factor breakdown: got %d entries, want 7", len(resp.Factors))
	}
}

func TestLatest_RejectsUnsupportedCondition(t *testing.T) {
	svc := newTestService(t, scorableObs(), &fakeScoreStore{}, &fakeConditionDirectory{}, nil)
	if _, err := svc.Latest(context.Background(), uuid.New(), "999999"); err == nil {
		t.Fatal("unsupported condition must be rejected")
	}
}

func TestLatestForAllConditions_SplitsScoredAndUnscored(t *testing.T) {
	userID := uuid.New()
	dir := &fakeConditionDirectory{
		conditions: map[uuid.UUID][]string{
			userID: {domain.ConditionAsthma, domain.ConditionDepression},
		},
	}
	store := &fakeScoreStore{}
	svc := newTestService(t, scorableObs(), store, dir, nil)

	if _, _, err := svc.CalculateAndSave(context.Background(), userID, domain.ConditionDepression, time.Now()); err != nil {
		t.Fatalf("CalculateAndSave: %v", err)
	}

	out, err := svc.LatestForAllConditions(context.Background(), userID)
	if err != nil {
		t.Fatalf("LatestForAllConditions: %v", err)
	}
	if len(out.Scores) != 1 || out.Scores[0].ConditionCode != domain.ConditionDepression {
		t.Fatalf("scores: %+v", out.Scores)
	}
	if len(out.ConditionsWithoutScore) != 1 || out.ConditionsWithoutScore[0] != domain.ConditionAsthma {
		t.Fatalf("conditions without score: %+v", out.ConditionsWithoutScore)
	}
}

func TestHistory_Paginates(t *testing.T) {
	store := &fakeScoreStore{}
	svc := newTestService(t, scorableObs(), store, &fakeConditionDirectory{}, nil)

	userID := uuid.New()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		store.rows = append(store.rows, &domain.WellnessScore{
			ID:            uuid.New(),
			UserID:        userID,
			ConditionCode: domain.ConditionDepression,
			Score:         60 + i,
			EffectiveAt:   base.AddDate(0, 0, i),
		})
	}

	out, err := svc.History(context.Background(), userID, domain.ConditionDepression, 2, 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if out.Total != 5 {
		t.Fatalf("total: got %d, want 5", out.Total)
	}
	if len(out.Scores) != 2 {
		t.Fatalf("page size: got %d, want 2", len(out.Scores))
	}
	// Page 2 of the descending history holds the third and fourth newest rows.
	if out.Scores[0].Score != 62 || out.Scores[1].Score != 61 {
		t.Fatalf("page contents: %d, %d", out.Scores[0].Score, out.Scores[1].Score)
	}
}
