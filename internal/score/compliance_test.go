package score

import (
	"testing"

	"github.com/google/uuid"
)

func TestComplianceRatio(t *testing.T) {
	medA := uuid.New()
	medB := uuid.New()

	cases := []struct {
		name      string
		schedules []MedicationSchedule
		taken     map[uuid.UUID]int
		want      float64
	}{
		{
			name: "nothing taken",
			schedules: []MedicationSchedule{
				{ID: medA, Expected: 2},
			},
			taken: map[uuid.UUID]int{},
			want:  0,
		},
		{
			name: "full compliance",
			schedules: []MedicationSchedule{
				{ID: medA, Expected: 2},
				{ID: medB, Expected: 1},
			},
			taken: map[uuid.UUID]int{medA: 2, medB: 1},
			want:  1,
		},
		{
			name: "half of one medication",
			schedules: []MedicationSchedule{
				{ID: medA, Expected: 2},
			},
			taken: map[uuid.UUID]int{medA: 1},
			want:  0.5,
		},
		{
			name: "partial across two medications",
			schedules: []MedicationSchedule{
				{ID: medA, Expected: 3},
				{ID: medB, Expected: 2},
			},
			taken: map[uuid.UUID]int{medA: 1, medB: 1},
			want:  0.4,
		},
		{
			name: "overconsumption capped at expected",
			schedules: []MedicationSchedule{
				{ID: medA, Expected: 2},
				{ID: medB, Expected: 3},
			},
			taken: map[uuid.UUID]int{medA: 5, medB: 1},
			want:  0.6,
		},
		{
			name: "intake for unknown medication ignored",
			schedules: []MedicationSchedule{
				{ID: medA, Expected: 2},
			},
			taken: map[uuid.UUID]int{medB: 2},
			want:  0,
		},
		{
			name:      "no active medications",
			schedules: nil,
			taken:     map[uuid.UUID]int{medA: 3},
			want:      0,
		},
		{
			name: "zero expected doses excluded",
			schedules: []MedicationSchedule{
				{ID: medA, Expected: 0},
				{ID: medB, Expected: 2},
			},
			taken: map[uuid.UUID]int{medA: 1, medB: 1},
			want:  0.5,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComplianceRatio(tc.schedules, tc.taken); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}
