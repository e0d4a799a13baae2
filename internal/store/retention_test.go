package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func makeRuns(now time.Time, ages ...time.Duration) []Run {
	runs := make([]Run, len(ages))
	for i, age := range ages {
		runs[i] = Run{ID: int64(len(ages) - i), CreatedAt: now.Add(-age), Samples: 10}
	}
	return runs
}

func runIDs(runs []Run) []int64 {
	var ids []int64
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestRetentionPolicies(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// Newest first: IDs 4, 3, 2, 1.
	runs := makeRuns(now, time.Hour, 2*24*time.Hour, 10*24*time.Hour, 40*24*time.Hour)

	tests := []struct {
		name   string
		policy RetentionPolicy
		want   []int64
	}{
		{"count keeps newest", &CountPolicy{MaxCount: 2}, []int64{4, 3}},
		{"count larger than runs", &CountPolicy{MaxCount: 10}, []int64{4, 3, 2, 1}},
		{"count zero", &CountPolicy{MaxCount: 0}, nil},
		{"age", &AgePolicy{MaxAge: 7 * 24 * time.Hour, now: func() time.Time { return now }}, []int64{4, 3}},
		{"age keeps none", &AgePolicy{MaxAge: time.Minute, now: func() time.Time { return now }}, nil},
		{"sample budget", &SampleBudgetPolicy{MaxSamples: 25}, []int64{4, 3}},
		{"sample budget keeps newest", &SampleBudgetPolicy{MaxSamples: 1}, []int64{4}},
		{
			"composite is a union",
			&CompositePolicy{Policies: []RetentionPolicy{
				&CountPolicy{MaxCount: 1},
				&AgePolicy{MaxAge: 15 * 24 * time.Hour, now: func() time.Time { return now }},
			}},
			[]int64{4, 3, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runIDs(tt.policy.Apply(runs))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewRetentionPolicy(t *testing.T) {
	if p := NewRetentionPolicy(0, 0); p != nil {
		t.Errorf("no limits should give nil, got %T", p)
	}
	if _, ok := NewRetentionPolicy(3, 0).(*CountPolicy); !ok {
		t.Error("count only should give *CountPolicy")
	}
	if _, ok := NewRetentionPolicy(0, time.Hour).(*AgePolicy); !ok {
		t.Error("age only should give *AgePolicy")
	}
	if _, ok := NewRetentionPolicy(3, time.Hour).(*CompositePolicy); !ok {
		t.Error("both limits should give *CompositePolicy")
	}
}

func TestApplyRetention(t *testing.T) {
	for name, mk := range recorders() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r := mk(t)
			defer r.Close()

			var ids []int64
			for i := 0; i < 4; i++ {
				s := newTestSim(t)
				id, err := StartRun(ctx, r, "earth-sun", s)
				if err != nil {
					t.Fatalf("StartRun() error = %v", err)
				}
				if err := s.Run(ctx, 2, Observer(ctx, r, id, 1)); err != nil {
					t.Fatalf("Run() error = %v", err)
				}
				ids = append(ids, id)
			}

			expired, err := Expired(ctx, r, &CountPolicy{MaxCount: 1})
			if err != nil {
				t.Fatalf("Expired() error = %v", err)
			}
			if got := runIDs(expired); !reflect.DeepEqual(got, ids[:3]) {
				t.Errorf("Expired() = %v, want %v", got, ids[:3])
			}

			deleted, err := ApplyRetention(ctx, r, &CountPolicy{MaxCount: 2})
			if err != nil {
				t.Fatalf("ApplyRetention() error = %v", err)
			}
			if !reflect.DeepEqual(deleted, ids[:2]) {
				t.Errorf("deleted = %v, want %v", deleted, ids[:2])
			}

			runs, err := r.Runs(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if got := runIDs(runs); !reflect.DeepEqual(got, ids[2:]) {
				t.Errorf("remaining runs = %v, want %v", got, ids[2:])
			}
			if _, err := r.Samples(ctx, ids[0]); !errors.Is(err, ErrRunNotFound) {
				t.Errorf("samples of a deleted run: expected ErrRunNotFound, got %v", err)
			}
			samples, err := r.Samples(ctx, ids[3])
			if err != nil || len(samples) != 6 {
				t.Errorf("kept run has %d samples (err %v), want 6", len(samples), err)
			}

			deleted, err = ApplyRetention(ctx, r, nil)
			if err != nil || len(deleted) != 0 {
				t.Errorf("nil policy deleted %v (err %v)", deleted, err)
			}
		})
	}
}

func TestDeleteRun_Unknown(t *testing.T) {
	for name, mk := range recorders() {
		t.Run(name, func(t *testing.T) {
			r := mk(t)
			defer r.Close()

			if err := r.DeleteRun(context.Background(), 9); !errors.Is(err, ErrRunNotFound) {
				t.Errorf("expected ErrRunNotFound, got %v", err)
			}
		})
	}
}

func TestInMemoryRecorder_IDsNotReused(t *testing.T) {
	ctx := context.Background()
	r := NewInMemoryRecorder()
	first, _ := r.BeginRun(ctx, RunInfo{Scenario: "a"})
	second, _ := r.BeginRun(ctx, RunInfo{Scenario: "b"})
	if err := r.DeleteRun(ctx, first); err != nil {
		t.Fatal(err)
	}
	third, _ := r.BeginRun(ctx, RunInfo{Scenario: "c"})
	if third == first || third == second {
		t.Errorf("reused run ID %d", third)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"720h", 720 * time.Hour, false},
		{"30m", 30 * time.Minute, false},
		{"30d", 30 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"0d", 0, false},
		{"", 0, true},
		{"d", 0, true},
		{"xd", 0, true},
		{"-3d", 0, true},
		{"5y", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
