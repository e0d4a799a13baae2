package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// RetentionPolicy decides which recorded runs to keep.
type RetentionPolicy interface {
	// Apply returns the runs to keep. runs is sorted newest-first.
	Apply(runs []Run) (keep []Run)
}

// CountPolicy keeps the N most recent runs.
type CountPolicy struct {
	MaxCount int
}

// Apply keeps the first MaxCount runs.
func (p *CountPolicy) Apply(runs []Run) []Run {
	if len(runs) <= p.MaxCount {
		return runs
	}
	return runs[:p.MaxCount]
}

// AgePolicy keeps runs newer than MaxAge.
type AgePolicy struct {
	MaxAge time.Duration

	// now is overridden in tests.
	now func() time.Time
}

// Apply keeps runs whose CreatedAt is within MaxAge of now.
func (p *AgePolicy) Apply(runs []Run) []Run {
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	cutoff := now().Add(-p.MaxAge)
	var keep []Run
	for _, r := range runs {
		if r.CreatedAt.After(cutoff) {
			keep = append(keep, r)
		}
	}
	return keep
}

// SampleBudgetPolicy keeps runs until their combined sample count exceeds
// MaxSamples. The newest run is always kept.
type SampleBudgetPolicy struct {
	MaxSamples int
}

// Apply keeps runs (newest-first) until adding the next would exceed the budget.
func (p *SampleBudgetPolicy) Apply(runs []Run) []Run {
	var keep []Run
	total := 0
	for _, r := range runs {
		if total+r.Samples > p.MaxSamples && len(keep) > 0 {
			break
		}
		keep = append(keep, r)
		total += r.Samples
	}
	return keep
}

// CompositePolicy keeps a run if ANY sub-policy wants it (union).
type CompositePolicy struct {
	Policies []RetentionPolicy
}

// Apply returns the union of runs kept by any sub-policy.
func (p *CompositePolicy) Apply(runs []Run) []Run {
	kept := make(map[int64]bool)
	for _, policy := range p.Policies {
		for _, r := range policy.Apply(runs) {
			kept[r.ID] = true
		}
	}

	var result []Run
	for _, r := range runs {
		if kept[r.ID] {
			result = append(result, r)
		}
	}
	return result
}

// NewRetentionPolicy builds a policy from a run count and an age. A zero
// value disables that limit; nil means keep everything. With both limits
// set a run survives if either keeps it.
func NewRetentionPolicy(maxRuns int, maxAge time.Duration) RetentionPolicy {
	var policies []RetentionPolicy
	if maxRuns > 0 {
		policies = append(policies, &CountPolicy{MaxCount: maxRuns})
	}
	if maxAge > 0 {
		policies = append(policies, &AgePolicy{MaxAge: maxAge})
	}
	switch len(policies) {
	case 0:
		return nil
	case 1:
		return policies[0]
	default:
		return &CompositePolicy{Policies: policies}
	}
}

// Expired returns the runs policy would delete, oldest first.
func Expired(ctx context.Context, r Recorder, policy RetentionPolicy) ([]Run, error) {
	if policy == nil {
		return nil, nil
	}

	runs, err := r.Runs(ctx)
	if err != nil {
		return nil, err
	}

	newest := append([]Run(nil), runs...)
	sort.SliceStable(newest, func(i, j int) bool { return newest[i].ID > newest[j].ID })

	keepSet := make(map[int64]bool)
	for _, run := range policy.Apply(newest) {
		keepSet[run.ID] = true
	}

	var expired []Run
	for _, run := range runs {
		if !keepSet[run.ID] {
			expired = append(expired, run)
		}
	}
	return expired, nil
}

// ApplyRetention deletes the runs policy does not keep and returns their IDs.
func ApplyRetention(ctx context.Context, r Recorder, policy RetentionPolicy) (deleted []int64, err error) {
	expired, err := Expired(ctx, r, policy)
	if err != nil {
		return nil, err
	}

	for _, run := range expired {
		if err := r.DeleteRun(ctx, run.ID); err != nil {
			return deleted, fmt.Errorf("deleting run %d: %w", run.ID, err)
		}
		deleted = append(deleted, run.ID)
	}
	return deleted, nil
}

// ParseDuration parses duration strings like "30d", "2w", "720h".
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}

	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	// Custom suffixes: d (days), w (weeks)
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	num, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || num < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(num) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(num) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration suffix %q in %q", string(suffix), s)
	}
}
