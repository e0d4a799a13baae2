package physics

import (
	"testing"
)

func pts(xs ...float64) []Vec2 {
	out := make([]Vec2, len(xs))
	for i, x := range xs {
		out[i] = Vec2{X: x}
	}
	return out
}

func equalPoints(a, b []Vec2) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTrail(t *testing.T) {
	tests := []struct {
		name   string
		limit  int
		append []float64
		want   []Vec2
	}{
		{"unbounded empty", 0, nil, pts()},
		{"unbounded", 0, []float64{1, 2, 3, 4}, pts(1, 2, 3, 4)},
		{"negative limit is unbounded", -3, []float64{1, 2, 3, 4}, pts(1, 2, 3, 4)},
		{"bounded under limit", 3, []float64{1, 2}, pts(1, 2)},
		{"bounded at limit", 3, []float64{1, 2, 3}, pts(1, 2, 3)},
		{"bounded evicts oldest", 3, []float64{1, 2, 3, 4, 5}, pts(3, 4, 5)},
		{"bounded wraps twice", 2, []float64{1, 2, 3, 4, 5, 6, 7}, pts(6, 7)},
		{"limit one", 1, []float64{1, 2, 3}, pts(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTrail(tt.limit)
			for _, x := range tt.append {
				tr.Append(Vec2{X: x})
			}
			got := tr.Points()
			if !equalPoints(got, tt.want) {
				t.Errorf("Points() = %v, want %v", got, tt.want)
			}
			if tr.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", tr.Len(), len(tt.want))
			}

			last, ok := tr.Last()
			if len(tt.want) == 0 {
				if ok {
					t.Errorf("Last() ok = true on empty trail")
				}
				return
			}
			if !ok || last != tt.want[len(tt.want)-1] {
				t.Errorf("Last() = %v, %v; want %v", last, ok, tt.want[len(tt.want)-1])
			}
		})
	}
}

func TestTrail_PointsIsCopy(t *testing.T) {
	tr := NewTrail(0)
	tr.Append(Vec2{X: 1})
	p := tr.Points()
	p[0].X = 99
	if got := tr.Points()[0].X; got != 1 {
		t.Errorf("mutating Points() result changed the trail: %v", got)
	}
}

func TestTrail_Tail(t *testing.T) {
	tr := NewTrail(4)
	for _, x := range []float64{1, 2, 3, 4, 5, 6} {
		tr.Append(Vec2{X: x})
	}
	if got := tr.Tail(2); !equalPoints(got, pts(5, 6)) {
		t.Errorf("Tail(2) = %v", got)
	}
	if got := tr.Tail(0); !equalPoints(got, pts(3, 4, 5, 6)) {
		t.Errorf("Tail(0) = %v", got)
	}
	if got := tr.Tail(10); !equalPoints(got, pts(3, 4, 5, 6)) {
		t.Errorf("Tail(10) = %v", got)
	}
}
