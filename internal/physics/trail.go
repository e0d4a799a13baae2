package physics

// Trail is the chronological position history of a body.
//
// With a zero limit the trail grows without bound. With a positive limit it is
// a ring buffer that keeps only the most recent limit points.
type Trail struct {
	points []Vec2
	limit  int
	start  int // index of the oldest point once the ring is full
}

// NewTrail creates an empty trail. A limit <= 0 means unbounded.
func NewTrail(limit int) *Trail {
	if limit < 0 {
		limit = 0
	}
	t := &Trail{limit: limit}
	if limit > 0 {
		t.points = make([]Vec2, 0, limit)
	}
	return t
}

// Append records p as the newest point, evicting the oldest point when the
// trail is bounded and full.
func (t *Trail) Append(p Vec2) {
	if t.limit == 0 || len(t.points) < t.limit {
		t.points = append(t.points, p)
		return
	}
	t.points[t.start] = p
	t.start = (t.start + 1) % t.limit
}

// Len returns the number of points currently held.
func (t *Trail) Len() int {
	return len(t.points)
}

// Limit returns the configured maximum length, 0 when unbounded.
func (t *Trail) Limit() int {
	return t.limit
}

// Points returns a copy of the trail, oldest point first.
func (t *Trail) Points() []Vec2 {
	out := make([]Vec2, len(t.points))
	n := copy(out, t.points[t.start:])
	copy(out[n:], t.points[:t.start])
	return out
}

// Last returns the newest point. ok is false for an empty trail.
func (t *Trail) Last() (p Vec2, ok bool) {
	if len(t.points) == 0 {
		return Vec2{}, false
	}
	if t.start == 0 {
		return t.points[len(t.points)-1], true
	}
	return t.points[t.start-1], true
}

// Tail returns a copy of the newest n points, oldest first.
func (t *Trail) Tail(n int) []Vec2 {
	all := t.Points()
	if n <= 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}
