package core

import "testing"

func TestPositionAdd(t *testing.T) {
	p := Position{X: 5, Y: 5}

	tests := []struct {
		name     string
		dir      Direction
		expected Position
	}{
		{"up", Up, Position{X: 5, Y: 4}},
		{"down", Down, Position{X: 5, Y: 6}},
		{"left", Left, Position{X: 4, Y: 5}},
		{"right", Right, Position{X: 6, Y: 5}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.Add(tc.dir); got != tc.expected {
				t.Errorf("Add(%v) = %v, expected %v", tc.dir, got, tc.expected)
			}
		})
	}
}

func TestDirectionReverse(t *testing.T) {
	pairs := [][2]Direction{{Up, Down}, {Left, Right}}
	for _, pair := range pairs {
		if !pair[0].IsReverseOf(pair[1]) || !pair[1].IsReverseOf(pair[0]) {
			t.Errorf("%v and %v should be reverses of each other", pair[0], pair[1])
		}
	}

	if Up.IsReverseOf(Left) {
		t.Error("Up is not the reverse of Left")
	}
	if Up.IsReverseOf(Up) {
		t.Error("Up is not the reverse of itself")
	}
}

func TestDirectionIsUnit(t *testing.T) {
	tests := []struct {
		dir      Direction
		expected bool
	}{
		{Up, true},
		{Down, true},
		{Left, true},
		{Right, true},
		{Direction{}, false},
		{Direction{DX: 1, DY: 1}, false},
		{Direction{DX: 2, DY: 0}, false},
		{Direction{DX: 0, DY: -3}, false},
	}

	for _, tc := range tests {
		if got := tc.dir.IsUnit(); got != tc.expected {
			t.Errorf("IsUnit(%v) = %v, expected %v", tc.dir, got, tc.expected)
		}
	}
}

func TestRectContains(t *testing.T) {
	r := NewRect(0, 0, 20, 20)

	tests := []struct {
		name     string
		p        Position
		expected bool
	}{
		{"inside", Position{X: 10, Y: 10}, true},
		{"top-left corner", Position{X: 0, Y: 0}, true},
		{"bottom-right cell", Position{X: 19, Y: 19}, true},
		{"right edge (exclusive)", Position{X: 20, Y: 5}, false},
		{"bottom edge (exclusive)", Position{X: 5, Y: 20}, false},
		{"negative x", Position{X: -1, Y: 5}, false},
		{"negative y", Position{X: 5, Y: -1}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Contains(tc.p); got != tc.expected {
				t.Errorf("Contains(%v) = %v, expected %v", tc.p, got, tc.expected)
			}
		})
	}
}

func TestRectInset(t *testing.T) {
	tests := []struct {
		name     string
		r        Rect
		n        int
		expected Rect
	}{
		{"simple", NewRect(0, 0, 20, 20), 3, NewRect(3, 3, 14, 14)},
		{"zero", NewRect(0, 0, 20, 20), 0, NewRect(0, 0, 20, 20)},
		{"negative clamps to zero", NewRect(0, 0, 20, 20), -2, NewRect(0, 0, 20, 20)},
		{"oversized padding keeps at least one row", NewRect(0, 0, 20, 20), 15, NewRect(9, 9, 2, 2)},
		{"odd size", NewRect(0, 0, 5, 9), 10, NewRect(2, 2, 1, 5)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.r.Inset(tc.n)
			if got != tc.expected {
				t.Errorf("Inset(%d) = %+v, expected %+v", tc.n, got, tc.expected)
			}
			if got.Area() == 0 {
				t.Errorf("Inset(%d) produced an empty rect", tc.n)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, expected int
	}{
		{5, 0, 10, 5},   // within range
		{-5, 0, 10, 0},  // below min
		{15, 0, 10, 10}, // above max
		{0, 0, 10, 0},   // at min
		{10, 0, 10, 10}, // at max
	}

	for _, tc := range tests {
		result := Clamp(tc.val, tc.min, tc.max)
		if result != tc.expected {
			t.Errorf("Clamp(%d, %d, %d) = %d, expected %d", tc.val, tc.min, tc.max, result, tc.expected)
		}
	}
}
