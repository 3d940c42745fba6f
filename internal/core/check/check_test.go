package check

import "testing"

func TestAgainst(t *testing.T) {
	intPtr := func(v int) *int { return &v }
	tests := []struct {
		name       string
		total      int
		difficulty *int
		want       Result
	}{
		{"no difficulty", 3, nil, Result{Success: true}},
		{"exact match", 10, intPtr(10), Result{Checked: true, Success: true}},
		{"above", 15, intPtr(10), Result{Checked: true, Success: true, Margin: 5}},
		{"below", 5, intPtr(10), Result{Checked: true, Margin: -5}},
		{"negative total", -2, intPtr(0), Result{Checked: true, Margin: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Against(tt.total, tt.difficulty); got != tt.want {
				t.Fatalf("Against(%d) = %+v, want %+v", tt.total, got, tt.want)
			}
		})
	}
}
