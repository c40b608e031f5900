package service

import (
	"testing"
	"time"
)

func TestSessionExpired(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		limit   int
		elapsed time.Duration
		want    bool
	}{
		{"no limit", 0, 24 * time.Hour, false},
		{"negative limit means unlimited", -60, time.Hour, false},
		{"within limit", 600, 599 * time.Second, false},
		{"exactly at limit", 600, 600 * time.Second, true},
		{"past limit", 600, 601 * time.Second, true},
		{"just started", 600, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SessionExpired(base, tt.limit, base.Add(tt.elapsed)); got != tt.want {
				t.Fatalf("SessionExpired(limit=%d, elapsed=%v) = %v, want %v", tt.limit, tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestMatchOptionLetter(t *testing.T) {
	options := []string{"int x;", "x int;", "var x int", "declare x"}

	tests := []struct {
		raw     string
		want    string
		matched bool
	}{
		{"int x;", "A", true},
		{"  int x;  ", "A", true},
		{"VAR X INT", "C", true},
		{"declare x", "D", true},
		{"float x;", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := matchOptionLetter(options, tt.raw)
		if ok != tt.matched || got != tt.want {
			t.Fatalf("matchOptionLetter(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.matched)
		}
	}
}

func TestMcqPercentage(t *testing.T) {
	tests := []struct {
		correct, total int
		want           float64
	}{
		{0, 0, 0},   // 没有选择题时不产生分数
		{3, 4, 75},
		{4, 4, 100},
		{0, 5, 0},
		{1, 3, 100.0 / 3},
	}
	for _, tt := range tests {
		if got := mcqPercentage(tt.correct, tt.total); got != tt.want {
			t.Fatalf("mcqPercentage(%d, %d) = %v, want %v", tt.correct, tt.total, got, tt.want)
		}
	}
}
