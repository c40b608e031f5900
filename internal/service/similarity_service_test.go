package service

import (
	"math"
	"testing"
)

func TestSimilarityRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "a pointer stores a memory address", "a pointer stores a memory address", 1.0},
		{"case and space insensitive", "  Pointer Stores Address  ", "pointer stores address", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "something", "", 0.0},
		{"disjoint alphabets", "xxxx", "yyyy", 0.0},
		{"half overlap", "abcd", "abxx", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SimilarityRatio(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("SimilarityRatio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarityRatioSymmetric(t *testing.T) {
	a := "memory is allocated on the heap with malloc"
	b := "heap memory comes from malloc"
	if SimilarityRatio(a, b) != SimilarityRatio(b, a) {
		t.Fatal("similarity must be symmetric")
	}
}

func TestSimilarityRatioRange(t *testing.T) {
	pairs := [][2]string{
		{"for loops repeat until the condition fails", "while loops check the condition first"},
		{"int, float, char", "char char char"},
		{"短文本", "完全不同的内容"},
	}
	for _, p := range pairs {
		got := SimilarityRatio(p[0], p[1])
		if got < 0 || got > 1 {
			t.Fatalf("SimilarityRatio(%q, %q) = %v out of [0,1]", p[0], p[1], got)
		}
	}
}

func TestLCSLength(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"abcde", "ace", 3},
		{"abc", "abc", 3},
		{"abc", "def", 0},
		{"", "abc", 0},
	}
	for _, tt := range tests {
		if got := lcsLength([]rune(tt.a), []rune(tt.b)); got != tt.want {
			t.Fatalf("lcsLength(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
