package service

import (
	"reflect"
	"testing"
)

func TestShuffleOptionsDeterministic(t *testing.T) {
	options := []string{"int x;", "x int;", "var x int", "declare x"}

	first := ShuffleOptions(7, 3, 21, options, "B")
	for i := 0; i < 10; i++ {
		again := ShuffleOptions(7, 3, 21, options, "B")
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("shuffle not deterministic: %v vs %v", first, again)
		}
	}
}

func TestShuffleOptionsCorrectMoves(t *testing.T) {
	options := []string{"opt A", "opt B", "opt C", "opt D"}

	// 遍历一批种子组合，正确选项必须保留且不落在原位置
	for student := uint(1); student <= 20; student++ {
		for q := uint(1); q <= 5; q++ {
			got := ShuffleOptions(student, 9, q, options, "C")
			newIdx := letterIndex(got.CorrectLetter)
			if newIdx < 0 || newIdx >= len(got.Options) {
				t.Fatalf("invalid correct letter %q", got.CorrectLetter)
			}
			if got.Options[newIdx] != "opt C" {
				t.Fatalf("correct letter %q points at %q, want %q", got.CorrectLetter, got.Options[newIdx], "opt C")
			}
			if newIdx == 2 {
				t.Fatalf("student %d question %d: correct option stayed at original position", student, q)
			}
			if len(got.Options) != len(options) {
				t.Fatalf("option count changed: %d", len(got.Options))
			}
		}
	}
}

func TestShuffleOptionsDiffersByStudent(t *testing.T) {
	options := []string{"a", "b", "c", "d", "e"}

	distinct := false
	base := ShuffleOptions(1, 1, 1, options, "A")
	for student := uint(2); student <= 10; student++ {
		if !reflect.DeepEqual(base, ShuffleOptions(student, 1, 1, options, "A")) {
			distinct = true
			break
		}
	}
	if !distinct {
		t.Fatal("expected at least one student to see a different order")
	}
}

func TestShuffleOptionsDegenerateInputs(t *testing.T) {
	single := []string{"only"}
	if got := ShuffleOptions(1, 1, 1, single, "A"); !reflect.DeepEqual(got.Options, single) || got.CorrectLetter != "A" {
		t.Fatalf("single option must pass through, got %v", got)
	}

	out := ShuffleOptions(1, 1, 1, []string{"a", "b"}, "Z")
	if out.CorrectLetter != "Z" {
		t.Fatalf("out of range letter must pass through, got %v", out)
	}

	if got := ShuffleOptions(1, 1, 1, []string{"a", "b"}, ""); got.CorrectLetter != "" {
		t.Fatalf("empty letter must pass through, got %v", got)
	}
}

func TestLetterIndex(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"A", 0}, {"D", 3}, {"a", 0}, {"c", 2},
		{"", -1}, {"AB", -1}, {"1", -1}, {"?", -1},
	}
	for _, tt := range tests {
		if got := letterIndex(tt.in); got != tt.want {
			t.Fatalf("letterIndex(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if indexLetter(0) != "A" || indexLetter(3) != "D" {
		t.Fatal("indexLetter mapping broken")
	}
}
