package syntax

import (
	"testing"
)

func TestFold_Basic(t *testing.T) {
	tests := []struct {
		a, b rune
		same bool
	}{
		{'a', 'A', true},
		{'z', 'Z', true},
		{'a', 'b', false},
		{'0', '0', true},
		{'Σ', 'σ', true},
		{'Σ', 'ς', true}, // final sigma folds with sigma
		{'İ', 'i', false},
	}

	for _, tt := range tests {
		got := Fold(tt.a) == Fold(tt.b)
		if got != tt.same {
			t.Errorf("Fold(%q) == Fold(%q): got %v, want %v", tt.a, tt.b, got, tt.same)
		}
	}
}

func TestFoldRanges(t *testing.T) {
	rl := RangeList{{'a', 'z'}}
	folded := FoldRanges(rl)

	for cp := 'A'; cp <= 'Z'; cp++ {
		if !folded.Contains(cp) {
			t.Errorf("folded [a-z] should contain %q", cp)
		}
	}
	if folded.Contains('0') {
		t.Error("folded [a-z] should not contain '0'")
	}
	// Kelvin sign folds to 'k'.
	if !folded.Contains(0x212A) {
		t.Error("folded [a-z] should contain U+212A KELVIN SIGN")
	}
}
