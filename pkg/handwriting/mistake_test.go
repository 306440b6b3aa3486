package handwriting

import (
	"math"
	"testing"
)

func TestPlanForced(t *testing.T) {
	tests := []struct {
		name  string
		word  string
		index int
		want  string
		ok    bool
	}{
		{"consonants", "Beispiel", 3, "Beisl", true},
		{"later consonant", "Beispiel", 4, "Beispl", true},
		{"vowel against consonant", "Beispiel", 5, "", false},
		{"same as final letter", "Treppe", 2, "", false},
		{"too short", "Haus", 2, "", false},
		{"consonant against vowel", "Schule", 2, "", false},
		{"umlaut vowel", "Gemüse", 3, "Gemüe", true},
		{"vowels", "Straße", 3, "Strae", true},
		{"short word", "Wurst", 2, "Wurt", true},
		{"cut rebuilds the word", "Wurst", 3, "", false},
		{"index out of range", "Fenster", 9, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMistakes(testMistakes, newRNG(1))
			m.Force(tt.index)
			got, ok := m.Plan(tt.word)
			if ok != tt.ok {
				t.Fatalf("Plan(%q) ok = %v, want %v", tt.word, ok, tt.ok)
			}
			if ok && got.Misspelling != tt.want {
				t.Errorf("Plan(%q) = %q, want %q", tt.word, got.Misspelling, tt.want)
			}
		})
	}
}

func TestPlanForceIsOneShot(t *testing.T) {
	m := NewMistakes(testMistakes, newRNG(1)) // Probability 0
	m.Force(3)
	if _, ok := m.Plan("Beispiel"); !ok {
		t.Fatal("forced Plan should misspell")
	}
	if _, ok := m.Plan("Beispiel"); ok {
		t.Error("second Plan should fall back to the zero probability")
	}
}

func TestPlanRandom(t *testing.T) {
	cfg := testMistakes
	cfg.Probability = 34 // 3·34 ≥ 100: every roll succeeds
	m := NewMistakes(cfg, newRNG(7))

	seen := map[int]bool{}
	for range 500 {
		got, ok := m.Plan("Beispiel")
		if !ok {
			continue
		}
		if got.Index < 2 || got.Index > len("Beispiel")-3 {
			t.Fatalf("Index = %d out of [2, 5]", got.Index)
		}
		if got.Misspelling != "Beispiel"[:got.Index+1]+"l" {
			t.Fatalf("Misspelling = %q for index %d", got.Misspelling, got.Index)
		}
		seen[got.Index] = true
	}
	// Only 's' (3) and 'p' (4) are consonants other than the final 'l'.
	if !seen[3] || !seen[4] || len(seen) != 2 {
		t.Errorf("indices seen = %v, want exactly 3 and 4", seen)
	}
}

func TestPlanNeverWithZeroRate(t *testing.T) {
	m := NewMistakes(testMistakes, newRNG(9))
	for range 200 {
		if _, ok := m.Plan("Fensterbank"); ok {
			t.Fatal("Plan misspelled with a zero rate")
		}
	}
}

func TestStrike(t *testing.T) {
	m := NewMistakes(testMistakes, newRNG(3))
	traj, err := m.Strike(Extent{Min: 10, Max: 30}, 100, 5, 6, 5, testPen)
	if err != nil {
		t.Fatal(err)
	}

	if got := len(traj.Samples); got != 75 {
		t.Fatalf("len(Samples) = %d, want 75", got)
	}
	if len(traj.Lifts) != 0 {
		t.Errorf("Lifts = %v, want a single stroke", traj.Lifts)
	}
	first, last := traj.Samples[0], traj.Samples[74]
	if first.X != 9 || last.X != 31 {
		t.Errorf("x span = [%v, %v], want [9, 31]", first.X, last.X)
	}
	if first.T != 0 || math.Abs(last.T-0.5) > 1e-9 {
		t.Errorf("time span = [%v, %v], want [0, 0.5]", first.T, last.T)
	}

	checkMonotonic(t, traj)
	checkPenBounds(t, traj)
	for i, s := range traj.Samples {
		if d := s.Y - 102.4; math.Abs(d) > 0.3 {
			t.Fatalf("sample %d y = %v, too far from 102.4", i, s.Y)
		}
	}
}

func TestStrikeEmpty(t *testing.T) {
	m := NewMistakes(testMistakes, newRNG(3))
	traj, err := m.Strike(Extent{Min: 10, Max: 30}, 100, 0, 6, 5, testPen)
	if err != nil || !traj.Empty() {
		t.Errorf("Strike of zero characters = %+v, %v; want empty", traj, err)
	}
}
