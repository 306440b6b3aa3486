package handwriting

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteDeterministic(t *testing.T) {
	const text = "Liebe Oma,\nvielen Dank für das schöne Geschenk."

	w1, rec1 := newTestWriter(t, 42)
	w2, rec2 := newTestWriter(t, 42)
	if err := w1.Write(text); err != nil {
		t.Fatal(err)
	}
	if err := w2.Write(text); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(rec1.traces, rec2.traces); diff != "" {
		t.Errorf("same seed produced different trajectories (-first +second):\n%s", diff)
	}

	w3, rec3 := newTestWriter(t, 43)
	if err := w3.Write(text); err != nil {
		t.Fatal(err)
	}
	if cmp.Equal(rec1.traces, rec3.traces) {
		t.Error("different seeds produced identical trajectories")
	}
}

func TestWriteInvariants(t *testing.T) {
	w, rec := newTestWriter(t, 1)
	w.Mistakes().cfg.Probability = 10
	if err := w.Write(strings.Repeat("Handschrift wirkt persönlicher als Druckbuchstaben. ", 30)); err != nil {
		t.Fatal(err)
	}
	if len(rec.traces) == 0 {
		t.Fatal("nothing traced")
	}
	for _, traj := range rec.traces {
		checkMonotonic(t, traj)
		checkPenBounds(t, traj)
	}
}

func TestWriteLines(t *testing.T) {
	w, _ := newTestWriter(t, 5)
	if err := w.Write("ab cd\n\nef\r\n"); err != nil {
		t.Fatal(err)
	}

	words := w.Words()
	if len(words) != 3 {
		t.Fatalf("words = %+v, want 3", words)
	}
	wantBaselines := []float64{testPage.Top, testPage.Top, testPage.Top - 20}
	for i, want := range wantBaselines {
		if words[i].Baseline != want {
			t.Errorf("word %q baseline = %v, want %v", words[i].Text, words[i].Baseline, want)
		}
	}
	if words[1].X.Min <= words[0].X.Max {
		t.Errorf("second word starts at %v, before the first ends at %v", words[1].X.Min, words[0].X.Max)
	}
	if got := w.Stats().Lines; got != 3 {
		t.Errorf("Stats().Lines = %d, want 3", got)
	}
}

func TestFitWrapsWholeWord(t *testing.T) {
	w, _ := newTestWriter(t, 1)
	w.x = 200
	w.charEnd = 226

	glyphs := []Glyph{line(200, 10, true), line(215, 8, true)}
	before := [][]Sample{
		append([]Sample(nil), glyphs[0].Strokes[0]...),
		append([]Sample(nil), glyphs[1].Strokes[0]...),
	}

	if w.fit(glyphs) {
		t.Fatal("fit requested a page break at the top of the page")
	}

	dx := -(200 - testPage.Left)
	for gi, g := range glyphs {
		for i, s := range g.Strokes[0] {
			b := before[gi][i]
			if s.X != b.X+dx || s.Y != b.Y-testPage.LineHeight {
				t.Fatalf("glyph %d sample %d moved to (%v, %v), want (%v, %v)",
					gi, i, s.X, s.Y, b.X+dx, b.Y-testPage.LineHeight)
			}
		}
	}
	if w.x != testPage.Left || w.y != testPage.Top-testPage.LineHeight {
		t.Errorf("cursor = (%v, %v), want start of next line", w.x, w.y)
	}
	if w.charEnd != 226+dx {
		t.Errorf("charEnd = %v, want %v", w.charEnd, 226+dx)
	}
	if got := w.Stats().Wraps; got != 1 {
		t.Errorf("Wraps = %d, want 1", got)
	}
}

func TestFitPageBreak(t *testing.T) {
	w, _ := newTestWriter(t, 1)
	w.y = 4

	glyphs := []Glyph{line(100, 5, false)}
	for i := range glyphs[0].Strokes[0] {
		glyphs[0].Strokes[0][i].Y = 3
	}
	if !w.fit(glyphs) {
		t.Fatal("fit should request a page break")
	}
	for i, s := range glyphs[0].Strokes[0] {
		if want := 3 + testPage.Top - 4; s.Y != want {
			t.Fatalf("sample %d y = %v, want %v", i, s.Y, want)
		}
	}
	if w.y != testPage.Top {
		t.Errorf("baseline = %v, want %v", w.y, testPage.Top)
	}
}

func TestFitOverflow(t *testing.T) {
	w, _ := newTestWriter(t, 1)
	w.fit([]Glyph{line(testPage.Left, 200, false)})
	if got := w.Stats().Overflows; got != 1 {
		t.Errorf("Overflows = %d, want 1", got)
	}
}

func TestWriteWraps(t *testing.T) {
	w, _ := newTestWriter(t, 11)
	if err := w.Write(strings.Repeat("abc ", 60)); err != nil {
		t.Fatal(err)
	}
	if w.Stats().Wraps == 0 {
		t.Fatal("expected the line to wrap")
	}
	lines := map[int]bool{}
	for _, rec := range w.Words() {
		if rec.X.Max >= testPage.Right {
			t.Errorf("word at %+v reaches the right margin", rec)
		}
		if rec.X.Min < testPage.Left-1 {
			t.Errorf("word at %+v starts left of the margin", rec)
		}
		lines[rec.Line] = true
	}
	if len(lines) < 2 {
		t.Errorf("words spread over %d lines, want several", len(lines))
	}
}

func TestWritePageBreak(t *testing.T) {
	w, rec := newTestWriter(t, 3)
	if err := w.Write(strings.Repeat("ab\n", 30)); err != nil {
		t.Fatal(err)
	}

	if got := w.Stats().Pages; got != 2 {
		t.Fatalf("Pages = %d, want 2", got)
	}
	var breaks int
	for _, e := range rec.events {
		if e == "page" {
			breaks++
		}
	}
	if breaks != 1 {
		t.Errorf("page breaks = %d, want 1", breaks)
	}

	for _, r := range w.Words() {
		if r.Page == 2 {
			if r.Baseline != testPage.Top || r.Line != 0 {
				t.Errorf("first word on page 2 = %+v, want top line", r)
			}
			break
		}
	}
}

func TestWriteMistake(t *testing.T) {
	w, rec := newTestWriter(t, 8)
	w.Mistakes().Force(3)
	if err := w.Write("Beispiel"); err != nil {
		t.Fatal(err)
	}

	words := w.Words()
	if len(words) != 2 {
		t.Fatalf("words = %+v, want misspelling and word", words)
	}
	if words[0].Text != "Beisl" || !words[0].Misspelled {
		t.Errorf("first word = %+v, want misspelled Beisl", words[0])
	}
	if words[1].Text != "Beispiel" || words[1].Misspelled {
		t.Errorf("second word = %+v, want Beispiel", words[1])
	}
	if words[1].X.Min <= words[0].X.Max {
		t.Error("correct word should follow the misspelling")
	}

	// misspelling, correct word, strike-through
	if len(rec.traces) != 3 {
		t.Fatalf("traces = %d, want 3", len(rec.traces))
	}
	strike := rec.traces[2]
	if got, want := len(strike.Samples), 5*testMistakes.PointsPerCharacter; got != want {
		t.Errorf("strike samples = %d, want %d", got, want)
	}
	if got, want := strike.Samples[0].X, words[0].X.Min-testMistakes.Overhang; got-want > 0.005 || want-got > 0.005 {
		t.Errorf("strike starts at %v, want %v", got, want)
	}
	if got, want := strike.Samples[len(strike.Samples)-1].X, words[0].X.Max+testMistakes.Overhang; got-want > 0.005 || want-got > 0.005 {
		t.Errorf("strike ends at %v, want %v", got, want)
	}
	if got := w.Stats().Misspellings; got != 1 {
		t.Errorf("Misspellings = %d, want 1", got)
	}
}

func TestWriteMistakeAcrossPageBreak(t *testing.T) {
	w, rec := newTestWriter(t, 8)
	// The misspelling fits on the last line; the correct word wraps below
	// the bottom margin and starts a new page.
	w.x = testPage.Right - 25
	w.charEnd = w.x
	w.y = 12
	w.Mistakes().Force(3)
	if err := w.Write("Beispiel"); err != nil {
		t.Fatal(err)
	}

	words := w.Words()
	if words[0].Page != 1 || words[1].Page != 2 {
		t.Fatalf("pages = %d, %d; want 1, 2", words[0].Page, words[1].Page)
	}
	want := []string{"trace", "trace", "page", "trace"}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if got := len(rec.traces[1].Samples); got != 5*testMistakes.PointsPerCharacter {
		t.Errorf("second trace has %d samples, want the strike-through", got)
	}
}

func TestWriteMissingGlyph(t *testing.T) {
	w, rec := newTestWriter(t, 2)
	if err := w.Write("a#b"); err != nil {
		t.Fatal(err)
	}
	if got := w.Stats().Gaps; got != 1 {
		t.Errorf("Gaps = %d, want 1", got)
	}
	if len(rec.traces) != 1 {
		t.Errorf("traces = %d, want 1", len(rec.traces))
	}
}

func TestWriteHeader(t *testing.T) {
	w, rec := newTestWriter(t, 4)
	if err := w.WriteHeader("19.Oct.26"); err != nil {
		t.Fatal(err)
	}
	if len(rec.traces) != 1 {
		t.Fatalf("traces = %d, want 1", len(rec.traces))
	}
	first := rec.traces[0].Samples[0]
	if first.X < testPage.DateX-1 || first.X > testPage.DateX+1 {
		t.Errorf("date starts at x = %v, want near %v", first.X, testPage.DateX)
	}
	if len(w.Words()) != 0 {
		t.Error("the header should not count as body text")
	}
}
