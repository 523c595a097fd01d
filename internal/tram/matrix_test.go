package tram

import (
	"reflect"
	"testing"
)

func Test_Fold_scoresAndStrand(t *testing.T) {
	m := NewHitMatrix()

	alns := []alignment{
		// forward alignment, two targets, the second seen twice with
		// differing scores
		{contig: "c1", target: "geneA", bitscore: 200, qstart: 1, qend: 300, sstart: 1, send: 300, qlen: 400},
		{contig: "c1", target: "geneB", bitscore: 50, qstart: 1, qend: 100, sstart: 1, send: 100, qlen: 400},
		{contig: "c1", target: "geneB", bitscore: 80, qstart: 50, qend: 200, sstart: 10, send: 160, qlen: 400},
		// reverse-strand contig: subject coordinates descend
		{contig: "c2", target: "geneA", bitscore: 150, qstart: 1, qend: 250, sstart: 250, send: 1, qlen: 300},
	}
	seqs := map[string]string{"c1": "AAAACCCC", "c2": "ATGC"}

	res := m.Fold(1, alns, seqs, 70, 100)

	if res.HighScore != 200 {
		t.Errorf("high score = %g, want 200", res.HighScore)
	}
	if res.Qualified != 2 || res.New != 2 {
		t.Errorf("qualified = %d, new = %d, want 2, 2", res.Qualified, res.New)
	}

	c1 := m.Record("c1")
	if c1 == nil {
		t.Fatal("c1 missing from matrix")
	}
	if want := map[string]float64{"geneA": 200, "geneB": 80}; !reflect.DeepEqual(c1.Scores, want) {
		t.Errorf("c1 scores = %v, want %v", c1.Scores, want)
	}
	if c1.Total != 280 {
		t.Errorf("c1 total = %g, want 280", c1.Total)
	}
	if c1.Strand != 1 {
		t.Errorf("c1 strand = %d, want 1", c1.Strand)
	}
	if c1.Iteration != 1 {
		t.Errorf("c1 iteration = %d, want 1", c1.Iteration)
	}

	c2 := m.Record("c2")
	if c2 == nil {
		t.Fatal("c2 missing from matrix")
	}
	if c2.Strand != -1 {
		t.Errorf("c2 strand = %d, want -1", c2.Strand)
	}
	// reverse-strand contigs are stored reverse-complemented
	if c2.Seq != "GCAT" {
		t.Errorf("c2 seq = %q, want GCAT", c2.Seq)
	}
}

func Test_Fold_thresholds(t *testing.T) {
	m := NewHitMatrix()

	alns := []alignment{
		// below the bitscore threshold
		{contig: "weak", target: "geneA", bitscore: 30, qstart: 1, qend: 200, sstart: 1, send: 200, qlen: 300},
		// strong score but span shorter than the minimum contig length
		{contig: "short", target: "geneA", bitscore: 300, qstart: 1, qend: 50, sstart: 1, send: 50, qlen: 60},
	}
	seqs := map[string]string{"weak": "AAAA", "short": "CCCC"}

	res := m.Fold(0, alns, seqs, 70, 100)

	if res.Qualified != 0 || res.New != 0 {
		t.Errorf("qualified = %d, new = %d, want 0, 0", res.Qualified, res.New)
	}
	if m.Len() != 0 {
		t.Errorf("matrix grew to %d from non-qualifying contigs", m.Len())
	}
	// best score still tracks non-qualifying alignments
	if m.BestScore() != 300 {
		t.Errorf("best score = %g, want 300", m.BestScore())
	}
}

func Test_Fold_monotonic(t *testing.T) {
	m := NewHitMatrix()
	seqs := map[string]string{"c1": "AAAA"}

	aln := alignment{contig: "c1", target: "geneA", bitscore: 150, qstart: 1, qend: 200, sstart: 1, send: 200, qlen: 250}

	res := m.Fold(0, []alignment{aln}, seqs, 70, 100)
	if res.New != 1 || m.Len() != 1 {
		t.Fatalf("first fold: new = %d, len = %d", res.New, m.Len())
	}

	// the same contig name scoring again must not shrink or mutate
	// the matrix; a run in this state terminates with "no new contigs"
	res = m.Fold(1, []alignment{aln}, seqs, 70, 100)
	if res.Qualified != 1 || res.New != 0 {
		t.Errorf("second fold: qualified = %d, new = %d, want 1, 0", res.Qualified, res.New)
	}
	if m.Len() != 1 {
		t.Errorf("matrix len = %d after refold, want 1", m.Len())
	}
	if m.Record("c1").Iteration != 0 {
		t.Errorf("refold overwrote the first record")
	}
}

func Test_Fold_completeCoverage(t *testing.T) {
	m := NewHitMatrix()
	seqs := map[string]string{"span": "ACGTACGT"}

	alns := []alignment{
		{contig: "span", target: "geneA", bitscore: 400, qstart: 1, qend: 500, sstart: 1, send: 500, qlen: 600},
		{contig: "span", target: startTarget, bitscore: 25, qstart: 1, qend: 120, sstart: 1, send: 100, qlen: 600},
		{contig: "span", target: endTarget, bitscore: 22, qstart: 480, qend: 600, sstart: 1, send: 100, qlen: 600},
	}

	res := m.Fold(3, alns, seqs, 70, 100)

	if !res.Complete {
		t.Error("fold did not flag complete coverage")
	}
	if !m.Record("span").Complete {
		t.Error("record not marked complete")
	}
}

// archive scenario: one matching contig, one shard contributing
// nothing — the matrix holds exactly the matching contig with total
// equal to its best bitscore
func Test_Fold_singleMatch(t *testing.T) {
	m := NewHitMatrix()
	seqs := map[string]string{"only": "ACGT"}

	alns := []alignment{
		{contig: "only", target: "geneA", bitscore: 120, qstart: 1, qend: 180, sstart: 1, send: 180, qlen: 200},
	}

	m.Fold(0, alns, seqs, 70, 100)

	if m.Len() != 1 {
		t.Fatalf("matrix len = %d, want 1", m.Len())
	}
	if rec := m.Record("only"); rec.Total != 120 {
		t.Errorf("total = %g, want the single best bitscore 120", rec.Total)
	}
}

func Test_StopReason_strings(t *testing.T) {
	reasons := map[StopReason]string{
		StopNoReads:       "no similar reads found",
		StopNoNewContigs:  "no new contigs",
		StopNoQualifying:  "no contigs met the score threshold",
		StopComplete:      "target fully covered",
		StopMaxIterations: "maximum iterations reached",
	}

	for r, want := range reasons {
		if r.String() != want {
			t.Errorf("StopReason(%d) = %q, want %q", r, r.String(), want)
		}
	}
}
