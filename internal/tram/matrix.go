package tram

import (
	"sort"
)

// StopReason says why the iteration loop ended. None of these are
// errors; each is a clean, logged loop exit.
type StopReason int

const (
	// StopNone means the loop should keep going
	StopNone StopReason = iota

	// StopNoReads: no shard search returned any hits
	StopNoReads

	// StopNoNewContigs: the hit matrix did not grow this iteration
	StopNoNewContigs

	// StopNoQualifying: contigs were assembled but none met the
	// bitscore/length thresholds
	StopNoQualifying

	// StopComplete: a contig covers both ends of the target
	StopComplete

	// StopMaxIterations: the configured iteration bound was reached
	StopMaxIterations
)

func (r StopReason) String() string {
	switch r {
	case StopNoReads:
		return "no similar reads found"
	case StopNoNewContigs:
		return "no new contigs"
	case StopNoQualifying:
		return "no contigs met the score threshold"
	case StopComplete:
		return "target fully covered"
	case StopMaxIterations:
		return "maximum iterations reached"
	default:
		return "running"
	}
}

// completeCoverageScore is the per-end score a contig must exceed
// against both the synthetic start and end entries to count as
// covering the whole target.
const completeCoverageScore = 20.0

// HitRecord is the cumulative scoring state of one contig.
type HitRecord struct {
	// Scores is the best bitscore per target entry
	Scores map[string]float64

	// Total is the aggregate score across targets
	Total float64

	// Strand is +1 if the contig aligns along the target, -1 if
	// against it
	Strand int

	// Iteration the contig was first recorded in
	Iteration int

	// Seq is the contig's final sequence
	Seq string

	// Complete marks a contig that covered both target ends
	Complete bool
}

// HitMatrix accumulates per-contig, per-target scores across
// iterations. It is owned by the controller and mutated only by Fold,
// after an iteration's search/assemble/score stages complete; the key
// space only grows because assemblers name contigs per iteration.
type HitMatrix struct {
	records map[string]*HitRecord

	// bestScore is the run-wide maximum single bitscore
	bestScore float64
}

// NewHitMatrix returns an empty matrix.
func NewHitMatrix() *HitMatrix {
	return &HitMatrix{records: make(map[string]*HitRecord)}
}

// Len is the matrix cardinality; monotonically non-decreasing.
func (m *HitMatrix) Len() int { return len(m.records) }

// BestScore is the run-wide maximum single bitscore seen so far.
func (m *HitMatrix) BestScore() float64 { return m.bestScore }

// Record returns the record for a contig, or nil.
func (m *HitMatrix) Record(contig string) *HitRecord { return m.records[contig] }

// FoldResult is what one iteration's fold step produced.
type FoldResult struct {
	// Qualifying contigs, ready to seed the next iteration, in
	// name order
	Qualifying []Read

	// HighScore is the highest single bitscore seen this iteration
	HighScore float64

	// Qualified is how many contigs met the score/length thresholds
	Qualified int

	// New is how many of those were added to the matrix
	New int

	// Complete reports whether any contig now covers both target ends
	Complete bool
}

// Fold consumes an iteration's raw alignment records and merges them
// into the matrix. Per contig it keeps the best bitscore per target, an
// aggregate total, and a strand sign from alignment coordinate order;
// a contig qualifies when its best bitscore exceeds minBitscore and
// its best alignment span meets minLen. Qualifying contigs are
// reverse-complemented here when they aligned against the target
// strand.
func (m *HitMatrix) Fold(iteration int, alns []alignment, contigSeqs map[string]string, minBitscore float64, minLen int) FoldResult {
	var res FoldResult

	perContig := make(map[string][]alignment)
	for _, a := range alns {
		perContig[a.contig] = append(perContig[a.contig], a)
		if a.bitscore > res.HighScore {
			res.HighScore = a.bitscore
		}
	}

	names := make([]string, 0, len(perContig))
	for name := range perContig {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		group := perContig[name]

		rec := &HitRecord{
			Scores:    make(map[string]float64),
			Strand:    1,
			Iteration: iteration,
		}

		best, bestSpan := 0.0, 0
		for _, a := range group {
			if a.bitscore > rec.Scores[a.target] {
				rec.Scores[a.target] = a.bitscore
			}

			span := a.qend - a.qstart
			if span < 0 {
				span = -span
			}
			span++

			if a.bitscore > best {
				best = a.bitscore
				// exactly one descending coordinate pair means the
				// alignment crosses strands
				qf := a.qend >= a.qstart
				sf := a.send >= a.sstart
				if qf != sf {
					rec.Strand = -1
				} else {
					rec.Strand = 1
				}
			}
			if span > bestSpan {
				bestSpan = span
			}
		}

		for _, s := range rec.Scores {
			rec.Total += s
		}

		if best > m.bestScore {
			m.bestScore = best
		}

		if best <= minBitscore || bestSpan < minLen {
			continue
		}
		res.Qualified++

		if _, exists := m.records[name]; exists {
			// contig names are iteration-unique by construction; a
			// rescored contig is written at most once
			continue
		}

		seq := contigSeqs[name]
		if rec.Strand < 0 {
			seq = reverseComplement(seq)
		}
		rec.Seq = seq

		if rec.Scores[startTarget] > completeCoverageScore && rec.Scores[endTarget] > completeCoverageScore {
			rec.Complete = true
			res.Complete = true
		}

		m.records[name] = rec
		res.New++
		res.Qualifying = append(res.Qualifying, Read{Name: name, Seq: seq})
	}

	return res
}

// Records returns the contig names in the matrix, sorted.
func (m *HitMatrix) Records() []string {
	names := make([]string, 0, len(m.records))
	for name := range m.records {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
