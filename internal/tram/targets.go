package tram

import (
	"fmt"
	"os"
	"path/filepath"
)

// completeness-tracking lengths for the synthetic start/end entries
const (
	startEndLenNucl = 100
	startEndLenProt = 30
)

// names of the synthetic completeness-tracking entries
const (
	startTarget = "start"
	endTarget   = "end"
)

// TargetSet is the ordered set of named target entries a run scores
// contigs against: every sequence of the input target file, plus a
// synthetic "start" entry (head of the first sequence) and "end" entry
// (tail of the last) used only for completeness tracking.
type TargetSet struct {
	// the ordered target entries, synthetic ones last
	Entries []Read

	// whether the targets are protein sequences
	Protein bool
}

// BuildTargetSet reads the target file and appends the synthetic start
// and end entries. The head/tail window is 100 residues for nucleotide
// targets and 30 for protein.
func BuildTargetSet(path string, protein bool) (*TargetSet, error) {
	var entries []Read
	err := eachRecordWithTitle(path, func(title, sequence string) error {
		// target names are taken whole; mate-marker stripping is a
		// read-archive concern only
		entries = append(entries, Read{Name: firstField(title), Seq: sequence})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no target sequences in %s", path)
	}

	window := startEndLenNucl
	if protein {
		window = startEndLenProt
	}

	first, last := entries[0].Seq, entries[len(entries)-1].Seq

	head := first
	if len(head) > window {
		head = head[:window]
	}
	tail := last
	if len(tail) > window {
		tail = tail[len(tail)-window:]
	}

	entries = append(entries,
		Read{Name: startTarget, Seq: head},
		Read{Name: endTarget, Seq: tail},
	)

	return &TargetSet{Entries: entries, Protein: protein}, nil
}

// Names returns the target names in entry order; these are the score
// columns of the results table.
func (ts *TargetSet) Names() []string {
	names := make([]string, len(ts.Entries))
	for i, e := range ts.Entries {
		names[i] = e.Name
	}

	return names
}

// MakeDB materializes the target set as a FASTA file under dir and
// builds the search database the contig-scoring step runs against.
// Built once, at pipeline start.
func (ts *TargetSet) MakeDB(dir string) (string, error) {
	fasta := filepath.Join(dir, "targets.fasta")
	if err := writeFasta(fasta, ts.Entries); err != nil {
		return "", err
	}

	db := filepath.Join(dir, "targets.blast")
	if err := makeBlastDB(fasta, db, ts.Protein); err != nil {
		return "", err
	}

	return db, nil
}

// QueryFile writes the non-synthetic target entries as the first
// iteration's query.
func (ts *TargetSet) QueryFile(dir string) (string, error) {
	query := filepath.Join(dir, "query.00.fasta")

	out := ts.Entries[:len(ts.Entries)-2] // drop synthetic start/end
	if err := writeFasta(query, out); err != nil {
		return "", err
	}

	if info, err := os.Stat(query); err != nil || info.Size() == 0 {
		return "", fmt.Errorf("failed to write query file %s", query)
	}

	return query, nil
}
