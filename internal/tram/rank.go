package tram

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
)

// bestScoreWindow: a contig ranks among the best when its total is
// within this many points of the run-wide best score.
const bestScoreWindow = 100.0

// resultsWriter appends one row per qualifying contig to the results
// table as iterations complete: contig name, one score column per
// target (dash for absent), and the total.
type resultsWriter struct {
	file    *os.File
	w       *bufio.Writer
	targets []string
}

func newResultsWriter(path string, targets []string) (*resultsWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create results table %s: %v", path, err)
	}

	rw := &resultsWriter{file: file, w: bufio.NewWriter(file), targets: targets}

	header := append([]string{"contig"}, targets...)
	header = append(header, "total")
	if _, err := fmt.Fprintln(rw.w, strings.Join(header, "\t")); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write results table %s: %v", path, err)
	}

	return rw, nil
}

// append writes one contig's row.
func (rw *resultsWriter) append(name string, rec *HitRecord) error {
	cols := make([]string, 0, len(rw.targets)+2)
	cols = append(cols, name)

	for _, t := range rw.targets {
		if score, ok := rec.Scores[t]; ok {
			cols = append(cols, fmt.Sprintf("%g", score))
		} else {
			cols = append(cols, "-")
		}
	}
	cols = append(cols, fmt.Sprintf("%g", rec.Total))

	_, err := fmt.Fprintln(rw.w, strings.Join(cols, "\t"))
	return err
}

func (rw *resultsWriter) close() error {
	if err := rw.w.Flush(); err != nil {
		rw.file.Close()
		return err
	}
	return rw.file.Close()
}

// WriteComplete writes every contig that covered both target ends, in
// name order, as-is.
func WriteComplete(m *HitMatrix, path string) error {
	var complete []Read
	for _, name := range m.Records() {
		if rec := m.Record(name); rec.Complete {
			complete = append(complete, Read{Name: name, Seq: rec.Seq})
		}
	}

	return writeFasta(path, complete)
}

// WriteBest writes the contigs whose total score is within
// bestScoreWindow of the run-wide best score, sorted by total
// descending, ties broken by sequence length descending. Given a fixed
// matrix the output is always the same.
func WriteBest(m *HitMatrix, path string) error {
	type ranked struct {
		name string
		rec  *HitRecord
	}

	var best []ranked
	for _, name := range m.Records() {
		rec := m.Record(name)
		if rec.Total >= m.BestScore()-bestScoreWindow {
			best = append(best, ranked{name, rec})
		}
	}

	sort.SliceStable(best, func(i, j int) bool {
		if best[i].rec.Total != best[j].rec.Total {
			return best[i].rec.Total > best[j].rec.Total
		}
		return len(best[i].rec.Seq) > len(best[j].rec.Seq)
	})

	out := make([]Read, len(best))
	for i, b := range best {
		out[i] = Read{Name: b.name, Seq: b.rec.Seq}
	}

	return writeFasta(path, out)
}

// echoResults prints the final results table to the console through a
// tabwriter.
func echoResults(m *HitMatrix, targets []string) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 3, ' ', 0)

	header := append([]string{"contig"}, targets...)
	fmt.Fprintf(tw, "%s\ttotal\n", strings.Join(header, "\t"))

	for _, name := range m.Records() {
		rec := m.Record(name)

		cols := []string{name}
		for _, t := range targets {
			if score, ok := rec.Scores[t]; ok {
				cols = append(cols, fmt.Sprintf("%g", score))
			} else {
				cols = append(cols, "-")
			}
		}
		fmt.Fprintf(tw, "%s\t%g\n", strings.Join(cols, "\t"), rec.Total)
	}

	tw.Flush()
}
