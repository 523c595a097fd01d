package tram

import (
	"bufio"
	"fmt"
	"os"
	"sort"
)

// retrieveMates recovers the sequences of every hit ID and its mate
// from one shard's name-sorted mate files, writing them as FASTA to
// outPath. The hit list is sorted and merge-joined against each mate
// stream with a single linear scan, so a shard is never loaded into
// memory whole. A hit whose mate is absent is emitted alone; assembly
// tolerates singletons. Returns the number of sequences recovered.
func retrieveMates(hitIDs []string, library string, shard int, outPath string) (int, error) {
	ids := append([]string(nil), hitIDs...)
	sort.Strings(ids)

	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %v", outPath, err)
	}
	w := bufio.NewWriter(out)

	recovered := 0
	for mate := 1; mate <= 2; mate++ {
		matePath := shardMateFile(library, shard, mate)
		if _, err := os.Stat(matePath); err != nil {
			continue // half-indexed library: no second-mate file
		}

		n, err := mergeJoin(ids, matePath, func(r Read) error {
			return writeFastaRecord(w, fmt.Sprintf("%s/%d", r.Name, mate), r.Seq)
		})
		if err != nil {
			out.Close()
			return 0, err
		}
		recovered += n
	}

	if err := w.Flush(); err != nil {
		out.Close()
		return 0, fmt.Errorf("failed to write %s: %v", outPath, err)
	}

	return recovered, out.Close()
}

// mergeJoin advances a cursor over the sorted hit IDs and another over
// the name-sorted sequence file, emitting a record whenever the names
// are equal and advancing whichever cursor is behind otherwise. Runs
// in time proportional to hits + shard size. Nothing is emitted for an
// ID absent from the file.
func mergeJoin(sortedIDs []string, fastaPath string, emit func(Read) error) (int, error) {
	i, emitted := 0, 0

	err := eachRecord(fastaPath, func(r Read) error {
		for i < len(sortedIDs) && sortedIDs[i] < r.Name {
			i++
		}
		if i == len(sortedIDs) {
			return errJoinDone
		}

		if sortedIDs[i] == r.Name {
			emitted++
			return emit(r)
		}

		return nil
	})
	if err != nil && err != errJoinDone {
		return 0, err
	}

	return emitted, nil
}

// errJoinDone stops the file scan early once the hit list is drained.
var errJoinDone = fmt.Errorf("join done")
