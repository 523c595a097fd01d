package tram

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"

	"github.com/juliema/TRAM/config"
	"golang.org/x/sync/errgroup"
)

// bucketFor assigns a read pair to a shard. The hash runs over the
// bytes of the mate-stripped base name (FNV-1a, 32 bit), so name/1 and
// name/2 always land in the same shard and the assignment is
// reproducible bit-for-bit across platforms.
func bucketFor(baseName string, shards int) int {
	h := fnv.New32a()
	h.Write([]byte(baseName))

	return int(h.Sum32() % uint32(shards))
}

// shardBase is the path prefix shared by one shard's files.
func shardBase(library string, shard int) string {
	return fmt.Sprintf("%s.%03d", library, shard)
}

// shard file layout: for shard s of a library there is a name-sorted
// first-mate FASTA, a name-sorted second-mate FASTA, and a search
// database built from the first-mate file.
func shardMateFile(library string, shard, mate int) string {
	return fmt.Sprintf("%s.%d.fasta", shardBase(library, shard), mate)
}

func shardDB(library string, shard int) string {
	return shardBase(library, shard) + ".blast"
}

// Preprocess streams the raw read archive once, partitions it into
// shards by the hash of the mate-stripped read name, sorts each
// shard's per-mate stream by name, and builds a search database per
// shard from the first-mate file.
func Preprocess(conf config.Preprocess) error {
	if len(conf.SRA) == 0 {
		return fmt.Errorf("no read archive given")
	}
	if conf.Shards < 1 {
		return fmt.Errorf("shard count must be positive, got %d", conf.Shards)
	}

	tempDir, cleanup, err := makeTempDir(conf.TempDir, "tram_preprocess_", conf.KeepTemp)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Printf("partitioning %d archive file(s) into %d shards", len(conf.SRA), conf.Shards)

	// one sorter per shard per mate; mate-2 records of an interleaved
	// archive resolve to the same bucket because the hash ignores the
	// mate marker
	sorters := make([][2]*sorter, conf.Shards)
	for s := range sorters {
		sorters[s] = [2]*sorter{
			newSorter(tempDir, fmt.Sprintf("shard%03d.1", s), 0),
			newSorter(tempDir, fmt.Sprintf("shard%03d.2", s), 0),
		}
	}

	for _, archive := range conf.SRA {
		logger.Printf("loading %q", archive)

		err := eachArchiveRecord(archive, func(r Read, mate int) error {
			bucket := bucketFor(r.Name, conf.Shards)
			return sorters[bucket][mate-1].add(r)
		})
		if err != nil {
			return err
		}
	}

	logger.Printf("sorting shard streams")

	for s := 0; s < conf.Shards; s++ {
		if err := sorters[s][0].merge(shardMateFile(conf.Library, s, 1)); err != nil {
			return err
		}
		if sorters[s][0].count() == 0 {
			return fmt.Errorf("shard %d is empty; the archive at %s is likely malformed or misnamed", s, conf.SRA[0])
		}

		if conf.Half {
			continue // one-sided indexing: leave the mate-2 stream unsorted
		}
		if err := sorters[s][1].merge(shardMateFile(conf.Library, s, 2)); err != nil {
			return err
		}
	}

	logger.Printf("building %d shard search databases", conf.Shards)

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(max(conf.Processes, 1))

	for s := 0; s < conf.Shards; s++ {
		s := s
		g.Go(func() error {
			return makeBlastDB(shardMateFile(conf.Library, s, 1), shardDB(conf.Library, s), false)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Printf("finished making all %d shard databases", conf.Shards)

	return nil
}

// eachArchiveRecord streams an archive file and reports each record
// with its mate number. Records without a mate marker alternate
// 1,2,1,2 within a pair of identical base names (interleaved archives)
// and otherwise count as mate 1.
func eachArchiveRecord(path string, fn func(r Read, mate int) error) error {
	lastName, lastMate := "", 0

	return eachRecordWithTitle(path, func(title, sequence string) error {
		base, mate := splitMate(title)

		if mate == 0 {
			// interleaved archive: the second occurrence of a name is
			// the second mate
			if base == lastName && lastMate == 1 {
				mate = 2
			} else {
				mate = 1
			}
		}
		lastName, lastMate = base, mate

		return fn(Read{Name: base, Seq: sequence}, mate)
	})
}

// ValidateLibrary checks that a library was properly partitioned and
// returns its shard count. Shard 0 and the maximum shard must both be
// present with non-empty first-mate files.
func ValidateLibrary(library string) (int, error) {
	shards := 0
	for {
		if _, err := os.Stat(shardMateFile(library, shards, 1)); err != nil {
			break
		}
		shards++
	}

	if shards == 0 {
		return 0, fmt.Errorf("no shards found at %s; run \"tram preprocess\" first", library)
	}

	for _, probe := range []int{0, shards - 1} {
		info, err := os.Stat(shardMateFile(library, probe, 1))
		if err != nil || info.Size() == 0 {
			return 0, fmt.Errorf("shard %d of library %s is missing or empty", probe, library)
		}
		if _, err := os.Stat(shardDB(library, probe) + ".nin"); err != nil {
			if _, err2 := os.Stat(shardDB(library, probe) + ".nal"); err2 != nil {
				return 0, fmt.Errorf("shard %d of library %s has no search database", probe, library)
			}
		}
	}

	return shards, nil
}
