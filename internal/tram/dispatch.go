package tram

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
)

// dispatcher fans one unit of work per shard out to external
// processes, never exceeding processes concurrently outstanding.
type dispatcher struct {
	// library path prefix of the partitioned archive
	library string

	// total shards in the library
	totalShards int

	// fraction of the library's shards to use each iteration
	fraction float64

	// ceiling on concurrently outstanding external processes
	processes int

	// expect value passed to the shard searches
	evalue float64

	// dispatch in fixed batches with a full barrier between them,
	// reproducing the original schedule, instead of a refilling pool
	batchBarrier bool
}

// shardCount is the number of shards an iteration touches.
func (d *dispatcher) shardCount() int {
	n := int(math.Ceil(d.fraction * float64(d.totalShards)))
	if n < 1 {
		n = 1
	}
	if n > d.totalShards {
		n = d.totalShards
	}

	return n
}

// forEachShard runs fn once per in-play shard under the concurrency
// ceiling and blocks until every shard finishes. The first error stops
// the dispatch and is returned.
func (d *dispatcher) forEachShard(ctx context.Context, fn func(shard int) error) error {
	shards := d.shardCount()
	limit := d.processes
	if limit < 1 {
		limit = 1
	}

	if d.batchBarrier {
		return batchBarrier(shards, limit, fn)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for s := 0; s < shards; s++ {
		s := s
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(s)
		})
	}

	return g.Wait()
}

// batchBarrier launches work in batches of limit and waits for the
// whole batch before launching more. Slots are not refilled as
// individual units finish early; kept for strict reproducibility of
// the original timing.
func batchBarrier(shards, limit int, fn func(shard int) error) error {
	var (
		mu       sync.Mutex
		firstErr error
	)

	for lo := 0; lo < shards; lo += limit {
		hi := lo + limit
		if hi > shards {
			hi = shards
		}

		var wg sync.WaitGroup
		for s := lo; s < hi; s++ {
			wg.Add(1)
			go func(s int) {
				defer wg.Done()
				if err := fn(s); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}(s)
		}
		wg.Wait()

		if firstErr != nil {
			return firstErr
		}
	}

	return firstErr
}

// searchAll runs one search per shard against the current query and
// returns the per-shard hit-ID lists. The translated protein search is
// only ever used on the first iteration; assembled contigs are always
// nucleotide.
func (d *dispatcher) searchAll(ctx context.Context, query, tempDir string, iteration int, protein bool) ([][]string, error) {
	shards := d.shardCount()
	hits := make([][]string, shards)

	translated := protein && iteration == 0

	err := d.forEachShard(ctx, func(s int) error {
		hitsPath := filepath.Join(tempDir, fmt.Sprintf("hits.%02d.%03d.txt", iteration, s))

		ids, err := searchShard(query, shardDB(d.library, s), hitsPath, translated, d.evalue)
		if err != nil {
			return err
		}

		hits[s] = ids
		return nil
	})
	if err != nil {
		return nil, err
	}

	return hits, nil
}
