package tram

import (
	"bufio"
	"container/heap"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/snappy"
)

// spillLimit is the number of records buffered in memory before a
// sorted chunk is spilled to disk.
const spillLimit = 500000

// sorter is an external merge sorter for one shard's read stream.
// Records are buffered, spilled to snappy-compressed sorted chunks,
// and k-way merged into a single name-ordered FASTA file.
type sorter struct {
	dir    string
	prefix string
	limit  int

	buf    []Read
	chunks []string
	total  int
}

func newSorter(dir, prefix string, limit int) *sorter {
	if limit <= 0 {
		limit = spillLimit
	}

	return &sorter{dir: dir, prefix: prefix, limit: limit}
}

// add buffers one record, spilling a sorted chunk when the buffer
// is full.
func (s *sorter) add(r Read) error {
	s.buf = append(s.buf, r)
	s.total++

	if len(s.buf) >= s.limit {
		return s.spill()
	}

	return nil
}

// spill writes the current buffer, sorted by name, as one chunk file.
// Records are stored one per line as name\tsequence inside a snappy
// stream.
func (s *sorter) spill() error {
	if len(s.buf) == 0 {
		return nil
	}

	sort.Slice(s.buf, func(i, j int) bool { return s.buf[i].Name < s.buf[j].Name })

	path := filepath.Join(s.dir, fmt.Sprintf("%s.chunk.%04d.sz", s.prefix, len(s.chunks)))
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create spill chunk %s: %v", path, err)
	}

	sw := snappy.NewBufferedWriter(out)
	for _, r := range s.buf {
		if _, err := fmt.Fprintf(sw, "%s\t%s\n", r.Name, r.Seq); err != nil {
			out.Close()
			return fmt.Errorf("failed to write spill chunk %s: %v", path, err)
		}
	}

	if err := sw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("failed to close spill chunk %s: %v", path, err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	s.chunks = append(s.chunks, path)
	s.buf = s.buf[:0]

	return nil
}

// count is the number of records added so far.
func (s *sorter) count() int { return s.total }

// merge k-way merges all spilled chunks plus the in-memory remainder
// into a name-sorted FASTA file at path. Chunk files are removed as
// they drain.
func (s *sorter) merge(path string) error {
	if err := s.spill(); err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", path, err)
	}
	w := bufio.NewWriter(out)

	var cursors []*chunkCursor
	for _, chunk := range s.chunks {
		c, err := openChunk(chunk)
		if err != nil {
			out.Close()
			return err
		}
		if c != nil {
			cursors = append(cursors, c)
		}
	}

	h := chunkHeap(cursors)
	heap.Init(&h)

	for h.Len() > 0 {
		c := h[0]
		if err := writeFastaRecord(w, c.head.Name, c.head.Seq); err != nil {
			out.Close()
			return fmt.Errorf("failed to write %s: %v", path, err)
		}

		ok, err := c.advance()
		if err != nil {
			out.Close()
			return err
		}
		if ok {
			heap.Fix(&h, 0)
		} else {
			heap.Pop(&h)
			c.close()
		}
	}

	for _, chunk := range s.chunks {
		os.Remove(chunk)
	}
	s.chunks = nil

	if err := w.Flush(); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %v", path, err)
	}

	return out.Close()
}

// chunkCursor walks one sorted spill chunk record by record.
type chunkCursor struct {
	path    string
	file    *os.File
	scanner *bufio.Scanner
	head    Read
}

func openChunk(path string) (*chunkCursor, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spill chunk %s: %v", path, err)
	}

	scanner := bufio.NewScanner(snappy.NewReader(file))
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)

	c := &chunkCursor{path: path, file: file, scanner: scanner}
	ok, err := c.advance()
	if err != nil {
		return nil, err
	}
	if !ok {
		c.close()
		return nil, nil
	}

	return c, nil
}

// advance reads the next record into head, reporting false at EOF.
func (c *chunkCursor) advance() (bool, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return false, fmt.Errorf("failed to read spill chunk %s: %v", c.path, err)
		}
		return false, nil
	}

	name, sequence, found := strings.Cut(c.scanner.Text(), "\t")
	if !found {
		return false, fmt.Errorf("malformed record in spill chunk %s", c.path)
	}

	c.head = Read{Name: name, Seq: sequence}
	return true, nil
}

func (c *chunkCursor) close() {
	c.file.Close()
}

// chunkHeap is a min-heap of chunk cursors ordered by head name, used
// for the k-way merge.
type chunkHeap []*chunkCursor

func (h chunkHeap) Len() int            { return len(h) }
func (h chunkHeap) Less(i, j int) bool  { return h[i].head.Name < h[j].head.Name }
func (h chunkHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *chunkHeap) Push(x interface{}) { *h = append(*h, x.(*chunkCursor)) }
func (h *chunkHeap) Pop() interface{} {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}
