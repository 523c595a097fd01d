// Package tram implements the iterative search-assemble-score pipeline:
// a partitioned short-read library is repeatedly searched with the
// current query, the hits and their mates are recovered, assembled into
// contigs, and the contigs scored against the target to seed the next
// iteration.
package tram

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
)

func init() {
	// shard files carry raw read sequences; alphabet validation would
	// reject reads with ambiguity codes
	seq.ValidateSeq = false
}

// Read is a single sequence record keyed by its mate-stripped name.
type Read struct {
	// mate-stripped base name of the read
	Name string

	// the sequence itself
	Seq string
}

// splitMate strips the mate marker from a read title and reports which
// mate it was. It recognizes suffix markers on the name itself (name/1,
// name.1, name_1) and Illumina-style titles where the mate leads the
// description (name 1:N:0:...). Returns mate 0 when no marker is found.
func splitMate(title string) (base string, mate int) {
	name, desc, _ := strings.Cut(strings.TrimSpace(title), " ")

	if len(name) > 2 {
		sep, end := name[len(name)-2], name[len(name)-1]
		if (sep == '/' || sep == '.' || sep == '_') && (end == '1' || end == '2') {
			return name[:len(name)-2], int(end - '0')
		}
	}

	if len(desc) > 1 && desc[1] == ':' && (desc[0] == '1' || desc[0] == '2') {
		return name, int(desc[0] - '0')
	}

	return name, 0
}

// firstField returns the name token of a title line, the part a
// search engine reports as the sequence ID.
func firstField(title string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(title), " ")
	return name
}

// readFasta loads every record of a FASTA/FASTQ file, mate markers
// stripped from the names. Gzipped input is handled transparently.
func readFasta(path string) ([]Read, error) {
	var reads []Read

	err := eachRecord(path, func(r Read) error {
		reads = append(reads, r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return reads, nil
}

// eachRecord streams a FASTA/FASTQ file, calling fn once per record
// with the mate-stripped name.
func eachRecord(path string, fn func(Read) error) error {
	return eachRecordWithTitle(path, func(title, sequence string) error {
		base, _ := splitMate(title)
		return fn(Read{Name: base, Seq: sequence})
	})
}

// eachRecordWithTitle streams a FASTA/FASTQ file, calling fn once per
// record with the full, unstripped title line.
func eachRecordWithTitle(path string, fn func(title, sequence string) error) error {
	if info, err := os.Stat(path); err == nil && info.Size() == 0 {
		return nil // fastx treats an empty file as malformed
	}

	reader, err := fastx.NewReader(nil, path, "")
	if err != nil {
		return fmt.Errorf("failed to open sequence file %s: %v", path, err)
	}
	defer reader.Close()

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to parse sequence file %s: %v", path, err)
		}

		if err := fn(string(record.Name), string(record.Seq.Seq)); err != nil {
			return err
		}
	}

	return nil
}

// writeFastaRecord writes one record in FASTA format.
func writeFastaRecord(w io.Writer, name, sequence string) error {
	_, err := fmt.Fprintf(w, ">%s\n%s\n", name, sequence)
	return err
}

// writeFasta writes all reads to a new FASTA file at path.
func writeFasta(path string, reads []Read) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", path, err)
	}

	w := bufio.NewWriter(out)
	for _, r := range reads {
		if err := writeFastaRecord(w, r.Name, r.Seq); err != nil {
			out.Close()
			return fmt.Errorf("failed to write %s: %v", path, err)
		}
	}

	if err := w.Flush(); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %v", path, err)
	}

	return out.Close()
}

// reverseComplement returns the reverse complement of a nucleotide
// sequence. IUPAC ambiguity codes are complemented; anything else is
// passed through unchanged.
func reverseComplement(sequence string) string {
	rc := make([]byte, len(sequence))

	for i := 0; i < len(sequence); i++ {
		rc[len(sequence)-1-i] = complement(sequence[i])
	}

	return string(rc)
}

func complement(b byte) byte {
	switch b {
	case 'A':
		return 'T'
	case 'T', 'U':
		return 'A'
	case 'G':
		return 'C'
	case 'C':
		return 'G'
	case 'a':
		return 't'
	case 't', 'u':
		return 'a'
	case 'g':
		return 'c'
	case 'c':
		return 'g'
	case 'R':
		return 'Y'
	case 'Y':
		return 'R'
	case 'S':
		return 'S'
	case 'W':
		return 'W'
	case 'K':
		return 'M'
	case 'M':
		return 'K'
	case 'B':
		return 'V'
	case 'V':
		return 'B'
	case 'D':
		return 'H'
	case 'H':
		return 'D'
	default:
		return b
	}
}
