package tram

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// alignment is one scored hit of a contig against a target entry.
type alignment struct {
	// contig is the query contig's name
	contig string

	// target is the matched target entry's name
	target string

	// bitscore of the alignment; higher is more similar
	bitscore float64

	// query coordinates of the alignment (1-indexed, as reported)
	qstart, qend int

	// subject coordinates of the alignment (1-indexed, as reported)
	sstart, send int

	// full length of the query contig
	qlen int
}

// blastExec is a small utility object for executing one BLAST+ binary.
type blastExec struct {
	// the binary to run: blastn, tblastn, tblastx, blastx, makeblastdb
	program string

	// the path to the database being searched
	db string

	// the input query file
	query string

	// the output file
	out string

	// the expect value of the search (0 leaves the program default)
	evalue float64

	// the -outfmt specifier
	outfmt string

	// extra program-specific flags
	extra []string
}

// run calls the external binary and waits for it to finish. A nonzero
// exit is a fatal subprocess error, never silently treated as zero
// hits.
func (b *blastExec) run() error {
	flags := []string{
		"-db", b.db,
		"-query", b.query,
		"-out", b.out,
		"-outfmt", b.outfmt,
	}

	if b.evalue > 0 {
		flags = append(flags, "-evalue", strconv.FormatFloat(b.evalue, 'g', -1, 64))
	}
	flags = append(flags, b.extra...)

	cmd := exec.Command(b.program, flags...)

	// execute and wait on it to finish
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to execute %s against %s: %v: %s", b.program, b.db, err, string(output))
	}

	return nil
}

// makeBlastDB builds a searchable database from a FASTA file using the
// external makeblastdb binary.
func makeBlastDB(fasta, db string, protein bool) error {
	dbtype := "nucl"
	if protein {
		dbtype = "prot"
	}

	cmd := exec.Command(
		"makeblastdb",
		"-in", fasta,
		"-dbtype", dbtype,
		"-out", db,
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to execute makeblastdb on %s: %v: %s", fasta, err, string(output))
	}

	return nil
}

// searchShard runs one shard search, writing the matching read IDs to
// hitsPath and returning them deduplicated. A protein query uses a
// translated search (tblastn); every other case is a plain nucleotide
// search.
func searchShard(query, shardDB, hitsPath string, protein bool, evalue float64) ([]string, error) {
	program := "blastn"
	if protein {
		program = "tblastn"
	}

	b := &blastExec{
		program: program,
		db:      shardDB,
		query:   query,
		out:     hitsPath,
		evalue:  evalue,
		outfmt:  "6 sseqid",
	}

	if err := b.run(); err != nil {
		return nil, err
	}

	return readHitIDs(hitsPath)
}

// readHitIDs reads a newline-delimited hit-ID file, stripping mate
// markers and deduplicating while preserving first-seen order.
func readHitIDs(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hit list %s: %v", path, err)
	}
	defer file.Close()

	seen := make(map[string]bool)
	var ids []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}

		base, _ := splitMate(id)
		if !seen[base] {
			seen[base] = true
			ids = append(ids, base)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hit list %s: %v", path, err)
	}

	return ids, nil
}

// scoreContigs searches assembled contigs against the target database
// with a translated search appropriate to the target's type and parses
// the per-contig-per-target alignment records.
func scoreContigs(contigs, targetDB, outPath string, protein bool, evalue float64) ([]alignment, error) {
	// contigs are always nucleotide; a protein target needs a
	// translated query, a nucleotide target a translated both-sides
	// search so distant homologs still align
	program := "tblastx"
	if protein {
		program = "blastx"
	}

	b := &blastExec{
		program: program,
		db:      targetDB,
		query:   contigs,
		out:     outPath,
		evalue:  evalue,
		outfmt:  "6 qseqid sseqid bitscore qstart qend sstart send qlen",
	}

	if err := b.run(); err != nil {
		return nil, err
	}

	return parseAlignments(outPath)
}

// parseAlignments reads tabular (outfmt 6) alignment records.
func parseAlignments(path string) ([]alignment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open alignment table %s: %v", path, err)
	}
	defer file.Close()

	var alns []alignment

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}

		cols := strings.Fields(line)
		if len(cols) < 8 {
			continue
		}

		bitscore, err := strconv.ParseFloat(cols[2], 64)
		if err != nil {
			continue
		}
		qstart, _ := strconv.Atoi(cols[3])
		qend, _ := strconv.Atoi(cols[4])
		sstart, _ := strconv.Atoi(cols[5])
		send, _ := strconv.Atoi(cols[6])
		qlen, _ := strconv.Atoi(cols[7])

		alns = append(alns, alignment{
			contig:   cols[0],
			target:   cols[1],
			bitscore: bitscore,
			qstart:   qstart,
			qend:     qend,
			sstart:   sstart,
			send:     send,
			qlen:     qlen,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read alignment table %s: %v", path, err)
	}

	return alns, nil
}
