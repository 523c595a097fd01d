package tram

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/juliema/TRAM/config"
)

// Pipeline is the single controlling process of a run. It drives the
// iteration loop sequentially; concurrency exists only in the
// external processes the dispatcher fans out, which communicate back
// exclusively through files.
type Pipeline struct {
	conf      config.Run
	assembler Assembler
	targets   *TargetSet
	dispatch  *dispatcher
	matrix    *HitMatrix

	// iteration state owned by the controller
	query     string // current query FASTA
	targetDB  string
	tempDir   string
	results   *resultsWriter
	contigOut *os.File // cumulative contig FASTA, appended each iteration
}

// NewPipeline validates the configuration and the partitioned library
// and wires up the run.
func NewPipeline(conf config.Run) (*Pipeline, error) {
	if conf.Library == "" || conf.Target == "" || conf.Out == "" {
		return nil, fmt.Errorf("library, target and out are all required")
	}

	totalShards, err := ValidateLibrary(conf.Library)
	if err != nil {
		return nil, err
	}

	asm, err := NewAssembler(conf.Assembly.Assembler)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		conf:      conf,
		assembler: asm,
		dispatch: &dispatcher{
			library:      conf.Library,
			totalShards:  totalShards,
			fraction:     conf.Search.Fraction,
			processes:    conf.Search.Processes,
			evalue:       conf.Search.Evalue,
			batchBarrier: conf.Search.BatchBarrier,
		},
		matrix: NewHitMatrix(),
	}, nil
}

// Run executes the iteration loop until a stop condition is reached,
// then writes the ranked outputs. The returned error is only ever a
// configuration, I/O or subprocess fault; convergence is a clean exit.
func (p *Pipeline) Run(ctx context.Context) error {
	logFile, err := os.Create(p.conf.Out + ".log")
	if err != nil {
		return fmt.Errorf("failed to create run log %s: %v", p.conf.Out+".log", err)
	}
	defer logFile.Close()
	defer teeLog(logFile)()

	tempDir, cleanupTemp, err := makeTempDir(p.conf.TempDir, "tram_", p.conf.KeepTemp)
	if err != nil {
		return err
	}
	defer cleanupTemp()
	p.tempDir = tempDir

	if err := p.setup(); err != nil {
		return err
	}
	defer p.results.close()
	defer p.contigOut.Close()

	reason := StopMaxIterations
	for iteration := 0; iteration < p.conf.Iterations; iteration++ {
		logger.Printf("iteration %d: searching %d shard(s) with %q", iteration, p.dispatch.shardCount(), p.query)

		r, err := p.iterate(ctx, iteration)
		if err != nil {
			return err
		}
		if r != StopNone {
			reason = r
			break
		}
	}

	logger.Printf("stopping: %s", reason)

	return p.finish()
}

// setup builds the target set, its search database, the first query
// and the cumulative output files.
func (p *Pipeline) setup() error {
	targets, err := BuildTargetSet(p.conf.Target, p.conf.Protein)
	if err != nil {
		return err
	}
	p.targets = targets

	logger.Printf("building target database from %q", p.conf.Target)

	p.targetDB, err = targets.MakeDB(p.tempDir)
	if err != nil {
		return err
	}

	p.query, err = targets.QueryFile(p.tempDir)
	if err != nil {
		return err
	}

	p.results, err = newResultsWriter(p.conf.Out+".results.tsv", targets.Names())
	if err != nil {
		return err
	}

	p.contigOut, err = os.Create(p.conf.Out + ".contigs.fasta")
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", p.conf.Out+".contigs.fasta", err)
	}

	return nil
}

// iterate runs one search -> retrieve -> assemble -> score -> fold
// round and reports the stop condition, if any.
func (p *Pipeline) iterate(ctx context.Context, iteration int) (StopReason, error) {
	// barrier 1: all shard searches finish before any retrieval
	hits, err := p.dispatch.searchAll(ctx, p.query, p.tempDir, iteration, p.conf.Protein)
	if err != nil {
		return StopNone, err
	}

	// barrier 2: all mate retrievals finish before pooling
	shardReads := make([]string, len(hits))
	err = p.dispatch.forEachShard(ctx, func(s int) error {
		if len(hits[s]) == 0 {
			return nil
		}

		out := filepath.Join(p.tempDir, fmt.Sprintf("reads.%02d.%03d.fasta", iteration, s))
		n, err := retrieveMates(hits[s], p.conf.Library, s, out)
		if err != nil {
			return err
		}
		if n > 0 {
			shardReads[s] = out
		}
		return nil
	})
	if err != nil {
		return StopNone, err
	}

	pooled := filepath.Join(p.tempDir, fmt.Sprintf("pooled.%02d.fasta", iteration))
	n, err := poolReads(shardReads, pooled)
	if err != nil {
		return StopNone, err
	}
	if n == 0 {
		return StopNoReads, nil
	}
	logger.Printf("iteration %d: recovered %d read(s)", iteration, n)

	contigs, err := p.assemble(iteration, pooled)
	if err != nil {
		return StopNone, err
	}

	scorePath := filepath.Join(p.tempDir, fmt.Sprintf("scores.%02d.tsv", iteration))
	alns, err := scoreContigs(contigs, p.targetDB, scorePath, p.conf.Protein, p.conf.Search.Evalue)
	if err != nil {
		return StopNone, err
	}

	contigSeqs, err := readContigSeqs(contigs)
	if err != nil {
		return StopNone, err
	}

	res := p.matrix.Fold(iteration, alns, contigSeqs, p.conf.Search.Bitscore, p.conf.Assembly.MinContigLen)
	logger.Printf("iteration %d: %d qualifying contig(s), %d new, high score %g",
		iteration, res.Qualified, res.New, res.HighScore)

	if err := p.emit(res); err != nil {
		return StopNone, err
	}

	switch {
	case res.Qualified == 0:
		return StopNoQualifying, nil
	case res.New == 0:
		return StopNoNewContigs, nil
	case p.conf.Complete && res.Complete:
		return StopComplete, nil
	}

	// qualifying contigs seed the next iteration
	next := filepath.Join(p.tempDir, fmt.Sprintf("query.%02d.fasta", iteration+1))
	if err := writeFasta(next, res.Qualifying); err != nil {
		return StopNone, err
	}
	p.query = next

	return StopNone, nil
}

// assemble hands the pooled reads to the external assembler, seeding
// it with the prior iteration's contigs after the first round.
func (p *Pipeline) assemble(iteration int, pooled string) (string, error) {
	dir := filepath.Join(p.tempDir, fmt.Sprintf("assembly.%02d", iteration))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create assembly dir %s: %v", dir, err)
	}

	job := AssemblyJob{
		Reads:        pooled,
		Dir:          dir,
		Out:          filepath.Join(p.tempDir, fmt.Sprintf("contigs.%02d.fasta", iteration)),
		Kmer:         p.conf.Assembly.Kmer,
		InsLength:    p.conf.Assembly.InsLength,
		ExpCov:       p.conf.Assembly.ExpCov,
		MinContigLen: p.conf.Assembly.MinContigLen,
	}
	if iteration > 0 {
		job.LongReads = p.query // prior contigs steer the assembly
	}

	logger.Printf("iteration %d: assembling with %s", iteration, p.assembler.Name())

	if err := p.assembler.Assemble(job); err != nil {
		return "", err
	}

	return job.Out, nil
}

// emit appends this iteration's qualifying contigs to the cumulative
// FASTA and the results table.
func (p *Pipeline) emit(res FoldResult) error {
	w := bufio.NewWriter(p.contigOut)

	for _, contig := range res.Qualifying {
		if err := writeFastaRecord(w, contig.Name, contig.Seq); err != nil {
			return fmt.Errorf("failed to append contig %s: %v", contig.Name, err)
		}
		if err := p.results.append(contig.Name, p.matrix.Record(contig.Name)); err != nil {
			return fmt.Errorf("failed to append results row for %s: %v", contig.Name, err)
		}
	}

	return w.Flush()
}

// finish writes the ranked output files and echoes the results table.
func (p *Pipeline) finish() error {
	if err := WriteComplete(p.matrix, p.conf.Out+".complete.fasta"); err != nil {
		return err
	}
	if err := WriteBest(p.matrix, p.conf.Out+".best.fasta"); err != nil {
		return err
	}

	logger.Printf("%d contig(s) total, best score %g", p.matrix.Len(), p.matrix.BestScore())
	echoResults(p.matrix, p.targets.Names())

	return nil
}

// poolReads concatenates the per-shard recovered-read files into one
// assembler input, returning the record count.
func poolReads(paths []string, out string) (int, error) {
	file, err := os.Create(out)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %v", out, err)
	}
	w := bufio.NewWriter(file)

	total := 0
	for _, path := range paths {
		if path == "" {
			continue
		}

		err := eachRecordWithTitle(path, func(title, sequence string) error {
			total++
			return writeFastaRecord(w, title, sequence)
		})
		if err != nil {
			file.Close()
			return 0, err
		}
	}

	if err := w.Flush(); err != nil {
		file.Close()
		return 0, fmt.Errorf("failed to write %s: %v", out, err)
	}

	return total, file.Close()
}

// readContigSeqs loads the assembled contigs keyed by name.
func readContigSeqs(path string) (map[string]string, error) {
	seqs := make(map[string]string)

	err := eachRecordWithTitle(path, func(title, sequence string) error {
		seqs[firstField(title)] = sequence
		return nil
	})
	if err != nil {
		return nil, err
	}

	return seqs, nil
}
