package tram

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// AssemblyJob is everything one iteration hands to the assembler.
type AssemblyJob struct {
	// Reads is the pooled FASTA of recovered read pairs
	Reads string

	// Dir is a scratch directory owned by this job
	Dir string

	// Out is where the named contigs must be materialized as FASTA
	Out string

	// Kmer is the assembly k-mer size
	Kmer int

	// InsLength is the paired-read insert length
	InsLength int

	// ExpCov is the expected coverage
	ExpCov float64

	// MinContigLen is the minimum contig length to emit
	MinContigLen int

	// LongReads optionally seeds the assembly with the prior
	// iteration's contigs
	LongReads string
}

// Assembler wraps one external de novo assembly tool. Assemble runs
// the tool and materializes the contig set at job.Out in FASTA format.
type Assembler interface {
	Name() string
	Assemble(job AssemblyJob) error
}

// assemblers is the registry of known assembler constructors, keyed by
// the name given on the command line.
var assemblers = map[string]func() Assembler{
	"velvet":     func() Assembler { return &velvetAssembler{} },
	"trinity":    func() Assembler { return &trinityAssembler{} },
	"soapdenovo": func() Assembler { return &soapAssembler{} },
}

// NewAssembler looks an assembler up by name.
func NewAssembler(name string) (Assembler, error) {
	build, ok := assemblers[strings.ToLower(name)]
	if !ok {
		known := make([]string, 0, len(assemblers))
		for k := range assemblers {
			known = append(known, k)
		}
		sort.Strings(known)

		return nil, fmt.Errorf("unknown assembler %q, expected one of: %s", name, strings.Join(known, ", "))
	}

	return build(), nil
}

// runStep executes one external assembly step, failing loudly on a
// nonzero exit.
func runStep(name string, args ...string) error {
	cmd := exec.Command(name, args...)

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to execute %s: %v: %s", name, err, string(output))
	}

	return nil
}

// copyFile copies the assembler's raw contig output to dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open assembler output %s: %v", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s to %s: %v", src, dst, err)
	}

	return out.Close()
}

// velvetAssembler runs the two-step velveth/velvetg pipeline.
type velvetAssembler struct{}

func (a *velvetAssembler) Name() string { return "velvet" }

func (a *velvetAssembler) Assemble(job AssemblyJob) error {
	hFlags := []string{
		job.Dir,
		strconv.Itoa(job.Kmer),
		"-fasta", "-shortPaired", job.Reads,
	}
	if job.LongReads != "" {
		hFlags = append(hFlags, "-long", job.LongReads)
	}

	if err := runStep("velveth", hFlags...); err != nil {
		return err
	}

	gFlags := []string{
		job.Dir,
		"-ins_length", strconv.Itoa(job.InsLength),
		"-exp_cov", strconv.FormatFloat(job.ExpCov, 'g', -1, 64),
		"-min_contig_lgth", strconv.Itoa(job.MinContigLen),
	}

	if err := runStep("velvetg", gFlags...); err != nil {
		return err
	}

	return copyFile(filepath.Join(job.Dir, "contigs.fa"), job.Out)
}

// trinityAssembler wraps Trinity; its output directory name and
// post-assembly move are Trinity-specific.
type trinityAssembler struct{}

func (a *trinityAssembler) Name() string { return "trinity" }

func (a *trinityAssembler) Assemble(job AssemblyJob) error {
	workDir := filepath.Join(job.Dir, "trinity")

	flags := []string{
		"--seqType", "fa",
		"--single", job.Reads,
		"--run_as_paired",
		"--KMER_SIZE", strconv.Itoa(job.Kmer),
		"--min_contig_length", strconv.Itoa(job.MinContigLen),
		"--output", workDir,
		"--full_cleanup",
		"--no_bowtie",
	}
	if job.LongReads != "" {
		flags = append(flags, "--long_reads", job.LongReads)
	}

	if err := runStep("Trinity", flags...); err != nil {
		return err
	}

	// --full_cleanup leaves a single fasta next to the work dir
	return copyFile(workDir+".Trinity.fasta", job.Out)
}

// soapAssembler wraps SOAPdenovo, which is driven by a generated
// config file rather than flags.
type soapAssembler struct{}

func (a *soapAssembler) Name() string { return "soapdenovo" }

func (a *soapAssembler) Assemble(job AssemblyJob) error {
	confPath := filepath.Join(job.Dir, "soap.config")
	conf := fmt.Sprintf(
		"max_rd_len=500\n[LIB]\navg_ins=%d\nreverse_seq=0\nasm_flags=3\nf=%s\n",
		job.InsLength, job.Reads,
	)
	if err := os.WriteFile(confPath, []byte(conf), 0o644); err != nil {
		return fmt.Errorf("failed to write SOAPdenovo config %s: %v", confPath, err)
	}

	prefix := filepath.Join(job.Dir, "soap")
	flags := []string{
		"all",
		"-s", confPath,
		"-K", strconv.Itoa(job.Kmer),
		"-L", strconv.Itoa(job.MinContigLen),
		"-o", prefix,
	}

	if err := runStep("SOAPdenovo-63mer", flags...); err != nil {
		return err
	}

	return copyFile(prefix+".contig", job.Out)
}
