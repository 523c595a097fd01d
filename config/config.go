// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"log"

	"github.com/spf13/viper"
)

// Preprocess are the settings for partitioning a read archive
// into a searchable library.
type Preprocess struct {
	// the raw read archive file(s), FASTA or FASTQ
	SRA []string `mapstructure:"sra"`

	// path prefix for the partitioned library's shard files
	Library string `mapstructure:"library"`

	// number of shards to split the archive into
	Shards int `mapstructure:"shards"`

	// maximum concurrent external database-build processes
	Processes int `mapstructure:"processes"`

	// skip sorting/indexing the second-mate stream
	Half bool `mapstructure:"half"`

	// keep the temporary working directory after the run
	KeepTemp bool `mapstructure:"keep-temp"`

	// parent directory for temporary files
	TempDir string `mapstructure:"temp-dir"`
}

// Search is settings for the per-shard searches.
type Search struct {
	// maximum concurrent external search processes
	Processes int `mapstructure:"processes"`

	// fraction of the library's shards to search each iteration
	Fraction float64 `mapstructure:"fraction"`

	// minimum best bitscore for a contig to qualify
	Bitscore float64 `mapstructure:"bitscore"`

	// expect value passed to the shard searches
	Evalue float64 `mapstructure:"evalue"`

	// dispatch shard work in fixed batches instead of a refilling pool
	BatchBarrier bool `mapstructure:"batch-barrier"`
}

// Assembly is settings handed to the external assembler.
type Assembly struct {
	// which assembler to run: velvet, trinity or soapdenovo
	Assembler string `mapstructure:"assembler"`

	// assembler k-mer size
	Kmer int `mapstructure:"kmer"`

	// paired-read insert length
	InsLength int `mapstructure:"ins-length"`

	// expected coverage
	ExpCov float64 `mapstructure:"exp-cov"`

	// minimum contig length to keep
	MinContigLen int `mapstructure:"min-contig-len"`
}

// Run is the root-level settings struct for the iterative
// assembly loop; a mix of settings available in a config file
// and those available from the command line.
type Run struct {
	// path prefix of a preprocessed library
	Library string `mapstructure:"library"`

	// the target sequence file
	Target string `mapstructure:"target"`

	// output path prefix
	Out string `mapstructure:"out"`

	// maximum number of iterations
	Iterations int `mapstructure:"iterations"`

	// the target is a protein sequence
	Protein bool `mapstructure:"protein"`

	// stop once a contig covers both ends of the target
	Complete bool `mapstructure:"complete"`

	// keep the temporary working directory after the run
	KeepTemp bool `mapstructure:"keep-temp"`

	// parent directory for temporary files
	TempDir string `mapstructure:"temp-dir"`

	// per-shard search settings
	Search Search `mapstructure:"search"`

	// assembler settings
	Assembly Assembly `mapstructure:"assembly"`
}

// NewPreprocess returns a Preprocess config populated by Viper
// settings (config file, TRAM_* env and/or command line arguments).
func NewPreprocess() Preprocess {
	var c Preprocess

	if err := viper.UnmarshalKey("preprocess", &c); err != nil {
		log.Fatalf("unable to decode preprocess settings, %v", err)
	}

	return c
}

// NewRun returns a Run config populated by Viper settings
// (config file, TRAM_* env and/or command line arguments).
func NewRun() Run {
	var c Run

	if err := viper.UnmarshalKey("run", &c); err != nil {
		log.Fatalf("unable to decode run settings, %v", err)
	}

	return c
}
