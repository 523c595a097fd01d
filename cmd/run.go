package cmd

import (
	"log"

	"github.com/juliema/TRAM/config"
	"github.com/juliema/TRAM/internal/tram"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runCmd drives the iterative search-assemble-score loop.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Iteratively search, assemble and score reads against a target",
	Long: `Run the iterative assembly loop against a partitioned library:

1. Search every shard for reads similar to the current query
2. Recover both mates of every hit from the shard's sorted files
3. Assemble the pooled reads into contigs
4. Score the contigs against the target and keep the best ones
5. Seed the next iteration with the kept contigs

The loop ends when no new qualifying contigs appear, when a contig
spans the whole target (with --complete), or after --iterations
rounds. All qualifying contigs, a results table, and the best and
complete contig sets are written next to the --out prefix.`,
	Run: func(cmd *cobra.Command, args []string) {
		conf := config.NewRun()

		pipeline, err := tram.NewPipeline(conf)
		if err != nil {
			log.Fatalf("run: %v", err)
		}

		if err := pipeline.Run(cmd.Context()); err != nil {
			log.Fatalf("run: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("library", "l", "", "Path prefix of a library made by \"tram preprocess\"")
	runCmd.Flags().StringP("target", "t", "", "Target sequence file <FASTA>")
	runCmd.Flags().StringP("out", "o", "", "Output path prefix")
	runCmd.Flags().IntP("iterations", "i", 5, "Maximum number of iterations")
	runCmd.Flags().IntP("processes", "p", 4, "Maximum concurrent external search processes")
	runCmd.Flags().Float64P("fraction", "f", 1.0, "Fraction of the library's shards to search")
	runCmd.Flags().StringP("assembler", "a", "velvet", "Assembler to use: velvet, trinity or soapdenovo")
	runCmd.Flags().IntP("kmer", "k", 31, "Assembler k-mer size")
	runCmd.Flags().Int("ins-length", 300, "Paired-read insert length passed to the assembler")
	runCmd.Flags().Float64("exp-cov", 30, "Expected coverage passed to the assembler")
	runCmd.Flags().Int("min-contig-len", 100, "Minimum contig length to keep")
	runCmd.Flags().Float64P("bitscore", "b", 70, "Minimum best bitscore for a contig to qualify")
	runCmd.Flags().Float64P("evalue", "e", 10, "Expect value passed to the shard searches")
	runCmd.Flags().BoolP("complete", "c", false, "Stop once a contig covers both ends of the target")
	runCmd.Flags().Bool("protein", false, "The target is a protein sequence")
	runCmd.Flags().Bool("batch-barrier", false, "Dispatch shard work in fixed batches instead of a refilling pool")
	runCmd.Flags().Bool("keep-temp", false, "Keep the temporary working directory after the run")
	runCmd.Flags().String("temp-dir", "", "Parent directory for temporary files (default: system temp)")

	runCmd.MarkFlagRequired("library")
	runCmd.MarkFlagRequired("target")
	runCmd.MarkFlagRequired("out")

	viper.BindPFlag("run.library", runCmd.Flags().Lookup("library"))
	viper.BindPFlag("run.target", runCmd.Flags().Lookup("target"))
	viper.BindPFlag("run.out", runCmd.Flags().Lookup("out"))
	viper.BindPFlag("run.iterations", runCmd.Flags().Lookup("iterations"))
	viper.BindPFlag("run.protein", runCmd.Flags().Lookup("protein"))
	viper.BindPFlag("run.complete", runCmd.Flags().Lookup("complete"))
	viper.BindPFlag("run.keep-temp", runCmd.Flags().Lookup("keep-temp"))
	viper.BindPFlag("run.temp-dir", runCmd.Flags().Lookup("temp-dir"))
	viper.BindPFlag("run.search.processes", runCmd.Flags().Lookup("processes"))
	viper.BindPFlag("run.search.fraction", runCmd.Flags().Lookup("fraction"))
	viper.BindPFlag("run.search.bitscore", runCmd.Flags().Lookup("bitscore"))
	viper.BindPFlag("run.search.evalue", runCmd.Flags().Lookup("evalue"))
	viper.BindPFlag("run.search.batch-barrier", runCmd.Flags().Lookup("batch-barrier"))
	viper.BindPFlag("run.assembly.assembler", runCmd.Flags().Lookup("assembler"))
	viper.BindPFlag("run.assembly.kmer", runCmd.Flags().Lookup("kmer"))
	viper.BindPFlag("run.assembly.ins-length", runCmd.Flags().Lookup("ins-length"))
	viper.BindPFlag("run.assembly.exp-cov", runCmd.Flags().Lookup("exp-cov"))
	viper.BindPFlag("run.assembly.min-contig-len", runCmd.Flags().Lookup("min-contig-len"))
}
