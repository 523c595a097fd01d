package cmd

import (
	"log"

	"github.com/juliema/TRAM/config"
	"github.com/juliema/TRAM/internal/tram"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// preprocessCmd partitions a raw read archive into shard databases.
var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "Partition a paired-end read archive into searchable shards",
	Long: `Partition a paired-end read archive into shards, each holding two
name-sorted sequence files (one per mate) and a search database built
from the first-mate file. A read pair always lands in the same shard
regardless of which mate is seen, so "tram run" can recover both mates
of every hit with a linear merge against the sorted files.

The archive is streamed once. FASTA and FASTQ inputs are accepted,
gzipped or plain, interleaved or with /1 and /2 mate suffixes.`,
	Run: func(cmd *cobra.Command, args []string) {
		conf := config.NewPreprocess()

		if err := tram.Preprocess(conf); err != nil {
			log.Fatalf("preprocess: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(preprocessCmd)

	preprocessCmd.Flags().StringSliceP("sra", "s", nil, "Read archive file(s) <FASTA/FASTQ, optionally gzipped>")
	preprocessCmd.Flags().StringP("library", "l", "", "Output path prefix for the partitioned library")
	preprocessCmd.Flags().IntP("shards", "n", 16, "Number of shards to split the archive into")
	preprocessCmd.Flags().IntP("processes", "p", 4, "Maximum concurrent external database-build processes")
	preprocessCmd.Flags().Bool("half", false, "Skip sorting and indexing of the second-mate stream")
	preprocessCmd.Flags().Bool("keep-temp", false, "Keep the temporary working directory after the run")
	preprocessCmd.Flags().String("temp-dir", "", "Parent directory for temporary files (default: system temp)")

	preprocessCmd.MarkFlagRequired("sra")
	preprocessCmd.MarkFlagRequired("library")

	viper.BindPFlag("preprocess.sra", preprocessCmd.Flags().Lookup("sra"))
	viper.BindPFlag("preprocess.library", preprocessCmd.Flags().Lookup("library"))
	viper.BindPFlag("preprocess.shards", preprocessCmd.Flags().Lookup("shards"))
	viper.BindPFlag("preprocess.processes", preprocessCmd.Flags().Lookup("processes"))
	viper.BindPFlag("preprocess.half", preprocessCmd.Flags().Lookup("half"))
	viper.BindPFlag("preprocess.keep-temp", preprocessCmd.Flags().Lookup("keep-temp"))
	viper.BindPFlag("preprocess.temp-dir", preprocessCmd.Flags().Lookup("temp-dir"))
}
