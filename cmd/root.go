// Package cmd is for command line interactions with the tram application
package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "tram",
	Short: `Assemble full-length homologs of a target sequence from a short-read archive.
Partition the archive once with "tram preprocess", then run the iterative
search-assemble-score loop with "tram run"`,
	Version: "2.0.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	viper.SetEnvPrefix("TRAM")
	viper.AutomaticEnv()

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}
