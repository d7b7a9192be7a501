package main

import (
	"log"
	"os"

	dbf "github.com/actuaria/dbfkit"
	"github.com/actuaria/dbfkit/internal/config"
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	forceRecover bool
	limit        int
	specsPath    string
)

var rootCmd = &cobra.Command{
	Use:   "dbftool [command] (flags)",
	Short: "table file introspection tool",
	Long:  ``,
}

func init() {
	cobra.EnableCommandSorting = false
	rootCmd.AddCommand(
		infoCmd,
		dumpCmd,
		indexCmd,
		copyCmd,
	)

	infoCmd.Flags().BoolVarP(
		&verbose, "verbose", "v", false, "print the parsed header and descriptors in full")
	dumpCmd.Flags().BoolVar(
		&forceRecover, "recover", false, "parse with the recovery reader only")
	dumpCmd.Flags().IntVarP(
		&limit, "limit", "n", 0, "maximum number of rows to print (0 means all)")
	copyCmd.Flags().StringVar(
		&specsPath, "specs", "", "YAML or JSON file with field specification overrides")
}

func main() {
	log.SetFlags(0)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadOptions builds table options from the environment and flags.
func loadOptions() (*dbf.Options, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if specsPath != "" {
		cfg.FieldSpecsPath = specsPath
	}
	return cfg.Options()
}
