package main

import (
	"fmt"

	dbf "github.com/actuaria/dbfkit"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var copyCmd = &cobra.Command{
	Use:   "copy <src> <dst>",
	Short: "rewrite the live records of a table file, optionally with new field specifications",
	Args:  cobra.ExactArgs(2),
	RunE:  runCopy,
}

func runCopy(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions()
	if err != nil {
		return err
	}
	t, err := dbf.ReadFile(args[0], opts)
	if err != nil {
		return err
	}
	if t.IsEmpty() {
		return errors.Newf("%s: no records could be read", args[0])
	}
	if err := dbf.WriteFile(args[1], t, opts); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", t.NumRows(), args[1])
	return nil
}
