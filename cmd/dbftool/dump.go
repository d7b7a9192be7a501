package main

import (
	"fmt"
	"os"
	"time"

	dbf "github.com/actuaria/dbfkit"
	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "print the live records of a table file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func runDump(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions()
	if err != nil {
		return err
	}
	var t *dbf.Table
	if forceRecover {
		f, err := os.Open(args[0])
		if err != nil {
			return errors.Wrapf(err, "open %s", args[0])
		}
		defer f.Close()
		t, err = dbf.Recover(f, opts)
		if err != nil {
			return err
		}
	} else {
		t, err = dbf.ReadFile(args[0], opts)
		if err != nil {
			return err
		}
	}
	if t.NumColumns() == 0 {
		return errors.Newf("%s: nothing could be read", args[0])
	}

	tbl := tablewriter.NewWriter(cmd.OutOrStdout())
	tbl.SetHeader(t.Names())
	tbl.SetAutoFormatHeaders(false)
	tbl.SetAutoWrapText(false)
	rows := t.NumRows()
	if limit > 0 && limit < rows {
		rows = limit
	}
	for i := 0; i < rows; i++ {
		row := t.Row(i)
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = formatCell(v)
		}
		tbl.Append(cells)
	}
	tbl.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "(%d of %d rows)\n", rows, t.NumRows())
	return nil
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		return x.Format("2006-01-02")
	case float64:
		return fmt.Sprintf("%g", x)
	}
	return fmt.Sprint(v)
}
