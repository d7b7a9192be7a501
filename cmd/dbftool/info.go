package main

import (
	"fmt"
	"strconv"

	dbf "github.com/actuaria/dbfkit"
	"github.com/kr/pretty"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "print the header and field descriptors of a table file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions()
	if err != nil {
		return err
	}
	opts.ReadOnly = true
	f, err := dbf.Open(args[0], opts)
	if err != nil {
		return err
	}
	defer f.Close()

	h := f.Header()
	out := cmd.OutOrStdout()
	if verbose {
		fmt.Fprintf(out, "%# v\n", pretty.Formatter(h))
		fmt.Fprintf(out, "%# v\n", pretty.Formatter(f.Fields()))
		return nil
	}

	modified := "invalid"
	if t, ok := h.ModTime(); ok {
		modified = t.Format("2006-01-02")
	}
	fmt.Fprintf(out, "version:       0x%02x\n", h.Version)
	fmt.Fprintf(out, "last modified: %s\n", modified)
	fmt.Fprintf(out, "records:       %d\n", h.NumRecords)
	fmt.Fprintf(out, "header length: %d\n", h.HeaderLength)
	fmt.Fprintf(out, "record length: %d\n", h.RecordLength)

	tbl := tablewriter.NewWriter(out)
	tbl.SetHeader([]string{"Name", "Type", "Length", "Decimals"})
	for _, field := range f.Fields() {
		tbl.Append([]string{
			field.Name,
			fmt.Sprintf("%c (%s)", byte(field.Type), field.Type),
			strconv.Itoa(int(field.Length)),
			strconv.Itoa(int(field.Decimals)),
		})
	}
	tbl.Render()
	return nil
}
