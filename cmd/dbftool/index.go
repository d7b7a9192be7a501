package main

import (
	"fmt"
	"strconv"

	dbf "github.com/actuaria/dbfkit"
	"github.com/actuaria/dbfkit/cdx"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index <file>",
	Short: "print the header and tag names of a compound index file",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	ix, err := cdx.ReadFile(args[0], dbf.DefaultLogger{})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	h := ix.Header
	fmt.Fprintf(out, "root page:  %d\n", h.RootPage)
	fmt.Fprintf(out, "free page:  %d\n", h.FreePage)
	fmt.Fprintf(out, "key length: %d\n", h.KeyLength)
	fmt.Fprintf(out, "options:    0x%02x\n", h.Options)
	fmt.Fprintf(out, "signature:  0x%02x\n", h.Signature)
	if ix.Expression != "" {
		fmt.Fprintf(out, "expression: %s\n", ix.Expression)
	}

	tbl := tablewriter.NewWriter(out)
	tbl.SetHeader([]string{"Tag", "Key Length", "Unique", "Ascending"})
	for _, tag := range ix.Tags {
		tbl.Append([]string{
			tag.Name,
			strconv.Itoa(int(tag.KeyLength)),
			strconv.FormatBool(tag.Unique),
			strconv.FormatBool(tag.Ascending),
		})
	}
	tbl.Render()
	return nil
}
