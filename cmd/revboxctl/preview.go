package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/smallbiznis/revbox/internal/extraction"
	"github.com/spf13/cobra"
)

func previewCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Show the top of a spreadsheet and the suggested header row",
		Long: `Preview renders the first rows of a carrier spreadsheet together with the
header row and data start row the ingestion would pick. Use the suggestion
to fill header_row / data_start_row on the carrier when detection is wrong.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd.OutOrStdout(), args[0], asJSON)
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	return cmd
}

func runPreview(w io.Writer, path string, asJSON bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	name := filepath.Base(path)
	kind, err := extraction.KindFromFilename(name)
	if err != nil {
		return err
	}
	if kind != extraction.KindExcel {
		return fmt.Errorf("preview needs an excel file, got %s", kind)
	}

	sheet, err := extraction.LoadSpreadsheet(name, content)
	if err != nil {
		return err
	}
	preview := extraction.BuildPreview(name, sheet)

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(preview)
	}

	fmt.Fprintf(w, "%s: %d rows x %d columns\n", preview.Filename, preview.TotalRows, preview.TotalColumns)
	fmt.Fprintf(w, "suggested header row: %d, data starts at row: %d\n\n", preview.SuggestedHeaderRow, preview.SuggestedDataStartRow)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, row := range preview.Rows {
		marker := " "
		if row.RowNumber == preview.SuggestedHeaderRow {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s%d", marker, row.RowNumber)
		for _, v := range row.Values {
			cell := ""
			if v != nil {
				cell = *v
			}
			fmt.Fprintf(tw, "\t%s", cell)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
