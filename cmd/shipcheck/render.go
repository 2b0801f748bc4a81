package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"shipcheck/internal/domain"
)

func renderSnapshot(snap domain.Snapshot, colorize bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Field", "Value"})

	if c := snap.Candidate; c != nil {
		tw.AppendRow(table.Row{"Image", c.Name})
		tw.AppendRow(table.Row{"Size", humanize.IBytes(uint64(c.Size))})
		tw.AppendRow(table.Row{"Type", c.MediaType})
	}
	tw.AppendRow(table.Row{"Language", string(snap.Language)})

	switch {
	case snap.Verdict != nil:
		tw.AppendRow(table.Row{"Verdict", verdictLabel(*snap.Verdict, colorize)})
		tw.AppendRow(table.Row{"Message", snap.Verdict.Message})
	case snap.Error != "":
		tw.AppendRow(table.Row{"Error", paint(snap.Error, text.FgRed, colorize)})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, WidthMax: 72},
	})
	return tw.Render()
}

func verdictLabel(v domain.Verdict, colorize bool) string {
	if v.CanShip {
		return paint("Can Ship", text.FgGreen, colorize)
	}
	return paint("Cannot Ship", text.FgRed, colorize)
}

func paint(s string, c text.Color, colorize bool) string {
	if !colorize {
		return s
	}
	return c.Sprint(s)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
