package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"line21/internal/entities"
)

// printStats renders the end-of-run session counters. The rounded table
// style only makes sense on a terminal; piped output gets the plain style.
func printStats(w io.Writer, stats *entities.SessionStats) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if isTerminal(w) {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

	tw.AppendHeader(table.Row{"Counter", "Value"})
	rows := []struct {
		label string
		value int
	}{
		{"Frames processed", stats.FramesProcessed},
		{"Fields with data", stats.FieldsWithData},
		{"Blank frames", stats.BlankFrames},
		{"Unsynced fields", stats.UnsyncedFields},
		{"Parity errors", stats.ParityErrors},
		{"Control codes", stats.ControlCodes},
		{"Duplicates suppressed", stats.DuplicatesSeen},
		{"Cues emitted", stats.CuesEmitted},
		{"Text characters", stats.TextChars},
		{"XDS packets", stats.XDSPackets},
		{"XDS invalid", stats.XDSInvalid},
	}
	for _, r := range rows {
		tw.AppendRow(table.Row{r.label, strconv.Itoa(r.value)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	tw.Render()
	fmt.Fprintln(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
