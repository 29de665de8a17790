package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"dandiprep/internal/history"
	"dandiprep/internal/pipeline"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
)

func renderSummary(summary *pipeline.Summary, colorize bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s for dandiset %s\n", summary.RunID, summary.DandisetID)
	if !summary.SessionDate.IsZero() {
		fmt.Fprintf(&b, "Session date: %s\n", summary.SessionDate.String())
	}
	if summary.Staged.Files > 0 {
		fmt.Fprintf(&b, "Staged: %d file(s), %s\n", summary.Staged.Files, humanize.IBytes(uint64(summary.Staged.Bytes)))
	}

	rows := make([][]string, 0, len(summary.Steps))
	for _, step := range summary.Steps {
		rows = append(rows, []string{step.Name, statusLabel(step.Status, colorize), formatDuration(step.Duration), step.Detail})
	}
	b.WriteString(renderTable(
		[]string{"Step", "Status", "Duration", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))

	if len(summary.Renames) > 0 {
		renameRows := make([][]string, 0, len(summary.Renames))
		for _, r := range summary.Renames {
			renameRows = append(renameRows, []string{filepath.Base(r.From), filepath.Base(r.To)})
		}
		b.WriteString("\n")
		b.WriteString(renderTable([]string{"Organized", "Renamed"}, renameRows, []columnAlignment{alignLeft, alignLeft}))
	}

	for _, warning := range summary.Warnings {
		b.WriteString("\n")
		b.WriteString(paint("warning: "+warning, ansiYellow, colorize))
	}
	return b.String()
}

func statusLabel(status history.Status, colorize bool) string {
	label := string(status)
	switch status {
	case history.StatusSucceeded:
		return paint(label, ansiGreen, colorize)
	case history.StatusFailed, history.StatusInvalid:
		return paint(label, ansiRed, colorize)
	case history.StatusSkipped, history.StatusRunning:
		return paint(label, ansiYellow, colorize)
	default:
		return label
	}
}

func availabilityLabel(ok bool, colorize bool) string {
	if ok {
		return paint("yes", ansiGreen, colorize)
	}
	return paint("no", ansiRed, colorize)
}

func paint(value, color string, colorize bool) string {
	if !colorize || value == "" {
		return value
	}
	return color + value + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
