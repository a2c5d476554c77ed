package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/codefactory/internal/analyzer"
	"github.com/dshills/codefactory/internal/searcher"
)

var (
	colorPrimary   = lipgloss.Color("39")
	colorSecondary = lipgloss.Color("86")
	colorSuccess   = lipgloss.Color("42")
	colorWarning   = lipgloss.Color("220")
	colorDim       = lipgloss.Color("241")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Width(18)

	valueStyle = lipgloss.NewStyle()

	okStyle = lipgloss.NewStyle().
		Foreground(colorSuccess)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	filePathStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSecondary)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

// runReport is the printable outcome of one analyze command
type runReport struct {
	result    *analyzer.Result
	outputDir string
	persist   *analyzer.PersistStats
	dbPath    string
}

func (r runReport) render(w io.Writer) error {
	s := r.result.Summary

	rows := [][2]string{
		{"Root", s.Root},
		{"Files seen", fmt.Sprint(s.FilesSeen)},
		{"Files chunked", fmt.Sprint(s.FilesProcessed)},
		{"Files filtered", fmt.Sprint(s.FilesFiltered)},
		{"Files oversized", fmt.Sprint(s.FilesOversized)},
		{"Files skipped", fmt.Sprint(s.FilesSkipped)},
		{"Empty files", fmt.Sprint(s.FilesEmpty)},
		{"Dirs pruned", fmt.Sprint(s.DirsPruned)},
		{"Chunks", fmt.Sprint(s.ChunksCreated)},
		{"Skeleton", skeletonLine(s.SkeletonBytes, s.SkeletonBudget, s.SkeletonTruncated)},
		{"Dependencies", fmt.Sprint(r.result.Dependencies.Total())},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
	}
	if r.outputDir != "" {
		rows = append(rows, [2]string{"Artifacts", r.outputDir})
	}
	if r.persist != nil {
		rows = append(rows, [2]string{"Store", fmt.Sprintf("%s (%d updated, %d unchanged, %d removed)",
			r.dbPath, r.persist.FilesUpdated, r.persist.FilesUnchanged, r.persist.FilesRemoved)})
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Analysis complete"))
	b.WriteString("\n")
	for i, row := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(labelStyle.Render(row[0]))
		b.WriteString(valueStyle.Render(row[1]))
	}

	out := boxStyle.Render(b.String()) + "\n"
	for _, warning := range s.Warnings {
		out += warnStyle.Render("warning: "+warning) + "\n"
	}
	if ratio := s.SkippedRatio(); ratio > 0.5 {
		out += warnStyle.Render(fmt.Sprintf("warning: %.0f%% of files produced no chunks", ratio*100)) + "\n"
	}

	_, err := io.WriteString(w, out)
	return err
}

func skeletonLine(size, budget int, truncated bool) string {
	line := fmt.Sprintf("%d bytes", size)
	if budget > 0 {
		line = fmt.Sprintf("%d / %d bytes", size, budget)
	}
	if truncated {
		return line + " " + warnStyle.Render("(truncated)")
	}
	return line + " " + okStyle.Render("(complete)")
}

// renderResults prints search results, best first
func renderResults(w io.Writer, query string, resp *searcher.Response) error {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%d results for %q", resp.TotalResults, query)))
	b.WriteString("\n")

	for _, r := range resp.Results {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%d. %s %s\n",
			r.Rank,
			filePathStyle.Render(fmt.Sprintf("%s:%d-%d", r.SourcePath, r.StartLine, r.EndLine)),
			lipgloss.NewStyle().Foreground(colorDim).Render(fmt.Sprintf("[%s %.3f]", r.Language, r.RelevanceScore))))
		b.WriteString(boxStyle.Render(strings.TrimRight(r.Content, "\n")))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
