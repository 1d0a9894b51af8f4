package ui

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"docsdiff/internal/git"
	"docsdiff/pkg/models"
)

// RenderReport writes the per-repository table of a pass followed by a
// one-line summary
func RenderReport(w io.Writer, report *models.PassReport) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Repository", "Status", "Head", "Fetch head", "Diff", "Advanced"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, res := range report.Results {
		advanced := "no"
		if res.Advanced {
			advanced = "yes"
		}
		diff := "-"
		if res.DiffBytes > 0 {
			diff = FormatBytes(res.DiffBytes)
		}
		table.Append([]string{
			res.Name,
			statusCell(res),
			git.ShortHash(res.Pair.Head),
			git.ShortHash(res.Pair.FetchHead),
			diff,
			advanced,
		})
	}
	table.Render()

	commit := "nothing to commit"
	if report.Committed {
		commit = "committed " + git.ShortHash(report.CommitHash)
	}
	fmt.Fprintf(w, "\n%d repositories, %d changed, %d failed, %s, cutoff %s, took %s\n",
		len(report.Results),
		report.Changed(),
		len(report.Failures()),
		commit,
		report.Cutoff.Format("2006-01-02T15:04:05Z07:00"),
		FormatDuration(report.Duration),
	)
}

func statusCell(res models.RepoResult) string {
	outcome := res.Outcome()
	switch outcome {
	case models.OutcomeFailed:
		return color.RedString(outcome)
	case models.OutcomeCloned:
		return color.CyanString(outcome)
	case models.OutcomeUpdated:
		return color.GreenString(outcome)
	default:
		return outcome
	}
}

// RenderRepositories writes the repository listing as a table
func RenderRepositories(w io.Writer, repos []models.Repository) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Name", "Clone URL"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for i, repo := range repos {
		table.Append([]string{strconv.Itoa(i + 1), repo.Name, repo.CloneURL})
	}
	table.Render()
}
