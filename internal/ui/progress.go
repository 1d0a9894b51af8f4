package ui

import (
	"fmt"
	"io"
	"time"

	"docsdiff/pkg/models"
)

// ProgressPrinter prints one line per processed repository
type ProgressPrinter struct {
	out       io.Writer
	startTime time.Time

	successCount int
	failureCount int
}

// NewProgressPrinter creates a printer writing to out
func NewProgressPrinter(out io.Writer) *ProgressPrinter {
	return &ProgressPrinter{
		out:       out,
		startTime: time.Now(),
	}
}

// Repository reports the result at position index (zero based) of total
func (p *ProgressPrinter) Repository(index, total int, result models.RepoResult) {
	mark := ColorSuccess("✓")
	if result.Failed() {
		p.failureCount++
		mark = ColorError("✗")
	} else {
		p.successCount++
	}

	width := len(fmt.Sprint(total))
	detail := result.Outcome()
	if result.DiffBytes > 0 {
		detail = fmt.Sprintf("%s, %s", detail, FormatBytes(result.DiffBytes))
	}
	fmt.Fprintf(p.out, "[%*d/%d] %s %s %s\n", width, index+1, total, mark, result.Name, ColorDim("("+detail+")"))
}

// Finish prints the totals
func (p *ProgressPrinter) Finish() {
	fmt.Fprintf(p.out, "\n%s Pass completed in %s\n", ColorSuccess("✓"), FormatDuration(time.Since(p.startTime)))
	fmt.Fprintf(p.out, "  %s %d processed\n", ColorSuccess("✓"), p.successCount)
	if p.failureCount > 0 {
		fmt.Fprintf(p.out, "  %s %d failed\n", ColorError("✗"), p.failureCount)
	}
}
