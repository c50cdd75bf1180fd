package display

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// ProgressIndicator reports progress through the files of a run
type ProgressIndicator struct {
	writer     io.Writer
	totalFiles int
	current    int
}

// NewProgressIndicator creates a new progress indicator
func NewProgressIndicator(w io.Writer, total int) *ProgressIndicator {
	return &ProgressIndicator{
		writer:     w,
		totalFiles: total,
	}
}

// Start displays the header message
func (p *ProgressIndicator) Start(target string) {
	fmt.Fprintf(p.writer, "Scanning %d files in %s\n", p.totalFiles, target)
}

// Step displays progress for the current file: [N/Total] path
func (p *ProgressIndicator) Step(path string) {
	p.current++
	color.New(color.FgCyan).Fprintf(p.writer, "  [%d/%d] %s\n", p.current, p.totalFiles, path)
}

// Complete displays the success message
func (p *ProgressIndicator) Complete() {
	fmt.Fprintf(p.writer, "%s Processed %d files\n", color.GreenString("✓"), p.current)
}
