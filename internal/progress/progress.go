// Package progress reports transfer progress on stderr. Stdout stays
// clean for command output and for the MCP protocol stream.
package progress

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter receives progress updates during a blob download.
type Reporter interface {
	Start(total int64, description string)
	Add(n int64)
	Finish()
}

// CLIProgress renders a progress bar on stderr. Blob sizes are not
// known up front (listing returns names only), so it runs in spinner
// mode with a byte counter.
type CLIProgress struct {
	bar *progressbar.ProgressBar
}

// NewCLIProgress creates a CLI progress reporter.
func NewCLIProgress() *CLIProgress {
	return &CLIProgress{}
}

// Start initializes the bar. A total of -1 selects spinner mode.
func (p *CLIProgress) Start(total int64, description string) {
	p.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Add advances the bar by n bytes.
func (p *CLIProgress) Add(n int64) {
	if p.bar != nil {
		_ = p.bar.Add64(n)
	}
}

// Finish completes the bar.
func (p *CLIProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// NoOpProgress discards all updates, for quiet or scripted runs.
type NoOpProgress struct{}

// NewNoOpProgress creates a no-op reporter.
func NewNoOpProgress() *NoOpProgress {
	return &NoOpProgress{}
}

func (p *NoOpProgress) Start(total int64, description string) {}
func (p *NoOpProgress) Add(n int64)                           {}
func (p *NoOpProgress) Finish()                               {}
