package restore

import (
	"fmt"
	"time"

	"github.com/vandry/get-longhorn-backup/internal/ui"
)

type textPrinter struct {
	terminal term
}

// NewTextProgress returns a printer writing human readable status lines.
func NewTextProgress(terminal term) ProgressPrinter {
	return &textPrinter{
		terminal: terminal,
	}
}

func (t *textPrinter) Update(p State, duration time.Duration) {
	var status string
	if p.Verifying {
		status = fmt.Sprintf("[%s] verifying, %s of %s checked",
			ui.FormatDuration(duration), ui.FormatBytes(p.BytesVerified), ui.FormatBytes(p.BytesRestored))
	} else {
		status = fmt.Sprintf("[%s] %s  %d / %d blocks, %s restored, %s",
			ui.FormatDuration(duration), ui.FormatPercent(p.BlocksRestored, p.BlocksTotal),
			p.BlocksRestored, p.BlocksTotal, ui.FormatBytes(p.BytesRestored),
			ui.FormatRate(p.BytesRestored, duration))
		if p.ETA > 0 {
			status += fmt.Sprintf(", ETA %s", ui.FormatDuration(p.ETA))
		}
	}

	t.terminal.SetStatus([]string{status})
}

func (t *textPrinter) Finish(p State, duration time.Duration) {
	t.terminal.SetStatus(nil)

	var summary string
	if p.BlocksRestored == p.BlocksTotal {
		summary = fmt.Sprintf("Summary: Restored %d blocks (%s) in %s",
			p.BlocksTotal, ui.FormatBytes(p.BytesRestored), ui.FormatDuration(duration))
	} else {
		summary = fmt.Sprintf("Summary: Restored %d / %d blocks (%s) in %s",
			p.BlocksRestored, p.BlocksTotal, ui.FormatBytes(p.BytesRestored), ui.FormatDuration(duration))
	}
	if p.BlocksCached > 0 {
		summary += fmt.Sprintf(", %d from cache", p.BlocksCached)
	}
	if p.Gaps > 0 {
		summary += fmt.Sprintf(", %d gaps", p.Gaps)
	}
	t.terminal.Print(summary)

	if p.Verifying {
		t.terminal.Print(fmt.Sprintf("Verified %s", ui.FormatBytes(p.BytesVerified)))
	}
}
