package restore

import (
	"time"

	"github.com/vandry/get-longhorn-backup/internal/ui"
)

type jsonPrinter struct {
	terminal term
}

// NewJSONProgress returns a printer writing one JSON object per line.
func NewJSONProgress(terminal term) ProgressPrinter {
	return &jsonPrinter{
		terminal: terminal,
	}
}

func (t *jsonPrinter) print(status interface{}) {
	t.terminal.Print(ui.ToJSONString(status))
}

func (t *jsonPrinter) Update(p State, duration time.Duration) {
	status := statusUpdate{
		MessageType:    "status",
		SecondsElapsed: uint64(duration / time.Second),
		TotalBlocks:    p.BlocksTotal,
		BlocksRestored: p.BlocksRestored,
		BlocksCached:   p.BlocksCached,
		BytesRestored:  p.BytesRestored,
		BytesVerified:  p.BytesVerified,
		Gaps:           p.Gaps,
		SecondsLeft:    uint64(p.ETA / time.Second),
	}

	if p.BlocksTotal > 0 {
		status.PercentDone = float64(p.BlocksRestored) / float64(p.BlocksTotal)
	}

	t.print(status)
}

func (t *jsonPrinter) Finish(p State, duration time.Duration) {
	status := summaryOutput{
		MessageType:    "summary",
		SecondsElapsed: uint64(duration / time.Second),
		TotalBlocks:    p.BlocksTotal,
		BlocksRestored: p.BlocksRestored,
		BlocksCached:   p.BlocksCached,
		BytesRestored:  p.BytesRestored,
		BytesVerified:  p.BytesVerified,
		Gaps:           p.Gaps,
	}
	t.print(status)
}

type statusUpdate struct {
	MessageType    string  `json:"message_type"` // "status"
	SecondsElapsed uint64  `json:"seconds_elapsed,omitempty"`
	PercentDone    float64 `json:"percent_done"`
	TotalBlocks    uint64  `json:"total_blocks,omitempty"`
	BlocksRestored uint64  `json:"blocks_restored,omitempty"`
	BlocksCached   uint64  `json:"blocks_cached,omitempty"`
	BytesRestored  uint64  `json:"bytes_restored,omitempty"`
	BytesVerified  uint64  `json:"bytes_verified,omitempty"`
	Gaps           uint64  `json:"gaps,omitempty"`
	SecondsLeft    uint64  `json:"seconds_remaining,omitempty"`
}

type summaryOutput struct {
	MessageType    string `json:"message_type"` // "summary"
	SecondsElapsed uint64 `json:"seconds_elapsed,omitempty"`
	TotalBlocks    uint64 `json:"total_blocks"`
	BlocksRestored uint64 `json:"blocks_restored"`
	BlocksCached   uint64 `json:"blocks_cached,omitempty"`
	BytesRestored  uint64 `json:"bytes_restored"`
	BytesVerified  uint64 `json:"bytes_verified,omitempty"`
	Gaps           uint64 `json:"gaps"`
}
