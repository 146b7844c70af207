// Package format provides shared clock and duration formatting.
package format

import (
	"fmt"
	"time"

	"github.com/ncruces/go-strftime"
)

// Clock renders t in its location with a strftime layout such as
// "%Y-%m-%d %H:%M:%S".
func Clock(layout string, t time.Time) string {
	return strftime.Format(layout, t)
}

// Duration renders d as a concise human-readable string.
// Returns strings like "250ms", "5s", "5m 30s", "2h 15m".
func Duration(d time.Duration) string {
	if d < 0 {
		d = -d
	}

	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
