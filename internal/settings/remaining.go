package settings

import (
	"fmt"
	"time"
)

// FormatRemaining renders an unlock window countdown, rounding up to the
// minute. Returns "" once the window has passed.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	minutes := int((d + time.Minute - 1) / time.Minute)
	if minutes >= 60 {
		return fmt.Sprintf("%dh %dm remaining", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%dm remaining", minutes)
}
