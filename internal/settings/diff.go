package settings

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff compares two flag sets line by line. Lines only in from are
// prefixed with "-", lines only in to with "+". Returns "" when equal.
func Diff(from, to HidingSettings) string {
	if from == to {
		return ""
	}

	dmp := diffmatchpatch.New()

	a, b, lineArray := dmp.DiffLinesToChars(from.Render(), to.Render())
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var out strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
		}
	}
	return out.String()
}
