package stats

import (
	"github.com/mattn/go-runewidth"
)

// field is one labelled line of a summary block.
type field struct {
	label string
	value string
}

// alignFields lays fields out as two columns: labels padded to the widest
// label and values right-aligned to the widest value.
func alignFields(fields []field) []string {
	labelWidth, valueWidth := 0, 0
	for _, f := range fields {
		labelWidth = max(labelWidth, runewidth.StringWidth(f.label))
		valueWidth = max(valueWidth, runewidth.StringWidth(f.value))
	}
	lines := make([]string, len(fields))
	for i, f := range fields {
		lines[i] = runewidth.FillRight(f.label, labelWidth) + "  " + runewidth.FillLeft(f.value, valueWidth)
	}
	return lines
}
