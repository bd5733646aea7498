package result

import (
	"fmt"
	"strings"

	"github.com/dekarrin/rosed"
)

// Format renders a ParseResults as a column-wrapped text table for terminal
// display, the way internal/game/debug.go's ListFlags/ListNPCs render their
// own data tables with rosed.Options{TableHeaders: true}.
func Format(pr ParseResults, width int) string {
	if width <= 0 {
		width = 80
	}

	header := fmt.Sprintf("Query %q (id %s, %s)", pr.Query, pr.QueryID, pr.ParseTime)
	if pr.Message != "" {
		header += "\n" + pr.Message
	}

	if len(pr.Trees) == 0 {
		return rosed.Edit(header).Wrap(width).String()
	}

	data := [][]string{{"#", "Cost", "Text", "Semantic"}}
	for i, t := range pr.Trees {
		row := []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.2f", t.Cost),
			t.Text,
			t.Semantic,
		}
		data = append(data, row)
		for _, alt := range t.AmbiguousAlternatives {
			data = append(data, []string{"", "", "", " ~ " + alt})
		}
	}

	tableOpts := rosed.Options{
		TableHeaders:             true,
		NoTrailingLineSeparators: true,
	}

	return rosed.Edit(header + "\n").
		InsertTableOpts(0, data, width, tableOpts).
		String()
}

// FormatAmbiguitySummary renders just the count of discarded alternatives
// per tree, for a terse REPL status line.
func FormatAmbiguitySummary(pr ParseResults) string {
	var parts []string
	for i, t := range pr.Trees {
		if len(t.AmbiguousAlternatives) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("tree %d has %d alternate reading(s)", i+1, len(t.AmbiguousAlternatives)))
	}
	return strings.Join(parts, "; ")
}
