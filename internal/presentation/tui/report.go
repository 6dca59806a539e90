package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/bngenvs/pkg/results"
)

// RecordMarkdown summarizes a run record as markdown: identity, outcome, the summary
// results and the parameters.
func RecordMarkdown(rec *results.Record) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s `%s`\n\n", rec.EnvName, rec.RunID)
	fmt.Fprintf(&b, "- **Path:** `%s`\n", rec.Path())
	fmt.Fprintf(&b, "- **Version:** %s\n", rec.Outcome.Version)
	fmt.Fprintf(&b, "- **Steps recorded:** %d\n", rec.History.Len())
	if rec.LogsPath != "" {
		fmt.Fprintf(&b, "- **Raw logs:** yes\n")
	}
	b.WriteString("\n")

	scalars, err := rec.Scalars()
	if err != nil {
		return "", err
	}
	sections := []struct {
		title  string
		prefix string
	}{
		{"Results", "results_"},
		{"Parameters", "params_"},
		{"Config", "config_"},
	}
	for _, sec := range sections {
		var rows []results.Scalar
		for _, s := range scalars {
			if strings.HasPrefix(s.Key, sec.prefix) {
				rows = append(rows, results.Scalar{Key: strings.TrimPrefix(s.Key, sec.prefix), Value: s.Value})
			}
		}
		if len(rows) == 0 {
			continue
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
		fmt.Fprintf(&b, "## %s\n\n| Key | Value |\n|-----|-------|\n", sec.title)
		for _, r := range rows {
			fmt.Fprintf(&b, "| `%s` | %s |\n", r.Key, cell(r.Value))
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func cell(v any) string {
	s := fmt.Sprint(v)
	if v == nil {
		s = "-"
	}
	s = strings.ReplaceAll(s, "|", "\\|")
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}
