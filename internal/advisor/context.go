package advisor

import (
	"fmt"
	"sort"
	"strings"

	"codeberg.org/mutker/scadactl/internal/collector"
)

// buildContext renders the collector's current view as plain text for
// inclusion in a prompt. Returns a short notice when no source is wired.
func buildContext(source DataSource) string {
	if source == nil {
		return "Data collector not connected."
	}

	var b strings.Builder

	if snapshot := source.GetLatest(); snapshot != nil {
		b.WriteString("=== CURRENT READING ===\n")
		fmt.Fprintf(&b, "Timestamp: %s\n", snapshot.Timestamp.Format("2006-01-02 15:04:05"))

		names := make([]string, 0, len(snapshot.Values))
		for name := range snapshot.Values {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			value := snapshot.Values[name]
			if collector.IsMissing(value) {
				fmt.Fprintf(&b, "  %s: unavailable\n", name)
				continue
			}
			fmt.Fprintf(&b, "  %s: %.3f\n", name, value)
		}
	}

	if stats, err := source.AllStatistics(); err == nil {
		b.WriteString("\n=== STATISTICS (retained window) ===\n")

		names := make([]string, 0, len(stats))
		for name := range stats {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			s := stats[name]
			fmt.Fprintf(&b, "  %s: mean=%.2f, min=%.2f, max=%.2f, trend=%s\n",
				name, s.Mean, s.Min, s.Max, s.Trend)
		}
	}

	status := source.GetStatus()
	b.WriteString("\n=== COLLECTOR STATUS ===\n")
	fmt.Fprintf(&b, "  Samples collected: %d\n", status.SamplesCollected)
	fmt.Fprintf(&b, "  Errors: %d\n", status.ErrorsCount)
	fmt.Fprintf(&b, "  Buffer: %d/%d\n", status.BufferSize, status.BufferMax)

	return b.String()
}

// wrapQuestion prefixes an operator question with current process data.
func wrapQuestion(source DataSource, question string) string {
	if source == nil {
		return question
	}

	return fmt.Sprintf("Current process data:\n%s\n\nOperator question: %s",
		buildContext(source), question)
}
