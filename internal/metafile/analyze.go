package metafile

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Analysis is a size breakdown of one bundle.
type Analysis struct {
	Entry      string
	TotalBytes int // output size, or the sum of module code when unknown
	CodeBytes  int
	Modules    []ModuleShare // largest first
	Warnings   []string
}

// ModuleShare is one module's contribution to the bundle.
type ModuleShare struct {
	Path        string
	Copies      int // >1 only without deduplication
	CodeBytes   int
	Percentage  float64
	ImportCount int
}

// Analyze aggregates m per path.
func Analyze(m *Metafile) *Analysis {
	a := &Analysis{Entry: m.Entry}
	byPath := make(map[string]*ModuleShare, len(m.Modules))
	order := make([]string, 0, len(m.Modules))
	for _, mod := range m.Modules {
		a.CodeBytes += mod.CodeBytes
		share, ok := byPath[mod.Path]
		if !ok {
			share = &ModuleShare{Path: mod.Path, ImportCount: len(mod.Imports)}
			byPath[mod.Path] = share
			order = append(order, mod.Path)
		}
		share.Copies++
		share.CodeBytes += mod.CodeBytes
	}

	a.TotalBytes = a.CodeBytes
	if m.Output != nil {
		a.TotalBytes = m.Output.Bytes
	}

	for _, p := range order {
		share := byPath[p]
		if a.CodeBytes > 0 {
			share.Percentage = float64(share.CodeBytes) / float64(a.CodeBytes) * 100
		}
		if share.Copies > 1 {
			a.Warnings = append(a.Warnings,
				fmt.Sprintf("%s is bundled %d times (build without --no-dedupe to share it)", p, share.Copies))
		}
		a.Modules = append(a.Modules, *share)
	}
	sort.SliceStable(a.Modules, func(i, j int) bool {
		return a.Modules[i].CodeBytes > a.Modules[j].CodeBytes
	})
	return a
}

// Display prints the analysis. Without showAll only the ten largest modules are listed.
func Display(w io.Writer, a *Analysis, showAll bool) {
	_, _ = fmt.Fprintf(w, "\n=== Bundle Analysis: %s ===\n", a.Entry)
	_, _ = fmt.Fprintf(w, "Total bundle size: %s (%d modules)\n", formatBytesHuman(a.TotalBytes), len(a.Modules))

	if len(a.Modules) > 0 {
		_, _ = fmt.Fprintln(w, "\nBundle breakdown:")
		limit := 10
		if showAll {
			limit = len(a.Modules)
		}

		width := 0
		for i, mod := range a.Modules {
			if i >= limit {
				break
			}
			width = max(width, runewidth.StringWidth(truncatePath(mod.Path, 50)))
		}

		for i, mod := range a.Modules {
			if i >= limit {
				_, _ = fmt.Fprintf(w, "  ... and %d more modules\n", len(a.Modules)-limit)
				break
			}
			display := truncatePath(mod.Path, 50)
			padding := strings.Repeat(" ", width-runewidth.StringWidth(display))
			copies := ""
			if mod.Copies > 1 {
				copies = fmt.Sprintf("  x%d", mod.Copies)
			}
			_, _ = fmt.Fprintf(w, "  %s%s  %10s  %5.1f%%%s\n",
				display, padding, formatBytesHuman(mod.CodeBytes), mod.Percentage, copies)
		}
	}

	if len(a.Warnings) > 0 {
		_, _ = fmt.Fprintln(w, "\nWarnings:")
		for _, warn := range a.Warnings {
			_, _ = fmt.Fprintf(w, "  - %s\n", warn)
		}
	}
	_, _ = fmt.Fprintln(w)
}

func formatBytesHuman(bytes int) string {
	const (
		KB = 1024
		MB = 1024 * KB
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// truncatePath keeps the last cells of path so that it fits maxWidth.
func truncatePath(path string, maxWidth int) string {
	if runewidth.StringWidth(path) <= maxWidth {
		return path
	}
	runes := []rune(path)
	budget := maxWidth - 3
	i := len(runes)
	for i > 0 {
		rw := runewidth.RuneWidth(runes[i-1])
		if rw > budget {
			break
		}
		budget -= rw
		i--
	}
	return "..." + string(runes[i:])
}
