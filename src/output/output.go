// Package output formats package listings for the CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/feedkeeper/feedkeeper/src/pkgmeta"
)

// Colors for terminal output.
const (
	colorReset  = "\033[0m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// Printer formats and writes package listings.
type Printer struct {
	Writer io.Writer
	Color  bool
}

// NewPrinter creates a printer writing to stdout with color auto-detection.
func NewPrinter() *Printer {
	return &Printer{
		Writer: os.Stdout,
		Color:  UseColor(),
	}
}

// Print writes one line per package, sorted by id then version, marking
// unlisted packages and the absolute-latest version of each id.
func (p *Printer) Print(packages []pkgmeta.ServerPackage) {
	if len(packages) == 0 {
		fmt.Fprintln(p.Writer, "no packages")
		return
	}

	sorted := make([]pkgmeta.ServerPackage, len(packages))
	copy(sorted, packages)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ID != sorted[j].ID {
			return sorted[i].ID < sorted[j].ID
		}
		vi, erri := sorted[i].Version()
		vj, errj := sorted[j].Version()
		if erri == nil && errj == nil {
			return vi.Less(vj)
		}
		return sorted[i].VersionNormalized < sorted[j].VersionNormalized
	})

	for _, pkg := range sorted {
		id := p.colorize(pkg.ID, colorCyan)
		version := pkg.VersionOriginal
		if pkg.SemVer2IsAbsoluteLatest || pkg.SemVer1IsAbsoluteLatest {
			version = p.colorize(version, colorBold)
		}
		marker := ""
		if !pkg.Listed {
			marker = p.colorize(" (unlisted)", colorGray)
		}
		fmt.Fprintf(p.Writer, "%-32s %s%s\n", id, version, marker)
	}
}

// Summary prints a final count line.
func (p *Printer) Summary(total int) {
	word := "packages"
	if total == 1 {
		word = "package"
	}
	fmt.Fprintf(p.Writer, "\n%s %s\n", p.colorize(fmt.Sprintf("%d", total), colorBold), word)
}

// PushResult reports a successful push.
func (p *Printer) PushResult(pkg pkgmeta.ServerPackage) {
	fmt.Fprintf(p.Writer, "%s pushed %s %s\n", p.colorize("✓", colorCyan), pkg.ID, pkg.VersionOriginal)
}

// Warning prints a non-fatal warning line.
func (p *Printer) Warning(msg string) {
	fmt.Fprintf(p.Writer, "%s %s\n", p.colorize("warning:", colorYellow), msg)
}

func (p *Printer) colorize(text, color string) string {
	if !p.Color {
		return text
	}
	return color + text + colorReset
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// UseColor returns true if colored output should be used. Respects
// NO_COLOR env, TERM=dumb, and terminal detection.
func UseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal()
}
