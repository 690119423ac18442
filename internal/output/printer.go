// Package output renders harness results as indented JSON or as colored
// text tables.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wesleyorama2/booker/internal/attack"
	"github.com/wesleyorama2/booker/internal/bench"
	"github.com/wesleyorama2/booker/internal/contract"
	"github.com/wesleyorama2/booker/internal/load"
	"github.com/wesleyorama2/booker/internal/swarm"
)

// Format is an output format.
type Format string

const (
	// FormatJSON is the default machine-readable format
	FormatJSON Format = "json"
	// FormatText is a human-readable table
	FormatText Format = "text"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatText:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want json or text)", s)
}

// Printer writes results to one writer.
type Printer struct {
	w      io.Writer
	format Format
	colors *ColorScheme
}

// NewPrinter picks colors for w. JSON output is never colored.
func NewPrinter(w io.Writer, format Format) *Printer {
	return NewPrinterWithScheme(w, format, SchemeFor(w))
}

// NewPrinterWithScheme uses an explicit color scheme.
func NewPrinterWithScheme(w io.Writer, format Format, colors *ColorScheme) *Printer {
	return &Printer{w: w, format: format, colors: colors}
}

// JSON writes v indented by two spaces.
func (p *Printer) JSON(v interface{}) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) text(s string) error {
	_, err := io.WriteString(p.w, s)
	return err
}

func (p *Printer) title(b *strings.Builder, s string) {
	b.WriteString(p.colors.Title.Sprint(s))
	b.WriteString("\n")
}

// LoadReport prints the per-operation summary of a load run.
func (p *Printer) LoadReport(r load.Report) error {
	if p.format == FormatJSON {
		return p.JSON(r)
	}
	var b strings.Builder
	p.title(&b, "Load summary")
	b.WriteString(p.summaryTable(r))
	fmt.Fprintf(&b, "%s samples\n", p.colors.Value.Sprint(r.Total()))
	return p.text(b.String())
}

func (p *Printer) summaryTable(r load.Report) string {
	t := newTable("operation", "count", "mean ms", "p95 ms")
	for _, entry := range r {
		s := entry.Summary
		if s.Count == 0 {
			t.add(cell{text: string(entry.Operation), color: p.colors.Name},
				cell{text: "0", color: p.colors.Dim}, cell{text: "-", color: p.colors.Dim}, cell{text: "-", color: p.colors.Dim})
			continue
		}
		p95 := cell{text: "-", color: p.colors.Dim}
		if s.P95Ms != nil {
			p95 = cell{text: ms(*s.P95Ms), color: p.colors.Value}
		}
		t.add(cell{text: string(entry.Operation), color: p.colors.Name},
			cell{text: strconv.Itoa(s.Count)}, cell{text: ms(s.MeanMs), color: p.colors.Value}, p95)
	}
	return t.render(p.colors)
}

// SwarmReport prints the simulator summary.
func (p *Printer) SwarmReport(r swarm.Report) error {
	if p.format == FormatJSON {
		return p.JSON(r)
	}
	var b strings.Builder
	p.title(&b, "Swarm summary")
	b.WriteString(p.summaryTable(r.Operations))
	b.WriteString("\n")

	names := make([]string, 0, len(r.Percentiles))
	for name := range r.Percentiles {
		names = append(names, name)
	}
	sort.Strings(names)
	t := newTable("operation", "requests", "p50 ms", "p90 ms", "p99 ms")
	for _, name := range names {
		pc := r.Percentiles[name]
		t.add(cell{text: name, color: p.colors.Name}, cell{text: strconv.FormatInt(pc.Count, 10)},
			cell{text: ms(pc.P50)}, cell{text: ms(pc.P90)}, cell{text: ms(pc.P99), color: p.colors.Value})
	}
	b.WriteString(t.render(p.colors))
	b.WriteString("\n")

	tasks := make([]string, 0, len(r.Tasks))
	for name, n := range r.Tasks {
		tasks = append(tasks, fmt.Sprintf("%s=%d", name, n))
	}
	sort.Strings(tasks)
	fmt.Fprintf(&b, "users %s  requests %s  %s\n",
		p.colors.Value.Sprint(r.Users), p.colors.Value.Sprint(r.Requests), p.failures(r.Failed))
	fmt.Fprintf(&b, "tasks %s\n", strings.Join(tasks, " "))
	return p.text(b.String())
}

// Bench prints micro-benchmark results.
func (p *Printer) Bench(results []bench.Result) error {
	if p.format == FormatJSON {
		return p.JSON(results)
	}
	var b strings.Builder
	p.title(&b, "Benchmarks")
	t := newTable("case", "rounds", "failures", "min ms", "median ms", "mean ms", "max ms", "stddev ms")
	for _, r := range results {
		t.add(cell{text: r.Name, color: p.colors.Name}, cell{text: strconv.Itoa(r.Rounds)},
			p.failureCell(int64(r.Failures)),
			cell{text: ms(r.Min)}, cell{text: ms(r.Median), color: p.colors.Value}, cell{text: ms(r.Mean)},
			cell{text: ms(r.Max)}, cell{text: ms(r.StdDev), color: p.colors.Dim})
	}
	b.WriteString(t.render(p.colors))
	for _, r := range results {
		for _, msg := range r.Errors {
			fmt.Fprintf(&b, "%s %s: %s\n", p.colors.ErrorIcon(), r.Name, msg)
		}
	}
	return p.text(b.String())
}

// Contract prints one line per case and a pass/fail tally.
func (p *Printer) Contract(results contract.Results) error {
	if p.format == FormatJSON {
		return p.JSON(results)
	}
	var b strings.Builder
	p.title(&b, "Contract tests")
	for _, r := range results {
		icon := p.colors.SuccessIcon()
		if !r.Passed {
			icon = p.colors.ErrorIcon()
		}
		fmt.Fprintf(&b, "%s %s %s\n", icon, r.Name, p.colors.Dim.Sprintf("(%s)", r.Duration.Round(time.Millisecond)))
		if r.Error != "" {
			fmt.Fprintf(&b, "    %s\n", p.colors.Bad.Sprint(r.Error))
		}
	}
	failed := results.Failed()
	passed := p.colors.Good.Sprintf("%d passed", len(results)-failed)
	fmt.Fprintf(&b, "\n%s, %s\n", passed, p.failures(int64(failed)))
	return p.text(b.String())
}

// Attack prints one row per attacked target.
func (p *Printer) Attack(results []attack.Result) error {
	if p.format == FormatJSON {
		return p.JSON(results)
	}
	var b strings.Builder
	p.title(&b, "Attack")
	t := newTable("target", "requests", "success", "mean ms", "p95 ms", "p99 ms", "max ms", "status codes")
	for _, r := range results {
		success := cell{text: fmt.Sprintf("%.1f%%", r.Success*100), color: p.colors.Good}
		if r.Success < 0.99 {
			success.color = p.colors.Warn
		}
		if r.Success < 0.95 {
			success.color = p.colors.Bad
		}
		t.add(cell{text: r.Name, color: p.colors.Name}, cell{text: strconv.FormatUint(r.Requests, 10)}, success,
			cell{text: ms(r.Mean)}, cell{text: ms(r.P95), color: p.colors.Value}, cell{text: ms(r.P99)},
			cell{text: ms(r.Max)}, cell{text: statusCodes(r.StatusCodes)})
	}
	b.WriteString(t.render(p.colors))
	return p.text(b.String())
}

func (p *Printer) failures(n int64) string {
	if n == 0 {
		return p.colors.Good.Sprintf("%d failed", n)
	}
	return p.colors.Bad.Sprintf("%d failed", n)
}

func (p *Printer) failureCell(n int64) cell {
	if n == 0 {
		return cell{text: "0", color: p.colors.Good}
	}
	return cell{text: strconv.FormatInt(n, 10), color: p.colors.Bad}
}

func ms(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// statusCodes renders {"200": 9, "0": 1} as "0:1 200:9".
func statusCodes(codes map[string]int) string {
	keys := make([]string, 0, len(codes))
	for code := range codes {
		keys = append(keys, code)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, code := range keys {
		parts[i] = fmt.Sprintf("%s:%d", code, codes[code])
	}
	return strings.Join(parts, " ")
}
