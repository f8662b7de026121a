// Package output renders runbook progress for the terminal using lipgloss.
//
// [Printer] writes step headers, results and the final release summary. Use
// [NewPrinter] for stdout or [NewPrinterWithWriter] to capture output in tests.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// SuccessBanner is printed once when a release completes.
const SuccessBanner = "RELEASE FINISHED SUCCESSFULLY"

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3FB950"))
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// StepResult is the outcome of one executed step.
type StepResult struct {
	Name     string
	Duration time.Duration
	Err      error
}

// Printer writes formatted progress output.
type Printer struct {
	out   io.Writer
	start map[int]time.Time
	now   func() time.Time
}

// NewPrinter returns a Printer writing to stdout.
func NewPrinter() *Printer {
	return NewPrinterWithWriter(os.Stdout)
}

// NewPrinterWithWriter returns a Printer writing to w.
func NewPrinterWithWriter(w io.Writer) *Printer {
	return &Printer{
		out:   w,
		start: make(map[int]time.Time),
		now:   time.Now,
	}
}

// Writer returns the destination of the printer.
func (p *Printer) Writer() io.Writer {
	return p.out
}

// RunHeader prints the title box with the steps about to run.
func (p *Printer) RunHeader(title string, steps []string) {
	body := headerStyle.Render(title) + "\n" +
		mutedStyle.Render("Steps: "+strings.Join(steps, " → "))
	fmt.Fprintln(p.out, boxStyle.Render(body))
}

// StepStart prints the step header. index is 1-based.
func (p *Printer) StepStart(index, total int, name string) {
	p.start[index] = p.now()
	fmt.Fprintln(p.out, stepStyle.Render(fmt.Sprintf("[%d/%d] %s", index, total, name)))
}

// StepDone prints the step outcome and returns it.
func (p *Printer) StepDone(index int, name string, err error) StepResult {
	var d time.Duration
	if started, ok := p.start[index]; ok {
		d = p.now().Sub(started)
		delete(p.start, index)
	}
	res := StepResult{Name: name, Duration: d, Err: err}
	if err != nil {
		fmt.Fprintln(p.out, errorStyle.Render(fmt.Sprintf("  ✗ %s failed", name)))
		return res
	}
	fmt.Fprintln(p.out, successStyle.Render("  ✓ "+name)+" "+mutedStyle.Render(d.Round(time.Millisecond).String()))
	return res
}

// Success prints msg as the single success confirmation.
func (p *Printer) Success(msg string) {
	fmt.Fprintln(p.out, boxStyle.Render(successStyle.Render("✓ "+msg)))
}

// Error prints err as the failure message.
func (p *Printer) Error(err error) {
	fmt.Fprintln(p.out, boxStyle.Render(errorStyle.Render("✗ "+err.Error())))
}

// Info prints a plain line.
func (p *Printer) Info(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Summary prints a per-step timing table.
func (p *Printer) Summary(results []StepResult) {
	var total time.Duration
	lines := make([]string, 0, len(results)+1)
	for i, r := range results {
		mark := "✓"
		if r.Err != nil {
			mark = "✗"
		}
		lines = append(lines, fmt.Sprintf("%s [%d] %-26s %s", mark, i+1, r.Name, r.Duration.Round(time.Millisecond)))
		total += r.Duration
	}
	lines = append(lines, mutedStyle.Render("Total: "+total.Round(time.Millisecond).String()))
	fmt.Fprintln(p.out, boxStyle.Render(strings.Join(lines, "\n")))
}
