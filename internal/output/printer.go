// Package output renders products and board state to the terminal.
//
// [Printer] draws the five-column stage board, a flat table, product details,
// summary statistics and roadmaps with lipgloss. Colours are dropped
// automatically when the writer is not a terminal. Machine-readable output is
// available through [Printer.JSON] and [Printer.YAML].
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"maturity/internal/product"
	"maturity/internal/session"
	"maturity/internal/stage"
	"maturity/internal/transition"
)

// columnWidth is the width of one board column.
const columnWidth = 30

// progressCells is the width of the readiness bar.
const progressCells = 10

// Printer writes formatted output to a writer.
type Printer struct {
	out      io.Writer
	renderer *lipgloss.Renderer
	styles   styles
}

// NewPrinter creates a [Printer] writing to stdout.
func NewPrinter() *Printer {
	return NewPrinterWithWriter(os.Stdout)
}

// NewPrinterWithWriter creates a [Printer] writing to w. Tests pass a buffer.
func NewPrinterWithWriter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{out: w, renderer: r, styles: newStyles(r)}
}

// Writer returns the destination writer.
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Board draws one column per stage with a card per product.
func (p *Printer) Board(products []product.Product) {
	groups := product.ByStage(products)

	columns := make([]string, 0, len(stage.All()))
	for _, s := range stage.All() {
		items := groups[s]
		header := p.stageStyle(s).Render(fmt.Sprintf("%s %s (%d)", s, s.Label(), len(items)))

		parts := []string{header}
		if len(items) == 0 {
			parts = append(parts, p.styles.muted.Render("no products"))
		}
		for _, item := range items {
			parts = append(parts, p.card(item))
		}
		columns = append(columns, p.styles.column.Render(lipgloss.JoinVertical(lipgloss.Left, parts...)))
	}

	fmt.Fprintln(p.out, lipgloss.JoinHorizontal(lipgloss.Top, columns...))
}

func (p *Printer) card(item product.Product) string {
	lines := []string{
		p.styles.title.Render(item.Name),
		p.styles.muted.Render(item.ID) + " " + p.statusStyle(item.Status).Render(string(item.Status)),
		progressBar(item.ReadinessScore),
		p.styles.muted.Render(fmt.Sprintf("%dd in stage", item.DaysInStage)),
	}
	return p.styles.card.Render(strings.Join(lines, "\n"))
}

func progressBar(score int) string {
	filled := (score*progressCells + 50) / 100
	if filled > progressCells {
		filled = progressCells
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", progressCells-filled) + fmt.Sprintf(" %d%%", score)
}

// Table draws one row per product.
func (p *Printer) Table(products []product.Product) {
	if len(products) == 0 {
		fmt.Fprintln(p.out, p.styles.muted.Render("No products."))
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.renderer.NewStyle().Foreground(colorBorder)).
		Headers("ID", "NAME", "STAGE", "STATUS", "READINESS", "DAYS", "NEXT ACTION")
	for _, item := range products {
		t.Row(
			item.ID,
			item.Name,
			fmt.Sprintf("%s %s", item.Stage, item.Stage.Label()),
			string(item.Status),
			fmt.Sprintf("%d%%", item.ReadinessScore),
			fmt.Sprintf("%d", item.DaysInStage),
			item.NextAction,
		)
	}
	fmt.Fprintln(p.out, t.Render())
}

// ProductDetails prints every field of a product and the checklist of the
// criteria gating its next transition.
func (p *Printer) ProductDetails(item product.Product, criteria *transition.Table) {
	fmt.Fprintf(p.out, "%s %s\n", p.styles.title.Render(item.Name), p.styles.muted.Render("("+item.ID+")"))
	if item.Description != "" {
		fmt.Fprintln(p.out, item.Description)
	}
	fmt.Fprintln(p.out)

	stageText := p.stageStyle(item.Stage).Render(fmt.Sprintf("%s %s", item.Stage, item.Stage.Label()))
	if item.TargetStage != item.Stage {
		stageText += fmt.Sprintf(" → %s %s", item.TargetStage, item.TargetStage.Label())
	}
	p.field("Stage", stageText)
	p.field("Status", p.statusStyle(item.Status).Render(string(item.Status)))
	p.field("Readiness", progressBar(item.ReadinessScore))
	p.field("Days in stage", fmt.Sprintf("%d", item.DaysInStage))
	if item.KickoffDate != nil {
		p.field("Kickoff", item.KickoffDate.Format("2006-01-02"))
	}
	if item.URL != "" {
		p.field("URL", item.URL)
	}
	p.field("Next action", item.NextAction)
	if item.Observations != "" {
		p.field("Observations", item.Observations)
	}

	if len(item.Transition.RequiredCriteria) > 0 {
		fmt.Fprintln(p.out)
		fmt.Fprintln(p.out, p.styles.title.Render(fmt.Sprintf("Criteria for %s → %s", item.Stage, item.TargetStage)))
		p.checklist(item.Transition.RequiredCriteria, item.Criteria, criteria)
	}

	if len(item.Blockers) > 0 {
		fmt.Fprintln(p.out)
		fmt.Fprintln(p.out, p.styles.title.Render("Blockers"))
		for _, b := range item.Blockers {
			fmt.Fprintf(p.out, "  - %s\n", b)
		}
	}

	if len(item.Metrics) > 0 {
		fmt.Fprintln(p.out)
		fmt.Fprintln(p.out, p.styles.title.Render("Metrics"))
		names := make([]string, 0, len(item.Metrics))
		for name := range item.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			value := "n/a"
			if v := item.Metrics[name]; v != nil {
				value = fmt.Sprintf("%g", *v)
			}
			fmt.Fprintf(p.out, "  %s: %s\n", name, value)
		}
	}
}

func (p *Printer) field(label, value string) {
	fmt.Fprintf(p.out, "%s %s\n", p.styles.label.Render(fmt.Sprintf("%-14s", label+":")), value)
}

func (p *Printer) checklist(keys []transition.Key, evaluations transition.Criteria, criteria *transition.Table) {
	for _, k := range keys {
		mark := p.renderer.NewStyle().Foreground(colorRed).Render("✗")
		if evaluations.Met(k) {
			mark = p.styles.success.Render("✓")
		}
		fmt.Fprintf(p.out, "  %s %s %s\n", mark, criteria.Label(k), p.styles.muted.Render("("+string(k)+")"))
	}
}

// Criteria draws the criteria table rows in order.
func (p *Printer) Criteria(rows []transition.Criterion) {
	if len(rows) == 0 {
		fmt.Fprintln(p.out, p.styles.muted.Render("No criteria."))
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.renderer.NewStyle().Foreground(colorBorder)).
		Headers("KEY", "TRANSITION", "LABEL")
	for _, c := range rows {
		t.Row(string(c.Key), fmt.Sprintf("%s → %s", c.From, c.To), c.Label)
	}
	fmt.Fprintln(p.out, t.Render())
}

// Stats prints the board summary.
func (p *Printer) Stats(st product.Stats) {
	p.field("Products", fmt.Sprintf("%d", st.Total))
	p.field("Ready", p.styles.success.Render(fmt.Sprintf("%d", st.ReadyToAdvance)))
	p.field("Blocked", p.renderer.NewStyle().Foreground(colorRed).Render(fmt.Sprintf("%d", st.Blocked)))
	p.field("Avg days", fmt.Sprintf("%d", st.AvgDaysInStage))
}

// Roadmap prints the remaining transitions of a product with the state of
// each gating criterion.
func (p *Printer) Roadmap(item product.Product, steps []transition.RoadmapStep, criteria *transition.Table) {
	fmt.Fprintf(p.out, "%s %s\n", p.styles.title.Render("Roadmap for "+item.Name), p.styles.muted.Render("("+item.ID+")"))
	if len(steps) == 0 {
		fmt.Fprintf(p.out, "%s is the final stage.\n", item.Stage)
		return
	}
	for i, step := range steps {
		fmt.Fprintf(p.out, "%d. %s → %s\n", i+1,
			p.stageStyle(step.From).Render(fmt.Sprintf("%s %s", step.From, step.From.Label())),
			p.stageStyle(step.To).Render(fmt.Sprintf("%s %s", step.To, step.To.Label())))
		if len(step.Required) == 0 {
			fmt.Fprintln(p.out, p.styles.muted.Render("  no criteria"))
			continue
		}
		p.checklist(step.Required, item.Criteria, criteria)
	}
}

// Projects prints one project name per line.
func (p *Printer) Projects(names []string) {
	if len(names) == 0 {
		fmt.Fprintln(p.out, p.styles.muted.Render("No projects."))
		return
	}
	for _, name := range names {
		fmt.Fprintln(p.out, name)
	}
}

// SyncStatus prints a one-line summary of a store snapshot.
func (p *Printer) SyncStatus(snap session.Snapshot) {
	updated := "never"
	if !snap.LastUpdated.IsZero() {
		updated = snap.LastUpdated.Format(time.TimeOnly)
	}
	line := fmt.Sprintf("%s · %d products · updated %s", snap.State, len(snap.Products), updated)
	if snap.Err != nil {
		fmt.Fprintln(p.out, p.styles.err.Render(line+" · "+snap.Err.Error()))
		return
	}
	fmt.Fprintln(p.out, p.styles.muted.Render(line))
}

// Success prints a confirmation line.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.out, p.styles.success.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Warning prints a warning line.
func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.out, p.styles.warning.Render("! "+fmt.Sprintf(format, args...)))
}

// Error prints an error line.
func (p *Printer) Error(err error) {
	fmt.Fprintln(p.out, p.styles.err.Render("Error: "+err.Error()))
}

// Text prints a plain line.
func (p *Printer) Text(s string) {
	fmt.Fprintln(p.out, s)
}

// JSON writes v as indented JSON.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML writes v as YAML.
func (p *Printer) YAML(v any) error {
	enc := yaml.NewEncoder(p.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
