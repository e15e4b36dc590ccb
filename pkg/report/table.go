package report

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/segtree/pkg/alg/segtree"
	"github.com/Sumatoshi-tech/segtree/pkg/workload"
)

// lengthDigits is the number of decimals shown for lengths and points.
const lengthDigits = 4

// TableRenderer formats results as go-pretty tables.
type TableRenderer struct {
	title   *color.Color
	covered *color.Color
	gap     *color.Color
	peak    *color.Color
}

// NewTableRenderer creates a renderer. With colorize false no escape codes
// are emitted regardless of the terminal.
func NewTableRenderer(colorize bool) *TableRenderer {
	r := &TableRenderer{
		title:   color.New(color.Bold),
		covered: color.New(color.FgGreen),
		gap:     color.New(color.FgRed),
		peak:    color.New(color.FgYellow, color.Bold),
	}

	for _, c := range []*color.Color{r.title, r.covered, r.gap, r.peak} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return r
}

// Render returns the stats, query, point and profile tables.
func (r *TableRenderer) Render(res *workload.Result) string {
	parts := []string{r.header(res), r.statsTable(res)}

	if len(res.Queries) > 0 {
		parts = append(parts, r.queryTable(res))
	}

	if len(res.Points) > 0 {
		parts = append(parts, r.pointTable(res))
	}

	parts = append(parts, r.profileTable(res))

	return strings.Join(parts, "\n\n") + "\n"
}

func (r *TableRenderer) header(res *workload.Result) string {
	name := res.Name
	if name == "" {
		name = "workload"
	}

	return r.title.Sprintf("=== %s ===", strings.ToUpper(name)) + "\n" +
		"segments: " + humanize.Comma(int64(res.Summary.Segments)) +
		" | coordinates: " + humanize.Comma(int64(res.Summary.Coordinates)) +
		" | elementary intervals: " + humanize.Comma(int64(res.Summary.Elementary)) +
		" | convention: " + res.Summary.Convention
}

func (r *TableRenderer) statsTable(res *workload.Result) string {
	tbl := newTable("Coverage")
	tbl.AppendHeader(table.Row{"Scope", "Covered length", "Max overlap", "Min overlap"})
	tbl.AppendRow(r.statsRow("whole line", res.Summary.Root))
	tbl.AppendRow(r.statsRow("coordinate span", res.Summary.Span))

	return tbl.Render()
}

func (r *TableRenderer) statsRow(scope string, stats segtree.Stats) table.Row {
	return table.Row{
		scope,
		formatLength(stats.Length),
		r.peak.Sprint(humanize.Comma(stats.MaxOvp)),
		r.count(stats.MinOvp),
	}
}

func (r *TableRenderer) queryTable(res *workload.Result) string {
	tbl := newTable("Union queries")
	tbl.AppendHeader(table.Row{"Query", "Union", "Members", "Length"})

	var total float64

	for _, q := range res.Queries {
		tbl.AppendRow(table.Row{q.Query.Label(), q.Union.String(), humanize.Comma(int64(q.Members)), formatLength(q.Length)})

		total += q.Length
	}

	tbl.AppendFooter(table.Row{"", "", "Total", formatLength(total)})

	return tbl.Render()
}

func (r *TableRenderer) pointTable(res *workload.Result) string {
	tbl := newTable("Points")
	tbl.AppendHeader(table.Row{"Point", "Contained", "Count"})

	for _, p := range res.Points {
		contained := r.gap.Sprint("no")
		if p.Contained {
			contained = r.covered.Sprint("yes")
		}

		tbl.AppendRow(table.Row{formatLength(p.Point), contained, r.count(p.Count)})
	}

	return tbl.Render()
}

func (r *TableRenderer) profileTable(res *workload.Result) string {
	tbl := newTable("Overlap profile")
	tbl.AppendHeader(table.Row{"Elementary interval", "Length", "Count"})

	peak := res.Summary.Span.MaxOvp

	for _, lc := range res.Profile {
		count := r.count(lc.Count)
		if lc.Count > 0 && lc.Count == peak {
			count = r.peak.Sprint(humanize.Comma(lc.Count))
		}

		iv := segtree.Interval{Start: lc.Start, End: lc.End}
		tbl.AppendRow(table.Row{iv.String(), formatLength(iv.Length()), count})
	}

	tbl.AppendFooter(table.Row{"Total: " + humanize.Comma(int64(len(res.Profile))) + " intervals", "", ""})

	return tbl.Render()
}

// count colors zero counts as gaps and positive counts as covered.
func (r *TableRenderer) count(n int64) string {
	if n > 0 {
		return r.covered.Sprint(humanize.Comma(n))
	}

	return r.gap.Sprint(humanize.Comma(n))
}

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(title)
	tbl.Style().Title.Align = text.AlignCenter
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Format.Footer = text.FormatDefault

	return tbl
}

func formatLength(v float64) string {
	return humanize.CommafWithDigits(v, lengthDigits)
}
