package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/segtree/pkg/alg/segtree"
	"github.com/Sumatoshi-tech/segtree/pkg/workload"
)

const (
	chartWidth  = "100%"
	chartHeight = "480px"
	pageTitle   = "segtree report"
)

// WriteChart renders res as a standalone HTML page with the overlap profile
// and, when the workload has queries, the covered length of each query.
func WriteChart(w io.Writer, res *workload.Result, theme Theme) error {
	co := chartOpts{p: paletteFor(theme)}

	page := components.NewPage().SetPageTitle(pageTitle)
	page.AddCharts(buildProfileChart(co, res))

	if len(res.Queries) > 0 {
		page.AddCharts(buildQueryChart(co, res))
	}

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("render chart page: %w", err)
	}

	return nil
}

func buildProfileChart(co chartOpts, res *workload.Result) *charts.Bar {
	labels := make([]string, len(res.Profile))
	data := make([]opts.BarData, len(res.Profile))
	peak := res.Summary.Span.MaxOvp

	for i, lc := range res.Profile {
		labels[i] = segtree.Interval{Start: lc.Start, End: lc.End}.String()

		fill := co.p.covered

		switch {
		case lc.Count == 0:
			fill = co.p.gap
		case lc.Count == peak:
			fill = co.p.peak
		}

		data[i] = opts.BarData{Value: lc.Count, ItemStyle: &opts.ItemStyle{Color: fill}}
	}

	subtitle := fmt.Sprintf("covered length %s, max overlap %d",
		formatLength(res.Summary.Span.Length), res.Summary.Span.MaxOvp)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(co.init(chartWidth, chartHeight)),
		charts.WithTitleOpts(co.title("Overlap profile", subtitle)),
		charts.WithTooltipOpts(co.tooltip()),
		charts.WithDataZoomOpts(co.dataZoom()...),
		charts.WithXAxisOpts(co.xAxis("Elementary interval")),
		charts.WithYAxisOpts(co.yAxis("Overlap count")),
		charts.WithGridOpts(co.grid()),
	)
	bar.SetXAxis(labels).AddSeries("count", data)

	return bar
}

func buildQueryChart(co chartOpts, res *workload.Result) *charts.Bar {
	labels := make([]string, len(res.Queries))
	lengths := make([]opts.BarData, len(res.Queries))
	members := make([]opts.BarData, len(res.Queries))

	for i, q := range res.Queries {
		labels[i] = q.Query.Label()
		lengths[i] = opts.BarData{Value: q.Length}
		members[i] = opts.BarData{Value: q.Members}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(co.init(chartWidth, chartHeight)),
		charts.WithTitleOpts(co.title("Union queries", "covered length and disjoint members per query")),
		charts.WithTooltipOpts(co.tooltip()),
		charts.WithLegendOpts(opts.Legend{
			Show:      opts.Bool(true),
			Top:       "10%",
			TextStyle: &opts.TextStyle{Color: co.p.textMuted},
		}),
		charts.WithXAxisOpts(co.xAxis("Query")),
		charts.WithYAxisOpts(co.yAxis("")),
		charts.WithGridOpts(co.grid()),
	)
	bar.SetXAxis(labels).
		AddSeries("length", lengths, charts.WithItemStyleOpts(opts.ItemStyle{Color: co.p.query})).
		AddSeries("members", members, charts.WithItemStyleOpts(opts.ItemStyle{Color: co.p.peak}))

	return bar
}
