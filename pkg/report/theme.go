package report

import (
	"errors"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/opts"
)

// Theme selects the chart color scheme.
type Theme string

const (
	// ThemeLight is the light color theme.
	ThemeLight Theme = "light"
	// ThemeDark is the dark color theme.
	ThemeDark Theme = "dark"
)

// ErrUnknownTheme indicates an unsupported chart theme.
var ErrUnknownTheme = errors.New("unknown chart theme")

// ParseTheme resolves a theme name. Empty selects ThemeDark.
func ParseTheme(name string) (Theme, error) {
	switch Theme(name) {
	case "", ThemeDark:
		return ThemeDark, nil
	case ThemeLight:
		return ThemeLight, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
}

// palette holds the chart colors of one theme.
type palette struct {
	page      string
	grid      string
	axis      string
	text      string
	textMuted string

	covered string
	gap     string
	peak    string
	query   string
}

var darkPalette = palette{
	page:      "#0c0a09", // stone-950.
	grid:      "#44403c", // stone-700.
	axis:      "#57534e", // stone-600.
	text:      "#d6d3d1", // stone-300.
	textMuted: "#a8a29e", // stone-400.
	covered:   "#4ade80", // green-400.
	gap:       "#f87171", // red-400.
	peak:      "#fbbf24", // amber-400.
	query:     "#38bdf8", // sky-400.
}

var lightPalette = palette{
	page:      "#fafaf9", // stone-50.
	grid:      "#e7e5e4", // stone-200.
	axis:      "#d6d3d1", // stone-300.
	text:      "#44403c", // stone-700.
	textMuted: "#78716c", // stone-500.
	covered:   "#16a34a", // green-600.
	gap:       "#dc2626", // red-600.
	peak:      "#a16207", // amber-700.
	query:     "#0369a1", // sky-700.
}

func paletteFor(theme Theme) palette {
	if theme == ThemeLight {
		return lightPalette
	}

	return darkPalette
}

// chartOpts builds themed go-echarts options.
type chartOpts struct {
	p palette
}

func (c chartOpts) init(width, height string) opts.Initialization {
	return opts.Initialization{
		PageTitle:       pageTitle,
		Width:           width,
		Height:          height,
		BackgroundColor: c.p.page,
	}
}

func (c chartOpts) title(title, subtitle string) opts.Title {
	return opts.Title{
		Title:         title,
		Subtitle:      subtitle,
		Left:          "center",
		TitleStyle:    &opts.TextStyle{Color: c.p.text},
		SubtitleStyle: &opts.TextStyle{Color: c.p.textMuted},
	}
}

func (c chartOpts) xAxis(name string) opts.XAxis {
	return opts.XAxis{
		Name:      name,
		AxisLabel: &opts.AxisLabel{Color: c.p.textMuted},
		AxisLine:  &opts.AxisLine{LineStyle: &opts.LineStyle{Color: c.p.axis}},
	}
}

func (c chartOpts) yAxis(name string) opts.YAxis {
	return opts.YAxis{
		Name:      name,
		AxisLabel: &opts.AxisLabel{Color: c.p.textMuted},
		AxisLine:  &opts.AxisLine{LineStyle: &opts.LineStyle{Color: c.p.axis}},
		SplitLine: &opts.SplitLine{
			Show:      opts.Bool(true),
			LineStyle: &opts.LineStyle{Color: c.p.grid},
		},
	}
}

func (c chartOpts) grid() opts.Grid {
	return opts.Grid{
		Top:          "20%",
		Bottom:       "15%",
		Left:         "5%",
		Right:        "5%",
		ContainLabel: opts.Bool(true),
	}
}

func (c chartOpts) dataZoom() []opts.DataZoom {
	return []opts.DataZoom{
		{Type: "slider", Start: 0, End: 100},
		{Type: "inside"},
	}
}

func (c chartOpts) tooltip() opts.Tooltip {
	return opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}
}
