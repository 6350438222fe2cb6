package report

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/ilyalavrinov/coviddash/pkg/covidstats"
	"github.com/ilyalavrinov/coviddash/pkg/dashboard"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned when a chart has nothing to draw.
var ErrNoData = errors.New("not enough data for a chart")

const (
	chartWidth  = 1024
	chartHeight = 512
	labelEvery  = 5
)

var (
	colorCases     = drawing.ColorFromHex("3b82f6")
	colorDeaths    = drawing.ColorFromHex("ef4444")
	colorRecovered = drawing.ColorFromHex("10b981")
)

func countFormatter(loc *covidstats.Locale) chart.ValueFormatter {
	return func(v interface{}) string {
		if f, ok := v.(float64); ok {
			return covidstats.FormatCount(int64(math.Round(f)), loc)
		}
		return ""
	}
}

// CountriesBarChart draws cases of the top countries as PNG.
func CountriesBarChart(g *dashboard.GlobalView, loc *covidstats.Locale) ([]byte, error) {
	if g == nil || len(g.TopCountries) == 0 {
		return nil, ErrNoData
	}
	bars := make([]chart.Value, 0, len(g.TopCountries))
	var max int64
	for _, c := range g.TopCountries {
		bars = append(bars, chart.Value{
			Label: c.Name,
			Value: float64(c.Cases),
			Style: chart.Style{FillColor: colorCases, StrokeColor: colorCases},
		})
		if c.Cases > max {
			max = c.Cases
		}
	}
	if max == 0 {
		return nil, ErrNoData
	}

	bc := chart.BarChart{
		Title:    loc.TData(covidstats.TitleTopCountries, map[string]interface{}{"Count": len(bars)}),
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: chartWidth / (2*len(bars) + 2),
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		YAxis: chart.YAxis{ValueFormatter: countFormatter(loc)},
		Bars:  bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		logger.Errorw("could not render bar chart",
			"err", err)
		return nil, fmt.Errorf("cannot render bar chart: %w", err)
	}
	return buf.Bytes(), nil
}

// HistoryLineChart draws cases, deaths and recovered of h as PNG.
func HistoryLineChart(h *dashboard.HistoryView, loc *covidstats.Locale) ([]byte, error) {
	if h == nil || len(h.Points) < 2 {
		return nil, ErrNoData
	}

	xs := make([]float64, 0, len(h.Points))
	cases := make([]float64, 0, len(h.Points))
	deaths := make([]float64, 0, len(h.Points))
	recovered := make([]float64, 0, len(h.Points))
	ticks := make([]chart.Tick, 0, len(h.Points)/labelEvery+1)
	for i, p := range h.Points {
		x := chart.TimeToFloat64(p.Date)
		xs = append(xs, x)
		cases = append(cases, float64(p.Cases))
		deaths = append(deaths, float64(p.Deaths))
		recovered = append(recovered, float64(p.Recovered))
		if i%labelEvery == 0 || i == len(h.Points)-1 {
			ticks = append(ticks, chart.Tick{Value: x, Label: p.Label})
		}
	}

	ch := chart.Chart{
		Title:  h.Title,
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{Ticks: ticks},
		YAxis: chart.YAxis{ValueFormatter: countFormatter(loc)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    loc.T(covidstats.LabelCases),
				XValues: xs,
				YValues: cases,
				Style:   chart.Style{StrokeColor: colorCases, StrokeWidth: 2},
			},
			chart.ContinuousSeries{
				Name:    loc.T(covidstats.LabelDeaths),
				XValues: xs,
				YValues: deaths,
				Style:   chart.Style{StrokeColor: colorDeaths, StrokeWidth: 2},
			},
			chart.ContinuousSeries{
				Name:    loc.T(covidstats.LabelRecovered),
				XValues: xs,
				YValues: recovered,
				Style:   chart.Style{StrokeColor: colorRecovered, StrokeWidth: 2},
			},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		logger.Errorw("could not render line chart",
			"title", h.Title,
			"err", err)
		return nil, fmt.Errorf("cannot render line chart: %w", err)
	}
	return buf.Bytes(), nil
}

// ContinentsPieChart draws the share of cases per continent as PNG.
func ContinentsPieChart(g *dashboard.GlobalView, loc *covidstats.Locale) ([]byte, error) {
	if g == nil || len(g.Continents) == 0 {
		return nil, ErrNoData
	}
	values := make([]chart.Value, 0, len(g.Continents))
	for i, c := range g.Continents {
		if c.Cases == 0 {
			continue
		}
		share := 0.0
		if i < len(g.ContinentShares) {
			share = g.ContinentShares[i]
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.0f%%", c.Name, share),
			Value: float64(c.Cases),
		})
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}

	pc := chart.PieChart{
		Title:  loc.T(covidstats.TitleContinents),
		Width:  chartHeight,
		Height: chartHeight,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pc.Render(chart.PNG, &buf); err != nil {
		logger.Errorw("could not render pie chart",
			"err", err)
		return nil, fmt.Errorf("cannot render pie chart: %w", err)
	}
	return buf.Bytes(), nil
}

// ViewChart picks the chart of the tab of v: bars for global, lines otherwise.
func ViewChart(v dashboard.View, loc *covidstats.Locale) ([]byte, error) {
	switch v.Tab {
	case dashboard.TabGlobal:
		return CountriesBarChart(v.Global, loc)
	case dashboard.TabHistory:
		return HistoryLineChart(v.History, loc)
	case dashboard.TabCountry:
		if v.Country == nil {
			return nil, ErrNoData
		}
		return HistoryLineChart(v.Country.History, loc)
	}
	return nil, ErrNoData
}
