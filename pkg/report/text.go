package report

import (
	"fmt"
	"strings"

	"github.com/ilyalavrinov/coviddash/pkg/covidstats"
	"github.com/ilyalavrinov/coviddash/pkg/dashboard"
	"github.com/jedib0t/go-pretty/table"
)

// Text renders every section of v as plain text tables.
func Text(v dashboard.View, loc *covidstats.Locale) string {
	var sb strings.Builder
	switch v.Tab {
	case dashboard.TabGlobal:
		writeGlobal(&sb, v, loc)
	case dashboard.TabHistory:
		writeHistory(&sb, v.History, v.Available[dashboard.SectionGlobalHistory], loc)
	case dashboard.TabCountry:
		writeCountry(&sb, v, loc)
	}
	return sb.String()
}

func unavailable(sb *strings.Builder, title string, loc *covidstats.Locale) {
	fmt.Fprintf(sb, "%s: %s\n\n", title, loc.T(covidstats.TextUnavailable))
}

func newTable(sb *strings.Builder) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(sb)
	return t
}

func counterRows(counters ...[]dashboard.Counter) []table.Row {
	rows := make([]table.Row, 0)
	for _, cs := range counters {
		for _, c := range cs {
			rows = append(rows, table.Row{c.Label, c.Text})
		}
	}
	return rows
}

func writeGlobal(sb *strings.Builder, v dashboard.View, loc *covidstats.Locale) {
	g := v.Global
	title := loc.T(covidstats.TitleGlobal)
	if g == nil || !v.Available[dashboard.SectionSummary] {
		unavailable(sb, title, loc)
	} else {
		fmt.Fprintf(sb, "%s\n", title)
		t := newTable(sb)
		t.AppendRows(counterRows(g.Cards, g.Today))
		t.AppendRow(table.Row{loc.T(covidstats.LabelMortality), g.Mortality})
		t.AppendFooter(table.Row{loc.T(covidstats.LabelUpdated), g.Updated.UTC().Format("2006-01-02 15:04")})
		t.Render()
		sb.WriteString("\n")
	}

	count := dashboard.ChartCountryLimit
	if g != nil && len(g.TopCountries) > 0 {
		count = len(g.TopCountries)
	}
	title = loc.TData(covidstats.TitleTopCountries, map[string]interface{}{"Count": count})
	if g == nil || !v.Available[dashboard.SectionTopCountries] {
		unavailable(sb, title, loc)
	} else {
		fmt.Fprintf(sb, "%s\n", title)
		t := newTable(sb)
		t.AppendHeader(table.Row{"#", loc.T(covidstats.LabelCountry), loc.T(covidstats.LabelCases),
			loc.T(covidstats.LabelDeaths), loc.T(covidstats.LabelRecovered)})
		for i, c := range g.TopCountries {
			t.AppendRow(table.Row{i + 1, c.Name, covidstats.FormatCount(c.Cases, loc),
				covidstats.FormatCount(c.Deaths, loc), covidstats.FormatCount(c.Recovered, loc)})
		}
		t.Render()
		sb.WriteString("\n")
	}

	title = loc.T(covidstats.TitleContinents)
	if g == nil || !v.Available[dashboard.SectionContinents] {
		unavailable(sb, title, loc)
		return
	}
	fmt.Fprintf(sb, "%s\n", title)
	t := newTable(sb)
	t.AppendHeader(table.Row{loc.T(covidstats.LabelContinent), loc.T(covidstats.LabelCases),
		loc.T(covidstats.LabelDeaths), loc.T(covidstats.LabelRecovered), "%"})
	for i, c := range g.Continents {
		share := 0.0
		if i < len(g.ContinentShares) {
			share = g.ContinentShares[i]
		}
		t.AppendRow(table.Row{c.Name, covidstats.FormatCount(c.Cases, loc), covidstats.FormatCount(c.Deaths, loc),
			covidstats.FormatCount(c.Recovered, loc), fmt.Sprintf("%.0f%%", share)})
	}
	t.Render()
}

func writeHistory(sb *strings.Builder, h *dashboard.HistoryView, available bool, loc *covidstats.Locale) {
	if h == nil || !available {
		title := loc.T(covidstats.TitleHistory)
		if h != nil {
			title = h.Title
		}
		unavailable(sb, title, loc)
		return
	}
	fmt.Fprintf(sb, "%s\n", h.Title)
	t := newTable(sb)
	t.AppendHeader(table.Row{loc.T(covidstats.LabelDate), loc.T(covidstats.LabelCases),
		loc.T(covidstats.LabelDeaths), loc.T(covidstats.LabelRecovered)})
	for _, p := range h.Points {
		t.AppendRow(table.Row{p.Label, covidstats.FormatCount(p.Cases, loc),
			covidstats.FormatCount(p.Deaths, loc), covidstats.FormatCount(p.Recovered, loc)})
	}
	t.Render()
}

func writeCountry(sb *strings.Builder, v dashboard.View, loc *covidstats.Locale) {
	c := v.Country
	if c == nil || !v.Available[dashboard.SectionCountry] {
		unavailable(sb, loc.T(covidstats.TitleCountry), loc)
	} else {
		fmt.Fprintf(sb, "%s: %s\n", loc.T(covidstats.TitleCountry), c.Name)
		t := newTable(sb)
		t.AppendRows(counterRows(c.Cards, c.Today, c.Details))
		for _, r := range c.Ratios {
			t.AppendRow(table.Row{r.Label, r.Text})
		}
		t.AppendRow(table.Row{loc.T(covidstats.LabelMortality), c.Mortality})
		if !c.Updated.IsZero() {
			t.AppendFooter(table.Row{loc.T(covidstats.LabelUpdated), c.Updated.UTC().Format("2006-01-02 15:04")})
		}
		t.Render()
		sb.WriteString("\n")
	}

	var h *dashboard.HistoryView
	if c != nil {
		h = c.History
	}
	writeHistory(sb, h, v.Available[dashboard.SectionCountryHistory], loc)
}
