package dashboard

import (
	"time"

	"github.com/ilyalavrinov/coviddash/pkg/covidstats"
	"github.com/ilyalavrinov/coviddash/pkg/diseasesh"
)

// Section is a part of a view which is rendered independently of the others.
type Section string

const (
	SectionSummary        Section = "summary"
	SectionTopCountries   Section = "topCountries"
	SectionContinents     Section = "continents"
	SectionGlobalHistory  Section = "globalHistory"
	SectionCountry        Section = "country"
	SectionCountryHistory Section = "countryHistory"
)

var tabSections = map[Tab][]Section{
	TabGlobal:  {SectionSummary, SectionTopCountries, SectionContinents},
	TabHistory: {SectionGlobalHistory},
	TabCountry: {SectionCountry, SectionCountryHistory},
}

type Counter struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
	Text  string `json:"text"`
}

type Ratio struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

type GlobalView struct {
	Cards           []Counter                 `json:"cards,omitempty"`
	Today           []Counter                 `json:"today,omitempty"`
	Mortality       string                    `json:"mortality,omitempty"`
	Updated         time.Time                 `json:"updated,omitempty"`
	TopCountries    []covidstats.CountryRow   `json:"topCountries,omitempty"`
	Continents      []covidstats.ContinentRow `json:"continents,omitempty"`
	ContinentShares []float64                 `json:"continentShares,omitempty"`
}

type HistoryView struct {
	Title  string             `json:"title"`
	Points []covidstats.Point `json:"points,omitempty"`
}

type CountryView struct {
	Name      string       `json:"name"`
	Flag      string       `json:"flag,omitempty"`
	Cards     []Counter    `json:"cards,omitempty"`
	Today     []Counter    `json:"today,omitempty"`
	Details   []Counter    `json:"details,omitempty"`
	Ratios    []Ratio      `json:"ratios,omitempty"`
	Mortality string       `json:"mortality,omitempty"`
	Updated   time.Time    `json:"updated,omitempty"`
	History   *HistoryView `json:"history,omitempty"`
}

// View is the data prepared for rendering one tab.
// Sections without data are marked unavailable in Available and left empty.
type View struct {
	Phase     Phase            `json:"phase"`
	Tab       Tab              `json:"tab"`
	Locale    string           `json:"locale"`
	Fetched   time.Time        `json:"fetched,omitempty"`
	Available map[Section]bool `json:"available"`

	Global  *GlobalView  `json:"global,omitempty"`
	History *HistoryView `json:"history,omitempty"`
	Country *CountryView `json:"country,omitempty"`
}

// Ready reports whether at least one section of the view has data.
func (v View) Ready() bool {
	for _, ok := range v.Available {
		if ok {
			return true
		}
	}
	return false
}

// BuildView prepares tab from the snapshot of s. Everything is recomputed on each call.
func BuildView(s State, tab Tab, cfg Config, loc *covidstats.Locale) View {
	cfg = cfg.withDefaults()
	v := View{
		Phase:     s.Phase,
		Tab:       tab,
		Locale:    loc.String(),
		Fetched:   s.LastBatch,
		Available: make(map[Section]bool, len(tabSections[tab])),
	}
	snap := s.Snapshot

	switch tab {
	case TabGlobal:
		v.Global = buildGlobal(snap, cfg, loc)
		v.Available[SectionSummary] = snap.Global != nil
		v.Available[SectionTopCountries] = snap.Countries != nil
		v.Available[SectionContinents] = snap.Countries != nil
	case TabHistory:
		v.History = &HistoryView{
			Title: loc.TData(covidstats.TitleGlobalHistory, map[string]interface{}{"Count": cfg.DisplayDays}),
		}
		if snap.GlobalHistory != nil {
			v.History.Points = covidstats.WindowSeries(snap.GlobalHistory, cfg.DisplayDays, loc)
		}
		v.Available[SectionGlobalHistory] = snap.GlobalHistory != nil
	case TabCountry:
		v.Country = buildCountry(snap, cfg, loc)
		v.Available[SectionCountry] = snap.Country != nil
		v.Available[SectionCountryHistory] = snap.CountryHistory != nil
	}
	return v
}

func counter(loc *covidstats.Locale, label string, value int64) Counter {
	return Counter{Label: loc.T(label), Value: value, Text: covidstats.FormatCount(value, loc)}
}

func ratio(loc *covidstats.Locale, label string, value float64) Ratio {
	return Ratio{Label: loc.T(label), Value: value, Text: loc.FormatDecimal(value)}
}

func buildGlobal(snap Snapshot, cfg Config, loc *covidstats.Locale) *GlobalView {
	gv := &GlobalView{}
	if g := snap.Global; g != nil {
		gv.Cards = []Counter{
			counter(loc, covidstats.LabelCases, g.Cases),
			counter(loc, covidstats.LabelDeaths, g.Deaths),
			counter(loc, covidstats.LabelRecovered, g.Recovered),
			counter(loc, covidstats.LabelActive, g.Active),
		}
		gv.Today = []Counter{
			counter(loc, covidstats.LabelTodayCases, g.TodayCases),
			counter(loc, covidstats.LabelTodayDeaths, g.TodayDeaths),
			counter(loc, covidstats.LabelTodayRecovered, g.TodayRecovered),
		}
		gv.Mortality = covidstats.FormatMortality(g.Deaths, g.Cases)
		gv.Updated = g.UpdatedAt()
	}
	if snap.Countries != nil {
		gv.TopCountries = covidstats.TopCountries(snap.Countries, cfg.ChartCountryLimit)
		gv.Continents = covidstats.ByContinent(snap.Countries)
		gv.ContinentShares = covidstats.ContinentShares(gv.Continents)
	}
	return gv
}

func buildCountry(snap Snapshot, cfg Config, loc *covidstats.Locale) *CountryView {
	cv := &CountryView{Name: cfg.Country}
	if c := snap.Country; c != nil {
		cv.Name = c.Country
		cv.Flag = c.CountryInfo.Flag
		cv.Cards = []Counter{
			counter(loc, covidstats.LabelCases, c.Cases),
			counter(loc, covidstats.LabelDeaths, c.Deaths),
			counter(loc, covidstats.LabelRecovered, c.Recovered),
			counter(loc, covidstats.LabelActive, c.Active),
		}
		cv.Today = []Counter{
			counter(loc, covidstats.LabelTodayCases, c.TodayCases),
			counter(loc, covidstats.LabelTodayDeaths, c.TodayDeaths),
			counter(loc, covidstats.LabelTodayRecovered, c.TodayRecovered),
		}
		cv.Details = []Counter{
			counter(loc, covidstats.LabelPopulation, c.Population),
			counter(loc, covidstats.LabelTests, c.Tests),
			counter(loc, covidstats.LabelCritical, c.Critical),
		}
		cv.Ratios = []Ratio{
			ratio(loc, covidstats.LabelCasesPerMillion, c.CasesPerOneMillion),
			ratio(loc, covidstats.LabelDeathsPerMillion, c.DeathsPerOneMillion),
			ratio(loc, covidstats.LabelTestsPerMillion, c.TestsPerOneMillion),
		}
		cv.Mortality = covidstats.FormatMortality(c.Deaths, c.Cases)
		if c.Updated != 0 {
			cv.Updated = time.UnixMilli(c.Updated)
		}
	}
	if h := snap.CountryHistory; h != nil {
		name := h.Country
		if name == "" {
			name = cv.Name
		}
		cv.History = historyView(&h.Timeline, name, cfg, loc)
	}
	return cv
}

func historyView(t *diseasesh.Timeline, name string, cfg Config, loc *covidstats.Locale) *HistoryView {
	return &HistoryView{
		Title:  loc.TData(covidstats.TitleCountryHistory, map[string]interface{}{"Name": name, "Count": cfg.DisplayDays}),
		Points: covidstats.WindowSeries(t, cfg.DisplayDays, loc),
	}
}
