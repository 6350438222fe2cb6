package report

import (
	"bytes"
	"fmt"

	"github.com/ilyalavrinov/coviddash/pkg/covidstats"
	"github.com/ilyalavrinov/coviddash/pkg/dashboard"
	"github.com/tealeg/xlsx"
)

const (
	SheetSummary        = "Summary"
	SheetCountries      = "Countries"
	SheetContinents     = "Continents"
	SheetGlobalHistory  = "GlobalHistory"
	SheetCountry        = "Country"
	SheetCountryHistory = "CountryHistory"
)

func headerStyle() *xlsx.Style {
	s := xlsx.NewStyle()
	s.Font.Bold = true
	s.ApplyFont = true
	s.Fill.PatternType = xlsx.Solid_Cell_Fill
	s.Fill.FgColor = xlsx.RGB_Light_Green
	s.ApplyFill = true
	return s
}

func setHeader(sheet *xlsx.Sheet, labels ...string) {
	style := headerStyle()
	for x, l := range labels {
		c := sheet.Cell(0, x)
		c.SetString(l)
		c.SetStyle(style)
	}
}

func setCounters(sheet *xlsx.Sheet, y int, counters []dashboard.Counter) int {
	for _, c := range counters {
		sheet.Cell(y, 0).SetString(c.Label)
		sheet.Cell(y, 1).SetInt64(c.Value)
		y++
	}
	return y
}

// Workbook puts every available section of the three tab views into one sheet each.
// Unavailable sections get no sheet.
func Workbook(global, history, country dashboard.View, loc *covidstats.Locale) (*xlsx.File, error) {
	f := xlsx.NewFile()

	if g := global.Global; g != nil && global.Available[dashboard.SectionSummary] {
		sheet, err := f.AddSheet(SheetSummary)
		if err != nil {
			return nil, err
		}
		setHeader(sheet, loc.T(covidstats.TitleGlobal), "")
		y := setCounters(sheet, 1, g.Cards)
		y = setCounters(sheet, y, g.Today)
		sheet.Cell(y, 0).SetString(loc.T(covidstats.LabelMortality))
		sheet.Cell(y, 1).SetString(g.Mortality)
		sheet.Cell(y+1, 0).SetString(loc.T(covidstats.LabelUpdated))
		sheet.Cell(y+1, 1).SetDateTime(g.Updated.UTC())
	}

	if g := global.Global; g != nil && global.Available[dashboard.SectionTopCountries] {
		sheet, err := f.AddSheet(SheetCountries)
		if err != nil {
			return nil, err
		}
		setHeader(sheet, loc.T(covidstats.LabelCountry), loc.T(covidstats.LabelCases),
			loc.T(covidstats.LabelDeaths), loc.T(covidstats.LabelRecovered))
		for i, c := range g.TopCountries {
			sheet.Cell(i+1, 0).SetString(c.Name)
			sheet.Cell(i+1, 1).SetInt64(c.Cases)
			sheet.Cell(i+1, 2).SetInt64(c.Deaths)
			sheet.Cell(i+1, 3).SetInt64(c.Recovered)
		}
		total := len(g.TopCountries) + 1
		for x := 1; x <= 3; x++ {
			col := xlsx.ColIndexToLetters(x)
			sheet.Cell(total, x).SetFormula(fmt.Sprintf("SUM(%s2:%s%d)", col, col, total))
		}
	}

	if g := global.Global; g != nil && global.Available[dashboard.SectionContinents] {
		sheet, err := f.AddSheet(SheetContinents)
		if err != nil {
			return nil, err
		}
		setHeader(sheet, loc.T(covidstats.LabelContinent), loc.T(covidstats.LabelCases),
			loc.T(covidstats.LabelDeaths), loc.T(covidstats.LabelRecovered), "%")
		for i, c := range g.Continents {
			sheet.Cell(i+1, 0).SetString(c.Name)
			sheet.Cell(i+1, 1).SetInt64(c.Cases)
			sheet.Cell(i+1, 2).SetInt64(c.Deaths)
			sheet.Cell(i+1, 3).SetInt64(c.Recovered)
			if i < len(g.ContinentShares) {
				sheet.Cell(i+1, 4).SetFloatWithFormat(g.ContinentShares[i], "0.00")
			}
		}
	}

	if h := history.History; h != nil && history.Available[dashboard.SectionGlobalHistory] {
		if err := historySheet(f, SheetGlobalHistory, h, loc); err != nil {
			return nil, err
		}
	}

	if c := country.Country; c != nil && country.Available[dashboard.SectionCountry] {
		sheet, err := f.AddSheet(SheetCountry)
		if err != nil {
			return nil, err
		}
		setHeader(sheet, loc.T(covidstats.LabelCountry), c.Name)
		y := setCounters(sheet, 1, c.Cards)
		y = setCounters(sheet, y, c.Today)
		y = setCounters(sheet, y, c.Details)
		for _, r := range c.Ratios {
			sheet.Cell(y, 0).SetString(r.Label)
			sheet.Cell(y, 1).SetFloat(r.Value)
			y++
		}
		sheet.Cell(y, 0).SetString(loc.T(covidstats.LabelMortality))
		sheet.Cell(y, 1).SetString(c.Mortality)
	}

	if c := country.Country; c != nil && c.History != nil && country.Available[dashboard.SectionCountryHistory] {
		if err := historySheet(f, SheetCountryHistory, c.History, loc); err != nil {
			return nil, err
		}
	}

	if len(f.Sheets) == 0 {
		return nil, ErrNoData
	}
	return f, nil
}

func historySheet(f *xlsx.File, name string, h *dashboard.HistoryView, loc *covidstats.Locale) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return err
	}
	setHeader(sheet, loc.T(covidstats.LabelDate), loc.T(covidstats.LabelCases),
		loc.T(covidstats.LabelDeaths), loc.T(covidstats.LabelRecovered))
	for i, p := range h.Points {
		sheet.Cell(i+1, 0).SetDate(p.Date)
		sheet.Cell(i+1, 1).SetInt64(p.Cases)
		sheet.Cell(i+1, 2).SetInt64(p.Deaths)
		sheet.Cell(i+1, 3).SetInt64(p.Recovered)
	}
	return nil
}

// WorkbookBytes is Workbook encoded as an .xlsx file.
func WorkbookBytes(global, history, country dashboard.View, loc *covidstats.Locale) ([]byte, error) {
	f, err := Workbook(global, history, country, loc)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("cannot write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
