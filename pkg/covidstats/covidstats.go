// Package covidstats turns disease.sh records into display-ready series.
// Every function is pure: same input, same output, no side effects.
package covidstats

import (
	"fmt"
	"time"

	"github.com/ilyalavrinov/coviddash/pkg/diseasesh"
)

const UnknownContinent = "Unknown"

type Point struct {
	Date      time.Time `json:"date"`
	Label     string    `json:"label"`
	Cases     int64     `json:"cases"`
	Deaths    int64     `json:"deaths"`
	Recovered int64     `json:"recovered"`
}

type CountryRow struct {
	Name      string `json:"name"`
	Cases     int64  `json:"cases"`
	Deaths    int64  `json:"deaths"`
	Recovered int64  `json:"recovered"`
}

type ContinentRow struct {
	Name      string `json:"name"`
	Cases     int64  `json:"cases"`
	Deaths    int64  `json:"deaths"`
	Recovered int64  `json:"recovered"`
}

// WindowSeries returns the last n points of t in ascending date order.
// Recovered is 0 for every point if t has no recovered series.
func WindowSeries(t *diseasesh.Timeline, n int, loc *Locale) []Point {
	if t == nil || n <= 0 {
		return []Point{}
	}
	days := t.Days()
	if len(days) > n {
		days = days[len(days)-n:]
	}

	points := make([]Point, 0, len(days))
	for _, d := range days {
		p := Point{
			Date:   d.Date,
			Label:  loc.ShortDate(d.Date),
			Cases:  t.Cases[d.Key],
			Deaths: t.Deaths[d.Key],
		}
		if t.Recovered != nil {
			p.Recovered = t.Recovered[d.Key]
		}
		points = append(points, p)
	}
	return points
}

// TopCountries keeps the first k countries in the order received.
func TopCountries(countries []diseasesh.Country, k int) []CountryRow {
	if k < 0 {
		k = 0
	}
	if k > len(countries) {
		k = len(countries)
	}
	rows := make([]CountryRow, 0, k)
	for _, c := range countries[:k] {
		rows = append(rows, CountryRow{
			Name:      c.Country,
			Cases:     c.Cases,
			Deaths:    c.Deaths,
			Recovered: c.Recovered,
		})
	}
	return rows
}

// ByContinent sums countries per continent, keeping first-seen order.
func ByContinent(countries []diseasesh.Country) []ContinentRow {
	rows := make([]ContinentRow, 0)
	index := make(map[string]int)
	for _, c := range countries {
		name := c.Continent
		if name == "" {
			name = UnknownContinent
		}
		i, found := index[name]
		if !found {
			i = len(rows)
			index[name] = i
			rows = append(rows, ContinentRow{Name: name})
		}
		rows[i].Cases += c.Cases
		rows[i].Deaths += c.Deaths
		rows[i].Recovered += c.Recovered
	}
	return rows
}

// FormatCount groups thousands the way loc does, without rounding.
func FormatCount(n int64, loc *Locale) string {
	return loc.formatInt(n)
}

// MortalityRate is deaths / cases * 100. ok is false when cases is 0.
func MortalityRate(deaths, cases int64) (rate float64, ok bool) {
	if cases <= 0 {
		return 0, false
	}
	return float64(deaths) / float64(cases) * 100, true
}

// FormatMortality renders the rate with two decimals, "N/A" if undefined.
func FormatMortality(deaths, cases int64) string {
	rate, ok := MortalityRate(deaths, cases)
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", rate)
}

// ContinentShares returns each continent's share of cases in percent.
func ContinentShares(rows []ContinentRow) []float64 {
	var total int64
	for _, r := range rows {
		total += r.Cases
	}
	shares := make([]float64, len(rows))
	if total == 0 {
		return shares
	}
	for i, r := range rows {
		shares[i] = float64(r.Cases) / float64(total) * 100
	}
	return shares
}
