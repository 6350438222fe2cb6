package diseasesh

import (
	"errors"
	"time"

	"golang.org/x/exp/slices"
)

// DateLayout is the key format of historical timelines, e.g. "1/31/23".
const DateLayout = "1/2/06"

// Global holds worldwide counters of /all.
type Global struct {
	Updated           int64 `json:"updated"`
	Cases             int64 `json:"cases"`
	TodayCases        int64 `json:"todayCases"`
	Deaths            int64 `json:"deaths"`
	TodayDeaths       int64 `json:"todayDeaths"`
	Recovered         int64 `json:"recovered"`
	TodayRecovered    int64 `json:"todayRecovered"`
	Active            int64 `json:"active"`
	Critical          int64 `json:"critical"`
	Tests             int64 `json:"tests"`
	Population        int64 `json:"population"`
	AffectedCountries int64 `json:"affectedCountries"`
}

func (g *Global) UpdatedAt() time.Time {
	return time.UnixMilli(g.Updated)
}

func (g *Global) validate() error {
	if g.Updated == 0 {
		return errors.New("global summary has no 'updated' field")
	}
	return nil
}

func (g *Global) normalize() {
	for _, v := range []*int64{&g.Cases, &g.TodayCases, &g.Deaths, &g.TodayDeaths,
		&g.Recovered, &g.TodayRecovered, &g.Active, &g.Critical, &g.Tests, &g.Population} {
		clamp(v)
	}
}

type CountryInfo struct {
	ID   int64   `json:"_id"`
	ISO2 string  `json:"iso2"`
	ISO3 string  `json:"iso3"`
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
	Flag string  `json:"flag"`
}

// Country holds counters of a single country as returned by /countries.
type Country struct {
	Updated             int64       `json:"updated"`
	Country             string      `json:"country"`
	CountryInfo         CountryInfo `json:"countryInfo"`
	Continent           string      `json:"continent"`
	Cases               int64       `json:"cases"`
	TodayCases          int64       `json:"todayCases"`
	Deaths              int64       `json:"deaths"`
	TodayDeaths         int64       `json:"todayDeaths"`
	Recovered           int64       `json:"recovered"`
	TodayRecovered      int64       `json:"todayRecovered"`
	Active              int64       `json:"active"`
	Critical            int64       `json:"critical"`
	Tests               int64       `json:"tests"`
	Population          int64       `json:"population"`
	CasesPerOneMillion  float64     `json:"casesPerOneMillion"`
	DeathsPerOneMillion float64     `json:"deathsPerOneMillion"`
	TestsPerOneMillion  float64     `json:"testsPerOneMillion"`
}

func (c *Country) validate() error {
	if c.Country == "" {
		return errors.New("country record has no 'country' field")
	}
	return nil
}

func (c *Country) normalize() {
	for _, v := range []*int64{&c.Cases, &c.TodayCases, &c.Deaths, &c.TodayDeaths,
		&c.Recovered, &c.TodayRecovered, &c.Active, &c.Critical, &c.Tests, &c.Population} {
		clamp(v)
	}
}

// Timeline is a date keyed history of three parallel counters.
// Recovered is nil when the source omits it.
type Timeline struct {
	Cases     map[string]int64 `json:"cases"`
	Deaths    map[string]int64 `json:"deaths"`
	Recovered map[string]int64 `json:"recovered,omitempty"`
}

// Day is a parsed timeline key.
type Day struct {
	Key  string
	Date time.Time
}

// Days returns the dates of the cases series in ascending order.
// Keys which cannot be parsed are skipped.
func (t *Timeline) Days() []Day {
	if t == nil {
		return nil
	}
	days := make([]Day, 0, len(t.Cases))
	for k := range t.Cases {
		d, err := time.Parse(DateLayout, k)
		if err != nil {
			logger.Warnw("skipping unparsable timeline key",
				"key", k,
				"err", err)
			continue
		}
		days = append(days, Day{Key: k, Date: d})
	}
	slices.SortFunc(days, func(a, b Day) int {
		return a.Date.Compare(b.Date)
	})
	return days
}

func (t *Timeline) validate() error {
	if t.Cases == nil {
		return errors.New("timeline has no 'cases' series")
	}
	if t.Deaths == nil {
		return errors.New("timeline has no 'deaths' series")
	}
	return nil
}

func (t *Timeline) normalize() {
	for _, series := range []map[string]int64{t.Cases, t.Deaths, t.Recovered} {
		for k, v := range series {
			if v < 0 {
				series[k] = 0
			}
		}
	}
}

// CountryHistory is the response of /historical/{country}.
type CountryHistory struct {
	Country  string   `json:"country"`
	Province []string `json:"province"`
	Timeline Timeline `json:"timeline"`
}

func clamp(v *int64) {
	if *v < 0 {
		*v = 0
	}
}
