package dashboard

import "fmt"

const (
	HistoryWindowDays = 60
	DisplayDays       = 30
	FetchCountryLimit = 15
	ChartCountryLimit = 10

	DefaultCountry = "USA"
	DefaultSortBy  = "cases"
)

// Config holds the tunables of one dashboard. Zero values are replaced by defaults in NewHolder.
type Config struct {
	HistoryWindowDays int
	DisplayDays       int
	FetchCountryLimit int
	ChartCountryLimit int
	Country           string
	SortBy            string
}

func DefaultConfig() Config {
	return Config{
		HistoryWindowDays: HistoryWindowDays,
		DisplayDays:       DisplayDays,
		FetchCountryLimit: FetchCountryLimit,
		ChartCountryLimit: ChartCountryLimit,
		Country:           DefaultCountry,
		SortBy:            DefaultSortBy,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HistoryWindowDays <= 0 {
		c.HistoryWindowDays = d.HistoryWindowDays
	}
	if c.DisplayDays <= 0 {
		c.DisplayDays = d.DisplayDays
	}
	if c.FetchCountryLimit <= 0 {
		c.FetchCountryLimit = d.FetchCountryLimit
	}
	if c.ChartCountryLimit <= 0 {
		c.ChartCountryLimit = d.ChartCountryLimit
	}
	if c.Country == "" {
		c.Country = d.Country
	}
	if c.SortBy == "" {
		c.SortBy = d.SortBy
	}
	return c
}

// Tab is one of the three mutually exclusive views.
type Tab string

const (
	TabGlobal  Tab = "global"
	TabHistory Tab = "history"
	TabCountry Tab = "country"
)

var Tabs = []Tab{TabGlobal, TabHistory, TabCountry}

func ParseTab(s string) (Tab, error) {
	for _, t := range Tabs {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tab %q", s)
}

// Resource names one of the five fetched records.
type Resource string

const (
	ResourceGlobal         Resource = "global"
	ResourceCountry        Resource = "country"
	ResourceGlobalHistory  Resource = "globalHistory"
	ResourceCountryHistory Resource = "countryHistory"
	ResourceCountries      Resource = "countries"
)

var Resources = []Resource{
	ResourceGlobal,
	ResourceCountry,
	ResourceGlobalHistory,
	ResourceCountryHistory,
	ResourceCountries,
}
