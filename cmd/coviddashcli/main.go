package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyalavrinov/coviddash/pkg/covidstats"
	"github.com/ilyalavrinov/coviddash/pkg/dashboard"
	"github.com/ilyalavrinov/coviddash/pkg/diseasesh"
	"github.com/ilyalavrinov/coviddash/pkg/report"
)

var (
	tabArg     = flag.String("tab", string(dashboard.TabGlobal), "tab to print: global, history or country")
	localeArg  = flag.String("locale", covidstats.DefaultLocale, "locale for numbers, dates and labels")
	countryArg = flag.String("country", dashboard.DefaultCountry, "country shown on the country tab")
	apiArg     = flag.String("api", diseasesh.DefaultBaseURL, "disease.sh base URL")
	timeoutArg = flag.Duration("timeout", 0, "timeout of a single request, 0 for none")
	xlsxArg    = flag.String("xlsx", "", "write workbook with every tab to this file")
	chartsArg  = flag.String("charts", "", "write PNG charts into this directory")
)

func main() {
	flag.Parse()

	tab, err := dashboard.ParseTab(*tabArg)
	if err != nil {
		fmt.Printf("%s\n", err)
		os.Exit(1)
	}
	loc, err := covidstats.NewLocale(*localeArg)
	if err != nil {
		fmt.Printf("%s\n", err)
		os.Exit(1)
	}

	cfg := dashboard.DefaultConfig()
	cfg.Country = *countryArg
	holder := dashboard.NewHolder(diseasesh.New(*apiArg, diseasesh.WithTimeout(*timeoutArg)), cfg)
	holder.SelectTab(tab)

	if _, err := holder.Activate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "some data could not be loaded: %s\n", err)
	}

	v := holder.CurrentView(loc)
	fmt.Print(report.Text(v, loc))
	if !v.Ready() {
		os.Exit(1)
	}

	if *xlsxArg != "" {
		data, err := report.WorkbookBytes(holder.View(dashboard.TabGlobal, loc),
			holder.View(dashboard.TabHistory, loc),
			holder.View(dashboard.TabCountry, loc),
			loc)
		if err != nil {
			fmt.Printf("could not build workbook; error: %s\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsxArg, data, 0644); err != nil {
			fmt.Printf("could not write %q; error: %s\n", *xlsxArg, err)
			os.Exit(1)
		}
	}

	if *chartsArg != "" {
		if err := writeCharts(holder, loc, *chartsArg); err != nil {
			fmt.Printf("could not write charts; error: %s\n", err)
			os.Exit(1)
		}
	}
}

func writeCharts(holder *dashboard.Holder, loc *covidstats.Locale, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	global := holder.View(dashboard.TabGlobal, loc)
	charts := map[string]func() ([]byte, error){
		"countries.png":  func() ([]byte, error) { return report.CountriesBarChart(global.Global, loc) },
		"continents.png": func() ([]byte, error) { return report.ContinentsPieChart(global.Global, loc) },
		"history.png":    func() ([]byte, error) { return report.ViewChart(holder.View(dashboard.TabHistory, loc), loc) },
		"country.png":    func() ([]byte, error) { return report.ViewChart(holder.View(dashboard.TabCountry, loc), loc) },
	}
	for name, draw := range charts {
		img, err := draw()
		if err != nil {
			fmt.Printf("%s skipped: %s\n", name, err)
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, name), img, 0644); err != nil {
			return err
		}
	}
	return nil
}
