package covidstats

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultLocale is used whenever a configured locale cannot be loaded.
const DefaultLocale = "es-ES"

// Message IDs of the labels shared by every renderer.
const (
	LabelCases            = "label.cases"
	LabelDeaths           = "label.deaths"
	LabelRecovered        = "label.recovered"
	LabelActive           = "label.active"
	LabelTodayCases       = "label.todayCases"
	LabelTodayDeaths      = "label.todayDeaths"
	LabelTodayRecovered   = "label.todayRecovered"
	LabelMortality        = "label.mortality"
	LabelPopulation       = "label.population"
	LabelTests            = "label.tests"
	LabelCasesPerMillion  = "label.casesPerMillion"
	LabelDeathsPerMillion = "label.deathsPerMillion"
	LabelTestsPerMillion  = "label.testsPerMillion"
	LabelCritical         = "label.critical"
	LabelCountry          = "label.country"
	LabelContinent        = "label.continent"
	LabelDate             = "label.date"
	LabelUpdated          = "label.updated"
	TitleGlobal           = "title.global"
	TitleHistory          = "title.history"
	TitleCountry          = "title.country"
	TitleTopCountries     = "title.topCountries"
	TitleContinents       = "title.continents"
	TitleGlobalHistory    = "title.globalHistory"
	TitleCountryHistory   = "title.countryHistory"
	TextLoading           = "text.loading"
	TextUnavailable       = "text.unavailable"

	msgShortDate = "date.short"
)

type translation map[string]string

var translations = map[language.Tag]translation{
	language.Spanish: {
		LabelCases:            "Casos",
		LabelDeaths:           "Muertes",
		LabelRecovered:        "Recuperados",
		LabelActive:           "Casos Activos",
		LabelTodayCases:       "Casos Hoy",
		LabelTodayDeaths:      "Muertes Hoy",
		LabelTodayRecovered:   "Recuperados Hoy",
		LabelMortality:        "Tasa de Mortalidad",
		LabelPopulation:       "Población",
		LabelTests:            "Test Realizados",
		LabelCasesPerMillion:  "Casos por Millón",
		LabelDeathsPerMillion: "Muertes por Millón",
		LabelTestsPerMillion:  "Tests por Millón",
		LabelCritical:         "Casos Críticos",
		LabelCountry:          "País",
		LabelContinent:        "Continente",
		LabelDate:             "Fecha",
		LabelUpdated:          "Actualizado",
		TitleGlobal:           "Vista Mundial",
		TitleHistory:          "Datos Históricos",
		TitleCountry:          "Detalle por País",
		TitleTopCountries:     "Top {{.Count}} Países por Casos",
		TitleContinents:       "Distribución por Continente",
		TitleGlobalHistory:    "Evolución Global (Últimos {{.Count}} días)",
		TitleCountryHistory:   "Evolución en {{.Name}} (Últimos {{.Count}} días)",
		TextLoading:           "Cargando datos del COVID-19...",
		TextUnavailable:       "N/A",
		msgShortDate:          "{{.Day}} {{.Month}}",
		"month.1":             "ene",
		"month.2":             "feb",
		"month.3":             "mar",
		"month.4":             "abr",
		"month.5":             "may",
		"month.6":             "jun",
		"month.7":             "jul",
		"month.8":             "ago",
		"month.9":             "sept",
		"month.10":            "oct",
		"month.11":            "nov",
		"month.12":            "dic",
	},
	language.English: {
		LabelCases:            "Cases",
		LabelDeaths:           "Deaths",
		LabelRecovered:        "Recovered",
		LabelActive:           "Active Cases",
		LabelTodayCases:       "Cases Today",
		LabelTodayDeaths:      "Deaths Today",
		LabelTodayRecovered:   "Recovered Today",
		LabelMortality:        "Mortality Rate",
		LabelPopulation:       "Population",
		LabelTests:            "Tests",
		LabelCasesPerMillion:  "Cases per Million",
		LabelDeathsPerMillion: "Deaths per Million",
		LabelTestsPerMillion:  "Tests per Million",
		LabelCritical:         "Critical Cases",
		LabelCountry:          "Country",
		LabelContinent:        "Continent",
		LabelDate:             "Date",
		LabelUpdated:          "Updated",
		TitleGlobal:           "World View",
		TitleHistory:          "Historical Data",
		TitleCountry:          "Country Detail",
		TitleTopCountries:     "Top {{.Count}} Countries by Cases",
		TitleContinents:       "Cases by Continent",
		TitleGlobalHistory:    "Global Trend (Last {{.Count}} days)",
		TitleCountryHistory:   "Trend in {{.Name}} (Last {{.Count}} days)",
		TextLoading:           "Loading COVID-19 data...",
		TextUnavailable:       "N/A",
		msgShortDate:          "{{.Month}} {{.Day}}",
		"month.1":             "Jan",
		"month.2":             "Feb",
		"month.3":             "Mar",
		"month.4":             "Apr",
		"month.5":             "May",
		"month.6":             "Jun",
		"month.7":             "Jul",
		"month.8":             "Aug",
		"month.9":             "Sep",
		"month.10":            "Oct",
		"month.11":            "Nov",
		"month.12":            "Dec",
	},
	language.Russian: {
		LabelCases:            "Случаи",
		LabelDeaths:           "Смерти",
		LabelRecovered:        "Выздоровели",
		LabelActive:           "Активные",
		LabelTodayCases:       "Случаи за день",
		LabelTodayDeaths:      "Смерти за день",
		LabelTodayRecovered:   "Выздоровели за день",
		LabelMortality:        "Летальность",
		LabelPopulation:       "Население",
		LabelTests:            "Тесты",
		LabelCasesPerMillion:  "Случаев на миллион",
		LabelDeathsPerMillion: "Смертей на миллион",
		LabelTestsPerMillion:  "Тестов на миллион",
		LabelCritical:         "Тяжелые",
		LabelCountry:          "Страна",
		LabelContinent:        "Континент",
		LabelDate:             "Дата",
		LabelUpdated:          "Обновлено",
		TitleGlobal:           "В мире",
		TitleHistory:          "История",
		TitleCountry:          "Страна",
		TitleTopCountries:     "Топ {{.Count}} стран по случаям",
		TitleContinents:       "По континентам",
		TitleGlobalHistory:    "Мир, последние {{.Count}} дней",
		TitleCountryHistory:   "{{.Name}}, последние {{.Count}} дней",
		TextLoading:           "Загружаем данные COVID-19...",
		TextUnavailable:       "н/д",
		msgShortDate:          "{{.Day}} {{.Month}}",
		"month.1":             "янв.",
		"month.2":             "февр.",
		"month.3":             "мар.",
		"month.4":             "апр.",
		"month.5":             "мая",
		"month.6":             "июн.",
		"month.7":             "июл.",
		"month.8":             "авг.",
		"month.9":             "сент.",
		"month.10":            "окт.",
		"month.11":            "нояб.",
		"month.12":            "дек.",
	},
}

var bundle = newBundle()

func newBundle() *i18n.Bundle {
	b := i18n.NewBundle(language.English)
	for tag, tr := range translations {
		msgs := make([]*i18n.Message, 0, len(tr))
		for id, other := range tr {
			msgs = append(msgs, &i18n.Message{ID: id, Other: other})
		}
		if err := b.AddMessages(tag, msgs...); err != nil {
			panic(err)
		}
	}
	return b
}

// Locale formats numbers, dates and labels for a single language.
type Locale struct {
	Tag       language.Tag
	printer   *message.Printer
	localizer *i18n.Localizer
}

// NewLocale accepts BCP 47 names like "es-ES", "en" or "ru".
func NewLocale(name string) (*Locale, error) {
	tag, err := language.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("cannot parse locale %q: %w", name, err)
	}
	base, _ := tag.Base()
	supported := false
	for t := range translations {
		if b, _ := t.Base(); b == base {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("locale %q is not supported", name)
	}
	return &Locale{
		Tag:       tag,
		printer:   message.NewPrinter(tag),
		localizer: i18n.NewLocalizer(bundle, tag.String()),
	}, nil
}

// MustLocale returns the named locale or DefaultLocale if it cannot be loaded.
func MustLocale(name string) *Locale {
	l, err := NewLocale(name)
	if err == nil {
		return l
	}
	l, err = NewLocale(DefaultLocale)
	if err != nil {
		panic(err)
	}
	return l
}

func (l *Locale) String() string {
	return l.Tag.String()
}

// T returns the translated message, the message ID if there is none.
func (l *Locale) T(id string) string {
	return l.TData(id, nil)
}

func (l *Locale) TData(id string, data map[string]interface{}) string {
	s, err := l.localizer.Localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil {
		return id
	}
	return s
}

// minGroupingDigits returns how many integer digits a number needs before
// its thousands are grouped. CLDR sets it to 2 for Spanish, which x/text ignores.
func (l *Locale) minGroupingDigits() int {
	if base, _ := l.Tag.Base(); base.String() == "es" {
		return 5
	}
	return 4
}

func (l *Locale) grouped(abs float64) bool {
	digits := 1
	for ; abs >= 10; abs /= 10 {
		digits++
	}
	return digits >= l.minGroupingDigits()
}

func (l *Locale) formatInt(n int64) string {
	opts := []number.Option{}
	if !l.grouped(math.Abs(float64(n))) {
		opts = append(opts, number.NoSeparator())
	}
	return l.printer.Sprint(number.Decimal(n, opts...))
}

// FormatDecimal formats ratios like cases per million with up to 3 fraction digits.
func (l *Locale) FormatDecimal(f float64) string {
	opts := []number.Option{number.MaxFractionDigits(3)}
	if !l.grouped(math.Abs(f)) {
		opts = append(opts, number.NoSeparator())
	}
	return l.printer.Sprint(number.Decimal(f, opts...))
}

// ShortDate is the month abbreviation plus day of month, ordered per language.
func (l *Locale) ShortDate(t time.Time) string {
	month := l.T("month." + strconv.Itoa(int(t.Month())))
	return l.TData(msgShortDate, map[string]interface{}{
		"Day":   t.Day(),
		"Month": month,
	})
}
