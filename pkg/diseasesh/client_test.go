package diseasesh

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const globalBody = `{"updated":1672531200000,"cases":100,"todayCases":3,"deaths":2,"todayDeaths":1,
"recovered":90,"todayRecovered":4,"active":8,"critical":1,"tests":1000,"population":7900000000,"affectedCountries":231}`

const usaBody = `{"updated":1672531200000,"country":"USA","countryInfo":{"_id":840,"iso2":"US","iso3":"USA","lat":38,"long":-97,"flag":"https://disease.sh/assets/img/flags/us.png"},
"continent":"North America","cases":1000,"todayCases":-5,"deaths":10,"todayDeaths":0,"recovered":900,"active":90,"critical":2,
"tests":5000,"population":330000000,"casesPerOneMillion":3030.3,"deathsPerOneMillion":30.3,"testsPerOneMillion":15151.5}`

const historyBody = `{"cases":{"1/3/23":30,"1/1/23":10,"12/31/22":5,"1/2/23":20},"deaths":{"1/3/23":3,"1/1/23":1,"12/31/22":0,"1/2/23":2},"recovered":{}}`

const countryHistoryBody = `{"country":"USA","province":["mainland"],"timeline":{"cases":{"1/1/23":10,"1/2/23":20},"deaths":{"1/1/23":1,"1/2/23":2}}}`

func countriesBody(n int) string {
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, fmt.Sprintf(`{"country":"C%d","continent":"Europe","cases":%d,"deaths":1,"recovered":1}`, i, 1000-i))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func newTestServer(t *testing.T, routes map[string]string) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requested = append(requested, r.URL.RequestURI())
		mu.Unlock()
		body, found := routes[r.URL.Path]
		if !found {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), requested...)
	}
}

func TestGlobal(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"/all": globalBody})
	c := New(srv.URL)

	g, err := c.Global(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(100), g.Cases)
	assert.Equal(t, int64(2), g.Deaths)
	assert.Equal(t, int64(90), g.Recovered)
	assert.Equal(t, int64(8), g.Active)
	assert.Equal(t, int64(4), g.TodayRecovered)
	assert.Equal(t, 2023, g.UpdatedAt().UTC().Year())
}

func TestCountryClampsNegativeCounters(t *testing.T) {
	srv, requested := newTestServer(t, map[string]string{"/countries/USA": usaBody})
	c := New(srv.URL)

	country, err := c.Country(context.Background(), "USA")
	require.NoError(t, err)
	assert.Equal(t, "USA", country.Country)
	assert.Equal(t, "US", country.CountryInfo.ISO2)
	assert.Equal(t, "North America", country.Continent)
	assert.Equal(t, int64(0), country.TodayCases)
	assert.InDelta(t, 3030.3, country.CasesPerOneMillion, 0.001)
	assert.Equal(t, []string{"/countries/USA"}, requested())
}

func TestGlobalHistory(t *testing.T) {
	srv, requested := newTestServer(t, map[string]string{"/historical/all": historyBody})
	c := New(srv.URL)

	h, err := c.GlobalHistory(context.Background(), 60)
	require.NoError(t, err)
	assert.Equal(t, []string{"/historical/all?lastdays=60"}, requested())

	days := h.Days()
	keys := make([]string, 0, len(days))
	for _, d := range days {
		keys = append(keys, d.Key)
	}
	assert.Equal(t, []string{"12/31/22", "1/1/23", "1/2/23", "1/3/23"}, keys)
	assert.NotNil(t, h.Recovered)
}

func TestCountryHistory(t *testing.T) {
	srv, requested := newTestServer(t, map[string]string{"/historical/USA": countryHistoryBody})
	c := New(srv.URL)

	h, err := c.CountryHistory(context.Background(), "USA", 60)
	require.NoError(t, err)
	assert.Equal(t, "USA", h.Country)
	assert.Nil(t, h.Timeline.Recovered)
	assert.Len(t, h.Timeline.Days(), 2)
	assert.Equal(t, []string{"/historical/USA?lastdays=60"}, requested())
}

func TestCountriesTruncates(t *testing.T) {
	srv, requested := newTestServer(t, map[string]string{"/countries": countriesBody(20)})
	c := New(srv.URL)

	countries, err := c.Countries(context.Background(), "cases", 15)
	require.NoError(t, err)
	require.Len(t, countries, 15)
	assert.Equal(t, "C0", countries[0].Country)
	assert.Equal(t, "C14", countries[14].Country)
	assert.Equal(t, []string{"/countries?sort=cases"}, requested())

	all, err := c.Countries(context.Background(), "cases", 0)
	require.NoError(t, err)
	assert.Len(t, all, 20)
}

func TestErrors(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"/all":             `{"cases":`,
		"/countries":       `{"message":"not a list"}`,
		"/historical/all":  `{"deaths":{}}`,
		"/countries/EMPTY": `{"cases":1}`,
	})
	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.Global(ctx)
	assert.True(t, errors.Is(err, ErrParse), "malformed json: %v", err)

	_, err = c.Countries(ctx, "cases", 15)
	assert.True(t, errors.Is(err, ErrParse), "object instead of list: %v", err)

	_, err = c.GlobalHistory(ctx, 60)
	assert.True(t, errors.Is(err, ErrParse), "missing cases: %v", err)

	_, err = c.Country(ctx, "EMPTY")
	assert.True(t, errors.Is(err, ErrParse), "missing country: %v", err)

	_, err = c.Country(ctx, "NOWHERE")
	assert.True(t, errors.Is(err, ErrNetwork), "404: %v", err)
	assert.False(t, errors.Is(err, ErrParse))
}

func TestServerDown(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	addr := srv.URL
	srv.Close()

	_, err := New(addr).Global(context.Background())
	assert.True(t, errors.Is(err, ErrNetwork), "%v", err)
}

func TestCanceledContext(t *testing.T) {
	srv, requested := newTestServer(t, map[string]string{"/all": globalBody})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL).Global(ctx)
	assert.True(t, errors.Is(err, ErrNetwork), "%v", err)
	assert.Empty(t, requested())
}

func TestNoTimeoutByDefault(t *testing.T) {
	assert.Zero(t, New("").timeout)
	assert.Equal(t, 3*time.Second, New("", WithTimeout(3*time.Second)).timeout)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(srv.URL, WithTimeout(50*time.Millisecond)).Global(context.Background())
	assert.True(t, errors.Is(err, ErrNetwork), "%v", err)
}
