package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ilyalavrinov/coviddash/pkg/diseasesh"
)

var testNow = time.Date(2023, time.January, 31, 12, 0, 0, 0, time.UTC)

func testClock() time.Time {
	return testNow
}

func testTimeline(days int) *diseasesh.Timeline {
	t := &diseasesh.Timeline{
		Cases:     make(map[string]int64),
		Deaths:    make(map[string]int64),
		Recovered: make(map[string]int64),
	}
	start := time.Date(2022, time.December, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		key := start.AddDate(0, 0, i).Format(diseasesh.DateLayout)
		t.Cases[key] = int64(1000 + i)
		t.Deaths[key] = int64(10 + i)
		t.Recovered[key] = int64(500 + i)
	}
	return t
}

func testCountries(n int) []diseasesh.Country {
	continents := []string{"Europe", "Asia", ""}
	res := make([]diseasesh.Country, 0, n)
	for i := 0; i < n; i++ {
		res = append(res, diseasesh.Country{
			Country:   fmt.Sprintf("C%d", i),
			Continent: continents[i%len(continents)],
			Cases:     int64(10000 - i*100),
			Deaths:    int64(100 - i),
			Recovered: int64(9000 - i*100),
		})
	}
	return res
}

type fakeCall struct {
	resource Resource
	code     string
	days     int
	sortBy   string
	limit    int
}

type fakeSource struct {
	global    *diseasesh.Global
	country   *diseasesh.Country
	history   *diseasesh.Timeline
	countryH  *diseasesh.CountryHistory
	countries []diseasesh.Country

	gate chan struct{}

	mu    sync.Mutex
	errs  map[Resource]error
	calls []fakeCall
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		global: &diseasesh.Global{Updated: testNow.UnixMilli(), Cases: 100, Deaths: 2, Recovered: 90, Active: 8,
			TodayCases: 3, TodayDeaths: 1, TodayRecovered: 4},
		country: &diseasesh.Country{Country: "USA", Continent: "North America", Cases: 1000, Deaths: 10,
			Recovered: 900, Active: 90, Population: 330000000, CasesPerOneMillion: 3030.3,
			CountryInfo: diseasesh.CountryInfo{ISO2: "US", Flag: "https://disease.sh/assets/img/flags/us.png"}},
		history:   testTimeline(60),
		countryH:  &diseasesh.CountryHistory{Country: "USA", Timeline: *testTimeline(60)},
		countries: testCountries(15),
		errs:      map[Resource]error{},
	}
}

func (f *fakeSource) fail(res Resource, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[res] = err
}

func (f *fakeSource) recorded() []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeCall(nil), f.calls...)
}

func (f *fakeSource) enter(c fakeCall) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.errs[c.resource]
}

func (f *fakeSource) Global(ctx context.Context) (*diseasesh.Global, error) {
	if err := f.enter(fakeCall{resource: ResourceGlobal}); err != nil {
		return nil, err
	}
	return f.global, nil
}

func (f *fakeSource) Country(ctx context.Context, code string) (*diseasesh.Country, error) {
	if err := f.enter(fakeCall{resource: ResourceCountry, code: code}); err != nil {
		return nil, err
	}
	return f.country, nil
}

func (f *fakeSource) GlobalHistory(ctx context.Context, days int) (*diseasesh.Timeline, error) {
	if err := f.enter(fakeCall{resource: ResourceGlobalHistory, days: days}); err != nil {
		return nil, err
	}
	return f.history, nil
}

func (f *fakeSource) CountryHistory(ctx context.Context, code string, days int) (*diseasesh.CountryHistory, error) {
	if err := f.enter(fakeCall{resource: ResourceCountryHistory, code: code, days: days}); err != nil {
		return nil, err
	}
	return f.countryH, nil
}

func (f *fakeSource) Countries(ctx context.Context, sortBy string, limit int) ([]diseasesh.Country, error) {
	if err := f.enter(fakeCall{resource: ResourceCountries, sortBy: sortBy, limit: limit}); err != nil {
		return nil, err
	}
	return f.countries, nil
}

type memStorage struct {
	mu   sync.Mutex
	data map[Resource][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{data: map[Resource][]byte{}}
}

func (m *memStorage) Save(ctx context.Context, res Resource, refreshed time.Time, value interface{}) error {
	data, err := encodeStored(refreshed, value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[res] = data
	return nil
}

func (m *memStorage) Load(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{Refreshed: map[Resource]time.Time{}}
	for res, data := range m.data {
		if err := decodeStored(&snap, res, data); err != nil {
			return Snapshot{}, err
		}
	}
	return snap, nil
}
