package dashboard

import (
	"errors"
	"testing"
	"time"

	"github.com/ilyalavrinov/coviddash/pkg/diseasesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okBatch(finished time.Time) Batch {
	src := newFakeSource()
	return Batch{
		Started:        finished.Add(-time.Second),
		Finished:       finished,
		Global:         Result[*diseasesh.Global]{Value: src.global},
		Country:        Result[*diseasesh.Country]{Value: src.country},
		GlobalHistory:  Result[*diseasesh.Timeline]{Value: src.history},
		CountryHistory: Result[*diseasesh.CountryHistory]{Value: src.countryH},
		Countries:      Result[[]diseasesh.Country]{Value: src.countries},
	}
}

func TestReduceLifecycle(t *testing.T) {
	s := InitialState()
	s = Reduce(s, ActivationStarted{})
	assert.Equal(t, PhaseLoading, s.Phase)
	assert.Equal(t, 1, s.Activations)

	s = Reduce(s, BatchCompleted{Batch: okBatch(testNow)})
	assert.Equal(t, PhaseReady, s.Phase)
	assert.Equal(t, testNow, s.LastBatch)

	s = Reduce(s, ActivationStarted{})
	assert.Equal(t, PhaseLoading, s.Phase)
	assert.Equal(t, 2, s.Activations)
	assert.False(t, s.Snapshot.Empty(), "snapshot stays while loading")
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	before := Reduce(InitialState(), BatchCompleted{Batch: okBatch(testNow)})
	refreshed := before.Snapshot.Refreshed[ResourceGlobal]

	later := testNow.Add(time.Hour)
	b := okBatch(later)
	b.Countries = Result[[]diseasesh.Country]{Err: diseasesh.ErrNetwork}
	after := Reduce(before, BatchCompleted{Batch: b})

	assert.Equal(t, refreshed, before.Snapshot.Refreshed[ResourceGlobal])
	assert.Equal(t, PhaseReady, before.Phase)
	assert.Empty(t, before.Errors)

	assert.Equal(t, later, after.Snapshot.Refreshed[ResourceGlobal])
	assert.Equal(t, testNow, after.Snapshot.Refreshed[ResourceCountries])
	assert.Equal(t, PhaseFailed, after.Phase)

	tabbed := Reduce(after, TabSelected{Tab: TabHistory})
	assert.Equal(t, TabGlobal, after.Tab)
	assert.Equal(t, TabHistory, tabbed.Tab)
}

func TestReduceSnapshotRestoredFillsOnlyEmpty(t *testing.T) {
	fresh := &diseasesh.Global{Updated: 2, Cases: 2}
	stale := &diseasesh.Global{Updated: 1, Cases: 1}

	s := InitialState()
	s.Snapshot.Global = fresh
	s = Reduce(s, SnapshotRestored{Snapshot: Snapshot{
		Global:    stale,
		Countries: testCountries(3),
		Refreshed: map[Resource]time.Time{ResourceGlobal: testNow, ResourceCountries: testNow},
	}})

	assert.Same(t, fresh, s.Snapshot.Global)
	assert.Len(t, s.Snapshot.Countries, 3)
	assert.Equal(t, testNow, s.Snapshot.Refreshed[ResourceCountries])
	_, found := s.Snapshot.Refreshed[ResourceGlobal]
	assert.False(t, found)
	assert.Equal(t, PhaseIdle, s.Phase)
}

func TestBatchErr(t *testing.T) {
	b := okBatch(testNow)
	assert.NoError(t, b.Err())
	assert.Empty(t, b.Errors())

	b.Country.Err = diseasesh.ErrParse
	err := b.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPartialData))
	assert.True(t, errors.Is(err, diseasesh.ErrParse))
	assert.Contains(t, err.Error(), "country")
}

func TestParseTab(t *testing.T) {
	for _, tab := range Tabs {
		parsed, err := ParseTab(string(tab))
		require.NoError(t, err)
		assert.Equal(t, tab, parsed)
	}
	_, err := ParseTab("map")
	assert.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{DisplayDays: 7}.withDefaults()
	assert.Equal(t, 7, cfg.DisplayDays)
	assert.Equal(t, HistoryWindowDays, cfg.HistoryWindowDays)
	assert.Equal(t, FetchCountryLimit, cfg.FetchCountryLimit)
	assert.Equal(t, ChartCountryLimit, cfg.ChartCountryLimit)
	assert.Equal(t, "USA", cfg.Country)
	assert.Equal(t, "cases", cfg.SortBy)
}
