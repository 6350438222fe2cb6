package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ilyalavrinov/coviddash/pkg/covidstats"
	"github.com/ilyalavrinov/coviddash/pkg/diseasesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivateReady(t *testing.T) {
	src := newFakeSource()
	h := NewHolder(src, Config{}, WithClock(testClock))
	assert.Equal(t, PhaseIdle, h.State().Phase)

	b, err := h.Activate(context.Background())
	require.NoError(t, err)
	assert.NoError(t, b.Err())

	st := h.State()
	assert.Equal(t, PhaseReady, st.Phase)
	assert.Equal(t, 1, st.Activations)
	assert.Empty(t, st.Errors)
	assert.Equal(t, testNow, st.LastBatch)
	for _, res := range Resources {
		assert.True(t, st.Snapshot.Has(res), "resource %s", res)
		assert.Equal(t, testNow, st.Snapshot.Refreshed[res])
	}

	assert.ElementsMatch(t, []fakeCall{
		{resource: ResourceGlobal},
		{resource: ResourceCountry, code: "USA"},
		{resource: ResourceGlobalHistory, days: 60},
		{resource: ResourceCountryHistory, code: "USA", days: 60},
		{resource: ResourceCountries, sortBy: "cases", limit: 15},
	}, src.recorded())
}

func TestActivateFailureKeepsPreviousSections(t *testing.T) {
	src := newFakeSource()
	h := NewHolder(src, DefaultConfig(), WithClock(testClock))
	_, err := h.Activate(context.Background())
	require.NoError(t, err)
	prevCountries := h.State().Snapshot.Countries

	src.global = &diseasesh.Global{Updated: testNow.UnixMilli(), Cases: 200, Deaths: 4}
	src.fail(ResourceCountries, diseasesh.ErrNetwork)

	_, err = h.Activate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPartialData))
	assert.True(t, errors.Is(err, diseasesh.ErrNetwork))

	st := h.State()
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Equal(t, 2, st.Activations)
	assert.Equal(t, prevCountries, st.Snapshot.Countries)
	assert.Equal(t, int64(200), st.Snapshot.Global.Cases)
	require.Contains(t, st.Errors, ResourceCountries)
	assert.Len(t, st.Errors, 1)

	v := h.View(TabGlobal, covidstats.MustLocale("en"))
	assert.True(t, v.Available[SectionTopCountries])
	assert.Len(t, v.Global.TopCountries, ChartCountryLimit)
}

func TestActivateFirstLoadPartialFailure(t *testing.T) {
	src := newFakeSource()
	src.fail(ResourceCountries, diseasesh.ErrParse)
	h := NewHolder(src, DefaultConfig(), WithClock(testClock))

	_, err := h.Activate(context.Background())
	assert.True(t, errors.Is(err, ErrPartialData))
	assert.True(t, errors.Is(err, diseasesh.ErrParse))
	assert.Equal(t, PhaseFailed, h.State().Phase)

	v := h.View(TabGlobal, covidstats.MustLocale("es"))
	assert.True(t, v.Ready())
	assert.True(t, v.Available[SectionSummary])
	assert.False(t, v.Available[SectionTopCountries])
	assert.False(t, v.Available[SectionContinents])
	assert.Empty(t, v.Global.TopCountries)
	assert.Equal(t, "2.00%", v.Global.Mortality)
}

func TestActivateAllFailed(t *testing.T) {
	src := newFakeSource()
	for _, res := range Resources {
		src.fail(res, diseasesh.ErrNetwork)
	}
	h := NewHolder(src, DefaultConfig())

	b, err := h.Activate(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrPartialData))
	assert.True(t, errors.Is(err, diseasesh.ErrNetwork))
	assert.Len(t, b.Errors(), len(Resources))

	assert.Equal(t, PhaseFailed, h.State().Phase)
	assert.True(t, h.State().Snapshot.Empty())
	for _, tab := range Tabs {
		assert.False(t, h.View(tab, covidstats.MustLocale("en")).Ready(), "tab %s", tab)
	}
}

func TestActivateRejectsOverlap(t *testing.T) {
	src := newFakeSource()
	src.gate = make(chan struct{})
	h := NewHolder(src, DefaultConfig())

	done := make(chan error, 1)
	require.NoError(t, h.ActivateAsync(context.Background(), func(b Batch, err error) {
		done <- err
	}))
	assert.True(t, h.InFlight())

	_, err := h.Activate(context.Background())
	assert.Equal(t, ErrBatchInFlight, err)
	assert.Equal(t, ErrBatchInFlight, h.ActivateAsync(context.Background(), nil))

	close(src.gate)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("batch did not finish")
	}
	assert.Equal(t, PhaseReady, h.State().Phase)
	assert.Equal(t, 1, h.State().Activations)
	assert.Len(t, src.recorded(), len(Resources))
	assert.Eventually(t, func() bool { return !h.InFlight() }, time.Second, 10*time.Millisecond)
}

func TestSelectTabInAnyPhase(t *testing.T) {
	h := NewHolder(newFakeSource(), DefaultConfig())
	assert.Equal(t, TabGlobal, h.State().Tab)

	assert.Equal(t, TabCountry, h.SelectTab(TabCountry).Tab)
	assert.Equal(t, PhaseIdle, h.State().Phase)

	_, err := h.Activate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TabCountry, h.State().Tab)
	assert.Equal(t, TabCountry, h.CurrentView(covidstats.MustLocale("en")).Tab)

	h.SelectTab(TabHistory)
	h.SelectTab(TabGlobal)
	assert.Equal(t, TabGlobal, h.State().Tab)
}

func TestRestore(t *testing.T) {
	storage := newMemStorage()
	src := newFakeSource()
	src.fail(ResourceCountry, diseasesh.ErrNetwork)
	first := NewHolder(src, DefaultConfig(), WithStorage(storage), WithClock(testClock))
	_, err := first.Activate(context.Background())
	require.Error(t, err)

	second := NewHolder(newFakeSource(), DefaultConfig(), WithStorage(storage))
	require.NoError(t, second.Restore(context.Background()))

	st := second.State()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.False(t, st.Snapshot.Has(ResourceCountry))
	require.True(t, st.Snapshot.Has(ResourceGlobal))
	assert.Equal(t, int64(100), st.Snapshot.Global.Cases)
	assert.Len(t, st.Snapshot.Countries, 15)
	assert.True(t, testNow.Equal(st.Snapshot.Refreshed[ResourceGlobal]))

	v := second.View(TabHistory, covidstats.MustLocale("en"))
	assert.True(t, v.Available[SectionGlobalHistory])
	assert.Len(t, v.History.Points, DisplayDays)
}

func TestRestoreWithoutStorage(t *testing.T) {
	h := NewHolder(newFakeSource(), DefaultConfig())
	assert.NoError(t, h.Restore(context.Background()))
	assert.True(t, h.State().Snapshot.Empty())
}
