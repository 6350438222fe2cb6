package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ilyalavrinov/coviddash/pkg/covidstats"
	"github.com/ilyalavrinov/coviddash/pkg/diseasesh"
)

// Source provides the five resources of a batch. *diseasesh.Client implements it.
type Source interface {
	Global(ctx context.Context) (*diseasesh.Global, error)
	Country(ctx context.Context, code string) (*diseasesh.Country, error)
	GlobalHistory(ctx context.Context, days int) (*diseasesh.Timeline, error)
	CountryHistory(ctx context.Context, code string, days int) (*diseasesh.CountryHistory, error)
	Countries(ctx context.Context, sortBy string, limit int) ([]diseasesh.Country, error)
}

var _ Source = &diseasesh.Client{}

// Holder owns the dashboard state and runs activations against a Source.
type Holder struct {
	src     Source
	cfg     Config
	storage Storage
	now     func() time.Time

	inFlight atomic.Bool

	mu    sync.RWMutex
	state State
}

type Option func(*Holder)

func WithStorage(s Storage) Option {
	return func(h *Holder) {
		h.storage = s
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *Holder) {
		h.now = now
	}
}

func NewHolder(src Source, cfg Config, opts ...Option) *Holder {
	h := &Holder{
		src:   src,
		cfg:   cfg.withDefaults(),
		now:   time.Now,
		state: InitialState(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *Holder) Config() Config {
	return h.cfg
}

func (h *Holder) dispatch(a Action) State {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = Reduce(h.state, a)
	return h.state
}

func (h *Holder) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

func (h *Holder) SelectTab(tab Tab) State {
	return h.dispatch(TabSelected{Tab: tab})
}

// InFlight reports whether a batch is running.
func (h *Holder) InFlight() bool {
	return h.inFlight.Load()
}

// Activate runs one batch and waits for all five fetches to finish.
// The returned error is Batch.Err, or ErrBatchInFlight if another batch is running.
func (h *Holder) Activate(ctx context.Context) (Batch, error) {
	if !h.inFlight.CompareAndSwap(false, true) {
		return Batch{}, ErrBatchInFlight
	}
	defer h.inFlight.Store(false)
	return h.run(ctx)
}

// ActivateAsync starts a batch in the background and calls done, if set, when it finishes.
// It returns ErrBatchInFlight without starting anything if another batch is running.
func (h *Holder) ActivateAsync(ctx context.Context, done func(Batch, error)) error {
	if !h.inFlight.CompareAndSwap(false, true) {
		return ErrBatchInFlight
	}
	go func() {
		defer h.inFlight.Store(false)
		b, err := h.run(ctx)
		if done != nil {
			done(b, err)
		}
	}()
	return nil
}

func (h *Holder) run(ctx context.Context) (Batch, error) {
	st := h.dispatch(ActivationStarted{})
	logger.Debugw("activation started",
		"activation", st.Activations)

	b := h.fetch(ctx)
	err := b.Err()
	if err != nil {
		failed := make([]string, 0, len(Resources))
		for res := range b.Errors() {
			failed = append(failed, string(res))
		}
		logger.Errorw("batch finished with failures",
			"activation", st.Activations,
			"failed", failed,
			"err", err)
	} else {
		logger.Infow("batch finished",
			"activation", st.Activations,
			"took", b.Finished.Sub(b.Started))
	}

	h.dispatch(BatchCompleted{Batch: b})
	h.save(ctx, b)
	return b, err
}

func (h *Holder) fetch(ctx context.Context) Batch {
	b := Batch{Started: h.now()}
	cfg := h.cfg

	var wg sync.WaitGroup
	wg.Add(len(Resources))
	go func() {
		defer wg.Done()
		b.Global.Value, b.Global.Err = h.src.Global(ctx)
	}()
	go func() {
		defer wg.Done()
		b.Country.Value, b.Country.Err = h.src.Country(ctx, cfg.Country)
	}()
	go func() {
		defer wg.Done()
		b.GlobalHistory.Value, b.GlobalHistory.Err = h.src.GlobalHistory(ctx, cfg.HistoryWindowDays)
	}()
	go func() {
		defer wg.Done()
		b.CountryHistory.Value, b.CountryHistory.Err = h.src.CountryHistory(ctx, cfg.Country, cfg.HistoryWindowDays)
	}()
	go func() {
		defer wg.Done()
		b.Countries.Value, b.Countries.Err = h.src.Countries(ctx, cfg.SortBy, cfg.FetchCountryLimit)
	}()
	wg.Wait()

	b.Finished = h.now()
	return b
}

func (h *Holder) save(ctx context.Context, b Batch) {
	if h.storage == nil {
		return
	}
	values := map[Resource]interface{}{}
	if b.Global.OK() {
		values[ResourceGlobal] = b.Global.Value
	}
	if b.Country.OK() {
		values[ResourceCountry] = b.Country.Value
	}
	if b.GlobalHistory.OK() {
		values[ResourceGlobalHistory] = b.GlobalHistory.Value
	}
	if b.CountryHistory.OK() {
		values[ResourceCountryHistory] = b.CountryHistory.Value
	}
	if b.Countries.OK() {
		values[ResourceCountries] = b.Countries.Value
	}
	for res, v := range values {
		if err := h.storage.Save(ctx, res, b.Finished, v); err != nil {
			logger.Errorw("could not save snapshot",
				"resource", res,
				"err", err)
		}
	}
}

// Restore fills empty snapshot slots from storage. Without storage it does nothing.
func (h *Holder) Restore(ctx context.Context) error {
	if h.storage == nil {
		return nil
	}
	snap, err := h.storage.Load(ctx)
	if err != nil {
		logger.Errorw("could not load stored snapshot",
			"err", err)
		return err
	}
	h.dispatch(SnapshotRestored{Snapshot: snap})
	logger.Infow("snapshot restored",
		"refreshed", snap.Refreshed)
	return nil
}

// View prepares tab from the current state.
func (h *Holder) View(tab Tab, loc *covidstats.Locale) View {
	return BuildView(h.State(), tab, h.cfg, loc)
}

// CurrentView prepares the selected tab.
func (h *Holder) CurrentView(loc *covidstats.Locale) View {
	s := h.State()
	return BuildView(s, s.Tab, h.cfg, loc)
}
