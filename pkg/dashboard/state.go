package dashboard

import (
	"time"

	"github.com/ilyalavrinov/coviddash/pkg/diseasesh"
)

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseFailed  Phase = "failed"
)

// Snapshot keeps the latest successfully fetched value of every resource.
// Values are shared between states and must not be modified.
type Snapshot struct {
	Global         *diseasesh.Global         `json:"global,omitempty"`
	Country        *diseasesh.Country        `json:"country,omitempty"`
	GlobalHistory  *diseasesh.Timeline       `json:"globalHistory,omitempty"`
	CountryHistory *diseasesh.CountryHistory `json:"countryHistory,omitempty"`
	Countries      []diseasesh.Country       `json:"countries,omitempty"`

	Refreshed map[Resource]time.Time `json:"refreshed,omitempty"`
}

func (s Snapshot) Has(res Resource) bool {
	switch res {
	case ResourceGlobal:
		return s.Global != nil
	case ResourceCountry:
		return s.Country != nil
	case ResourceGlobalHistory:
		return s.GlobalHistory != nil
	case ResourceCountryHistory:
		return s.CountryHistory != nil
	case ResourceCountries:
		return s.Countries != nil
	}
	return false
}

func (s Snapshot) Empty() bool {
	for _, res := range Resources {
		if s.Has(res) {
			return false
		}
	}
	return true
}

func (s Snapshot) refreshedCopy() map[Resource]time.Time {
	m := make(map[Resource]time.Time, len(Resources))
	for k, v := range s.Refreshed {
		m[k] = v
	}
	return m
}

type State struct {
	Phase    Phase
	Tab      Tab
	Snapshot Snapshot
	// Errors of the last completed batch, by resource.
	Errors      map[Resource]error
	Activations int
	LastBatch   time.Time
}

func InitialState() State {
	return State{
		Phase:  PhaseIdle,
		Tab:    TabGlobal,
		Errors: map[Resource]error{},
	}
}

type Action interface {
	action()
}

type ActivationStarted struct{}

type BatchCompleted struct {
	Batch Batch
}

type TabSelected struct {
	Tab Tab
}

type SnapshotRestored struct {
	Snapshot Snapshot
}

func (ActivationStarted) action() {}
func (BatchCompleted) action()    {}
func (TabSelected) action()       {}
func (SnapshotRestored) action()  {}

// Reduce returns the state following s after a. s itself is never modified.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case ActivationStarted:
		s.Phase = PhaseLoading
		s.Activations++
	case BatchCompleted:
		s = completeBatch(s, a.Batch)
	case TabSelected:
		s.Tab = a.Tab
	case SnapshotRestored:
		s.Snapshot = restoreSnapshot(s.Snapshot, a.Snapshot)
	}
	return s
}

func completeBatch(s State, b Batch) State {
	snap := s.Snapshot
	snap.Refreshed = s.Snapshot.refreshedCopy()
	if b.Global.OK() {
		snap.Global = b.Global.Value
		snap.Refreshed[ResourceGlobal] = b.Finished
	}
	if b.Country.OK() {
		snap.Country = b.Country.Value
		snap.Refreshed[ResourceCountry] = b.Finished
	}
	if b.GlobalHistory.OK() {
		snap.GlobalHistory = b.GlobalHistory.Value
		snap.Refreshed[ResourceGlobalHistory] = b.Finished
	}
	if b.CountryHistory.OK() {
		snap.CountryHistory = b.CountryHistory.Value
		snap.Refreshed[ResourceCountryHistory] = b.Finished
	}
	if b.Countries.OK() {
		snap.Countries = b.Countries.Value
		snap.Refreshed[ResourceCountries] = b.Finished
	}

	s.Snapshot = snap
	s.Errors = b.Errors()
	s.LastBatch = b.Finished
	if b.Err() == nil {
		s.Phase = PhaseReady
	} else {
		s.Phase = PhaseFailed
	}
	return s
}

func restoreSnapshot(cur, stored Snapshot) Snapshot {
	refreshed := cur.refreshedCopy()
	take := func(res Resource) bool {
		if cur.Has(res) || !stored.Has(res) {
			return false
		}
		refreshed[res] = stored.Refreshed[res]
		return true
	}
	if take(ResourceGlobal) {
		cur.Global = stored.Global
	}
	if take(ResourceCountry) {
		cur.Country = stored.Country
	}
	if take(ResourceGlobalHistory) {
		cur.GlobalHistory = stored.GlobalHistory
	}
	if take(ResourceCountryHistory) {
		cur.CountryHistory = stored.CountryHistory
	}
	if take(ResourceCountries) {
		cur.Countries = stored.Countries
	}
	cur.Refreshed = refreshed
	return cur
}
