package dashboard

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyalavrinov/coviddash/pkg/diseasesh"
)

var (
	// ErrPartialData is returned when some, but not all, resources of a batch failed.
	ErrPartialData = errors.New("partial data")
	// ErrBatchInFlight is returned when an activation overlaps a running one.
	ErrBatchInFlight = errors.New("batch already in flight")
)

// Result is the outcome of fetching a single resource.
type Result[T any] struct {
	Value T
	Err   error
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Batch joins the results of the five fetches of one activation.
type Batch struct {
	Started  time.Time
	Finished time.Time

	Global         Result[*diseasesh.Global]
	Country        Result[*diseasesh.Country]
	GlobalHistory  Result[*diseasesh.Timeline]
	CountryHistory Result[*diseasesh.CountryHistory]
	Countries      Result[[]diseasesh.Country]
}

// Errors maps every failed resource to its error.
func (b Batch) Errors() map[Resource]error {
	errs := make(map[Resource]error)
	for res, err := range map[Resource]error{
		ResourceGlobal:         b.Global.Err,
		ResourceCountry:        b.Country.Err,
		ResourceGlobalHistory:  b.GlobalHistory.Err,
		ResourceCountryHistory: b.CountryHistory.Err,
		ResourceCountries:      b.Countries.Err,
	} {
		if err != nil {
			errs[res] = err
		}
	}
	return errs
}

// Err is nil if every resource succeeded. When only some failed the
// returned error matches ErrPartialData as well as each resource error.
func (b Batch) Err() error {
	failed := b.Errors()
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failed))
	for _, res := range Resources {
		if err, found := failed[res]; found {
			errs = append(errs, fmt.Errorf("%s: %w", res, err))
		}
	}
	joined := errors.Join(errs...)
	if len(failed) == len(Resources) {
		return joined
	}
	return fmt.Errorf("%w: %w", ErrPartialData, joined)
}
