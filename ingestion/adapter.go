// Package ingestion fetches raw advisory data from the configured sources
// and normalizes each record into a SourceObservation. Adapters isolate
// source formats from the pipeline core: a new source is a new adapter,
// never a pipeline change.
package ingestion

import (
	"context"
	"time"

	"github.com/echotrust/advisory-backend/model"
)

// Adapter normalizes one source's records into observations. Fetch returns
// at most one observation per advisory identity; adapters collapse their
// own duplicates before handing data to the pipeline.
type Adapter interface {
	SourceID() string
	Fetch(ctx context.Context) ([]model.SourceObservation, error)
}

// FetchAll runs every adapter and collects observations plus per-source
// health. One failing source never aborts the run; it is reported unhealthy
// and the pipeline proceeds with the remaining sources.
func FetchAll(ctx context.Context, adapters []Adapter, now time.Time) ([]model.SourceObservation, map[string]model.SourceHealth) {
	var all []model.SourceObservation
	health := make(map[string]model.SourceHealth, len(adapters))

	for _, a := range adapters {
		obs, err := a.Fetch(ctx)
		fetchedAt := now

		h := model.SourceHealth{
			SourceID:       a.SourceID(),
			Healthy:        err == nil,
			LastFetch:      &fetchedAt,
			RecordsFetched: len(obs),
		}
		if err != nil {
			h.ErrorMessage = err.Error()
		}
		health[a.SourceID()] = h

		all = append(all, obs...)
	}

	return all, health
}
