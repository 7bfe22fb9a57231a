// Package observations handles Kafka event processing for observation
// batch events.
package observations

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/echotrust/advisory-backend/model"
)

// BatchService defines the interface for processing a pushed batch.
type BatchService interface {
	ExecuteBatch(ctx context.Context, observations []model.SourceObservation) (*model.PipelineRun, error)
}

// HandleObservationBatch processes observation batch events from Kafka.
// The batch runs through the same resolve/decide/apply stages as a file
// run, so pushed and pulled observations get identical treatment.
func HandleObservationBatch(ctx context.Context, msg []byte, service BatchService) error {
	var event ObservationBatchEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		return fmt.Errorf("failed to unmarshal ObservationBatchEvent: %w", err)
	}

	if event.SourceID == "" || len(event.Observations) == 0 {
		return fmt.Errorf("invalid event: missing source_id or observations")
	}

	// Stamp the producing source on entries that omit it.
	for i := range event.Observations {
		if event.Observations[i].SourceID == "" {
			event.Observations[i].SourceID = event.SourceID
		}
	}

	log.Printf("Processing observation batch %s from %s (%d observations)",
		event.EventID, event.SourceID, len(event.Observations))

	run, err := service.ExecuteBatch(ctx, event.Observations)
	if err != nil {
		return fmt.Errorf("internal service error: %w", err)
	}

	log.Printf("Observation batch %s processed as run %s", event.EventID, run.RunID)
	return nil
}
