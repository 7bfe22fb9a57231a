// Package observations defines types for Kafka event processing of
// out-of-band observation batches.
package observations

import (
	"time"

	"github.com/echotrust/advisory-backend/model"
)

// ObservationBatchEvent is a batch of normalized observations pushed by an
// external producer, bypassing the file-based adapters.
type ObservationBatchEvent struct {
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EventTime     time.Time `json:"event_time"`
	SchemaVersion string    `json:"schema_version"`

	SourceID     string                    `json:"source_id"`
	Observations []model.SourceObservation `json:"observations"`
}
