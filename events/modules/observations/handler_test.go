package observations

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echotrust/advisory-backend/model"
)

type captureService struct {
	received []model.SourceObservation
}

func (s *captureService) ExecuteBatch(ctx context.Context, obs []model.SourceObservation) (*model.PipelineRun, error) {
	s.received = obs
	return &model.PipelineRun{RunID: "run_test"}, nil
}

func TestHandleObservationBatch(t *testing.T) {
	svc := &captureService{}

	event := ObservationBatchEvent{
		EventType:     "advisory.observations.batch",
		EventID:       "evt-1",
		EventTime:     time.Now().UTC(),
		SchemaVersion: "v1",
		SourceID:      model.SourceOSV,
		Observations: []model.SourceObservation{
			{VulnID: "CVE-2024-0001", Component: "pkg:npm/lodash"},
		},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	require.NoError(t, HandleObservationBatch(context.Background(), payload, svc))
	require.Len(t, svc.received, 1)
	assert.Equal(t, model.SourceOSV, svc.received[0].SourceID, "missing source id stamped from the event")
}

func TestHandleObservationBatchRejectsInvalid(t *testing.T) {
	svc := &captureService{}

	assert.Error(t, HandleObservationBatch(context.Background(), []byte("not json"), svc))

	empty, _ := json.Marshal(ObservationBatchEvent{SourceID: model.SourceOSV})
	assert.Error(t, HandleObservationBatch(context.Background(), empty, svc))
	assert.Nil(t, svc.received)
}
