// Package runs defines the GraphQL types for pipeline run metadata.
package runs

import (
	"github.com/graphql-go/graphql"
)

// SourceHealthType represents the fetch outcome for one source
var SourceHealthType = graphql.NewObject(graphql.ObjectConfig{
	Name: "SourceHealth",
	Fields: graphql.Fields{
		"source_id":       &graphql.Field{Type: graphql.String},
		"healthy":         &graphql.Field{Type: graphql.Boolean},
		"records_fetched": &graphql.Field{Type: graphql.Int},
		"error_message":   &graphql.Field{Type: graphql.String},
	},
})

// StateTransitionType represents one advisory changing state during a run
var StateTransitionType = graphql.NewObject(graphql.ObjectConfig{
	Name: "StateTransition",
	Fields: graphql.Fields{
		"advisory_id": &graphql.Field{Type: graphql.String},
		"from_state":  &graphql.Field{Type: graphql.String},
		"to_state":    &graphql.Field{Type: graphql.String},
	},
})

// PipelineRunType represents one batch execution's metadata
var PipelineRunType = graphql.NewObject(graphql.ObjectConfig{
	Name: "PipelineRun",
	Fields: graphql.Fields{
		"run_id":                &graphql.Field{Type: graphql.String},
		"status":                &graphql.Field{Type: graphql.String},
		"started_at":            &graphql.Field{Type: graphql.String},
		"completed_at":          &graphql.Field{Type: graphql.String},
		"observations_ingested": &graphql.Field{Type: graphql.Int},
		"advisories_total":      &graphql.Field{Type: graphql.Int},
		"state_changes":         &graphql.Field{Type: graphql.Int},
		"malformed_dropped":     &graphql.Field{Type: graphql.Int},
		"errors":                &graphql.Field{Type: graphql.Int},
		"transition_set":        &graphql.Field{Type: graphql.NewList(StateTransitionType)},
		"source_health":         &graphql.Field{Type: graphql.NewList(SourceHealthType)},
		"quality_notes":         &graphql.Field{Type: graphql.NewList(graphql.String)},
	},
})
