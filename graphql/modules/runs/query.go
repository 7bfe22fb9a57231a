// Package runs defines the GraphQL queries for pipeline runs.
package runs

import (
	"context"
	"sort"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/echotrust/advisory-backend/internal/services"
	"github.com/echotrust/advisory-backend/model"
)

// GetQueryFields returns the run queries to be mounted in the root schema
func GetQueryFields(svc *services.PipelineService) graphql.Fields {
	return graphql.Fields{
		"pipelineRun": &graphql.Field{
			Type: PipelineRunType,
			Args: graphql.FieldConfigArgument{
				"run_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				run, err := svc.GetRun(context.Background(), p.Args["run_id"].(string))
				if err != nil || run == nil {
					return nil, err
				}
				return runToMap(run), nil
			},
		},
		"pipelineRuns": &graphql.Field{
			Type: graphql.NewList(PipelineRunType),
			Args: graphql.FieldConfigArgument{
				"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				limit := p.Args["limit"].(int)
				list, err := svc.ListRuns(context.Background(), limit)
				if err != nil {
					return nil, err
				}
				out := make([]map[string]interface{}, 0, len(list))
				for i := range list {
					out = append(out, runToMap(&list[i]))
				}
				return out, nil
			},
		},
	}
}

func runToMap(run *model.PipelineRun) map[string]interface{} {
	out := map[string]interface{}{
		"run_id":                run.RunID,
		"status":                run.Status,
		"started_at":            run.StartedAt.Format(time.RFC3339),
		"observations_ingested": run.ObservationsIngested,
		"advisories_total":      run.AdvisoriesTotal,
		"state_changes":         run.StateChanges,
		"malformed_dropped":     run.MalformedDropped,
		"errors":                run.Errors,
		"quality_notes":         run.QualityNotes,
	}
	if run.CompletedAt != nil {
		out["completed_at"] = run.CompletedAt.Format(time.RFC3339)
	}

	transitions := make([]map[string]interface{}, 0, len(run.TransitionSet))
	for _, tr := range run.TransitionSet {
		transitions = append(transitions, map[string]interface{}{
			"advisory_id": tr.AdvisoryID,
			"from_state":  tr.FromState,
			"to_state":    tr.ToState,
		})
	}
	out["transition_set"] = transitions

	health := make([]map[string]interface{}, 0, len(run.SourceHealth))
	for _, h := range run.SourceHealth {
		health = append(health, map[string]interface{}{
			"source_id":       h.SourceID,
			"healthy":         h.Healthy,
			"records_fetched": h.RecordsFetched,
			"error_message":   h.ErrorMessage,
		})
	}
	sort.Slice(health, func(i, j int) bool {
		return health[i]["source_id"].(string) < health[j]["source_id"].(string)
	})
	out["source_health"] = health

	return out
}
