// Package advisories defines the GraphQL types for advisory state queries.
package advisories

import (
	"github.com/graphql-go/graphql"
)

// AdvisoryStateType represents one version of an advisory's lifecycle state
var AdvisoryStateType = graphql.NewObject(graphql.ObjectConfig{
	Name: "AdvisoryState",
	Fields: graphql.Fields{
		"history_id":           &graphql.Field{Type: graphql.String},
		"advisory_id":          &graphql.Field{Type: graphql.String},
		"vuln_id":              &graphql.Field{Type: graphql.String},
		"component":            &graphql.Field{Type: graphql.String},
		"state":                &graphql.Field{Type: graphql.String},
		"state_type":           &graphql.Field{Type: graphql.String},
		"fixed_version":        &graphql.Field{Type: graphql.String},
		"confidence":           &graphql.Field{Type: graphql.String},
		"explanation":          &graphql.Field{Type: graphql.String},
		"reason_code":          &graphql.Field{Type: graphql.String},
		"decision_rule_id":     &graphql.Field{Type: graphql.String},
		"contributing_sources": &graphql.Field{Type: graphql.NewList(graphql.String)},
		"dissenting_sources":   &graphql.Field{Type: graphql.NewList(graphql.String)},
		"effective_from":       &graphql.Field{Type: graphql.String},
		"effective_to":         &graphql.Field{Type: graphql.String},
		"is_current":           &graphql.Field{Type: graphql.Boolean},
		"run_id":               &graphql.Field{Type: graphql.String},
	},
})

// StateCountType is one (state, count) bucket over the current records
var StateCountType = graphql.NewObject(graphql.ObjectConfig{
	Name: "StateCount",
	Fields: graphql.Fields{
		"state": &graphql.Field{Type: graphql.String},
		"count": &graphql.Field{Type: graphql.Int},
	},
})

// PublishedAdvisoryType represents the downstream publication projection
var PublishedAdvisoryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "PublishedAdvisory",
	Fields: graphql.Fields{
		"advisory_id":          &graphql.Field{Type: graphql.String},
		"vuln_id":              &graphql.Field{Type: graphql.String},
		"component":            &graphql.Field{Type: graphql.String},
		"state":                &graphql.Field{Type: graphql.String},
		"fixed_version":        &graphql.Field{Type: graphql.String},
		"confidence":           &graphql.Field{Type: graphql.String},
		"explanation":          &graphql.Field{Type: graphql.String},
		"reason_code":          &graphql.Field{Type: graphql.String},
		"contributing_sources": &graphql.Field{Type: graphql.NewList(graphql.String)},
		"effective_from":       &graphql.Field{Type: graphql.String},
	},
})
