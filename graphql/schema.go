// Package graphql assembles the root query schema from the per-domain
// modules.
package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/echotrust/advisory-backend/graphql/modules/advisories"
	"github.com/echotrust/advisory-backend/graphql/modules/runs"
	"github.com/echotrust/advisory-backend/internal/services"
)

var advisorySvc *services.AdvisoryService
var pipelineSvc *services.PipelineService

// InitServices wires the services the resolvers read from. Must be called
// before CreateSchema.
func InitServices(a *services.AdvisoryService, p *services.PipelineService) {
	advisorySvc = a
	pipelineSvc = p
}

// CreateSchema builds the root schema by merging each module's query fields
func CreateSchema() (graphql.Schema, error) {
	fields := graphql.Fields{}

	for name, field := range advisories.GetQueryFields(advisorySvc) {
		fields[name] = field
	}
	for name, field := range runs.GetQueryFields(pipelineSvc) {
		fields[name] = field
	}

	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: fields,
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: rootQuery})
}
