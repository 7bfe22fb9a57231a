// Package advisories defines the GraphQL queries for advisory state.
package advisories

import (
	"github.com/graphql-go/graphql"

	"github.com/echotrust/advisory-backend/internal/services"
)

// GetQueryFields returns the advisory queries to be mounted in the root schema
func GetQueryFields(svc *services.AdvisoryService) graphql.Fields {
	return graphql.Fields{
		"advisoryCurrent": &graphql.Field{
			Type: AdvisoryStateType,
			Args: graphql.FieldConfigArgument{
				"advisory_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return ResolveCurrent(svc, p.Args["advisory_id"].(string))
			},
		},
		"advisoryHistory": &graphql.Field{
			Type: graphql.NewList(AdvisoryStateType),
			Args: graphql.FieldConfigArgument{
				"advisory_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return ResolveHistory(svc, p.Args["advisory_id"].(string))
			},
		},
		"advisoryAtTime": &graphql.Field{
			Type: AdvisoryStateType,
			Args: graphql.FieldConfigArgument{
				"advisory_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				"timestamp":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return ResolveAtTime(svc, p.Args["advisory_id"].(string), p.Args["timestamp"].(string))
			},
		},
		"stateCounts": &graphql.Field{
			Type: graphql.NewList(StateCountType),
			Resolve: func(_ graphql.ResolveParams) (interface{}, error) {
				return ResolveStateCounts(svc)
			},
		},
		"advisoriesPublished": &graphql.Field{
			Type: graphql.NewList(PublishedAdvisoryType),
			Args: graphql.FieldConfigArgument{
				"state": &graphql.ArgumentConfig{Type: graphql.String},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				state, _ := p.Args["state"].(string)
				return ResolvePublished(svc, state)
			},
		},
	}
}
