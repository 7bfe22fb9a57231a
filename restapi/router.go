// Package restapi provides the main router and initialization for REST API
// endpoints.
package restapi

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	advisoryhandlers "github.com/echotrust/advisory-backend/restapi/modules/advisories"
	runhandlers "github.com/echotrust/advisory-backend/restapi/modules/runs"

	"github.com/echotrust/advisory-backend/internal/services"
)

// SetupRoutes configures all REST API routes and the GraphQL endpoint.
func SetupRoutes(app *fiber.App, advisorySvc *services.AdvisoryService, pipelineSvc *services.PipelineService, schema graphql.Schema) {
	// API Group /api/v1
	api := app.Group("/api/v1")

	// GraphQL Route
	api.Post("/graphql", GraphQLHandler(schema))

	// Advisory state queries
	api.Get("/advisories", advisoryhandlers.GetPublished(advisorySvc))
	api.Get("/advisories/export", advisoryhandlers.GetExport(advisorySvc))
	api.Get("/advisories/:advisory_id", advisoryhandlers.GetCurrent(advisorySvc))
	api.Get("/advisories/:advisory_id/history", advisoryhandlers.GetHistory(advisorySvc))
	api.Get("/advisories/:advisory_id/at", advisoryhandlers.GetAtTime(advisorySvc))

	// Pipeline runs
	api.Post("/runs", runhandlers.PostRun(pipelineSvc))
	api.Get("/runs", runhandlers.ListRuns(pipelineSvc))
	api.Get("/runs/:run_id", runhandlers.GetRun(pipelineSvc))

	log.Println("API routes initialized successfully")
}

// graphQLRequest is the POST body for the GraphQL endpoint
type graphQLRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// GraphQLHandler executes GraphQL queries against the schema
func GraphQLHandler(schema graphql.Schema) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req graphQLRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			OperationName:  req.OperationName,
			VariableValues: req.Variables,
		})

		return c.JSON(result)
	}
}
