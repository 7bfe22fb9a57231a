// Package runs implements the REST API handlers for pipeline run
// operations.
package runs

import (
	"github.com/gofiber/fiber/v2"

	"github.com/echotrust/advisory-backend/internal/services"
)

// PostRun triggers a pipeline run and returns its metadata. The run
// executes synchronously; a trigger while another run is active gets 503.
func PostRun(svc *services.PipelineService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		run, err := svc.Execute(c.Context())
		if err != nil && run == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
		}

		status := fiber.StatusOK
		if err != nil {
			status = fiber.StatusInternalServerError
		}
		return c.Status(status).JSON(run)
	}
}

// GetRun returns one run's metadata.
func GetRun(svc *services.PipelineService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		run, err := svc.GetRun(c.Context(), c.Params("run_id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		if run == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "run not found"})
		}
		return c.JSON(run)
	}
}

// ListRuns returns the most recent runs: ?limit=20.
func ListRuns(svc *services.PipelineService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 20)

		list, err := svc.ListRuns(c.Context(), limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(list)
	}
}
