// Package advisories implements the REST API handlers for advisory state
// queries and the publication export.
package advisories

import (
	"bytes"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/echotrust/advisory-backend/internal/services"
)

// GetCurrent returns the current state of one advisory.
func GetCurrent(svc *services.AdvisoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		advisoryID := c.Params("advisory_id")

		rec, err := svc.Current(c.Context(), advisoryID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		if rec == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "advisory not tracked"})
		}
		return c.JSON(rec)
	}
}

// GetHistory returns every version of one advisory, oldest first.
func GetHistory(svc *services.AdvisoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		advisoryID := c.Params("advisory_id")

		records, err := svc.History(c.Context(), advisoryID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(records)
	}
}

// GetAtTime answers point-in-time queries: ?at=2026-01-02T15:04:05Z.
func GetAtTime(svc *services.AdvisoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		advisoryID := c.Params("advisory_id")

		at, err := time.Parse(time.RFC3339, c.Query("at"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid or missing at parameter, expected RFC3339"})
		}

		rec, err := svc.AtTime(c.Context(), advisoryID, at)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		if rec == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no state recorded at that time"})
		}
		return c.JSON(rec)
	}
}

// GetPublished returns the downstream publication projection.
func GetPublished(svc *services.AdvisoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		published, err := svc.Published(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(published)
	}
}

// GetExport streams the publication projection as an indented JSON document.
func GetExport(svc *services.AdvisoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		if err := svc.Export(c.Context(), &buf); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		c.Set("Content-Type", "application/json")
		c.Set("Content-Disposition", `attachment; filename="advisories.json"`)
		return c.Send(buf.Bytes())
	}
}
