// ============================================================================
// Traffic Handler - Velora
// ============================================================================
// Estado de tráfico: estimación puntual y ventanas horarias del día
// ============================================================================

package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/velora/internal/models"
	"github.com/yourorg/velora/internal/traffic"
	"github.com/yourorg/velora/internal/validation"
)

// ============================================================================
// ENDPOINT: GET /api/traffic/point
// ============================================================================
// Congestión estimada en un punto
// Query params: lat, lon, hour (0-23, default: hora actual)
// ============================================================================
func GetTrafficAtPoint(c *fiber.Ctx) error {
	lat := c.QueryFloat("lat", 0)
	lon := c.QueryFloat("lon", 0)

	if validation.IsZeroCoordinate(lat, lon) {
		return c.Status(400).JSON(fiber.Map{
			"error": "Parameters 'lat' and 'lon' are required",
		})
	}

	hour := c.QueryInt("hour", time.Now().Hour())
	if hour < 0 || hour > 23 {
		return c.Status(400).JSON(fiber.Map{
			"error": "Parameter 'hour' must be between 0 and 23",
		})
	}

	est := getEstimator()
	if est == nil {
		return c.Status(503).JSON(fiber.Map{
			"error": "Traffic estimator not initialized",
		})
	}

	sample := est.SampleAt(models.Coordinate{Lat: lat, Lon: lon}, hour)

	return c.JSON(fiber.Map{
		"lat":    lat,
		"lon":    lon,
		"hour":   hour,
		"sample": sample,
	})
}

// ============================================================================
// ENDPOINT: GET /api/traffic/warnings
// ============================================================================
// Ventanas de tráfico restantes del día (picos de mañana, mediodía y tarde)
// Query params: hour (default: hora actual)
// ============================================================================
func GetTrafficWarnings(c *fiber.Ctx) error {
	hour := c.QueryInt("hour", time.Now().Hour())
	if hour < 0 || hour > 23 {
		return c.Status(400).JSON(fiber.Map{
			"error": "Parameter 'hour' must be between 0 and 23",
		})
	}

	warnings := traffic.Warnings(hour)

	return c.JSON(fiber.Map{
		"hour":     hour,
		"warnings": warnings,
		"count":    len(warnings),
	})
}
