// ============================================================================
// Stations Handler - Velora
// ============================================================================
// Consulta espacial de estaciones (bus, tren, aeropuerto) y hoteles
// ============================================================================

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/velora/internal/models"
	"github.com/yourorg/velora/internal/validation"
)

// ============================================================================
// ENDPOINT: GET /api/stations/nearby
// ============================================================================
// Estaciones cercanas a un punto
// Query params:
//   - lat, lon: punto de consulta
//   - type: bus | train | airport (default: bus)
//   - radius: radio en km (default: 25, máximo 200)
//   - limit: máximo resultados (default: 10)
//
// ============================================================================
func GetNearbyStations(c *fiber.Ctx) error {
	lat := c.QueryFloat("lat", 0)
	lon := c.QueryFloat("lon", 0)

	if validation.IsZeroCoordinate(lat, lon) {
		return c.Status(400).JSON(fiber.Map{
			"error": "Parameters 'lat' and 'lon' are required",
		})
	}
	if err := validation.ValidateCoordinatePair(lat, lon, "query"); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error":   "Invalid coordinates",
			"details": err.Error(),
		})
	}

	mode := c.Query("type", models.StationBus)
	switch mode {
	case models.StationBus, models.StationTrain, models.StationAirport:
	default:
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid station type. Use: bus, train or airport",
		})
	}

	radius := c.QueryFloat("radius", 25)
	if radius <= 0 || radius > 200 {
		radius = 25
	}
	limit := c.QueryInt("limit", 10)
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	store := getStore()
	if store == nil {
		return c.Status(503).JSON(fiber.Map{
			"error": "Station store not initialized",
		})
	}

	stations, err := store.NearRadius(mode, models.Coordinate{Lat: lat, Lon: lon}, radius, limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error":   "Station lookup failed",
			"details": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"stations":  stations,
		"count":     len(stations),
		"type":      mode,
		"radius_km": radius,
	})
}

// ============================================================================
// ENDPOINT: GET /api/hotels/nearby
// ============================================================================
// Hoteles cerca de un punto (para llegadas nocturnas)
// Query params: lat, lon, radius (km, default 10), limit (default 5)
// ============================================================================
func GetNearbyHotels(c *fiber.Ctx) error {
	lat := c.QueryFloat("lat", 0)
	lon := c.QueryFloat("lon", 0)

	if validation.IsZeroCoordinate(lat, lon) {
		return c.Status(400).JSON(fiber.Map{
			"error": "Parameters 'lat' and 'lon' are required",
		})
	}

	radius := c.QueryFloat("radius", 10)
	if radius <= 0 || radius > 50 {
		radius = 10
	}
	limit := c.QueryInt("limit", 5)
	if limit <= 0 || limit > 20 {
		limit = 5
	}

	store := getStore()
	if store == nil {
		return c.Status(503).JSON(fiber.Map{
			"error": "Station store not initialized",
		})
	}

	hotels, err := store.HotelsNear(models.Coordinate{Lat: lat, Lon: lon}, radius, limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error":   "Hotel lookup failed",
			"details": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"hotels":    hotels,
		"count":     len(hotels),
		"radius_km": radius,
	})
}
