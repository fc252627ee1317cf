// ============================================================================
// Geocoding Handler - Velora
// ============================================================================
// Endpoints para buscar lugares por nombre y resolver coordenadas a nombres
// usando TomTom Search API
// ============================================================================

package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/velora/internal/models"
	"github.com/yourorg/velora/internal/validation"
)

// ============================================================================
// ENDPOINT: GET /api/geocode/search
// ============================================================================
// Busca un lugar por nombre
// Query params:
//   - q: texto de búsqueda (ej: "howrah station")
//
// ============================================================================
func GeocodeSearch(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "Parameter 'q' is required",
		})
	}

	tt := getTomTom()
	if tt == nil || !tt.HasKey() {
		return c.Status(503).JSON(fiber.Map{
			"error": "Geocoding service not configured",
		})
	}

	result, err := tt.Geocode(normalizeSearchQuery(query))
	if err != nil {
		return c.Status(502).JSON(fiber.Map{
			"error":   "Geocoding lookup failed",
			"details": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"query": query,
		"result": fiber.Map{
			"name": result.Name,
			"lat":  result.Lat,
			"lon":  result.Lon,
		},
	})
}

// ============================================================================
// ENDPOINT: GET /api/geocode/reverse
// ============================================================================
// Geocoding inverso: convierte lat/lon a nombre de lugar
// Query params:
//   - lat: latitud
//   - lon: longitud
//
// ============================================================================
func GeocodeReverse(c *fiber.Ctx) error {
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

	tt := getTomTom()
	if tt == nil || !tt.HasKey() {
		return c.Status(503).JSON(fiber.Map{
			"error": "Geocoding service not configured",
		})
	}

	name, err := tt.ReverseGeocode(models.Coordinate{Lat: lat, Lon: lon})
	if err != nil {
		return c.Status(502).JSON(fiber.Map{
			"error":   "Reverse geocoding failed",
			"details": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"name": name,
		"lat":  lat,
		"lon":  lon,
	})
}

// ============================================================================
// HELPER: Normalizar texto de búsqueda
// ============================================================================
func normalizeSearchQuery(query string) string {
	query = strings.TrimSpace(query)
	if !strings.Contains(strings.ToLower(query), "india") {
		query = query + ", India"
	}
	return query
}
