// ============================================================================
// Plan Handler - Velora
// ============================================================================
// Endpoint principal: recibe origen/destino y devuelve el plan de viaje
// multimodal recomendado con piernas, tarifas y horarios.
// ============================================================================

package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/velora/internal/models"
	"github.com/yourorg/velora/internal/planner"
	"github.com/yourorg/velora/internal/validation"
)

// ============================================================================
// ENDPOINT: POST /api/plan
// ============================================================================
// Body: {origin: {lat, lon}, destination: {lat, lon}, origin_name,
//
//	dest_name, departure_time, deadline, has_vehicle, state, debug}
//
// Si faltan coordenadas pero hay nombre, se resuelve por geocoding.
// ============================================================================
func PlanTrip(c *fiber.Ctx) error {
	var req models.PlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	return executePlan(c, req)
}

// ============================================================================
// ENDPOINT: GET /api/plan
// ============================================================================
// Variante por query params para clientes sin body JSON:
//
//	origin_lat, origin_lon, dest_lat, dest_lon (o origin_name / dest_name),
//	mode, departure_time, deadline, has_vehicle, state, debug
//
// ============================================================================
func PlanTripQuery(c *fiber.Ctx) error {
	req := models.PlanRequest{
		Origin: models.Coordinate{
			Lat: c.QueryFloat("origin_lat", 0),
			Lon: c.QueryFloat("origin_lon", 0),
		},
		Destination: models.Coordinate{
			Lat: c.QueryFloat("dest_lat", 0),
			Lon: c.QueryFloat("dest_lon", 0),
		},
		OriginName:    c.Query("origin_name"),
		Mode:          c.Query("mode"),
		DestName:      c.Query("dest_name"),
		DepartureTime: c.Query("departure_time"),
		Deadline:      c.Query("deadline"),
		HasVehicle:    c.QueryBool("has_vehicle", false),
		State:         c.Query("state"),
		Debug:         c.QueryBool("debug", false),
	}
	return executePlan(c, req)
}

func executePlan(c *fiber.Ctx, req models.PlanRequest) error {
	// Resolver nombres a coordenadas cuando el cliente no las mandó
	if err := resolveEndpoints(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error":   "Could not resolve origin or destination",
			"details": err.Error(),
		})
	}

	// Validar que ambos extremos caigan dentro de India
	if err := validation.ValidateIndiaRegion(req.Origin.Lat, req.Origin.Lon); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error":   "Origin outside supported region",
			"details": err.Error(),
		})
	}
	if err := validation.ValidateIndiaRegion(req.Destination.Lat, req.Destination.Lon); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error":   "Destination outside supported region",
			"details": err.Error(),
		})
	}

	p := getPlanner()
	if p == nil {
		return c.Status(503).JSON(fiber.Map{
			"error": "Planner not initialized",
		})
	}

	result, err := p.Plan(req)
	if err != nil {
		if errors.Is(err, planner.ErrUnresolvedLocation) {
			return c.Status(400).JSON(fiber.Map{
				"error":   "Unresolved origin or destination",
				"details": err.Error(),
			})
		}
		log.Printf("[Plan] planning failed: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error":   "Planning failed",
			"details": err.Error(),
		})
	}

	return c.JSON(result)
}

// resolveEndpoints completa coordenadas faltantes usando geocoding
func resolveEndpoints(req *models.PlanRequest) error {
	tt := getTomTom()

	if req.Origin.Lat == 0 && req.Origin.Lon == 0 && req.OriginName != "" {
		if tt == nil {
			return errors.New("geocoding unavailable")
		}
		res, err := tt.Geocode(req.OriginName)
		if err != nil {
			return err
		}
		req.Origin.Lat = res.Lat
		req.Origin.Lon = res.Lon
	}

	if req.Destination.Lat == 0 && req.Destination.Lon == 0 && req.DestName != "" {
		if tt == nil {
			return errors.New("geocoding unavailable")
		}
		res, err := tt.Geocode(req.DestName)
		if err != nil {
			return err
		}
		req.Destination.Lat = res.Lat
		req.Destination.Lon = res.Lon
	}

	return nil
}
