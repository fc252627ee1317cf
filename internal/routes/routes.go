package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/velora/internal/handlers"
	"github.com/yourorg/velora/internal/middleware"
)

// Register monta todos los endpoints de la API
func Register(app *fiber.App) {
	// ============================================================================
	// API PÚBLICA (Endpoints para el frontend)
	// ============================================================================
	api := app.Group("/api")

	// Health y status (sin rate limiting)
	api.Get("/health", handlers.Health)
	api.Get("/status", handlers.GetStatus)

	// ============================================================================
	// PLANIFICACIÓN DE VIAJES
	// ============================================================================
	// RATE LIMITING: PlanRateLimiter (20 req/min) - cada plan llama a
	// TomTom (routing + flow) y potencialmente a Gemini
	// ============================================================================
	api.Post("/plan", middleware.PlanRateLimiter(), handlers.PlanTrip)
	// POST /api/plan
	// Body: {origin, destination, origin_name, dest_name, departure_time,
	//        deadline, has_vehicle, state, debug}
	// Retorna: plan recomendado con piernas, tarifas, horarios y avisos

	api.Get("/plan", middleware.PlanRateLimiter(), handlers.PlanTripQuery)
	// GET /api/plan?origin_lat=X&origin_lon=Y&dest_lat=X&dest_lon=Y&deadline=HH:MM

	// ============================================================================
	// GEOCODING
	// ============================================================================
	geocode := api.Group("/geocode")
	geocode.Use(middleware.APIRateLimiter())

	geocode.Get("/search", handlers.GeocodeSearch)
	// GET /api/geocode/search?q=howrah+station

	geocode.Get("/reverse", handlers.GeocodeReverse)
	// GET /api/geocode/reverse?lat=X&lon=Y

	// ============================================================================
	// ESTACIONES Y HOTELES (búsqueda espacial)
	// ============================================================================
	api.Get("/stations/nearby", middleware.APIRateLimiter(), handlers.GetNearbyStations)
	// GET /api/stations/nearby?lat=X&lon=Y&type=train&radius=25&limit=10

	api.Get("/hotels/nearby", middleware.APIRateLimiter(), handlers.GetNearbyHotels)
	// GET /api/hotels/nearby?lat=X&lon=Y&radius=10&limit=5

	// ============================================================================
	// TRÁFICO
	// ============================================================================
	trafficGroup := api.Group("/traffic")
	trafficGroup.Use(middleware.APIRateLimiter())

	trafficGroup.Get("/point", handlers.GetTrafficAtPoint)
	// GET /api/traffic/point?lat=X&lon=Y&hour=18

	trafficGroup.Get("/warnings", handlers.GetTrafficWarnings)
	// GET /api/traffic/warnings?hour=8

	// ============================================================================
	// MONITOREO DE CACHÉ
	// ============================================================================
	api.Get("/cache/stats", handlers.GetCacheStats)
	api.Delete("/cache", handlers.ClearCache)
}
