package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/velora/internal/cache"
)

// ============================================================================
// CACHE STATISTICS ENDPOINT
// ============================================================================
// Endpoint para monitorear el estado del caché en producción
// GET /api/cache/stats

// GetCacheStats retorna estadísticas de todos los cachés activos
func GetCacheStats(c *fiber.Ctx) error {
	stats := make(map[string]cache.Stats)

	if est := getEstimator(); est != nil {
		for name, s := range est.CacheStats() {
			stats[name] = s
		}
	}
	if p := getPlanner(); p != nil {
		stats["operators"] = p.OperatorCacheStats()
	}

	var totalItems, totalValid, totalExpired int
	for _, s := range stats {
		totalItems += s.TotalItems
		totalValid += s.ValidItems
		totalExpired += s.ExpiredItems
	}

	return c.JSON(fiber.Map{
		"status": "ok",
		"summary": fiber.Map{
			"total_items":   totalItems,
			"valid_items":   totalValid,
			"expired_items": totalExpired,
		},
		"caches": stats,
	})
}

// ClearCache limpia los cachés de tráfico
// DELETE /api/cache
func ClearCache(c *fiber.Ctx) error {
	cleared := 0
	if est := getEstimator(); est != nil {
		est.ClearCaches()
		cleared = 2
	}

	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": "Cache cleared",
		"cleared": cleared,
	})
}
