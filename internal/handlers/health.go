package handlers

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthResponse representa el estado de salud del sistema
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Version   string            `json:"version,omitempty"`
}

// Health proporciona un health check completo del sistema
func Health(c *fiber.Ctx) error {
	services := make(map[string]string)
	overall := "healthy"

	// ============================================================================
	// CHECK: Base de Datos
	// ============================================================================
	db := getDB()
	if db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			services["database"] = "unhealthy: " + err.Error()
			overall = "degraded"
		} else {
			services["database"] = "healthy"
		}
	} else {
		services["database"] = "not_initialized"
		overall = "degraded"
	}

	// ============================================================================
	// CHECK: TomTom (routing + traffic flow)
	// ============================================================================
	// Sin API key el planner sigue funcionando con el modelo horario,
	// así que se reporta pero no degrada el estado general.
	tt := getTomTom()
	if tt != nil && tt.HasKey() {
		services["tomtom"] = "configured"
	} else {
		services["tomtom"] = "no_api_key"
	}

	// ============================================================================
	// CHECK: Datos de estaciones
	// ============================================================================
	if db != nil {
		var count int
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM stations").Scan(&count)
		if err != nil {
			services["station_data"] = "unhealthy: " + err.Error()
			overall = "degraded"
		} else if count == 0 {
			services["station_data"] = "empty"
		} else {
			services["station_data"] = "healthy"
		}
	} else {
		services["station_data"] = "unavailable"
	}

	// ============================================================================
	// Determinar código de estado HTTP
	// ============================================================================
	statusCode := fiber.StatusOK
	if overall == "degraded" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Services:  services,
		Version:   os.Getenv("APP_VERSION"),
	})
}
