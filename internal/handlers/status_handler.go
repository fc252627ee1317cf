package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// SystemStatus representa el estado completo del sistema
type SystemStatus struct {
	Backend  BackendStatus    `json:"backend"`
	Database DatabaseStatus   `json:"database"`
	Data     map[string]int64 `json:"data"`
}

// BackendStatus representa el estado del backend
type BackendStatus struct {
	Status       string `json:"status"`
	ResponseTime int    `json:"responseTime"`
	Uptime       int64  `json:"uptime"`
	Version      string `json:"version"`
}

// DatabaseStatus representa el estado de la base de datos
type DatabaseStatus struct {
	Status         string `json:"status"`
	Connections    int    `json:"connections"`
	MaxConnections int    `json:"maxConnections"`
}

// GetStatus obtiene el estado completo del sistema
// GET /api/status
func GetStatus(c *fiber.Ctx) error {
	startRequest := time.Now()

	status := SystemStatus{
		Backend: BackendStatus{
			Status:  "online",
			Uptime:  int64(time.Since(startTime).Seconds()),
			Version: "1.0.0",
		},
		Database: DatabaseStatus{
			Status:         "unknown",
			MaxConnections: 100,
		},
		Data: map[string]int64{},
	}

	// Verificar conexión a la base de datos
	db := getDB()
	if db != nil && db.Ping() == nil {
		status.Database.Status = "online"

		stats := db.Stats()
		status.Database.Connections = stats.InUse
		status.Database.MaxConnections = stats.MaxOpenConnections
	} else {
		status.Database.Status = "offline"
	}

	// Conteos de datos cargados (estaciones por tipo, hoteles, operadores)
	if store := getStore(); store != nil && status.Database.Status == "online" {
		if counts, err := store.Counts(); err == nil {
			status.Data = counts
		}
	}

	status.Backend.ResponseTime = int(time.Since(startRequest).Milliseconds())

	return c.JSON(status)
}
