package handlers

import (
	"database/sql"
	"sync"
	"time"

	"github.com/yourorg/velora/internal/planner"
	"github.com/yourorg/velora/internal/station"
	"github.com/yourorg/velora/internal/tomtom"
	"github.com/yourorg/velora/internal/traffic"
)

// ============================================================================
// ESTADO COMPARTIDO DE HANDLERS
// ============================================================================
// Los handlers son funciones de paquete; las dependencias se inyectan una
// vez al arrancar con Setup(). setupMu protege el acceso concurrente.

var (
	setupMu      sync.RWMutex
	dbConn       *sql.DB
	stationStore *station.MySQLStore
	tripPlanner  *planner.Planner
	ttClient     *tomtom.Client
	estimator    *traffic.Estimator
	setupOnce    sync.Once
	startTime    = time.Now()
)

// Deps agrupa las dependencias que los handlers necesitan
type Deps struct {
	DB        *sql.DB
	Store     *station.MySQLStore
	Planner   *planner.Planner
	TomTom    *tomtom.Client
	Estimator *traffic.Estimator
}

// Setup inyecta las dependencias. Solo la primera llamada tiene efecto.
func Setup(d Deps) {
	setupOnce.Do(func() {
		setupMu.Lock()
		defer setupMu.Unlock()
		dbConn = d.DB
		stationStore = d.Store
		tripPlanner = d.Planner
		ttClient = d.TomTom
		estimator = d.Estimator
	})
}

func getDB() *sql.DB {
	setupMu.RLock()
	defer setupMu.RUnlock()
	return dbConn
}

func getStore() *station.MySQLStore {
	setupMu.RLock()
	defer setupMu.RUnlock()
	return stationStore
}

func getPlanner() *planner.Planner {
	setupMu.RLock()
	defer setupMu.RUnlock()
	return tripPlanner
}

func getTomTom() *tomtom.Client {
	setupMu.RLock()
	defer setupMu.RUnlock()
	return ttClient
}

func getEstimator() *traffic.Estimator {
	setupMu.RLock()
	defer setupMu.RUnlock()
	return estimator
}
