// ============================================================================
// Station Store - Velora
// ============================================================================
// Acceso a estaciones, operadores y hoteles sobre MySQL. Las consultas de
// proximidad usan haversine en SQL para poder ordenar y filtrar por radio
// sin traer la tabla completa.
// ============================================================================

package station

import (
	"database/sql"
	"fmt"

	"github.com/yourorg/velora/internal/models"
)

// BoundingBox delimita el corredor de búsqueda de estaciones
type BoundingBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Contains indica si un punto cae dentro de la caja
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Store es la interfaz de consulta de estaciones que consume el planner
type Store interface {
	// InBoundingBox devuelve estaciones de un modo dentro de la caja,
	// ordenadas por cercanía al punto de referencia, hasta limit.
	InBoundingBox(mode string, box BoundingBox, near models.Coordinate, limit int) ([]models.Station, error)

	// Nearest devuelve la estación más cercana dentro de maxKm, o nil.
	Nearest(mode string, p models.Coordinate, maxKm float64) (*models.Station, error)

	// NearRadius devuelve hasta limit estaciones dentro de radiusKm,
	// ordenadas por distancia.
	NearRadius(mode string, p models.Coordinate, radiusKm float64, limit int) ([]models.Station, error)
}

// MySQLStore implementa Store sobre la tabla stations
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore crea el store sobre una conexión existente
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

// haversineSQL calcula distancia en km entre (lat, lon) de la fila y el
// punto parametrizado (?, ?, ?) = (lat, lat, lon)
const haversineSQL = `(6371 * ACOS(LEAST(1, COS(RADIANS(?)) * COS(RADIANS(lat)) * COS(RADIANS(lon) - RADIANS(?)) + SIN(RADIANS(?)) * SIN(RADIANS(lat)))))`

// InBoundingBox implementa Store
func (s *MySQLStore) InBoundingBox(mode string, box BoundingBox, near models.Coordinate, limit int) ([]models.Station, error) {
	query := `
		SELECT id, name, type, COALESCE(state, ''), lat, lon
		FROM stations
		WHERE type = ?
		  AND lat BETWEEN ? AND ?
		  AND lon BETWEEN ? AND ?
		ORDER BY ` + haversineSQL + `
		LIMIT ?`

	rows, err := s.db.Query(query, mode,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon,
		near.Lat, near.Lon, near.Lat, limit)
	if err != nil {
		return nil, fmt.Errorf("error consultando estaciones en caja: %w", err)
	}
	defer rows.Close()

	return scanStations(rows)
}

// Nearest implementa Store
func (s *MySQLStore) Nearest(mode string, p models.Coordinate, maxKm float64) (*models.Station, error) {
	query := `
		SELECT id, name, type, COALESCE(state, ''), lat, lon
		FROM stations
		WHERE type = ? AND ` + haversineSQL + ` <= ?
		ORDER BY ` + haversineSQL + `
		LIMIT 1`

	row := s.db.QueryRow(query, mode,
		p.Lat, p.Lon, p.Lat, maxKm,
		p.Lat, p.Lon, p.Lat)

	var st models.Station
	if err := row.Scan(&st.ID, &st.Name, &st.Type, &st.State, &st.Lat, &st.Lon); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error buscando estación más cercana: %w", err)
	}
	return &st, nil
}

// NearRadius implementa Store
func (s *MySQLStore) NearRadius(mode string, p models.Coordinate, radiusKm float64, limit int) ([]models.Station, error) {
	query := `
		SELECT id, name, type, COALESCE(state, ''), lat, lon
		FROM stations
		WHERE type = ? AND ` + haversineSQL + ` <= ?
		ORDER BY ` + haversineSQL + `
		LIMIT ?`

	rows, err := s.db.Query(query, mode,
		p.Lat, p.Lon, p.Lat, radiusKm,
		p.Lat, p.Lon, p.Lat, limit)
	if err != nil {
		return nil, fmt.Errorf("error consultando estaciones por radio: %w", err)
	}
	defer rows.Close()

	return scanStations(rows)
}

// OperatorNames devuelve los operadores registrados para un estado y modo
func (s *MySQLStore) OperatorNames(state, mode string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT name FROM operators WHERE state = ? AND mode = ? ORDER BY id`, state, mode)
	if err != nil {
		return nil, fmt.Errorf("error consultando operadores: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// HotelsNear devuelve hoteles dentro de radiusKm del punto
func (s *MySQLStore) HotelsNear(p models.Coordinate, radiusKm float64, limit int) ([]models.Hotel, error) {
	query := `
		SELECT id, name, city, lat, lon, price_per_night, rating
		FROM hotels
		WHERE ` + haversineSQL + ` <= ?
		ORDER BY rating DESC
		LIMIT ?`

	rows, err := s.db.Query(query, p.Lat, p.Lon, p.Lat, radiusKm, limit)
	if err != nil {
		return nil, fmt.Errorf("error consultando hoteles: %w", err)
	}
	defer rows.Close()

	var hotels []models.Hotel
	for rows.Next() {
		var h models.Hotel
		if err := rows.Scan(&h.ID, &h.Name, &h.City, &h.Lat, &h.Lon, &h.PricePerNight, &h.Rating); err != nil {
			return nil, err
		}
		h.Source = "db"
		hotels = append(hotels, h)
	}
	return hotels, rows.Err()
}

// Counts devuelve los totales por tabla para el endpoint de estado
func (s *MySQLStore) Counts() (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, table := range []string{"stations", "hotels", "operators"} {
		var n int64
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return nil, fmt.Errorf("error contando %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func scanStations(rows *sql.Rows) ([]models.Station, error) {
	var stations []models.Station
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.ID, &st.Name, &st.Type, &st.State, &st.Lat, &st.Lon); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}
