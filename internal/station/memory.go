package station

import (
	"sort"

	"github.com/yourorg/velora/internal/geo"
	"github.com/yourorg/velora/internal/models"
)

// MemoryStore implementa Store sobre un slice en memoria. Se usa en tests
// y como semilla cuando no hay base de datos configurada.
type MemoryStore struct {
	stations []models.Station
}

// NewMemoryStore crea un store con las estaciones dadas
func NewMemoryStore(stations []models.Station) *MemoryStore {
	return &MemoryStore{stations: stations}
}

// InBoundingBox implementa Store
func (m *MemoryStore) InBoundingBox(mode string, box BoundingBox, near models.Coordinate, limit int) ([]models.Station, error) {
	var out []models.Station
	for _, st := range m.stations {
		if st.Type == mode && box.Contains(st.Lat, st.Lon) {
			out = append(out, st)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		di := geo.HaversineKm(out[i].Lat, out[i].Lon, near.Lat, near.Lon)
		dj := geo.HaversineKm(out[j].Lat, out[j].Lon, near.Lat, near.Lon)
		return di < dj
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Nearest implementa Store
func (m *MemoryStore) Nearest(mode string, p models.Coordinate, maxKm float64) (*models.Station, error) {
	var best *models.Station
	bestDist := maxKm
	for i := range m.stations {
		st := &m.stations[i]
		if st.Type != mode {
			continue
		}
		d := geo.HaversineKm(st.Lat, st.Lon, p.Lat, p.Lon)
		if d <= bestDist {
			bestDist = d
			best = st
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

// NearRadius implementa Store
func (m *MemoryStore) NearRadius(mode string, p models.Coordinate, radiusKm float64, limit int) ([]models.Station, error) {
	var out []models.Station
	for _, st := range m.stations {
		if st.Type == mode && geo.HaversineKm(st.Lat, st.Lon, p.Lat, p.Lon) <= radiusKm {
			out = append(out, st)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		di := geo.HaversineKm(out[i].Lat, out[i].Lon, p.Lat, p.Lon)
		dj := geo.HaversineKm(out[j].Lat, out[j].Lon, p.Lat, p.Lon)
		return di < dj
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
