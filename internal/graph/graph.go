// ============================================================================
// Station Graph - Velora
// ============================================================================
// Construye un grafo de estaciones dentro del corredor origen-destino.
// El grafo se acota a 200 nodos priorizando las estaciones más cercanas a
// alguno de los dos extremos, y las aristas se limitan por longitud de
// salto para que el pathfinder no invente conexiones imposibles.
// ============================================================================

package graph

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/yourorg/velora/internal/geo"
	"github.com/yourorg/velora/internal/models"
	"github.com/yourorg/velora/internal/station"
)

var (
	// ErrSparseGraph indica que el corredor no tiene estaciones
	// suficientes; el caller debe caer a la estrategia de corredor.
	ErrSparseGraph = errors.New("grafo con menos de 2 nodos")
)

const (
	maxNodes = 200

	busHopKm   = 50.0
	trainHopKm = 150.0

	busSpeedKmh   = 40.0
	trainSpeedKmh = 70.0
)

// Graph es el grafo de estaciones del corredor
type Graph struct {
	Nodes   map[int]models.GraphNode
	Adj     map[int][]models.GraphEdge
	StartID int
	EndID   int
}

// Build arma el grafo de estaciones de un modo entre dos estaciones
// extremas. Las estaciones extremas siempre forman parte del grafo.
func Build(store station.Store, mode string, start, end models.Station) (*Graph, error) {
	tripKm := geo.HaversineKm(start.Lat, start.Lon, end.Lat, end.Lon)

	// Buffer del corredor proporcional al viaje, acotado
	buffer := tripKm / 300
	if buffer < 0.2 {
		buffer = 0.2
	}
	if buffer > 0.3 {
		buffer = 0.3
	}

	box := station.BoundingBox{
		MinLat: math.Min(start.Lat, end.Lat) - buffer,
		MaxLat: math.Max(start.Lat, end.Lat) + buffer,
		MinLon: math.Min(start.Lon, end.Lon) - buffer,
		MaxLon: math.Max(start.Lon, end.Lon) + buffer,
	}

	origin := models.Coordinate{Lat: start.Lat, Lon: start.Lon}
	stations, err := store.InBoundingBox(mode, box, origin, maxNodes*2)
	if err != nil {
		return nil, fmt.Errorf("error obteniendo estaciones del corredor: %w", err)
	}

	// Priorizar por cercanía al extremo más próximo y acotar
	sort.Slice(stations, func(i, j int) bool {
		return endpointDistKm(stations[i], start, end) < endpointDistKm(stations[j], start, end)
	})
	if len(stations) > maxNodes {
		stations = stations[:maxNodes]
	}

	stations = ensureIncluded(stations, start)
	stations = ensureIncluded(stations, end)

	if len(stations) < 2 {
		return nil, ErrSparseGraph
	}

	g := &Graph{
		Nodes:   make(map[int]models.GraphNode, len(stations)),
		Adj:     make(map[int][]models.GraphEdge),
		StartID: -1,
		EndID:   -1,
	}

	for i, st := range stations {
		g.Nodes[i] = models.GraphNode{ID: i, Name: st.Name, Lat: st.Lat, Lon: st.Lon, Type: st.Type}
		if sameStation(st, start) && g.StartID < 0 {
			g.StartID = i
		}
		if sameStation(st, end) && g.EndID < 0 {
			g.EndID = i
		}
	}

	maxHop := busHopKm
	speed := busSpeedKmh
	if mode == models.StationTrain {
		maxHop = trainHopKm
		speed = trainSpeedKmh
	}

	for i := range stations {
		for j := i + 1; j < len(stations); j++ {
			d := geo.HaversineKm(stations[i].Lat, stations[i].Lon, stations[j].Lat, stations[j].Lon)
			if d <= 0 || d > maxHop {
				continue
			}
			timeMin := d / speed * 60
			g.Adj[i] = append(g.Adj[i], models.GraphEdge{From: i, To: j, DistanceKm: d, TimeMin: timeMin, Mode: mode})
			g.Adj[j] = append(g.Adj[j], models.GraphEdge{From: j, To: i, DistanceKm: d, TimeMin: timeMin, Mode: mode})
		}
	}

	return g, nil
}

func endpointDistKm(st, start, end models.Station) float64 {
	return math.Min(
		geo.HaversineKm(st.Lat, st.Lon, start.Lat, start.Lon),
		geo.HaversineKm(st.Lat, st.Lon, end.Lat, end.Lon),
	)
}

func sameStation(a, b models.Station) bool {
	if a.ID != 0 && a.ID == b.ID {
		return true
	}
	return math.Abs(a.Lat-b.Lat) < 1e-6 && math.Abs(a.Lon-b.Lon) < 1e-6
}

func ensureIncluded(stations []models.Station, st models.Station) []models.Station {
	for _, s := range stations {
		if sameStation(s, st) {
			return stations
		}
	}
	return append(stations, st)
}
