package graph

import (
	"testing"

	"github.com/yourorg/velora/internal/models"
	"github.com/yourorg/velora/internal/station"
)

// Corredor Kochi → Trivandrum (sur franco, rumbo ~160°)
var (
	kochi      = models.Station{ID: 1, Name: "Kochi KSRTC", Type: models.StationBus, Lat: 9.9312, Lon: 76.2673}
	alappuzha  = models.Station{ID: 2, Name: "Alappuzha", Type: models.StationBus, Lat: 9.4981, Lon: 76.3388}
	kayamkulam = models.Station{ID: 3, Name: "Kayamkulam", Type: models.StationBus, Lat: 9.1748, Lon: 76.5013}
	kollam     = models.Station{ID: 4, Name: "Kollam", Type: models.StationBus, Lat: 8.8932, Lon: 76.6141}
	attingal   = models.Station{ID: 5, Name: "Attingal", Type: models.StationBus, Lat: 8.6967, Lon: 76.8156}
	trivandrum = models.Station{ID: 6, Name: "Trivandrum Central", Type: models.StationBus, Lat: 8.5241, Lon: 76.9366}
	// Señuelo hacia el este, fuera del rumbo del corredor
	munnar = models.Station{ID: 7, Name: "Munnar", Type: models.StationBus, Lat: 10.0889, Lon: 77.0595}
)

func corridorStore() station.Store {
	return station.NewMemoryStore([]models.Station{kochi, alappuzha, kayamkulam, kollam, attingal, trivandrum, munnar})
}

func TestBuildGraph(t *testing.T) {
	g, err := Build(corridorStore(), models.StationBus, kochi, trivandrum)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if g.StartID < 0 || g.EndID < 0 {
		t.Fatalf("extremos no mapeados: start=%d end=%d", g.StartID, g.EndID)
	}
	if len(g.Nodes) < 4 {
		t.Errorf("nodos = %d, esperado al menos las 4 estaciones del corredor", len(g.Nodes))
	}

	// Kochi–Trivandrum directo son ~175 km: no debe existir esa arista
	for _, e := range g.Adj[g.StartID] {
		if e.To == g.EndID {
			t.Errorf("arista directa de %0.f km supera el salto máximo de bus", e.DistanceKm)
		}
	}
}

func TestBuildSparseGraph(t *testing.T) {
	store := station.NewMemoryStore(nil)
	lone := models.Station{ID: 9, Name: "Solo", Type: models.StationBus, Lat: 9.9, Lon: 76.3}
	if _, err := Build(store, models.StationBus, lone, lone); err != ErrSparseGraph {
		t.Errorf("err = %v, esperado ErrSparseGraph", err)
	}
}

func TestShortestPathFollowsCorridor(t *testing.T) {
	g, err := Build(corridorStore(), models.StationBus, kochi, trivandrum)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	path := g.ShortestPath()
	if path == nil {
		t.Fatal("sin camino en un corredor encadenable")
	}

	if path[0].Name != kochi.Name || path[len(path)-1].Name != trivandrum.Name {
		t.Fatalf("extremos incorrectos: %s → %s", path[0].Name, path[len(path)-1].Name)
	}

	// El señuelo hacia el este se desvía >30° del rumbo y debe podarse
	for _, n := range path {
		if n.Name == munnar.Name {
			t.Error("el camino incluyó el señuelo fuera del corredor")
		}
	}

	if len(path) < 3 {
		t.Errorf("camino de %d nodos, esperado encadenado con intermedias", len(path))
	}
}

func TestShortestPathUnreachable(t *testing.T) {
	// Dos estaciones a más de 50 km sin intermedias: sin aristas
	store := station.NewMemoryStore([]models.Station{kochi, trivandrum})
	g, err := Build(store, models.StationBus, kochi, trivandrum)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if path := g.ShortestPath(); path != nil {
		t.Errorf("camino = %v, esperado nil sin conectividad", path)
	}
}

func TestTruncateHops(t *testing.T) {
	var long []models.GraphNode
	for i := 0; i < 12; i++ {
		long = append(long, models.GraphNode{ID: i})
	}

	got := truncateHops(long)
	if len(got) != maxHops+1 {
		t.Fatalf("len = %d, esperado %d", len(got), maxHops+1)
	}
	if got[0].ID != 0 {
		t.Error("truncado perdió el origen")
	}
	if got[len(got)-1].ID != 11 {
		t.Error("truncado perdió el destino")
	}

	short := long[:4]
	if len(truncateHops(short)) != 4 {
		t.Error("camino corto no debe truncarse")
	}
}
