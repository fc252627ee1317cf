// ============================================================================
// Corridor Selector - Velora
// ============================================================================
// Selección de la cadena de paradas de un viaje en bus. Tres estrategias
// en escalera, de más informada a más sintética:
//   1. graph     - camino por el grafo de estaciones del corredor
//   2. corridor  - avance por progreso sobre la línea origen-destino
//   3. synthetic - waypoints geocodificados inversamente, siempre resuelve
// La primera estrategia que produce cadena gana.
// ============================================================================

package corridor

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/yourorg/velora/internal/cache"
	"github.com/yourorg/velora/internal/geo"
	"github.com/yourorg/velora/internal/graph"
	"github.com/yourorg/velora/internal/models"
	"github.com/yourorg/velora/internal/station"
)

const (
	snapChainKm  = 5.0  // radio de anclaje de extremos para la cadena por grafo
	snapStrictKm = 12.0 // radio de anclaje para la cadena por corredor
	maxWalkKm    = 3.0  // caminata máxima aceptable hasta la primera parada

	corridorRadiusKm = 18.0 // distancia máxima de una parada a la línea o-d
	minProgress      = 0.01
	maxProgress      = 0.99

	minSpacingKm     = 15.0 // separación mínima entre paradas consecutivas
	maxDetourFactor  = 1.15 // distancia acumulada sobre la directa
	maxIntermediates = 5
	maxGapKm         = 25.0 // hueco que dispara un waypoint intermedio
)

// Waypoint es una parada de la cadena, real o sintética
type Waypoint struct {
	Name      string
	Lat       float64
	Lon       float64
	Synthetic bool
}

// ReverseGeocoder da nombre a coordenadas sin estación cercana
type ReverseGeocoder interface {
	ReverseGeocode(p models.Coordinate) (string, error)
}

// StopInferrer sugiere paradas intermedias cuando no hay datos de
// estaciones. Puede ser nil.
type StopInferrer interface {
	GenerateJSON(prompt string, out any) error
}

// RouteStrategy produce una cadena de paradas entre dos puntos
type RouteStrategy interface {
	Name() string
	BuildChain(origin, dest models.Coordinate, originName, destName string) ([]Waypoint, bool)
}

// Selector recorre la escalera de estrategias
type Selector struct {
	strategies []RouteStrategy
}

// NewSelector arma la escalera graph → corridor → synthetic
func NewSelector(store station.Store, rev ReverseGeocoder, ai StopInferrer) *Selector {
	return &Selector{
		strategies: []RouteStrategy{
			&graphStrategy{store: store},
			&corridorStrategy{store: store, rev: rev},
			newSyntheticStrategy(rev, ai),
		},
	}
}

// BuildChain devuelve la cadena y el nombre de la estrategia que la produjo
func (s *Selector) BuildChain(origin, dest models.Coordinate, originName, destName string) ([]Waypoint, string) {
	for _, strat := range s.strategies {
		if chain, ok := strat.BuildChain(origin, dest, originName, destName); ok {
			log.Printf("[Corridor] cadena por estrategia %s: %d paradas", strat.Name(), len(chain))
			return chain, strat.Name()
		}
	}
	// syntheticStrategy nunca falla; esto es inalcanzable
	return nil, ""
}

// ============================================================================
// ESTRATEGIA 1: GRAFO
// ============================================================================

type graphStrategy struct {
	store station.Store
}

func (g *graphStrategy) Name() string { return "graph" }

func (g *graphStrategy) BuildChain(origin, dest models.Coordinate, originName, destName string) ([]Waypoint, bool) {
	start, err := g.store.Nearest(models.StationBus, origin, snapChainKm)
	if err != nil || start == nil {
		return nil, false
	}
	end, err := g.store.Nearest(models.StationBus, dest, snapChainKm)
	if err != nil || end == nil {
		return nil, false
	}

	// Caminata de acceso demasiado larga: esta estrategia no aplica
	if geo.HaversineKm(origin.Lat, origin.Lon, start.Lat, start.Lon) > maxWalkKm {
		return nil, false
	}
	if geo.HaversineKm(dest.Lat, dest.Lon, end.Lat, end.Lon) > maxWalkKm {
		return nil, false
	}

	gr, err := graph.Build(g.store, models.StationBus, *start, *end)
	if err != nil {
		return nil, false
	}

	path := gr.ShortestPath()
	if len(path) < 2 {
		return nil, false
	}

	chain := make([]Waypoint, len(path))
	for i, n := range path {
		chain[i] = Waypoint{Name: n.Name, Lat: n.Lat, Lon: n.Lon}
	}
	return chain, true
}

// ============================================================================
// ESTRATEGIA 2: CORREDOR POR PROGRESO
// ============================================================================

type corridorStrategy struct {
	store station.Store
	rev   ReverseGeocoder
}

func (c *corridorStrategy) Name() string { return "corridor" }

type corridorCandidate struct {
	st       models.Station
	progress float64
}

func (c *corridorStrategy) BuildChain(origin, dest models.Coordinate, originName, destName string) ([]Waypoint, bool) {
	start, startReal := c.snapOrSynthesize(origin, originName)
	end, endReal := c.snapOrSynthesize(dest, destName)

	directKm := geo.HaversineKm(start.Lat, start.Lon, end.Lat, end.Lon)
	if directKm <= 0 {
		return nil, false
	}

	cands, err := c.corridorCandidates(start, end)
	if err != nil {
		log.Printf("[Corridor] candidatos no disponibles: %v", err)
		cands = nil
	}

	// Sin ninguna parada real el corredor no aporta nada sobre la
	// estrategia sintética: que resuelva ella
	if !startReal && !endReal && len(cands) == 0 {
		return nil, false
	}

	chain := []Waypoint{start}
	last := start
	lastProgress := 0.0
	cumulative := 0.0

	for _, cand := range cands {
		if len(chain)-1 >= maxIntermediates {
			break
		}
		// Solo avance: el progreso debe crecer estrictamente
		if cand.progress <= lastProgress {
			continue
		}
		hop := geo.HaversineKm(last.Lat, last.Lon, cand.st.Lat, cand.st.Lon)
		if hop < minSpacingKm {
			continue
		}
		tailKm := geo.HaversineKm(cand.st.Lat, cand.st.Lon, end.Lat, end.Lon)
		// El tramo final también respeta la separación mínima
		if tailKm < minSpacingKm {
			continue
		}
		if cumulative+hop+tailKm > maxDetourFactor*directKm {
			continue
		}

		wp := Waypoint{Name: cand.st.Name, Lat: cand.st.Lat, Lon: cand.st.Lon}
		chain = append(chain, wp)
		last = wp
		lastProgress = cand.progress
		cumulative += hop
	}

	chain = append(chain, end)
	chain = c.fillGaps(chain)

	// Garantizar al menos una parada intermedia
	if len(chain) < 3 {
		mid := models.Coordinate{Lat: (start.Lat + end.Lat) / 2, Lon: (start.Lon + end.Lon) / 2}
		chain = []Waypoint{start, c.synthesize(mid), end}
	}

	return chain, true
}

// snapOrSynthesize ancla un extremo a la parada real más cercana, o crea
// un waypoint sintético con nombre geocodificado. El booleano indica si
// el anclaje fue a una parada real.
func (c *corridorStrategy) snapOrSynthesize(p models.Coordinate, name string) (Waypoint, bool) {
	if st, err := c.store.Nearest(models.StationBus, p, snapStrictKm); err == nil && st != nil {
		return Waypoint{Name: st.Name, Lat: st.Lat, Lon: st.Lon}, true
	}
	wp := c.synthesize(p)
	if name != "" {
		wp.Name = name
	}
	return wp, false
}

func (c *corridorStrategy) synthesize(p models.Coordinate) Waypoint {
	return synthesizeWaypoint(c.rev, p)
}

// corridorCandidates filtra las estaciones de la caja a las que caen cerca
// de la línea o-d con progreso interior, ordenadas por progreso
func (c *corridorStrategy) corridorCandidates(start, end Waypoint) ([]corridorCandidate, error) {
	box := station.BoundingBox{
		MinLat: minF(start.Lat, end.Lat) - 0.25,
		MaxLat: maxF(start.Lat, end.Lat) + 0.25,
		MinLon: minF(start.Lon, end.Lon) - 0.25,
		MaxLon: maxF(start.Lon, end.Lon) + 0.25,
	}

	raw, err := c.store.InBoundingBox(models.StationBus, box,
		models.Coordinate{Lat: start.Lat, Lon: start.Lon}, 300)
	if err != nil {
		return nil, err
	}

	line := []geo.Point{{Lat: start.Lat, Lon: start.Lon}, {Lat: end.Lat, Lon: end.Lon}}

	var cands []corridorCandidate
	for _, st := range raw {
		dist, progress := geo.PolylineProgress(st.Lat, st.Lon, line)
		if dist > corridorRadiusKm {
			continue
		}
		if progress <= minProgress || progress >= maxProgress {
			continue
		}
		cands = append(cands, corridorCandidate{st: st, progress: progress})
	}

	sort.Slice(cands, func(i, j int) bool { return cands[i].progress < cands[j].progress })
	return cands, nil
}

// fillGaps inserta un waypoint en huecos mayores a maxGapKm: primero busca
// una estación real cerca del punto medio, si no hay sintetiza una.
// Solo parte huecos cuyas mitades respetan la separación mínima: un
// hueco de 26 km se queda como está antes que crear paradas a 13 km.
func (c *corridorStrategy) fillGaps(chain []Waypoint) []Waypoint {
	out := make([]Waypoint, 0, len(chain))
	for i, wp := range chain {
		if i > 0 {
			prev := out[len(out)-1]
			gap := geo.HaversineKm(prev.Lat, prev.Lon, wp.Lat, wp.Lon)
			if gap > maxGapKm && gap >= 2*minSpacingKm {
				mid := models.Coordinate{Lat: (prev.Lat + wp.Lat) / 2, Lon: (prev.Lon + wp.Lon) / 2}
				if st, err := c.store.Nearest(models.StationBus, mid, 10); err == nil && st != nil &&
					geo.HaversineKm(prev.Lat, prev.Lon, st.Lat, st.Lon) >= minSpacingKm &&
					geo.HaversineKm(st.Lat, st.Lon, wp.Lat, wp.Lon) >= minSpacingKm {
					out = append(out, Waypoint{Name: st.Name, Lat: st.Lat, Lon: st.Lon})
				} else {
					out = append(out, c.synthesize(mid))
				}
			}
		}
		out = append(out, wp)
	}
	return out
}

// ============================================================================
// ESTRATEGIA 3: SINTÉTICA
// ============================================================================

type syntheticStrategy struct {
	rev   ReverseGeocoder
	ai    StopInferrer
	stops *cache.Cache[cache.StopInferenceKey, []Waypoint]
}

func newSyntheticStrategy(rev ReverseGeocoder, ai StopInferrer) *syntheticStrategy {
	return &syntheticStrategy{
		rev:   rev,
		ai:    ai,
		stops: cache.New[cache.StopInferenceKey, []Waypoint](24*time.Hour, time.Hour),
	}
}

func (s *syntheticStrategy) Name() string { return "synthetic" }

func (s *syntheticStrategy) BuildChain(origin, dest models.Coordinate, originName, destName string) ([]Waypoint, bool) {
	start := synthesizeWaypoint(s.rev, origin)
	if originName != "" {
		start.Name = originName
		start.Synthetic = true
	}
	end := synthesizeWaypoint(s.rev, dest)
	if destName != "" {
		end.Name = destName
		end.Synthetic = true
	}

	if mids := s.inferStops(origin, dest, start.Name, end.Name); len(mids) > 0 {
		chain := append([]Waypoint{start}, mids...)
		return append(chain, end), true
	}

	mid := models.Coordinate{Lat: (origin.Lat + dest.Lat) / 2, Lon: (origin.Lon + dest.Lon) / 2}
	return []Waypoint{start, synthesizeWaypoint(s.rev, mid), end}, true
}

// inferStops pide a la IA hasta 3 paradas intermedias plausibles para un
// corredor sin estaciones, con caché por par de extremos y día. Las
// sugerencias fuera del corredor o sin avance se descartan.
func (s *syntheticStrategy) inferStops(origin, dest models.Coordinate, originName, destName string) []Waypoint {
	if s.ai == nil {
		return nil
	}

	key := cache.StopInferenceKey{
		OriginHash: cache.HashCoord(origin.Lat, origin.Lon),
		DestHash:   cache.HashCoord(dest.Lat, dest.Lon),
		DayBucket:  time.Now().Format("2006-01-02"),
	}
	if wps, found := s.stops.Get(key); found {
		return wps
	}

	var out struct {
		Stops []struct {
			Name string  `json:"name"`
			Lat  float64 `json:"lat"`
			Lon  float64 `json:"lon"`
		} `json:"stops"`
	}
	prompt := fmt.Sprintf(
		`Suggest up to 3 bus stops between %s (%.4f,%.4f) and %s (%.4f,%.4f) in India, ordered along the route. Return {"stops": [{"name": "...", "lat": <lat>, "lon": <lon>}]}.`,
		originName, origin.Lat, origin.Lon, destName, dest.Lat, dest.Lon)
	if err := s.ai.GenerateJSON(prompt, &out); err != nil {
		log.Printf("[Corridor] inferencia de paradas falló: %v", err)
		return nil
	}

	line := []geo.Point{{Lat: origin.Lat, Lon: origin.Lon}, {Lat: dest.Lat, Lon: dest.Lon}}
	var wps []Waypoint
	lastProgress := 0.0
	for _, st := range out.Stops {
		if len(wps) == 3 {
			break
		}
		if st.Name == "" || st.Lat == 0 && st.Lon == 0 {
			continue
		}
		dist, progress := geo.PolylineProgress(st.Lat, st.Lon, line)
		if dist > corridorRadiusKm {
			continue
		}
		if progress <= minProgress || progress >= maxProgress || progress <= lastProgress {
			continue
		}
		wps = append(wps, Waypoint{Name: st.Name, Lat: st.Lat, Lon: st.Lon, Synthetic: true})
		lastProgress = progress
	}

	if len(wps) > 0 {
		s.stops.Set(key, wps)
	}
	return wps
}

// synthesizeWaypoint crea un waypoint "Near <localidad>" por geocodificación
// inversa, con fallback a coordenadas crudas
func synthesizeWaypoint(rev ReverseGeocoder, p models.Coordinate) Waypoint {
	name := fmt.Sprintf("Point %.3f,%.3f", p.Lat, p.Lon)
	if rev != nil {
		if town, err := rev.ReverseGeocode(p); err == nil && town != "" {
			name = "Near " + town
		}
	}
	return Waypoint{Name: name, Lat: p.Lat, Lon: p.Lon, Synthetic: true}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
