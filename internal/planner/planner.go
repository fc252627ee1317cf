// ============================================================================
// Trip Planner - Velora
// ============================================================================
// Orquestación: decide qué modos aplican a la distancia del viaje,
// construye un candidato por modo, los puntúa y arma el resultado final.
// Cada request es single-threaded; el único estado compartido son las
// cachés internas de los colaboradores.
// ============================================================================

package planner

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/velora/internal/cache"
	"github.com/yourorg/velora/internal/corridor"
	"github.com/yourorg/velora/internal/geo"
	"github.com/yourorg/velora/internal/models"
	"github.com/yourorg/velora/internal/station"
	"github.com/yourorg/velora/internal/tomtom"
	"github.com/yourorg/velora/internal/traffic"
)

// ErrUnresolvedLocation indica origen o destino sin resolver
var ErrUnresolvedLocation = errors.New("origen o destino no resuelto")

// Umbrales de aplicabilidad por modo (km)
const (
	driveMaxKm  = 500.0
	busMaxKm    = 300.0
	trainMinKm  = 100.0
	trainMaxKm  = 2000.0
	flightMinKm = 400.0
	comboMinKm  = 150.0
	comboMaxKm  = 800.0

	railSnapKm    = 30.0
	airportSnapKm = 150.0

	walkAccessKm = 2.0 // acceso a pie; más lejos va en taxi

	comboBufferMin = 30

	hotelRadiusKm = 10.0
	hotelLimit    = 5
)

// Router calcula rutas por carretera y nombra coordenadas
type Router interface {
	RoutePoints(origin, dest models.Coordinate) (*tomtom.RouteSummary, error)
	ReverseGeocode(p models.Coordinate) (string, error)
}

// HotelStore consulta alojamiento cerca del destino. Puede ser nil.
type HotelStore interface {
	HotelsNear(p models.Coordinate, radiusKm float64, limit int) ([]models.Hotel, error)
}

// Options configura el planner
type Options struct {
	Store     station.Store
	Operators OperatorStore
	Hotels    HotelStore
	Router    Router
	AI        AIInferrer
	Estimator *traffic.Estimator
	Seed      int64
	Now       func() time.Time
}

// Planner arma y puntúa alternativas de viaje multimodales
type Planner struct {
	store      station.Store
	router     Router
	est        *traffic.Estimator
	ai         AIInferrer
	selector   *corridor.Selector
	legs       *legBuilder
	ops        *operatorResolver
	hotels     HotelStore
	hotelCache *cache.Cache[cache.HotelCityKey, []models.Hotel]
	rng        *rand.Rand
	now        func() time.Time
}

// New crea el planner. Seed fija el jitter de layovers y tarifas.
func New(opts Options) *Planner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	ops := newOperatorResolver(opts.Operators, opts.AI)

	var rev corridor.ReverseGeocoder
	if opts.Router != nil {
		rev = routerGeocoder{opts.Router}
	}

	return &Planner{
		store:      opts.Store,
		router:     opts.Router,
		est:        opts.Estimator,
		ai:         opts.AI,
		selector:   corridor.NewSelector(opts.Store, rev, opts.AI),
		legs:       newLegBuilder(rng, ops, opts.Estimator),
		ops:        ops,
		hotels:     opts.Hotels,
		hotelCache: cache.New[cache.HotelCityKey, []models.Hotel](24*time.Hour, time.Hour),
		rng:        rng,
		now:        opts.Now,
	}
}

// OperatorCacheStats expone el estado del caché de operadores
func (p *Planner) OperatorCacheStats() cache.Stats {
	return p.ops.cache.GetStats()
}

type routerGeocoder struct{ r Router }

func (g routerGeocoder) ReverseGeocode(p models.Coordinate) (string, error) {
	return g.r.ReverseGeocode(p)
}

// Plan ejecuta la planificación completa de un request
func (p *Planner) Plan(req models.PlanRequest) (models.PlanningResult, error) {
	if req.Origin.Lat == 0 && req.Origin.Lon == 0 || req.Destination.Lat == 0 && req.Destination.Lon == 0 {
		return models.PlanningResult{}, ErrUnresolvedLocation
	}

	directKm := geo.HaversineKm(req.Origin.Lat, req.Origin.Lon, req.Destination.Lat, req.Destination.Lon)
	if directKm < 0.1 {
		return models.PlanningResult{}, fmt.Errorf("%w: origen y destino coinciden", ErrUnresolvedLocation)
	}

	departMin, err := p.departureMinutes(req)
	if err != nil {
		return models.PlanningResult{}, err
	}
	if req.Deadline != "" {
		if _, err := parseClock(req.Deadline); err != nil {
			return models.PlanningResult{}, err
		}
	}

	modes := applicableModes(directKm, req.HasVehicle)
	if req.Mode != "" && req.Mode != "auto" {
		modes = filterMode(modes, req.Mode)
	}
	log.Printf("[Planner] viaje de %.0f km, modos aplicables: %v", directKm, modes)

	var candidates []models.Candidate
	for _, mode := range modes {
		cand, err := p.buildCandidate(mode, req, departMin)
		if err != nil {
			log.Printf("[Planner] modo %s descartado: %v", mode, err)
			continue
		}
		candidates = append(candidates, cand)
	}

	if req.Deadline != "" {
		candidates = p.planBackward(req, candidates)
	}

	if len(candidates) == 0 {
		return noOptionsResult(req), nil
	}

	result := p.score(req, candidates)
	result.PlanID = uuid.NewString()

	if req.Deadline == "" {
		p.attachExtras(&result, req, departMin)
	} else {
		p.attachExtras(&result, req, 0)
	}

	return result, nil
}

// buildCandidate despacha al builder del modo
func (p *Planner) buildCandidate(mode string, req models.PlanRequest, departMin int) (models.Candidate, error) {
	switch mode {
	case "drive":
		return p.buildDrive(req, departMin)
	case "bus":
		return p.buildBus(req, departMin)
	case "train":
		return p.buildTrain(req, departMin)
	case "flight":
		return p.buildFlight(req, departMin)
	case "combo":
		return p.buildCombo(req, departMin)
	}
	return models.Candidate{}, fmt.Errorf("modo desconocido %q", mode)
}

// departureMinutes resuelve la hora de salida del request
func (p *Planner) departureMinutes(req models.PlanRequest) (int, error) {
	if req.DepartureTime != "" {
		return parseClock(req.DepartureTime)
	}
	now := p.now()
	return now.Hour()*60 + now.Minute(), nil
}

// applicableModes decide qué modos tienen sentido para la distancia
func applicableModes(distKm float64, hasVehicle bool) []string {
	var modes []string
	if hasVehicle || distKm < driveMaxKm {
		modes = append(modes, "drive")
	}
	if distKm < busMaxKm {
		modes = append(modes, "bus")
	}
	if distKm >= trainMinKm && distKm <= trainMaxKm {
		modes = append(modes, "train")
	}
	if distKm >= flightMinKm {
		modes = append(modes, "flight")
	}
	if distKm >= comboMinKm && distKm <= comboMaxKm {
		modes = append(modes, "combo")
	}
	return modes
}

// filterMode restringe a un modo pedido explícitamente. Un modo que la
// distancia descarta queda vacío y el plan termina en no_options.
func filterMode(modes []string, want string) []string {
	for _, m := range modes {
		if m == want {
			return []string{m}
		}
	}
	return nil
}

// attachExtras añade avisos de tráfico y hoteles al resultado
func (p *Planner) attachExtras(result *models.PlanningResult, req models.PlanRequest, departMin int) {
	hour := clockHour(departMin)
	if result.DepartureTime != "" {
		if m, err := parseClock(result.DepartureTime); err == nil {
			hour = clockHour(m)
		}
	}
	if result.Decision == "drive" {
		result.Warnings = traffic.Warnings(hour)
	}

	if p.hotels != nil {
		if hotels, err := p.hotels.HotelsNear(req.Destination, hotelRadiusKm, hotelLimit); err == nil && len(hotels) > 0 {
			result.Hotels = hotels
		} else if err == nil && p.ai != nil {
			result.Hotels = p.aiHotels(req)
		}
	}
}

// aiHotels pide sugerencias de alojamiento cuando la tabla está vacía,
// con caché diaria por ciudad
func (p *Planner) aiHotels(req models.PlanRequest) []models.Hotel {
	city := req.DestName
	if city == "" && p.router != nil {
		if name, err := p.router.ReverseGeocode(req.Destination); err == nil {
			city = name
		}
	}
	if city == "" {
		return nil
	}

	key := cache.HotelCityKey{City: strings.ToLower(strings.TrimSpace(city))}
	if hotels, found := p.hotelCache.Get(key); found {
		return hotels
	}

	var out struct {
		Hotels []struct {
			Name          string  `json:"name"`
			PricePerNight float64 `json:"price_per_night"`
			Rating        float64 `json:"rating"`
		} `json:"hotels"`
	}
	prompt := fmt.Sprintf(
		`List 3 mid-range hotels in %s, India. Return {"hotels": [{"name": "...", "price_per_night": <inr>, "rating": <1-5>}]}.`, city)
	if err := p.ai.GenerateJSON(prompt, &out); err != nil {
		log.Printf("[Planner] hoteles IA no disponibles para %s: %v", city, err)
		return nil
	}

	hotels := make([]models.Hotel, 0, len(out.Hotels))
	for _, h := range out.Hotels {
		hotels = append(hotels, models.Hotel{
			Name:          h.Name,
			City:          city,
			Lat:           req.Destination.Lat,
			Lon:           req.Destination.Lon,
			PricePerNight: h.PricePerNight,
			Rating:        h.Rating,
			Source:        "gemini",
		})
	}
	if len(hotels) > 0 {
		p.hotelCache.Set(key, hotels)
	}
	return hotels
}

// noOptionsResult es el resultado terminal sin alternativas
func noOptionsResult(req models.PlanRequest) models.PlanningResult {
	reason := "No viable mode of transport found for this trip"
	if req.Deadline != "" {
		reason = "Cannot reach the destination before the deadline by any mode"
	}
	return models.PlanningResult{
		PlanID:   uuid.NewString(),
		Decision: "no_options",
		Reason:   reason,
	}
}
