// ============================================================================
// Leg Synthesizer - Velora
// ============================================================================
// Convierte waypoints en legs con duración, tarifa, horarios e
// instrucciones. Velocidades y tarifas son los valores de operación en
// India; los layovers llevan jitter sembrado para no producir horarios
// sospechosamente redondos.
// ============================================================================

package planner

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/yourorg/velora/internal/geo"
	"github.com/yourorg/velora/internal/models"
	"github.com/yourorg/velora/internal/traffic"
)

// Velocidades de crucero por modo (km/h) y duraciones mínimas (min)
const (
	walkSpeedKmh   = 4.5
	taxiSpeedKmh   = 28.0
	busSpeedKmh    = 38.0
	trainSpeedKmh  = 70.0
	flightSpeedKmh = 700.0
	carSpeedKmh    = 48.0

	walkMinMin = 5
	taxiMinMin = 12

	busStopPauseMinPer15Km = 5
	flightGroundMin        = 45

	notifyRadiusM = 300
)

// Tarifas (₹)
const (
	taxiBaseFare  = 30.0
	taxiPerKm     = 20.0
	busBaseFare   = 10.0
	busPerKm      = 2.0
	trainBaseFare = 50.0
	trainPerKm    = 0.5
	flightPerKm   = 4.5
	carOwnPerKm   = 8.0
	carTaxiPerKm  = 15.0
)

type legBuilder struct {
	rng *rand.Rand
	ops *operatorResolver
	est *traffic.Estimator // puede ser nil
}

func newLegBuilder(rng *rand.Rand, ops *operatorResolver, est *traffic.Estimator) *legBuilder {
	return &legBuilder{rng: rng, ops: ops, est: est}
}

// legSpec describe el leg a sintetizar
type legSpec struct {
	Mode         string
	FromName     string
	ToName       string
	From         models.Coordinate
	To           models.Coordinate
	DepartMin    int // minutos desde medianoche
	OperatorName string
	Synthetic    bool
	Polyline     []models.Coordinate
	FarePerKm    float64 // >0 reemplaza la tarifa estándar (cadena estricta)
	OwnVehicle   bool    // solo modo car
}

// build sintetiza el leg completo. Valida los invariantes antes de
// entregarlo: el planner nunca encadena un leg malformado.
func (b *legBuilder) build(spec legSpec) (models.Leg, error) {
	if spec.FromName == "" || spec.ToName == "" {
		return models.Leg{}, fmt.Errorf("leg %s sin nombres de extremos", spec.Mode)
	}
	if spec.From.Lat == 0 && spec.From.Lon == 0 || spec.To.Lat == 0 && spec.To.Lon == 0 {
		return models.Leg{}, fmt.Errorf("leg %s sin coordenadas", spec.Mode)
	}

	distKm := geo.HaversineKm(spec.From.Lat, spec.From.Lon, spec.To.Lat, spec.To.Lon)
	if len(spec.Polyline) >= 2 {
		pts := make([]geo.Point, len(spec.Polyline))
		for i, c := range spec.Polyline {
			pts[i] = geo.Point{Lat: c.Lat, Lon: c.Lon}
		}
		distKm = geo.PolylineLengthKm(pts)
	}

	durMin := b.duration(spec.Mode, distKm)
	fare := b.fare(spec, distKm)
	if fare < 0 || durMin <= 0 {
		return models.Leg{}, fmt.Errorf("leg %s con tarifa %.2f o duración %.1f inválida", spec.Mode, fare, durMin)
	}

	leg := models.Leg{
		Mode:         spec.Mode,
		OperatorName: spec.OperatorName,
		OperatorType: operatorTypeFor(spec.OperatorName),
		From:         spec.FromName,
		To:           spec.ToName,
		FromLat:      spec.From.Lat,
		FromLon:      spec.From.Lon,
		ToLat:        spec.To.Lat,
		ToLon:        spec.To.Lon,
		Fare:         math.Round(fare),
		DistanceKm:   math.Round(distKm*10) / 10,
		Polyline:     spec.Polyline,
		Synthetic:    spec.Synthetic,
	}

	// Tráfico solo en legs por carretera
	if b.est != nil && isRoadMode(spec.Mode) {
		poly := spec.Polyline
		if len(poly) < 2 {
			poly = []models.Coordinate{spec.From, spec.To}
		}
		delayMin, severity := b.est.LegTraffic(spec.FromName, spec.ToName, poly, int(durMin*60), clockHour(spec.DepartMin))
		if delayMin > 0 {
			durMin += delayMin
			leg.TrafficDelayMin = math.Round(delayMin)
			leg.TrafficSeverity = severity
		}
	}

	leg.DurationS = int(durMin * 60)
	leg.Departure = formatClock(spec.DepartMin)
	leg.Arrival = formatClock(spec.DepartMin + int(durMin))
	leg.Instructions = b.instructions(leg)

	return leg, nil
}

// duration calcula los minutos de viaje del modo para una distancia
func (b *legBuilder) duration(mode string, distKm float64) float64 {
	switch mode {
	case models.ModeWalk:
		return math.Max(walkMinMin, distKm/walkSpeedKmh*60)
	case models.ModeTaxi:
		return math.Max(taxiMinMin, distKm/taxiSpeedKmh*60)
	case models.ModeBus:
		pauses := math.Floor(distKm/15) * busStopPauseMinPer15Km
		return distKm/busSpeedKmh*60 + pauses
	case models.ModeTrain:
		return distKm / trainSpeedKmh * 60
	case models.ModeFlight:
		return distKm/flightSpeedKmh*60 + flightGroundMin
	case models.ModeCar:
		return distKm / carSpeedKmh * 60
	}
	return 0
}

func (b *legBuilder) fare(spec legSpec, distKm float64) float64 {
	if spec.FarePerKm > 0 {
		// Tarifa por km con ±10% de jitter (cadenas estrictas)
		return spec.FarePerKm * distKm * (1 + (b.rng.Float64()*0.2 - 0.1))
	}

	switch spec.Mode {
	case models.ModeWalk:
		return 0
	case models.ModeTaxi:
		return taxiBaseFare + taxiPerKm*distKm
	case models.ModeBus:
		return math.Max(busBaseFare, busBaseFare+busPerKm*distKm)
	case models.ModeTrain:
		return math.Max(trainBaseFare, trainBaseFare+trainPerKm*distKm)
	case models.ModeFlight:
		return flightPerKm * distKm
	case models.ModeCar:
		if spec.OwnVehicle {
			return carOwnPerKm * distKm
		}
		return carTaxiPerKm * distKm
	}
	return 0
}

// instructions genera los pasos de navegación de un leg
func (b *legBuilder) instructions(leg models.Leg) []models.Instruction {
	var boardText, alightText string
	switch leg.Mode {
	case models.ModeWalk:
		boardText = fmt.Sprintf("Walk towards %s", leg.To)
		alightText = fmt.Sprintf("You have reached %s", leg.To)
	case models.ModeTaxi:
		boardText = fmt.Sprintf("Take a taxi from %s to %s", leg.From, leg.To)
		alightText = fmt.Sprintf("Get off at %s", leg.To)
	case models.ModeBus:
		boardText = fmt.Sprintf("Board the %s bus at %s", leg.OperatorName, leg.From)
		alightText = fmt.Sprintf("Alight at %s", leg.To)
	case models.ModeTrain:
		boardText = fmt.Sprintf("Board the %s train at %s", leg.OperatorName, leg.From)
		alightText = fmt.Sprintf("Alight at %s", leg.To)
	case models.ModeFlight:
		boardText = fmt.Sprintf("Board %s flight at %s", leg.OperatorName, leg.From)
		alightText = fmt.Sprintf("Land at %s", leg.To)
	case models.ModeCar:
		boardText = fmt.Sprintf("Drive from %s towards %s", leg.From, leg.To)
		alightText = fmt.Sprintf("You have arrived at %s", leg.To)
	}

	return []models.Instruction{
		{
			StepID:      uuid.NewString(),
			Mode:        leg.Mode,
			Text:        boardText,
			Lat:         leg.FromLat,
			Lon:         leg.FromLon,
			NotifyWhenM: notifyRadiusM,
			DistanceM:   leg.DistanceKm * 1000,
			DurationS:   leg.DurationS,
			Maneuver:    "depart",
		},
		{
			StepID:      uuid.NewString(),
			Mode:        leg.Mode,
			Text:        alightText,
			Lat:         leg.ToLat,
			Lon:         leg.ToLon,
			NotifyWhenM: notifyRadiusM,
			Maneuver:    "arrive",
		},
	}
}

// Layovers con jitter sembrado (minutos)

func (b *legBuilder) busTransferLayoverMin() int { return b.randRange(8, 12) }
func (b *legBuilder) busStopLayoverMin() int     { return b.randRange(10, 15) }
func (b *legBuilder) railEntryLayoverMin() int   { return b.randRange(10, 25) }
func (b *legBuilder) flightCheckInLayoverMin() int {
	return b.randRange(75, 105) + b.randRange(25, 40)
}

func (b *legBuilder) randRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + b.rng.Intn(hi-lo+1)
}

func isRoadMode(mode string) bool {
	return mode == models.ModeCar || mode == models.ModeTaxi || mode == models.ModeBus
}

// operatorTypeFor clasifica el operador del leg; sin operador no hay tipo
func operatorTypeFor(name string) string {
	if name == "" {
		return ""
	}
	return InferOperatorType(name)
}
