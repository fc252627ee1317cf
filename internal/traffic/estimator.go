// ============================================================================
// Traffic Estimator - Velora
// ============================================================================
// Estimación de congestión con degradación en tres niveles:
//   1. TomTom flow en el punto (dato real)
//   2. Modelo horario determinista con jitter sembrado
//   3. Gemini para rutas con nombre cuando no hay cobertura
// Nunca falla: el peor caso devuelve la estimación horaria.
// ============================================================================

package traffic

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/yourorg/velora/internal/cache"
	"github.com/yourorg/velora/internal/geo"
	"github.com/yourorg/velora/internal/models"
	"github.com/yourorg/velora/internal/tomtom"
)

const (
	multiplierMin = 0.8
	multiplierMax = 3.0

	chunkKm        = 3.0 // tamaño de tramo para muestrear una ruta
	maxFlowSamples = 20
	maxLegDelayMin = 180.0
)

// FlowProvider entrega mediciones de flujo en un punto
type FlowProvider interface {
	FlowPoint(p models.Coordinate) (*tomtom.FlowSample, error)
}

// AIEstimator genera estimaciones JSON cuando no hay datos de flujo
type AIEstimator interface {
	GenerateJSON(prompt string, out any) error
}

// Estimator combina las tres fuentes de estimación de tráfico
type Estimator struct {
	flow FlowProvider // puede ser nil
	ai   AIEstimator  // puede ser nil

	pointCache *cache.Cache[cache.TrafficPointKey, models.TrafficSample]
	routeCache *cache.Cache[cache.RouteHourKey, models.TrafficSample]

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEstimator crea un estimador. seed controla el jitter del modelo
// horario; el mismo seed reproduce las mismas estimaciones.
func NewEstimator(flow FlowProvider, ai AIEstimator, seed int64) *Estimator {
	return &Estimator{
		flow:       flow,
		ai:         ai,
		pointCache: cache.New[cache.TrafficPointKey, models.TrafficSample](10*time.Minute, 5*time.Minute),
		routeCache: cache.New[cache.RouteHourKey, models.TrafficSample](6*time.Hour, 30*time.Minute),
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// CacheStats expone el estado de los cachés internos para monitoreo
func (e *Estimator) CacheStats() map[string]cache.Stats {
	return map[string]cache.Stats{
		"traffic_points": e.pointCache.GetStats(),
		"traffic_routes": e.routeCache.GetStats(),
	}
}

// ClearCaches vacía los cachés de tráfico
func (e *Estimator) ClearCaches() {
	e.pointCache.Clear()
	e.routeCache.Clear()
}

// SampleAt estima la congestión en un punto a una hora dada.
// Prioridad: caché → TomTom flow → modelo horario.
func (e *Estimator) SampleAt(p models.Coordinate, hour int) models.TrafficSample {
	key := cache.PointKey(p.Lat, p.Lon)
	if s, found := e.pointCache.Get(key); found {
		return s
	}

	if s, ok := e.flowSample(p); ok {
		e.pointCache.Set(key, s)
		return s
	}

	return e.TimeOfDayEstimate(hour)
}

// flowSample consulta TomTom y convierte velocidades en multiplicador
func (e *Estimator) flowSample(p models.Coordinate) (models.TrafficSample, bool) {
	if e.flow == nil {
		return models.TrafficSample{}, false
	}

	f, err := e.flow.FlowPoint(p)
	if err != nil {
		log.Printf("[Traffic] flow no disponible en %.3f,%.3f: %v", p.Lat, p.Lon, err)
		return models.TrafficSample{}, false
	}
	if f.CurrentSpeed <= 0 || f.FreeFlowSpeed <= 0 {
		return models.TrafficSample{}, false
	}

	mult := clamp(f.FreeFlowSpeed/f.CurrentSpeed, multiplierMin, multiplierMax)

	return models.TrafficSample{
		Multiplier:    mult,
		Severity:      severityFromMultiplier(mult),
		CurrentSpeed:  f.CurrentSpeed,
		FreeFlowSpeed: f.FreeFlowSpeed,
		Confidence:    f.Confidence,
		Source:        models.SourceTomTom,
	}, true
}

// TimeOfDayEstimate es el modelo horario determinista. Las franjas punta
// y almuerzo llevan ±10% de jitter sembrado.
func (e *Estimator) TimeOfDayEstimate(hour int) models.TrafficSample {
	hour = ((hour % 24) + 24) % 24

	var mult float64
	var severity string
	jitter := false

	switch {
	case hour >= 7 && hour <= 10:
		mult, severity, jitter = 1.6, models.SeverityHigh, true
	case hour >= 17 && hour <= 20:
		mult, severity, jitter = 1.7, models.SeverityHigh, true
	case hour >= 12 && hour <= 14:
		mult, severity, jitter = 1.3, models.SeverityMedium, true
	case hour == 11 || hour == 15 || hour == 16:
		mult, severity = 1.2, models.SeverityMedium
	case hour >= 22 || hour <= 5:
		mult, severity = 0.85, models.SeverityLow
	default:
		mult, severity = 1.0+e.randFloat()*0.15, models.SeverityLow
	}

	if jitter {
		mult *= 1 + (e.randFloat()*0.2 - 0.1)
	}

	return models.TrafficSample{
		Multiplier: clamp(mult, multiplierMin, multiplierMax),
		Severity:   severity,
		Source:     models.SourceTimeBased,
	}
}

// RouteEstimate estima el retraso de una ruta con nombre vía Gemini,
// con caché por (origen, destino, hora). Sin IA cae al modelo horario.
func (e *Estimator) RouteEstimate(origin, dest string, hour int) models.TrafficSample {
	key := cache.RouteHourKey{Origin: origin, Dest: dest, Hour: hour}
	if s, found := e.routeCache.Get(key); found {
		return s
	}

	if e.ai != nil {
		prompt := fmt.Sprintf(
			`Estimate road traffic from %s to %s in India at %02d:00 local time. Return {"delay_min": <number>, "severity": "low"|"medium"|"high"}.`,
			origin, dest, hour)

		var out struct {
			DelayMin float64 `json:"delay_min"`
			Severity string  `json:"severity"`
		}
		if err := e.ai.GenerateJSON(prompt, &out); err == nil && out.DelayMin >= 0 {
			s := models.TrafficSample{
				DelayMin: out.DelayMin,
				Severity: normalizeSeverity(out.Severity, out.DelayMin),
				Source:   models.SourceGemini,
			}
			e.routeCache.Set(key, s)
			return s
		} else if err != nil {
			log.Printf("[Traffic] estimación IA falló para %s→%s: %v", origin, dest, err)
		}
	}

	s := e.TimeOfDayEstimate(hour)
	e.routeCache.Set(key, s)
	return s
}

// LegTraffic muestrea una geometría en tramos de ~3 km y acumula el
// retraso por tramo. La severidad del leg es la del peor tramo. Sin
// cobertura de flujo, una ruta con nombre pasa por RouteEstimate antes
// de caer al modelo horario.
func (e *Estimator) LegTraffic(origin, dest string, polyline []models.Coordinate, baseDurS int, hour int) (float64, string) {
	if len(polyline) < 2 || baseDurS <= 0 {
		return 0, models.SeverityNone
	}

	pts := make([]geo.Point, len(polyline))
	for i, c := range polyline {
		pts[i] = geo.Point{Lat: c.Lat, Lon: c.Lon}
	}

	totalKm := geo.PolylineLengthKm(pts)
	if totalKm <= 0 {
		return 0, models.SeverityNone
	}

	sampled := geo.SamplePolylineKm(pts, chunkKm)

	var delayMin float64
	worst := models.SeverityNone
	samplesTaken := 0

	for i := 0; i+1 < len(sampled); i++ {
		if samplesTaken >= maxFlowSamples {
			// resto de la geometría sin muestrear
			break
		}

		a, b := sampled[i], sampled[i+1]
		mid := models.Coordinate{Lat: (a.Lat + b.Lat) / 2, Lon: (a.Lon + b.Lon) / 2}
		chunkLenKm := geo.HaversineKm(a.Lat, a.Lon, b.Lat, b.Lon)
		chunkBaseS := float64(baseDurS) * (chunkLenKm / totalKm)

		s, ok := e.flowSample(mid)
		samplesTaken++
		if !ok {
			continue
		}

		if s.CurrentSpeed < s.FreeFlowSpeed {
			delayMin += (1 - s.CurrentSpeed/s.FreeFlowSpeed) * chunkBaseS / 60
		}
		if severityRank(s.Severity) > severityRank(worst) {
			worst = s.Severity
		}
	}

	if samplesTaken == 0 || worst == models.SeverityNone && delayMin == 0 {
		if origin != "" && dest != "" {
			if s := e.RouteEstimate(origin, dest, hour); s.Source == models.SourceGemini {
				delayMin = s.DelayMin
				worst = s.Severity
			}
		}
		if worst == models.SeverityNone && delayMin == 0 {
			// sin cobertura de flujo ni IA: modelo horario sobre el leg completo
			est := e.TimeOfDayEstimate(hour)
			if est.Multiplier > 1 {
				delayMin = float64(baseDurS) * (est.Multiplier - 1) / 60
				worst = est.Severity
			}
		}
	}

	if delayMin > maxLegDelayMin {
		delayMin = maxLegDelayMin
	}

	return delayMin, worst
}

func (e *Estimator) randFloat() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64()
}

// SeverityFromDelay clasifica un retraso en minutos
func SeverityFromDelay(delayMin float64) string {
	switch {
	case delayMin <= 0:
		return models.SeverityNone
	case delayMin <= 10:
		return models.SeverityLow
	case delayMin <= 45:
		return models.SeverityMedium
	default:
		return models.SeverityHigh
	}
}

// Warnings devuelve avisos de franja para la hora de viaje dada
func Warnings(hour int) []models.TrafficWarning {
	hour = ((hour % 24) + 24) % 24

	var out []models.TrafficWarning
	switch {
	case hour >= 7 && hour <= 10:
		out = append(out, models.TrafficWarning{
			Window:   "07:00-10:00",
			Message:  "Hora punta matinal: espere congestión alta en accesos urbanos",
			Severity: models.SeverityHigh,
		})
	case hour >= 17 && hour <= 20:
		out = append(out, models.TrafficWarning{
			Window:   "17:00-20:00",
			Message:  "Hora punta vespertina: espere congestión alta",
			Severity: models.SeverityHigh,
		})
	case hour >= 12 && hour <= 14:
		out = append(out, models.TrafficWarning{
			Window:   "12:00-14:00",
			Message:  "Tráfico moderado de mediodía",
			Severity: models.SeverityMedium,
		})
	}
	return out
}

func severityFromMultiplier(mult float64) string {
	switch {
	case mult >= 1.5:
		return models.SeverityHigh
	case mult >= 1.2:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func normalizeSeverity(s string, delayMin float64) string {
	switch s {
	case models.SeverityNone, models.SeverityLow, models.SeverityMedium, models.SeverityHigh:
		return s
	}
	return SeverityFromDelay(delayMin)
}

func severityRank(s string) int {
	switch s {
	case models.SeverityLow:
		return 1
	case models.SeverityMedium:
		return 2
	case models.SeverityHigh:
		return 3
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
