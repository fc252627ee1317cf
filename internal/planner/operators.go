// ============================================================================
// Operator Resolver - Velora
// ============================================================================
// Resolución del nombre del operador de un leg. Cadena de fuentes:
// tabla estática por estado → tabla operators en BD → Gemini con caché →
// genérico "State Transport". Aerolíneas por hash estable del par de
// aeropuertos; trenes siempre IRCTC.
// ============================================================================

package planner

import (
	"hash/fnv"
	"log"
	"strings"
	"time"

	"github.com/yourorg/velora/internal/cache"
	"github.com/yourorg/velora/internal/models"
)

// stateBusOperators cubre los estados con operador estatal conocido
var stateBusOperators = map[string]string{
	"kerala":         "KSRTC",
	"tamil nadu":     "TNSTC",
	"karnataka":      "KSRTC (Karnataka)",
	"maharashtra":    "MSRTC",
	"gujarat":        "GSRTC",
	"andhra pradesh": "APSRTC",
	"telangana":      "TSRTC",
	"rajasthan":      "RSRTC",
	"uttar pradesh":  "UPSRTC",
	"punjab":         "PRTC",
	"haryana":        "Haryana Roadways",
	"west bengal":    "WBTC",
}

var airlines = []string{
	"IndiGo",
	"Air India",
	"SpiceJet",
	"Vistara",
	"Akasa Air",
	"Air India Express",
}

const railOperator = "Indian Railways (IRCTC)"

// OperatorStore consulta operadores registrados en BD. Puede ser nil.
type OperatorStore interface {
	OperatorNames(state, mode string) ([]string, error)
}

// AIInferrer genera nombres de operador cuando no hay otra fuente
type AIInferrer interface {
	GenerateJSON(prompt string, out any) error
}

type operatorResolver struct {
	store OperatorStore
	ai    AIInferrer
	cache *cache.Cache[cache.OperatorKey, string]
}

func newOperatorResolver(store OperatorStore, ai AIInferrer) *operatorResolver {
	return &operatorResolver{
		store: store,
		ai:    ai,
		cache: cache.New[cache.OperatorKey, string](24*time.Hour, time.Hour),
	}
}

// BusOperator resuelve el operador de bus para un estado
func (r *operatorResolver) BusOperator(state string) string {
	norm := strings.ToLower(strings.TrimSpace(state))
	if norm == "" {
		return "State Transport"
	}

	if op, ok := stateBusOperators[norm]; ok {
		return op
	}

	key := cache.OperatorKey{State: norm, Mode: models.ModeBus}
	if op, found := r.cache.Get(key); found {
		return op
	}

	if r.store != nil {
		if names, err := r.store.OperatorNames(norm, models.ModeBus); err == nil && len(names) > 0 {
			r.cache.Set(key, names[0])
			return names[0]
		}
	}

	if r.ai != nil {
		var out struct {
			Name string `json:"name"`
		}
		prompt := `Name the main state-run bus operator of the Indian state "` + state +
			`". Return {"name": "<operator>"}.`
		if err := r.ai.GenerateJSON(prompt, &out); err == nil && out.Name != "" {
			r.cache.Set(key, out.Name)
			return out.Name
		} else if err != nil {
			log.Printf("[Operators] inferencia IA falló para %q: %v", state, err)
		}
	}

	return "State Transport"
}

// Airline elige una aerolínea estable para un par de aeropuertos
func (r *operatorResolver) Airline(fromAirport, toAirport string) string {
	h := fnv.New32a()
	h.Write([]byte(fromAirport + "|" + toAirport))
	return airlines[h.Sum32()%uint32(len(airlines))]
}

// RailOperator devuelve el operador ferroviario
func (r *operatorResolver) RailOperator() string {
	return railOperator
}

// InferOperatorType clasifica un nombre de operador por modo
func InferOperatorType(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "railway") || strings.Contains(n, "irctc") || strings.Contains(n, "rail"):
		return "Train"
	case strings.Contains(n, "air") || strings.Contains(n, "indigo") ||
		strings.Contains(n, "spicejet") || strings.Contains(n, "vistara"):
		return "Flight"
	default:
		return "Bus"
	}
}
