// ============================================================================
// Decision Engine - Velora
// ============================================================================
// Puntuación y elección del candidato recomendado. Dos regímenes:
//  - con deadline: velora_score, mayor gana (prima el colchón de llegada)
//  - sin deadline: costo generalizado, menor gana (prima tiempo y tarifa)
// El bus tiene preferencia explícita cuando es competitivo con tren o
// vuelo: misma clase de tiempo con tarifa claramente menor.
// ============================================================================

package planner

import (
	"fmt"
	"math"

	"github.com/yourorg/velora/internal/geo"
	"github.com/yourorg/velora/internal/models"
)

const (
	syntheticPenalty = 30.0
	ownVehicleBonus  = 20.0

	busVsTrainDurFactor   = 1.25
	busVsTrainFareFactor  = 1.15
	busVsFlightDurFactor  = 1.25
	busVsFlightFareFactor = 0.9
)

// score puntúa los candidatos y arma el resultado final
func (p *Planner) score(req models.PlanRequest, candidates []models.Candidate) models.PlanningResult {
	if req.Deadline != "" {
		p.scoreDeadline(req, candidates)
	} else {
		p.scoreDeparture(candidates)
	}

	best := 0
	for i := range candidates {
		if candidates[i].VeloraScore > candidates[best].VeloraScore {
			best = i
		}
	}

	if idx, reason := p.busPreference(candidates, best); idx >= 0 {
		best = idx
		candidates[best].Reason = reason
	}

	candidates[best].Recommended = true
	if candidates[best].Reason == "" {
		candidates[best].Reason = p.defaultReason(req, candidates[best])
	}

	winner := candidates[best]
	result := models.PlanningResult{
		Decision:          winner.Mode,
		Reason:            winner.Reason,
		Legs:              winner.Legs,
		TotalFare:         winner.TotalFare,
		TotalTimeMin:      winner.DurationMin,
		DepartureTime:     winner.DepartureTime,
		ArrivalTime:       winner.ArrivalTime,
		IntermediateStops: intermediateStops(winner.Legs),
		Polyline:          combinedPolyline(winner.Legs),
	}
	if req.Debug {
		result.Candidates = candidates
	}
	return result
}

// scoreDeadline asigna velora_score: colchón + tarifa + confort +
// fiabilidad, con bono por vehículo propio y castigo a lo sintético
func (p *Planner) scoreDeadline(req models.PlanRequest, candidates []models.Candidate) {
	deadlineMin, err := parseClock(req.Deadline)
	if err != nil {
		deadlineMin = 0
	}

	for i := range candidates {
		c := &candidates[i]

		buffer := 0.0
		if arrMin, err := parseClock(c.ArrivalTime); err == nil {
			buffer = float64(clockDiff(arrMin, deadlineMin))
		}

		score := math.Min(30, buffer/2)
		score += math.Max(0, 50-c.TotalFare/50)
		score += float64(c.ComfortScore) * 2
		score += float64(c.ReliabilityScore) * 2
		if c.Mode == "drive" && req.HasVehicle {
			score += ownVehicleBonus
		}
		if c.Synthetic {
			score -= syntheticPenalty
		}

		c.VeloraScore = math.Round(score*10) / 10
	}
}

// scoreDeparture asigna el costo generalizado invertido para que
// "mayor gana" siga valiendo en la selección
func (p *Planner) scoreDeparture(candidates []models.Candidate) {
	for i := range candidates {
		c := &candidates[i]
		cost := c.DurationMin + c.TotalFare*0.01
		if c.Synthetic {
			cost += syntheticPenalty
		}
		c.VeloraScore = math.Round(-cost*10) / 10
	}
}

// busPreference aplica la regla de competitividad del bus. Devuelve el
// índice del bus si debe ganar, -1 si no.
func (p *Planner) busPreference(candidates []models.Candidate, best int) (int, string) {
	if candidates[best].Mode == "bus" {
		return -1, ""
	}

	busIdx := -1
	for i, c := range candidates {
		if c.Mode == "bus" {
			busIdx = i
			break
		}
	}
	if busIdx < 0 {
		return -1, ""
	}
	bus := candidates[busIdx]

	switch candidates[best].Mode {
	case "train", "combo":
		t := candidates[best]
		if bus.DurationMin <= busVsTrainDurFactor*t.DurationMin &&
			bus.TotalFare <= busVsTrainFareFactor*t.TotalFare {
			return busIdx, "Bus is competitive with the train on time and cheaper on fare"
		}
	case "flight":
		f := candidates[best]
		if bus.DurationMin <= busVsFlightDurFactor*f.DurationMin &&
			bus.TotalFare <= busVsFlightFareFactor*f.TotalFare {
			return busIdx, "Bus matches the flight door-to-door and costs a fraction of it"
		}
	}
	return -1, ""
}

func (p *Planner) defaultReason(req models.PlanRequest, c models.Candidate) string {
	if req.Deadline != "" {
		return fmt.Sprintf("Best balance of arrival buffer, fare and comfort before your %s deadline", req.Deadline)
	}
	return fmt.Sprintf("Fastest reasonable option: %.0f min, ₹%.0f", c.DurationMin, c.TotalFare)
}

// combinedPolyline une las geometrías de los legs del ganador en una sola
// polilínea para el mapa del cliente
func combinedPolyline(legs []models.Leg) []models.Coordinate {
	polys := make([][]geo.Point, 0, len(legs))
	for _, leg := range legs {
		if len(leg.Polyline) < 2 {
			continue
		}
		pts := make([]geo.Point, len(leg.Polyline))
		for i, c := range leg.Polyline {
			pts[i] = geo.Point{Lat: c.Lat, Lon: c.Lon}
		}
		polys = append(polys, pts)
	}
	if len(polys) == 0 {
		return nil
	}

	joined := geo.ConcatPolylines(polys...)
	out := make([]models.Coordinate, len(joined))
	for i, p := range joined {
		out[i] = models.Coordinate{Lat: p.Lat, Lon: p.Lon}
	}
	return out
}

// intermediateStops lista las paradas interiores del itinerario ganador
func intermediateStops(legs []models.Leg) []string {
	if len(legs) < 2 {
		return nil
	}
	var stops []string
	for _, leg := range legs[:len(legs)-1] {
		stops = append(stops, leg.To)
	}
	return stops
}
