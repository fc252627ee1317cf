// ============================================================================
// Time-Backward Planner - Velora
// ============================================================================
// Planificación hacia atrás desde un deadline: para cada candidato se
// prueban salidas adelantadas en pasos de 30 minutos, se ajusta la
// llegada con el multiplicador horario de tráfico y se queda la salida
// de mejor puntaje. Un modo sin salida factible queda fuera.
//
// El multiplicador se aplica al tiempo de carretera SIN tráfico (el
// builder ya horneó el retraso de la hora naïve en DurationS), y el
// mismo ajuste por leg vale para evaluar salidas y para reprogramar,
// así la suma de legs siempre cuadra con la duración del candidato.
// ============================================================================

package planner

import (
	"log"
	"math"

	"github.com/yourorg/velora/internal/models"
	"github.com/yourorg/velora/internal/traffic"
)

const (
	maxOffsetMin  = 120
	offsetStepMin = 30
)

// planBackward filtra y reprograma candidatos contra el deadline.
// Devuelve solo los modos con al menos una salida factible.
func (p *Planner) planBackward(req models.PlanRequest, candidates []models.Candidate) []models.Candidate {
	deadlineMin, err := parseClock(req.Deadline)
	if err != nil {
		log.Printf("[TimePlanner] deadline inválido %q: %v", req.Deadline, err)
		return nil
	}

	now := p.now()
	nowMin := now.Hour()*60 + now.Minute()
	// El deadline se interpreta hacia adelante desde ahora
	deadlineAbs := nowMin + clockDiff(nowMin, deadlineMin)

	var feasible []models.Candidate
	for _, cand := range candidates {
		options := p.departureOptions(cand, deadlineAbs, nowMin)
		if len(options) == 0 {
			log.Printf("[TimePlanner] Cannot reach on time by %s", cand.Mode)
			continue
		}

		best := options[0]
		for _, opt := range options[1:] {
			if opt.Score > best.Score {
				best = opt
			}
		}

		p.reschedule(&cand, best)
		feasible = append(feasible, cand)
	}

	return feasible
}

// departureOptions evalúa las salidas candidatas de un modo.
// Minutos absolutos (sin módulo) para que el colchón no se enrede con la
// medianoche; una salida anterior al momento actual no es una opción.
func (p *Planner) departureOptions(cand models.Candidate, deadlineAbs, nowMin int) []models.DepartureOption {
	naiveDepart := deadlineAbs - int(cand.DurationMin)

	var options []models.DepartureOption
	for offset := 0; offset <= maxOffsetMin; offset += offsetStepMin {
		depart := naiveDepart - offset
		if depart < nowMin {
			continue
		}

		mult := 1.0
		if p.est != nil {
			mult = p.est.TimeOfDayEstimate(clockHour(depart)).Multiplier
		}

		arrival := depart + adjustedChainMin(cand, mult)
		if arrival > deadlineAbs {
			continue
		}

		buffer := float64(deadlineAbs - arrival)
		score := 100 - (mult-1)*30 + minFloat(20, buffer/3)

		options = append(options, models.DepartureOption{
			OffsetMin:     offset,
			DepartureTime: formatClock(depart),
			ArrivalTime:   formatClock(arrival),
			Multiplier:    mult,
			BufferMin:     buffer,
			Score:         score,
		})
	}

	return options
}

// reschedule reconstruye el candidato sobre la salida elegida: relojes
// desde la nueva salida y legs de carretera re-estirados con el
// multiplicador de la opción, para que legs y totales cuenten lo mismo
func (p *Planner) reschedule(cand *models.Candidate, opt models.DepartureOption) {
	newDepart, err := parseClock(opt.DepartureTime)
	if err != nil {
		return
	}

	mult := opt.Multiplier
	if mult <= 0 {
		mult = 1.0
	}

	cursor := newDepart
	for i := range cand.Legs {
		leg := &cand.Legs[i]
		durMin := adjustedLegMin(*leg, mult)

		if isRoadMode(leg.Mode) {
			delay := roadBaseMin(*leg) * (mult - 1)
			if delay > 0 {
				leg.TrafficDelayMin = math.Round(delay)
				leg.TrafficSeverity = traffic.SeverityFromDelay(delay)
			} else {
				leg.TrafficDelayMin = 0
				leg.TrafficSeverity = ""
			}
		}

		leg.DurationS = durMin * 60
		if len(leg.Instructions) > 0 {
			leg.Instructions[0].DurationS = leg.DurationS
		}
		leg.Departure = formatClock(cursor)
		cursor += durMin
		leg.Arrival = formatClock(cursor)
		cursor += leg.LayoverS / 60
	}

	cand.DepartureTime = opt.DepartureTime
	if len(cand.Legs) > 0 {
		cand.ArrivalTime = cand.Legs[len(cand.Legs)-1].Arrival
		cand.DurationMin = float64(cursor - newDepart)
	} else {
		cand.ArrivalTime = opt.ArrivalTime
	}
}

// adjustedChainMin es la duración total del candidato con el tiempo de
// carretera ajustado por mult, leg a leg, igual que reschedule
func adjustedChainMin(cand models.Candidate, mult float64) int {
	if len(cand.Legs) == 0 {
		return int(cand.DurationMin)
	}
	total := 0
	for _, leg := range cand.Legs {
		total += adjustedLegMin(leg, mult) + leg.LayoverS/60
	}
	return total
}

// adjustedLegMin ajusta un leg: carretera = base sin tráfico × mult;
// el resto conserva su duración
func adjustedLegMin(leg models.Leg, mult float64) int {
	if isRoadMode(leg.Mode) {
		return int(roadBaseMin(leg) * mult)
	}
	return leg.DurationS / 60
}

// roadBaseMin es el tiempo de carretera sin el retraso horneado
func roadBaseMin(leg models.Leg) float64 {
	base := float64(leg.DurationS)/60 - leg.TrafficDelayMin
	if base < 0 {
		return 0
	}
	return base
}

// clockDiffSigned devuelve el desplazamiento más corto de a hacia b
func clockDiffSigned(aMin, bMin int) int {
	d := clockDiff(aMin, bMin)
	if d > minutesPerDay/2 {
		return d - minutesPerDay
	}
	return d
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
