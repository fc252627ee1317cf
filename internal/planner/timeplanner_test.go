package planner

import (
	"testing"

	"github.com/yourorg/velora/internal/models"
	"github.com/yourorg/velora/internal/station"
	"github.com/yourorg/velora/internal/traffic"
)

func backwardPlanner(nowClock string, withTraffic bool) *Planner {
	opts := Options{
		Store: station.NewMemoryStore(nil),
		Seed:  1,
		Now:   fixedNow(nowClock),
	}
	if withTraffic {
		opts.Estimator = traffic.NewEstimator(nil, nil, 1)
	}
	return New(opts)
}

func driveCandidate(durationMin float64) models.Candidate {
	return models.Candidate{
		Mode:        "drive",
		DurationMin: durationMin,
		Legs: []models.Leg{{
			Mode:      models.ModeCar,
			Departure: "09:00",
			Arrival:   formatClock(9*60 + int(durationMin)),
			DurationS: int(durationMin) * 60,
		}},
	}
}

func TestDepartureOptionsSteps(t *testing.T) {
	p := backwardPlanner("08:00", false)
	cand := driveCandidate(120)

	// deadline 20:00 → naive 18:00, offsets 0..120 todos futuros
	options := p.departureOptions(cand, 20*60, 8*60)
	if len(options) != 5 {
		t.Fatalf("opciones = %d, esperado 5 (0..120 de a 30)", len(options))
	}
	for i, opt := range options {
		if opt.OffsetMin != i*30 {
			t.Errorf("offset[%d] = %d", i, opt.OffsetMin)
		}
		arr, _ := parseClock(opt.ArrivalTime)
		if clockDiff(8*60, arr) > clockDiff(8*60, 20*60) {
			t.Errorf("opción %d llega %s después del deadline", i, opt.ArrivalTime)
		}
		if opt.BufferMin != float64(opt.OffsetMin) {
			t.Errorf("buffer = %v con offset %d y mult 1.0", opt.BufferMin, opt.OffsetMin)
		}
	}
}

func TestDepartureOptionsRejectPast(t *testing.T) {
	p := backwardPlanner("17:30", false)
	cand := driveCandidate(120)

	// deadline 18:00 con 2 h de viaje: la salida naïve ya pasó
	options := p.departureOptions(cand, 18*60, 17*60+30)
	if len(options) != 0 {
		t.Errorf("opciones = %v, la salida quedaría en el pasado", options)
	}
}

func TestDepartureOptionsScorePrefersCalmHours(t *testing.T) {
	p := backwardPlanner("06:00", true)
	cand := driveCandidate(60)

	// deadline 23:00 → naive 22:00 (valle); el offset 120 sale a las
	// 20:00, todavía en punta vespertina
	options := p.departureOptions(cand, 23*60, 6*60)
	if len(options) == 0 {
		t.Fatal("sin opciones")
	}

	byOffset := map[int]models.DepartureOption{}
	for _, opt := range options {
		byOffset[opt.OffsetMin] = opt
	}

	rush, okRush := byOffset[120] // 20:00, multiplicador de punta
	calm, okCalm := byOffset[0]   // 22:00, multiplicador de valle
	if !okRush || !okCalm {
		t.Fatalf("offsets esperados ausentes: %v", options)
	}
	if rush.Multiplier <= calm.Multiplier {
		t.Errorf("multiplicadores: punta %v vs calma %v", rush.Multiplier, calm.Multiplier)
	}
}

func TestPlanBackwardDropsInfeasibleMode(t *testing.T) {
	p := backwardPlanner("08:00", false)

	fast := driveCandidate(60)
	slow := models.Candidate{Mode: "bus", DurationMin: 700, Legs: []models.Leg{{
		Mode: models.ModeBus, Departure: "09:00", Arrival: "20:40", DurationS: 700 * 60,
	}}}

	out := p.planBackward(models.PlanRequest{Deadline: "10:00"}, []models.Candidate{fast, slow})
	if len(out) != 1 {
		t.Fatalf("candidatos factibles = %d, esperado solo drive", len(out))
	}
	if out[0].Mode != "drive" {
		t.Errorf("modo factible = %q", out[0].Mode)
	}

	arr, _ := parseClock(out[0].ArrivalTime)
	if clockDiff(8*60, arr) > clockDiff(8*60, 10*60) {
		t.Errorf("drive llega %s, después del deadline", out[0].ArrivalTime)
	}
}

func TestDepartureOptionsMultiplierOnNoTrafficBase(t *testing.T) {
	p := backwardPlanner("06:00", true)

	// 60 min de carretera + 40 min de retraso horneado a la hora naïve;
	// el multiplicador va sobre los 60, no sobre los 100
	cand := models.Candidate{
		Mode:        "drive",
		DurationMin: 100,
		Legs: []models.Leg{{
			Mode:            models.ModeCar,
			Departure:       "09:00",
			Arrival:         "10:40",
			DurationS:       100 * 60,
			TrafficDelayMin: 40,
		}},
	}

	// naïve 15:20, hora 15 → multiplicador fijo 1.2 sin jitter
	options := p.departureOptions(cand, 17*60, 6*60)

	var calm *models.DepartureOption
	for i := range options {
		if options[i].OffsetMin == 0 {
			calm = &options[i]
		}
	}
	if calm == nil {
		t.Fatalf("falta el offset 0: %v", options)
	}
	if calm.Multiplier != 1.2 {
		t.Fatalf("multiplicador = %v, esperado 1.2", calm.Multiplier)
	}
	// 60 × 1.2 = 72 min desde las 15:20
	if calm.ArrivalTime != "16:32" {
		t.Errorf("llegada = %s, esperado 16:32 (base sin tráfico × mult)", calm.ArrivalTime)
	}
}

func TestRescheduleStretchesRoadLegs(t *testing.T) {
	p := backwardPlanner("08:00", false)

	cand := models.Candidate{
		Mode:        "drive",
		DurationMin: 160,
		Legs: []models.Leg{
			{
				Mode:            models.ModeCar,
				Departure:       "09:00",
				Arrival:         "10:30",
				DurationS:       90 * 60,
				TrafficDelayMin: 30,
				LayoverS:        600,
				Instructions:    []models.Instruction{{DurationS: 90 * 60}},
			},
			{
				Mode:      models.ModeTrain,
				Departure: "10:40",
				Arrival:   "11:40",
				DurationS: 60 * 60,
			},
		},
	}

	p.reschedule(&cand, models.DepartureOption{
		DepartureTime: "11:00",
		Multiplier:    1.5,
	})

	// base carretera 60 × 1.5 = 90 min; el tren no se estira
	if cand.Legs[0].DurationS != 90*60 {
		t.Errorf("carretera = %d s, esperado %d", cand.Legs[0].DurationS, 90*60)
	}
	if cand.Legs[0].TrafficDelayMin != 30 {
		t.Errorf("retraso = %v, esperado 30", cand.Legs[0].TrafficDelayMin)
	}
	if cand.Legs[0].TrafficSeverity != "medium" {
		t.Errorf("severidad = %q", cand.Legs[0].TrafficSeverity)
	}
	if cand.Legs[0].Instructions[0].DurationS != 90*60 {
		t.Errorf("instrucción no actualizada: %d", cand.Legs[0].Instructions[0].DurationS)
	}
	if cand.Legs[1].DurationS != 60*60 {
		t.Errorf("tren = %d s, esperado %d", cand.Legs[1].DurationS, 60*60)
	}

	// 11:00 + 90 + 10 de espera + 60 = 13:40
	if cand.Legs[0].Departure != "11:00" || cand.Legs[0].Arrival != "12:30" {
		t.Errorf("leg carretera = %s → %s", cand.Legs[0].Departure, cand.Legs[0].Arrival)
	}
	if cand.Legs[1].Departure != "12:40" || cand.Legs[1].Arrival != "13:40" {
		t.Errorf("leg tren = %s → %s", cand.Legs[1].Departure, cand.Legs[1].Arrival)
	}
	if cand.ArrivalTime != "13:40" {
		t.Errorf("llegada del candidato = %s, esperado la del último leg", cand.ArrivalTime)
	}

	sum := 0
	for _, leg := range cand.Legs {
		sum += leg.DurationS/60 + leg.LayoverS/60
	}
	if float64(sum) != cand.DurationMin {
		t.Errorf("suma de legs %d ≠ duración %v", sum, cand.DurationMin)
	}
}

func TestPlanBackwardChainConsistency(t *testing.T) {
	p := backwardPlanner("06:00", true)

	cand := models.Candidate{
		Mode:        "drive",
		DurationMin: 100,
		Legs: []models.Leg{{
			Mode:            models.ModeCar,
			Departure:       "09:00",
			Arrival:         "10:40",
			DurationS:       100 * 60,
			TrafficDelayMin: 40,
		}},
	}

	out := p.planBackward(models.PlanRequest{Deadline: "17:00"}, []models.Candidate{cand})
	if len(out) != 1 {
		t.Fatalf("candidatos = %d", len(out))
	}
	got := out[0]

	sum := 0
	for _, leg := range got.Legs {
		sum += leg.DurationS/60 + leg.LayoverS/60
	}
	if float64(sum) != got.DurationMin {
		t.Errorf("suma de legs %d ≠ duración %v", sum, got.DurationMin)
	}
	if got.Legs[0].Departure != got.DepartureTime {
		t.Errorf("salida %s ≠ primer leg %s", got.DepartureTime, got.Legs[0].Departure)
	}
	if last := got.Legs[len(got.Legs)-1]; last.Arrival != got.ArrivalTime {
		t.Errorf("llegada %s ≠ último leg %s", got.ArrivalTime, last.Arrival)
	}
}

func TestRescheduleShiftsLegs(t *testing.T) {
	p := backwardPlanner("08:00", false)
	cand := driveCandidate(120)

	p.reschedule(&cand, models.DepartureOption{
		DepartureTime: "10:30",
		ArrivalTime:   "12:30",
	})

	if cand.DepartureTime != "10:30" || cand.ArrivalTime != "12:30" {
		t.Errorf("horarios = %s → %s", cand.DepartureTime, cand.ArrivalTime)
	}
	if cand.Legs[0].Departure != "10:30" {
		t.Errorf("leg no desplazado: %s", cand.Legs[0].Departure)
	}
	if cand.DurationMin != 120 {
		t.Errorf("duración = %v", cand.DurationMin)
	}
}
