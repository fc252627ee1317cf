package planner

import (
	"fmt"
	"testing"
	"time"

	"github.com/yourorg/velora/internal/models"
	"github.com/yourorg/velora/internal/station"
	"github.com/yourorg/velora/internal/tomtom"
)

type stubRouter struct{}

func (stubRouter) RoutePoints(o, d models.Coordinate) (*tomtom.RouteSummary, error) {
	return nil, fmt.Errorf("routing offline")
}

func (stubRouter) ReverseGeocode(p models.Coordinate) (string, error) {
	return "Testville", nil
}

func fixedNow(hhmm string) func() time.Time {
	return func() time.Time {
		m, _ := parseClock(hhmm)
		return time.Date(2026, 3, 1, m/60, m%60, 0, 0, time.UTC)
	}
}

func newTestPlanner(stations []models.Station, nowClock string) *Planner {
	return New(Options{
		Store:  station.NewMemoryStore(stations),
		Router: stubRouter{},
		Seed:   1,
		Now:    fixedNow(nowClock),
	})
}

func TestApplicableModes(t *testing.T) {
	cases := []struct {
		distKm     float64
		hasVehicle bool
		want       []string
	}{
		{40, false, []string{"drive", "bus"}},
		{200, false, []string{"drive", "bus", "train", "combo"}},
		{450, false, []string{"drive", "train", "flight", "combo"}},
		{900, false, []string{"train", "flight"}},
		{900, true, []string{"drive", "train", "flight"}},
		{2500, false, []string{"flight"}},
	}
	for _, tc := range cases {
		got := applicableModes(tc.distKm, tc.hasVehicle)
		if len(got) != len(tc.want) {
			t.Errorf("%.0f km: modos = %v, esperado %v", tc.distKm, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("%.0f km: modos = %v, esperado %v", tc.distKm, got, tc.want)
				break
			}
		}
	}
}

func TestPlan40KmBusTrip(t *testing.T) {
	stations := []models.Station{
		{ID: 1, Name: "Stand A", Type: models.StationBus, State: "Kerala", Lat: 9.0, Lon: 76.0},
		{ID: 2, Name: "Stand B", Type: models.StationBus, State: "Kerala", Lat: 9.36, Lon: 76.0},
	}
	p := newTestPlanner(stations, "08:00")

	result, err := p.Plan(models.PlanRequest{
		Origin:        models.Coordinate{Lat: 9.004, Lon: 76.0},
		Destination:   models.Coordinate{Lat: 9.356, Lon: 76.0},
		OriginName:    "Home",
		DestName:      "Office",
		DepartureTime: "09:00",
		State:         "Kerala",
		Debug:         true,
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	var bus *models.Candidate
	for i := range result.Candidates {
		if result.Candidates[i].Mode == "bus" {
			bus = &result.Candidates[i]
		}
	}
	if bus == nil {
		t.Fatalf("sin candidato de bus en %v", result.Candidates)
	}

	// Esquema walk → bus → walk
	if len(bus.Legs) != 3 {
		t.Fatalf("legs del bus = %d, esperado walk+bus+walk", len(bus.Legs))
	}
	if bus.Legs[0].Mode != models.ModeWalk || bus.Legs[1].Mode != models.ModeBus || bus.Legs[2].Mode != models.ModeWalk {
		t.Errorf("modos = %s,%s,%s", bus.Legs[0].Mode, bus.Legs[1].Mode, bus.Legs[2].Mode)
	}
	if bus.Legs[1].OperatorName != "KSRTC" {
		t.Errorf("operador = %q, esperado KSRTC", bus.Legs[1].OperatorName)
	}

	// Encadenado: cada salida = llegada anterior + layover
	for i := 1; i < len(bus.Legs); i++ {
		prevArr, _ := parseClock(bus.Legs[i-1].Arrival)
		dep, _ := parseClock(bus.Legs[i].Departure)
		wantDep := prevArr + bus.Legs[i-1].LayoverS/60
		if clockDiff(wantDep, dep) != 0 {
			t.Errorf("leg %d: salida %s, esperada %s", i, bus.Legs[i].Departure, formatClock(wantDep))
		}
	}

	if result.Decision == "" || result.Decision == "no_options" {
		t.Errorf("decisión = %q", result.Decision)
	}
}

func TestPlan900KmFlightTrip(t *testing.T) {
	stations := []models.Station{
		{ID: 1, Name: "Kochi International Airport", Type: models.StationAirport, Lat: 9.05, Lon: 76.05},
		{ID: 2, Name: "Hyderabad Airport", Type: models.StationAirport, Lat: 17.05, Lon: 76.05},
	}
	p := newTestPlanner(stations, "06:00")

	result, err := p.Plan(models.PlanRequest{
		Origin:        models.Coordinate{Lat: 9.0, Lon: 76.0},
		Destination:   models.Coordinate{Lat: 17.1, Lon: 76.0},
		DepartureTime: "07:00",
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	if result.Decision != "flight" {
		t.Fatalf("decisión = %q, esperado flight a 900 km sin tren ni vehículo", result.Decision)
	}
	if len(result.Legs) != 3 {
		t.Fatalf("legs = %d, esperado taxi+vuelo+taxi", len(result.Legs))
	}
	if result.Legs[0].Mode != models.ModeTaxi || result.Legs[1].Mode != models.ModeFlight || result.Legs[2].Mode != models.ModeTaxi {
		t.Errorf("modos = %s,%s,%s", result.Legs[0].Mode, result.Legs[1].Mode, result.Legs[2].Mode)
	}

	// El check-in vive como layover del taxi de entrada
	if result.Legs[0].LayoverS < 100*60 {
		t.Errorf("layover de check-in = %d s, esperado al menos 100 min", result.Legs[0].LayoverS)
	}

	if result.Legs[1].OperatorName == "" {
		t.Error("vuelo sin aerolínea")
	}
}

func TestPlanModeRestricted(t *testing.T) {
	stations := []models.Station{
		{ID: 1, Name: "Stand A", Type: models.StationBus, State: "Kerala", Lat: 9.0, Lon: 76.0},
		{ID: 2, Name: "Stand B", Type: models.StationBus, State: "Kerala", Lat: 9.36, Lon: 76.0},
	}
	p := newTestPlanner(stations, "08:00")

	req := models.PlanRequest{
		Origin:        models.Coordinate{Lat: 9.004, Lon: 76.0},
		Destination:   models.Coordinate{Lat: 9.356, Lon: 76.0},
		Mode:          "bus",
		DepartureTime: "09:00",
		State:         "Kerala",
		Debug:         true,
	}

	result, err := p.Plan(req)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if result.Decision != "bus" {
		t.Fatalf("decisión = %q, esperado bus con modo restringido", result.Decision)
	}
	for _, c := range result.Candidates {
		if c.Mode != "bus" {
			t.Errorf("candidato %s colado con mode=bus", c.Mode)
		}
	}

	// Un modo que la distancia descarta termina sin opciones
	req.Mode = "flight"
	result, err = p.Plan(req)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if result.Decision != "no_options" {
		t.Errorf("decisión = %q, esperado no_options: vuelo a 40 km", result.Decision)
	}
}

func TestPlanModeAutoKeepsAll(t *testing.T) {
	stations := []models.Station{
		{ID: 1, Name: "Stand A", Type: models.StationBus, State: "Kerala", Lat: 9.0, Lon: 76.0},
		{ID: 2, Name: "Stand B", Type: models.StationBus, State: "Kerala", Lat: 9.36, Lon: 76.0},
	}
	p := newTestPlanner(stations, "08:00")

	result, err := p.Plan(models.PlanRequest{
		Origin:        models.Coordinate{Lat: 9.004, Lon: 76.0},
		Destination:   models.Coordinate{Lat: 9.356, Lon: 76.0},
		Mode:          "auto",
		DepartureTime: "09:00",
		State:         "Kerala",
		Debug:         true,
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(result.Candidates) < 2 {
		t.Errorf("candidatos = %d, auto debe evaluar drive y bus", len(result.Candidates))
	}
}

func TestPlanDeadlineNeverViolated(t *testing.T) {
	stations := []models.Station{
		{ID: 1, Name: "Stand A", Type: models.StationBus, State: "Kerala", Lat: 9.005, Lon: 76.0},
		{ID: 2, Name: "Stand M", Type: models.StationBus, State: "Kerala", Lat: 9.45, Lon: 76.0},
		{ID: 3, Name: "Stand B", Type: models.StationBus, State: "Kerala", Lat: 9.895, Lon: 76.0},
		{ID: 4, Name: "Rail A", Type: models.StationTrain, Lat: 9.01, Lon: 76.01},
		{ID: 5, Name: "Rail B", Type: models.StationTrain, Lat: 9.89, Lon: 76.0},
	}
	p := newTestPlanner(stations, "08:00")

	result, err := p.Plan(models.PlanRequest{
		Origin:      models.Coordinate{Lat: 9.0, Lon: 76.0},
		Destination: models.Coordinate{Lat: 9.9, Lon: 76.0},
		Deadline:    "20:00",
		State:       "Kerala",
		Debug:       true,
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if result.Decision == "no_options" {
		t.Fatalf("sin opciones con 12 horas de margen: %s", result.Reason)
	}

	nowMin := 8 * 60
	deadMin, _ := parseClock("20:00")
	for _, c := range result.Candidates {
		if c.ArrivalTime == "" {
			t.Errorf("candidato %s sin hora de llegada", c.Mode)
			continue
		}
		arrMin, _ := parseClock(c.ArrivalTime)
		if clockDiff(nowMin, arrMin) > clockDiff(nowMin, deadMin) {
			t.Errorf("candidato %s llega %s, después del deadline", c.Mode, c.ArrivalTime)
		}
	}
}

func TestPlanImpossibleDeadline(t *testing.T) {
	p := newTestPlanner(nil, "08:00")

	// 900 km en 30 minutos, sin aeropuertos: terminal sin opciones
	result, err := p.Plan(models.PlanRequest{
		Origin:      models.Coordinate{Lat: 9.0, Lon: 76.0},
		Destination: models.Coordinate{Lat: 17.1, Lon: 76.0},
		Deadline:    "08:30",
		HasVehicle:  true,
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if result.Decision != "no_options" {
		t.Fatalf("decisión = %q, esperado no_options", result.Decision)
	}
	if result.Reason == "" {
		t.Error("resultado terminal sin razón")
	}
}

type emptyHotels struct{}

func (emptyHotels) HotelsNear(p models.Coordinate, radiusKm float64, limit int) ([]models.Hotel, error) {
	return nil, nil
}

func TestAIHotelsCachedByCity(t *testing.T) {
	ai := &fakeOpAI{json: `{"hotels": [{"name": "Grand Kochi", "price_per_night": 2800, "rating": 4.2}]}`}
	p := New(Options{
		Store:  station.NewMemoryStore(nil),
		Hotels: emptyHotels{},
		AI:     ai,
		Seed:   1,
		Now:    fixedNow("08:00"),
	})

	req := models.PlanRequest{DestName: "Kochi", Destination: models.Coordinate{Lat: 9.93, Lon: 76.26}}

	hotels := p.aiHotels(req)
	if len(hotels) != 1 || hotels[0].Name != "Grand Kochi" {
		t.Fatalf("hoteles = %+v", hotels)
	}
	if hotels[0].Source != "gemini" {
		t.Errorf("source = %q", hotels[0].Source)
	}

	// La misma ciudad con otra capitalización sale de caché
	again := p.aiHotels(models.PlanRequest{DestName: "  KOCHI ", Destination: req.Destination})
	if len(again) != 1 {
		t.Fatalf("segunda consulta = %+v", again)
	}
	if ai.calls != 1 {
		t.Errorf("llamadas a la IA = %d, esperado 1 (cacheado por ciudad)", ai.calls)
	}
}

func TestPlanUnresolvedLocation(t *testing.T) {
	p := newTestPlanner(nil, "08:00")
	if _, err := p.Plan(models.PlanRequest{}); err == nil {
		t.Error("request sin coordenadas no rechazado")
	}

	same := models.Coordinate{Lat: 9.0, Lon: 76.0}
	if _, err := p.Plan(models.PlanRequest{Origin: same, Destination: same}); err == nil {
		t.Error("origen igual a destino no rechazado")
	}
}
