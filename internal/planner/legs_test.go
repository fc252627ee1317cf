package planner

import (
	"math/rand"
	"testing"

	"github.com/yourorg/velora/internal/models"
)

func testLegBuilder() *legBuilder {
	return newLegBuilder(rand.New(rand.NewSource(1)), newOperatorResolver(nil, nil), nil)
}

func TestBuildLegChainingArithmetic(t *testing.T) {
	b := testLegBuilder()

	leg, err := b.build(legSpec{
		Mode:      models.ModeBus,
		FromName:  "Kochi",
		ToName:    "Alappuzha",
		From:      models.Coordinate{Lat: 9.9312, Lon: 76.2673},
		To:        models.Coordinate{Lat: 9.4981, Lon: 76.3388},
		DepartMin: 9 * 60,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if leg.Departure != "09:00" {
		t.Errorf("Departure = %q", leg.Departure)
	}
	dep, _ := parseClock(leg.Departure)
	arr, _ := parseClock(leg.Arrival)
	if got, want := clockDiff(dep, arr), leg.DurationS/60; got != want {
		t.Errorf("arrival−departure = %d min, DurationS dice %d", got, want)
	}

	// ~49 km a 38 km/h + 3 pausas de parada
	wantMin := 49.0/38*60 + 15
	gotMin := float64(leg.DurationS) / 60
	if gotMin < wantMin-5 || gotMin > wantMin+5 {
		t.Errorf("duración = %.0f min, esperado ~%.0f", gotMin, wantMin)
	}

	if len(leg.Instructions) != 2 {
		t.Fatalf("instrucciones = %d, esperado board+alight", len(leg.Instructions))
	}
	if leg.Instructions[0].StepID == "" || leg.Instructions[0].StepID == leg.Instructions[1].StepID {
		t.Error("step IDs vacíos o repetidos")
	}
	if leg.Instructions[0].Maneuver != "depart" || leg.Instructions[1].Maneuver != "arrive" {
		t.Errorf("maniobras: %s, %s", leg.Instructions[0].Maneuver, leg.Instructions[1].Maneuver)
	}
}

func TestLegOperatorType(t *testing.T) {
	b := testLegBuilder()

	cases := []struct {
		operator string
		want     string
	}{
		{"KSRTC", "Bus"},
		{"Indian Railways (IRCTC)", "Train"},
		{"IndiGo", "Flight"},
		{"", ""},
	}
	for _, tc := range cases {
		leg, err := b.build(legSpec{
			Mode:         models.ModeBus,
			FromName:     "A",
			ToName:       "B",
			From:         models.Coordinate{Lat: 9.0, Lon: 76.0},
			To:           models.Coordinate{Lat: 9.4, Lon: 76.0},
			OperatorName: tc.operator,
			DepartMin:    9 * 60,
		})
		if err != nil {
			t.Fatalf("build con operador %q: %v", tc.operator, err)
		}
		if leg.OperatorType != tc.want {
			t.Errorf("operador %q → tipo %q, esperado %q", tc.operator, leg.OperatorType, tc.want)
		}
	}
}

func TestLegFares(t *testing.T) {
	b := testLegBuilder()

	// 100 km nominales
	from := models.Coordinate{Lat: 9.0, Lon: 76.0}
	to := models.Coordinate{Lat: 9.8993, Lon: 76.0}

	cases := []struct {
		mode     string
		own      bool
		min, max float64
	}{
		{models.ModeWalk, false, 0, 0},
		{models.ModeTaxi, false, 2000, 2060}, // 30 + 20/km
		{models.ModeBus, false, 200, 220},    // 10 + 2/km
		{models.ModeTrain, false, 95, 105},   // 50 + 0.5/km
		{models.ModeFlight, false, 440, 460}, // 4.5/km
		{models.ModeCar, true, 790, 810},     // 8/km propio
		{models.ModeCar, false, 1480, 1520},  // 15/km taxi
	}

	for _, tc := range cases {
		leg, err := b.build(legSpec{
			Mode: tc.mode, FromName: "A", ToName: "B",
			From: from, To: to, DepartMin: 600, OwnVehicle: tc.own,
		})
		if err != nil {
			t.Fatalf("%s: %v", tc.mode, err)
		}
		if leg.Fare < tc.min || leg.Fare > tc.max {
			t.Errorf("%s (own=%v): fare = %.0f, esperado [%.0f, %.0f]", tc.mode, tc.own, leg.Fare, tc.min, tc.max)
		}
	}
}

func TestLegFarePerKmOverrideJitter(t *testing.T) {
	b := testLegBuilder()
	from := models.Coordinate{Lat: 9.0, Lon: 76.0}
	to := models.Coordinate{Lat: 9.8993, Lon: 76.0} // ~100 km

	leg, err := b.build(legSpec{
		Mode: models.ModeBus, FromName: "A", ToName: "B",
		From: from, To: to, DepartMin: 600, FarePerKm: 1.2,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// 1.2/km ±10% sobre ~100 km
	if leg.Fare < 105 || leg.Fare > 135 {
		t.Errorf("fare = %.0f, esperado 120 ±10%%", leg.Fare)
	}
}

func TestLegMinimumDurations(t *testing.T) {
	b := testLegBuilder()
	from := models.Coordinate{Lat: 9.0, Lon: 76.0}
	to := models.Coordinate{Lat: 9.002, Lon: 76.0} // ~220 m

	walk, err := b.build(legSpec{Mode: models.ModeWalk, FromName: "A", ToName: "B", From: from, To: to, DepartMin: 0})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if walk.DurationS < walkMinMin*60 {
		t.Errorf("caminata de %d s, mínimo son %d min", walk.DurationS, walkMinMin)
	}

	taxi, err := b.build(legSpec{Mode: models.ModeTaxi, FromName: "A", ToName: "B", From: from, To: to, DepartMin: 0})
	if err != nil {
		t.Fatalf("taxi: %v", err)
	}
	if taxi.DurationS < taxiMinMin*60 {
		t.Errorf("taxi de %d s, mínimo son %d min", taxi.DurationS, taxiMinMin)
	}
}

func TestLegValidation(t *testing.T) {
	b := testLegBuilder()

	if _, err := b.build(legSpec{Mode: models.ModeBus, FromName: "", ToName: "B",
		From: models.Coordinate{Lat: 9, Lon: 76}, To: models.Coordinate{Lat: 9.5, Lon: 76}}); err == nil {
		t.Error("nombre vacío no rechazado")
	}
	if _, err := b.build(legSpec{Mode: models.ModeBus, FromName: "A", ToName: "B",
		To: models.Coordinate{Lat: 9.5, Lon: 76}}); err == nil {
		t.Error("coordenadas cero no rechazadas")
	}
}

func TestLayoverRanges(t *testing.T) {
	b := testLegBuilder()
	for i := 0; i < 50; i++ {
		if v := b.busTransferLayoverMin(); v < 8 || v > 12 {
			t.Fatalf("transfer layover %d fuera de [8,12]", v)
		}
		if v := b.busStopLayoverMin(); v < 10 || v > 15 {
			t.Fatalf("stop layover %d fuera de [10,15]", v)
		}
		if v := b.railEntryLayoverMin(); v < 10 || v > 25 {
			t.Fatalf("rail layover %d fuera de [10,25]", v)
		}
		if v := b.flightCheckInLayoverMin(); v < 100 || v > 145 {
			t.Fatalf("check-in layover %d fuera de [100,145]", v)
		}
	}
}

func TestFlightDurationIncludesGround(t *testing.T) {
	b := testLegBuilder()
	from := models.Coordinate{Lat: 9.0, Lon: 76.0}
	to := models.Coordinate{Lat: 17.1, Lon: 76.0} // ~900 km

	leg, err := b.build(legSpec{Mode: models.ModeFlight, FromName: "COK", ToName: "HYD", From: from, To: to, DepartMin: 600})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// ~900 km a 700 km/h ≈ 77 min + 45 de tierra
	gotMin := leg.DurationS / 60
	if gotMin < 115 || gotMin > 130 {
		t.Errorf("vuelo de %d min, esperado ~122", gotMin)
	}
}
