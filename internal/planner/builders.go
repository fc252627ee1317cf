// ============================================================================
// Mode Candidate Builders - Velora
// ============================================================================
// Un builder por modo dominante. Cada builder produce un candidato
// completo con legs encadenados, o un error si el modo no puede servir
// este viaje concreto. Los errores de modo no son fatales: el planner
// simplemente descarta el modo.
// ============================================================================

package planner

import (
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/yourorg/velora/internal/geo"
	"github.com/yourorg/velora/internal/models"
	"github.com/yourorg/velora/internal/station"
)

// Confort y fiabilidad por modo (escala 1-10)
var modeScores = map[string][2]int{
	"drive_own":  {9, 8},
	"drive_taxi": {7, 8},
	"bus":        {5, 6},
	"train":      {7, 8},
	"flight":     {9, 9},
	"combo":      {8, 7},
}

// buildDrive arma el candidato en coche: un único leg por carretera con
// geometría real de TomTom cuando hay, recta interpolada cuando no.
func (p *Planner) buildDrive(req models.PlanRequest, departMin int) (models.Candidate, error) {
	var polyline []models.Coordinate

	if p.router != nil {
		if route, err := p.router.RoutePoints(req.Origin, req.Destination); err == nil && len(route.Points) >= 2 {
			polyline = route.Points
		} else if err != nil {
			log.Printf("[Planner] ruta TomTom no disponible, usando recta: %v", err)
		}
	}
	if polyline == nil {
		pts := geo.InterpolatePoints(req.Origin.Lat, req.Origin.Lon, req.Destination.Lat, req.Destination.Lon, 20)
		for _, pt := range pts {
			polyline = append(polyline, models.Coordinate{Lat: pt.Lat, Lon: pt.Lon})
		}
	}

	leg, err := p.legs.build(legSpec{
		Mode:       models.ModeCar,
		FromName:   nameOr(req.OriginName, "Origin"),
		ToName:     nameOr(req.DestName, "Destination"),
		From:       req.Origin,
		To:         req.Destination,
		DepartMin:  departMin,
		Polyline:   polyline,
		OwnVehicle: req.HasVehicle,
	})
	if err != nil {
		return models.Candidate{}, err
	}

	scoreKey := "drive_taxi"
	if req.HasVehicle {
		scoreKey = "drive_own"
	}

	return p.assemble("drive", "direct", []models.Leg{leg}, scoreKey, false), nil
}

// buildBus arma el candidato en bus encadenando paradas del corredor,
// con acceso a pie o en taxi en los extremos.
func (p *Planner) buildBus(req models.PlanRequest, departMin int) (models.Candidate, error) {
	chain, strategy := p.selector.BuildChain(req.Origin, req.Destination, req.OriginName, req.DestName)
	if len(chain) < 2 {
		return models.Candidate{}, fmt.Errorf("sin cadena de paradas")
	}

	synthetic := false
	for _, wp := range chain {
		if wp.Synthetic {
			synthetic = true
		}
	}

	operator := p.ops.BusOperator(req.State)

	// Tarifa por km solo en cadenas no respaldadas por el grafo
	farePerKm := 0.0
	if strategy != "graph" {
		farePerKm = 1.2
	}

	var legs []models.Leg
	cursor := departMin

	// Primera milla
	first := models.Coordinate{Lat: chain[0].Lat, Lon: chain[0].Lon}
	if leg, ok := p.accessLeg(req.Origin, first, nameOr(req.OriginName, "Origin"), chain[0].Name, cursor); ok {
		legs = append(legs, leg)
		cursor += leg.DurationS / 60
	}

	for i := 0; i+1 < len(chain); i++ {
		from, to := chain[i], chain[i+1]
		leg, err := p.legs.build(legSpec{
			Mode:         models.ModeBus,
			FromName:     from.Name,
			ToName:       to.Name,
			From:         models.Coordinate{Lat: from.Lat, Lon: from.Lon},
			To:           models.Coordinate{Lat: to.Lat, Lon: to.Lon},
			DepartMin:    cursor,
			OperatorName: operator,
			Synthetic:    from.Synthetic || to.Synthetic,
			FarePerKm:    farePerKm,
		})
		if err != nil {
			return models.Candidate{}, err
		}

		cursor += leg.DurationS / 60
		if i+2 < len(chain) {
			layover := p.legs.busStopLayoverMin()
			leg.LayoverS = layover * 60
			cursor += layover
		}
		legs = append(legs, leg)
	}

	// Última milla
	last := models.Coordinate{Lat: chain[len(chain)-1].Lat, Lon: chain[len(chain)-1].Lon}
	if leg, ok := p.accessLeg(last, req.Destination, chain[len(chain)-1].Name, nameOr(req.DestName, "Destination"), cursor); ok {
		transfer := p.legs.busTransferLayoverMin()
		legs[len(legs)-1].LayoverS = transfer * 60
		leg.Departure = formatClock(cursor + transfer)
		leg.Arrival = formatClock(cursor + transfer + leg.DurationS/60)
		legs = append(legs, leg)
	}

	return p.assemble("bus", strategy+"_chain", legs, "bus", synthetic), nil
}

// buildTrain arma taxi → tren (con empalmes si el viaje es largo) → taxi
func (p *Planner) buildTrain(req models.PlanRequest, departMin int) (models.Candidate, error) {
	origin, err := p.store.Nearest(models.StationTrain, req.Origin, railSnapKm)
	if err != nil || origin == nil {
		return models.Candidate{}, fmt.Errorf("sin estación de tren a menos de %.0f km del origen", railSnapKm)
	}
	dest, err := p.store.Nearest(models.StationTrain, req.Destination, railSnapKm)
	if err != nil || dest == nil {
		return models.Candidate{}, fmt.Errorf("sin estación de tren a menos de %.0f km del destino", railSnapKm)
	}

	stops := []models.Station{*origin}
	stops = append(stops, p.railJunctions(*origin, *dest)...)
	stops = append(stops, *dest)

	var legs []models.Leg
	cursor := departMin

	// Taxi de acceso + tiempo de entrada a la estación
	taxiIn, err := p.legs.build(legSpec{
		Mode:      models.ModeTaxi,
		FromName:  nameOr(req.OriginName, "Origin"),
		ToName:    origin.Name,
		From:      req.Origin,
		To:        models.Coordinate{Lat: origin.Lat, Lon: origin.Lon},
		DepartMin: cursor,
	})
	if err != nil {
		return models.Candidate{}, err
	}
	entry := p.legs.railEntryLayoverMin()
	taxiIn.LayoverS = entry * 60
	cursor += taxiIn.DurationS/60 + entry
	legs = append(legs, taxiIn)

	for i := 0; i+1 < len(stops); i++ {
		leg, err := p.legs.build(legSpec{
			Mode:         models.ModeTrain,
			FromName:     stops[i].Name,
			ToName:       stops[i+1].Name,
			From:         models.Coordinate{Lat: stops[i].Lat, Lon: stops[i].Lon},
			To:           models.Coordinate{Lat: stops[i+1].Lat, Lon: stops[i+1].Lon},
			DepartMin:    cursor,
			OperatorName: p.ops.RailOperator(),
		})
		if err != nil {
			return models.Candidate{}, err
		}
		cursor += leg.DurationS / 60
		if i+2 < len(stops) {
			layover := p.legs.railEntryLayoverMin()
			leg.LayoverS = layover * 60
			cursor += layover
		}
		legs = append(legs, leg)
	}

	taxiOut, err := p.legs.build(legSpec{
		Mode:      models.ModeTaxi,
		FromName:  dest.Name,
		ToName:    nameOr(req.DestName, "Destination"),
		From:      models.Coordinate{Lat: dest.Lat, Lon: dest.Lon},
		To:        req.Destination,
		DepartMin: cursor,
	})
	if err != nil {
		return models.Candidate{}, err
	}
	legs = append(legs, taxiOut)

	return p.assemble("train", "rail", legs, "train", false), nil
}

// railJunctions elige estaciones de empalme para viajes largos: una para
// más de 300 km, dos para más de 800. El empalme debe quedar dentro del
// rumbo del corredor.
func (p *Planner) railJunctions(origin, dest models.Station) []models.Station {
	tripKm := geo.HaversineKm(origin.Lat, origin.Lon, dest.Lat, dest.Lon)
	wanted := 0
	if tripKm > 300 {
		wanted = 1
	}
	if tripKm > 800 {
		wanted = 2
	}
	if wanted == 0 {
		return nil
	}

	box := station.BoundingBox{
		MinLat: math.Min(origin.Lat, dest.Lat) - 0.5,
		MaxLat: math.Max(origin.Lat, dest.Lat) + 0.5,
		MinLon: math.Min(origin.Lon, dest.Lon) - 0.5,
		MaxLon: math.Max(origin.Lon, dest.Lon) + 0.5,
	}
	cands, err := p.store.InBoundingBox(models.StationTrain, box,
		models.Coordinate{Lat: origin.Lat, Lon: origin.Lon}, 100)
	if err != nil {
		return nil
	}

	corridorBearing := geo.BearingDeg(origin.Lat, origin.Lon, dest.Lat, dest.Lon)
	line := []geo.Point{{Lat: origin.Lat, Lon: origin.Lon}, {Lat: dest.Lat, Lon: dest.Lon}}

	type scored struct {
		st       models.Station
		score    float64
		progress float64
	}
	var pool []scored
	for _, st := range cands {
		if st.ID == origin.ID || st.ID == dest.ID {
			continue
		}
		dist, progress := geo.PolylineProgress(st.Lat, st.Lon, line)
		if progress < 0.15 || progress > 0.85 {
			continue
		}
		bearing := geo.BearingDeg(origin.Lat, origin.Lon, st.Lat, st.Lon)
		dev := geo.AngularDiffDeg(bearing, corridorBearing)
		if dev > 30 {
			continue
		}
		pool = append(pool, scored{st: st, score: dist + 2*dev, progress: progress})
	}

	sort.Slice(pool, func(i, j int) bool { return pool[i].score < pool[j].score })
	if len(pool) > wanted {
		pool = pool[:wanted]
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].progress < pool[j].progress })

	out := make([]models.Station, len(pool))
	for i, sc := range pool {
		out[i] = sc.st
	}
	return out
}

// buildFlight arma taxi → vuelo → taxi, exactamente tres legs
func (p *Planner) buildFlight(req models.PlanRequest, departMin int) (models.Candidate, error) {
	origin, err := p.store.Nearest(models.StationAirport, req.Origin, airportSnapKm)
	if err != nil || origin == nil {
		return models.Candidate{}, fmt.Errorf("sin aeropuerto a menos de %.0f km del origen", airportSnapKm)
	}
	dest, err := p.store.Nearest(models.StationAirport, req.Destination, airportSnapKm)
	if err != nil || dest == nil {
		return models.Candidate{}, fmt.Errorf("sin aeropuerto a menos de %.0f km del destino", airportSnapKm)
	}
	if origin.ID == dest.ID {
		return models.Candidate{}, fmt.Errorf("origen y destino comparten aeropuerto")
	}

	cursor := departMin

	taxiIn, err := p.legs.build(legSpec{
		Mode:      models.ModeTaxi,
		FromName:  nameOr(req.OriginName, "Origin"),
		ToName:    origin.Name,
		From:      req.Origin,
		To:        models.Coordinate{Lat: origin.Lat, Lon: origin.Lon},
		DepartMin: cursor,
	})
	if err != nil {
		return models.Candidate{}, err
	}
	checkIn := p.legs.flightCheckInLayoverMin()
	taxiIn.LayoverS = checkIn * 60
	cursor += taxiIn.DurationS/60 + checkIn

	flight, err := p.legs.build(legSpec{
		Mode:         models.ModeFlight,
		FromName:     origin.Name,
		ToName:       dest.Name,
		From:         models.Coordinate{Lat: origin.Lat, Lon: origin.Lon},
		To:           models.Coordinate{Lat: dest.Lat, Lon: dest.Lon},
		DepartMin:    cursor,
		OperatorName: p.ops.Airline(origin.Name, dest.Name),
	})
	if err != nil {
		return models.Candidate{}, err
	}
	cursor += flight.DurationS / 60

	taxiOut, err := p.legs.build(legSpec{
		Mode:      models.ModeTaxi,
		FromName:  dest.Name,
		ToName:    nameOr(req.DestName, "Destination"),
		From:      models.Coordinate{Lat: dest.Lat, Lon: dest.Lon},
		To:        req.Destination,
		DepartMin: cursor,
	})
	if err != nil {
		return models.Candidate{}, err
	}

	return p.assemble("flight", "air", []models.Leg{taxiIn, flight, taxiOut}, "flight", false), nil
}

// buildCombo es taxi + tren + taxi con colchón extra en el empalme
func (p *Planner) buildCombo(req models.PlanRequest, departMin int) (models.Candidate, error) {
	cand, err := p.buildTrain(req, departMin)
	if err != nil {
		return models.Candidate{}, err
	}

	// Colchón de combinación sobre el primer empalme
	cand.Legs[0].LayoverS += comboBufferMin * 60
	shiftLegClocks(cand.Legs, 1, comboBufferMin)

	cand.Mode = "combo"
	cand.Type = "taxi_rail_taxi"
	cand.DurationMin += comboBufferMin
	scores := modeScores["combo"]
	cand.ComfortScore, cand.ReliabilityScore = scores[0], scores[1]
	cand.ArrivalTime = cand.Legs[len(cand.Legs)-1].Arrival

	return cand, nil
}

// accessLeg produce el leg de acceso entre un punto y su parada: a pie si
// está cerca, en taxi si no. Distancias despreciables no generan leg.
func (p *Planner) accessLeg(from, to models.Coordinate, fromName, toName string, departMin int) (models.Leg, bool) {
	distKm := geo.HaversineKm(from.Lat, from.Lon, to.Lat, to.Lon)
	if distKm < 0.15 {
		return models.Leg{}, false
	}

	mode := models.ModeWalk
	if distKm > walkAccessKm {
		mode = models.ModeTaxi
	}

	leg, err := p.legs.build(legSpec{
		Mode:      mode,
		FromName:  fromName,
		ToName:    toName,
		From:      from,
		To:        to,
		DepartMin: departMin,
	})
	if err != nil {
		return models.Leg{}, false
	}
	return leg, true
}

// assemble cierra un candidato a partir de sus legs
func (p *Planner) assemble(mode, typ string, legs []models.Leg, scoreKey string, synthetic bool) models.Candidate {
	var fare, distKm float64
	totalMin := 0
	for _, leg := range legs {
		fare += leg.Fare
		distKm += leg.DistanceKm
		totalMin += leg.DurationS/60 + leg.LayoverS/60
	}

	scores := modeScores[scoreKey]

	cand := models.Candidate{
		Mode:             mode,
		Type:             typ,
		Legs:             legs,
		TotalFare:        math.Round(fare),
		DurationMin:      float64(totalMin),
		DistanceKm:       math.Round(distKm*10) / 10,
		ComfortScore:     scores[0],
		ReliabilityScore: scores[1],
		Synthetic:        synthetic,
	}
	if len(legs) > 0 {
		cand.DepartureTime = legs[0].Departure
		cand.ArrivalTime = legs[len(legs)-1].Arrival
	}
	return cand
}

// shiftLegClocks desplaza los horarios de los legs desde un índice
func shiftLegClocks(legs []models.Leg, from, deltaMin int) {
	for i := from; i < len(legs); i++ {
		if dep, err := parseClock(legs[i].Departure); err == nil {
			legs[i].Departure = formatClock(dep + deltaMin)
		}
		if arr, err := parseClock(legs[i].Arrival); err == nil {
			legs[i].Arrival = formatClock(arr + deltaMin)
		}
	}
}

func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
