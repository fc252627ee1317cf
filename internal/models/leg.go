package models

// Modos de desplazamiento de un leg
const (
	ModeWalk   = "walk"
	ModeTaxi   = "taxi"
	ModeBus    = "bus"
	ModeTrain  = "train"
	ModeFlight = "flight"
	ModeCar    = "car"
)

// Leg representa un segmento del viaje con un único modo de transporte.
// Invariante de encadenado: departure(i) = arrival(i-1) + layover(i-1).
type Leg struct {
	Mode            string        `json:"mode"`
	OperatorName    string        `json:"operator_name,omitempty"`
	OperatorType    string        `json:"operator_type,omitempty"` // "Bus", "Train", "Flight"
	From            string        `json:"from"`
	To              string        `json:"to"`
	FromLat         float64       `json:"from_lat"`
	FromLon         float64       `json:"from_lon"`
	ToLat           float64       `json:"to_lat"`
	ToLon           float64       `json:"to_lon"`
	Fare            float64       `json:"fare"`
	DurationS       int           `json:"duration_s"`
	Departure       string        `json:"departure"` // "HH:MM"
	Arrival         string        `json:"arrival"`   // "HH:MM"
	DistanceKm      float64       `json:"distance_km"`
	Polyline        []Coordinate  `json:"polyline,omitempty"`
	TrafficDelayMin float64       `json:"traffic_delay_min,omitempty"`
	TrafficSeverity string        `json:"traffic_severity,omitempty"`
	LayoverS        int           `json:"layover_s,omitempty"` // espera antes del siguiente leg
	Synthetic       bool          `json:"synthetic,omitempty"`
	Instructions    []Instruction `json:"instructions,omitempty"`
}

// Instruction es un paso de navegación dentro de un leg
type Instruction struct {
	StepID      string  `json:"step_id"`
	Mode        string  `json:"mode"`
	Text        string  `json:"text"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	NotifyWhenM int     `json:"notify_when_m,omitempty"` // radio de notificación en metros
	DistanceM   float64 `json:"distance_m,omitempty"`
	DurationS   int     `json:"duration_s,omitempty"`
	Maneuver    string  `json:"maneuver,omitempty"` // "board", "alight", "depart", "arrive"
}
