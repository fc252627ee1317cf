package models

// Coordinate representa una coordenada geográfica WGS84
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PlanRequest es el payload aceptado por el endpoint de planificación
type PlanRequest struct {
	Origin        Coordinate `json:"origin"`
	Destination   Coordinate `json:"destination"`
	OriginName    string     `json:"origin_name,omitempty"`
	DestName      string     `json:"dest_name,omitempty"`
	Mode          string     `json:"mode,omitempty"`           // modo pedido, "" o "auto" = todos
	DepartureTime string     `json:"departure_time,omitempty"` // "HH:MM"
	Deadline      string     `json:"deadline,omitempty"`       // "HH:MM", activa el planner inverso
	HasVehicle    bool       `json:"has_vehicle,omitempty"`
	State         string     `json:"state,omitempty"`
	Debug         bool       `json:"debug,omitempty"`
}

// PlanningResult es el resultado final de una planificación.
// Se construye una sola vez por el scorer y se trata como valor inmutable:
// los builders entregan copias, nadie muta un resultado ya emitido.
type PlanningResult struct {
	PlanID            string           `json:"plan_id"`
	Decision          string           `json:"decision"` // modo recomendado o "no_options"
	Reason            string           `json:"reason"`
	Legs              []Leg            `json:"legs"`
	TotalFare         float64          `json:"total_fare"`
	TotalTimeMin      float64          `json:"total_time_min"`
	DepartureTime     string           `json:"departure_time,omitempty"`
	ArrivalTime       string           `json:"arrival_time,omitempty"`
	IntermediateStops []string         `json:"intermediate_stops,omitempty"`
	Polyline          []Coordinate     `json:"polyline,omitempty"` // geometría unida de los legs
	Warnings          []TrafficWarning `json:"warnings,omitempty"`
	Hotels            []Hotel          `json:"hotels,omitempty"`
	Candidates        []Candidate      `json:"candidates,omitempty"` // solo con debug=true
}
