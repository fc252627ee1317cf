package models

// Candidate es una alternativa de viaje completa para un modo dominante.
// El scorer fija VeloraScore, Recommended y Reason; los builders dejan
// esos campos en cero.
type Candidate struct {
	Mode             string  `json:"mode"`
	Type             string  `json:"type,omitempty"` // "graph_chain", "corridor_chain", "direct", ...
	Legs             []Leg   `json:"legs"`
	TotalFare        float64 `json:"total_fare"`
	DurationMin      float64 `json:"duration_min"`
	DistanceKm       float64 `json:"distance_km"`
	ComfortScore     int     `json:"comfort_score"`
	ReliabilityScore int     `json:"reliability_score"`
	Synthetic        bool    `json:"synthetic,omitempty"`
	VeloraScore      float64 `json:"velora_score"`
	Recommended      bool    `json:"recommended"`
	DepartureTime    string  `json:"departure_time,omitempty"`
	ArrivalTime      string  `json:"arrival_time,omitempty"`
	Reason           string  `json:"reason,omitempty"`
}

// DepartureOption es una salida candidata evaluada por el planner inverso
type DepartureOption struct {
	OffsetMin     int     `json:"offset_min"`
	DepartureTime string  `json:"departure_time"`
	ArrivalTime   string  `json:"arrival_time"`
	Multiplier    float64 `json:"multiplier"`
	BufferMin     float64 `json:"buffer_min"`
	Score         float64 `json:"score"`
}
