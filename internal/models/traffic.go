package models

// Severidades de tráfico, ordenadas de menor a mayor
const (
	SeverityNone   = "none"
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Fuentes de una estimación de tráfico
const (
	SourceTomTom    = "tomtom_api"
	SourceTimeBased = "time_based_estimate"
	SourceGemini    = "gemini"
)

// TrafficSample es una estimación puntual de congestión
type TrafficSample struct {
	DelayMin      float64 `json:"delay_min"`
	Severity      string  `json:"severity"`
	Multiplier    float64 `json:"multiplier"`
	CurrentSpeed  float64 `json:"current_speed,omitempty"`   // km/h
	FreeFlowSpeed float64 `json:"free_flow_speed,omitempty"` // km/h
	Confidence    float64 `json:"confidence,omitempty"`
	Source        string  `json:"source"`
}

// TrafficWarning es un aviso de franja horaria adjunto a candidatos por carretera
type TrafficWarning struct {
	Window   string `json:"window"` // "07:00-10:00"
	Message  string `json:"message"`
	Severity string `json:"severity"`
}
