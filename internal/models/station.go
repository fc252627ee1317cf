package models

// Tipos de estación soportados por el grafo de transporte
const (
	StationBus     = "bus"
	StationTrain   = "train"
	StationAirport = "airport"
)

// Station representa un punto de embarque (parada de bus, estación de tren
// o aeropuerto). Synthetic marca waypoints generados por geocodificación
// inversa cuando no existe una estación real cercana.
type Station struct {
	ID        int64   `json:"id" db:"id"`
	Name      string  `json:"name" db:"name"`
	Type      string  `json:"type" db:"type"`
	State     string  `json:"state" db:"state"`
	Lat       float64 `json:"lat" db:"lat"`
	Lon       float64 `json:"lon" db:"lon"`
	Synthetic bool    `json:"synthetic,omitempty"`
}

// Hotel representa un alojamiento cerca del destino
type Hotel struct {
	ID            int64   `json:"id" db:"id"`
	Name          string  `json:"name" db:"name"`
	City          string  `json:"city" db:"city"`
	Lat           float64 `json:"lat" db:"lat"`
	Lon           float64 `json:"lon" db:"lon"`
	PricePerNight float64 `json:"price_per_night" db:"price_per_night"`
	Rating        float64 `json:"rating" db:"rating"`
	Source        string  `json:"source,omitempty"` // "db" | "gemini"
}
