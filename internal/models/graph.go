package models

// GraphNode es una estación proyectada al grafo de rutas
type GraphNode struct {
	ID   int
	Name string
	Lat  float64
	Lon  float64
	Type string
}

// GraphEdge conecta dos nodos del grafo. Las aristas se insertan de forma
// simétrica (una por sentido) y llevan el tiempo estimado del tramo.
type GraphEdge struct {
	From       int
	To         int
	DistanceKm float64
	TimeMin    float64
	Mode       string
}
