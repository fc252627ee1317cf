// ============================================================================
// GEO UTILITIES - Velora
// ============================================================================
// Funciones geodésicas puras usadas por todo el motor de rutas:
// distancia haversine, bearing, diferencia angular y proyección de
// puntos sobre polilíneas. Todo en kilómetros y grados.
// ============================================================================

package geo

import "math"

const earthRadiusKm = 6371.0

// Point es un par (lat, lon) en grados.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// HaversineKm calcula la distancia de círculo máximo entre dos puntos.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// Distance es la variante con Point de HaversineKm.
func Distance(a, b Point) float64 {
	return HaversineKm(a.Lat, a.Lon, b.Lat, b.Lon)
}

// BearingDeg calcula el rumbo inicial entre dos puntos (0-360 grados).
func BearingDeg(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dLam := toRadians(lon2 - lon1)

	y := math.Sin(dLam) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLam)
	deg := toDegrees(math.Atan2(y, x))

	return math.Mod(deg+360.0, 360.0)
}

// AngularDiffDeg retorna la menor diferencia angular entre dos rumbos (0-180).
func AngularDiffDeg(a, b float64) float64 {
	d := math.Mod(a-b+540.0, 360.0) - 180.0
	return math.Abs(d)
}

// ============================================================================
// POLILÍNEAS
// ============================================================================

// PolylineProgress proyecta un punto sobre una polilínea.
// Retorna (distancia perpendicular en km, progreso a lo largo de la línea).
// El progreso se mide en índices de segmento fraccionarios; para la
// polilínea de dos puntos origen-destino queda en [0, 1].
func PolylineProgress(lat, lon float64, poly []Point) (distKm, progress float64) {
	if len(poly) < 2 {
		return math.Inf(1), 0
	}

	bestD := math.Inf(1)
	bestProg := 0.0
	acc := 0.0

	for i := 0; i < len(poly)-1; i++ {
		a := poly[i]
		b := poly[i+1]
		dA := HaversineKm(lat, lon, a.Lat, a.Lon)
		dB := HaversineKm(lat, lon, b.Lat, b.Lon)
		dAB := HaversineKm(a.Lat, a.Lon, b.Lat, b.Lon)

		if dAB <= 1e-6 {
			if dA < bestD {
				bestD = dA
				bestProg = float64(i)
			}
			continue
		}

		// Proyección sobre el segmento vía ley de cosenos, acotada a [0,1]
		t := (dAB*dAB + dA*dA - dB*dB) / (2 * dAB * dAB)
		t = math.Max(0, math.Min(1, t))

		px := a.Lat + (b.Lat-a.Lat)*t
		py := a.Lon + (b.Lon-a.Lon)*t
		d := HaversineKm(lat, lon, px, py)

		if d < bestD {
			bestD = d
			bestProg = acc + t
		}
		acc += 1.0
	}

	return bestD, bestProg
}

// InterpolatePoints genera numPoints+1 puntos equiespaciados entre dos coordenadas.
// Usado como geometría de respaldo cuando el proveedor de rutas falla.
func InterpolatePoints(lat1, lon1, lat2, lon2 float64, numPoints int) []Point {
	if numPoints < 1 {
		numPoints = 1
	}
	points := make([]Point, 0, numPoints+1)
	for i := 0; i <= numPoints; i++ {
		t := float64(i) / float64(numPoints)
		points = append(points, Point{
			Lat: lat1 + (lat2-lat1)*t,
			Lon: lon1 + (lon2-lon1)*t,
		})
	}
	return points
}

// SamplePolylineKm remuestrea una polilínea cada stepKm kilómetros.
// Siempre conserva el primer y último punto. Un paso no positivo usa
// 1 km para acotar la cantidad de muestras.
func SamplePolylineKm(poly []Point, stepKm float64) []Point {
	if len(poly) < 2 {
		return poly
	}

	target := stepKm
	if target <= 0 {
		target = 1.0
	}
	out := []Point{poly[0]}
	acc := 0.0

	// Copia local porque reposicionamos el punto previo al insertar muestras
	work := make([]Point, len(poly))
	copy(work, poly)

	for i := 1; i < len(work); i++ {
		a := work[i-1]
		b := work[i]
		segKm := Distance(a, b)
		if segKm <= 0 {
			continue
		}
		if acc+segKm >= target {
			need := target - acc
			t := math.Max(0, math.Min(1, need/segKm))
			p := Point{
				Lat: a.Lat + (b.Lat-a.Lat)*t,
				Lon: a.Lon + (b.Lon-a.Lon)*t,
			}
			out = append(out, p)
			acc = 0
			work[i-1] = p
			i--
			continue
		}
		acc += segKm
	}

	out = append(out, work[len(work)-1])
	return out
}

// ConcatPolylines une las polilíneas de varias piernas evitando duplicar
// el punto de conexión entre una y la siguiente.
func ConcatPolylines(polys ...[]Point) []Point {
	var out []Point
	for _, pl := range polys {
		if len(pl) == 0 {
			continue
		}
		if len(out) > 0 {
			last := out[len(out)-1]
			first := pl[0]
			if math.Abs(last.Lat-first.Lat) < 1e-6 && math.Abs(last.Lon-first.Lon) < 1e-6 {
				pl = pl[1:]
			}
		}
		out = append(out, pl...)
	}
	return out
}

// PolylineLengthKm suma la longitud de todos los segmentos.
func PolylineLengthKm(poly []Point) float64 {
	total := 0.0
	for i := 1; i < len(poly); i++ {
		total += Distance(poly[i-1], poly[i])
	}
	return total
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

func toDegrees(radians float64) float64 {
	return radians * 180 / math.Pi
}
