// ============================================================================
// TomTom Client - Velora
// ============================================================================
// Cliente para las APIs de TomTom: routing, traffic flow y geocoding.
// Timeouts cortos por diseño de la degradación: una consulta de flujo que
// tarda más de 6s vale menos que el estimador horario local.
// ============================================================================

package tomtom

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/yourorg/velora/internal/models"
)

// Client para la API de TomTom
type Client struct {
	baseURL     string
	apiKey      string
	flowClient  *http.Client // flujo de tráfico: 6s, sin reintento
	routeClient *http.Client // routing: 20s, 1 reintento
}

// NewClient crea un cliente TomTom leyendo TOMTOM_KEY del entorno
func NewClient() *Client {
	return NewClientWithKey(os.Getenv("TOMTOM_KEY"))
}

// NewClientWithKey crea un cliente con una API key explícita
func NewClientWithKey(apiKey string) *Client {
	baseURL := os.Getenv("TOMTOM_URL")
	if baseURL == "" {
		baseURL = "https://api.tomtom.com"
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		flowClient: &http.Client{
			Timeout: 6 * time.Second,
		},
		routeClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// SetBaseURL redirige el cliente a otro servidor (tests)
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimSuffix(u, "/")
}

// HasKey indica si el cliente tiene credenciales configuradas
func (c *Client) HasKey() bool {
	return c.apiKey != ""
}

// ============================================================================
// ESTRUCTURAS DE DATOS
// ============================================================================

// RouteSummary es la ruta calculada entre dos puntos
type RouteSummary struct {
	Points  []models.Coordinate
	LengthM int
	TimeS   int
}

// FlowSample es la medición de flujo de tráfico en un punto
type FlowSample struct {
	CurrentSpeed  float64 // km/h
	FreeFlowSpeed float64 // km/h
	Confidence    float64
}

// GeocodeResult es el resultado de una búsqueda geográfica
type GeocodeResult struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type routeResponse struct {
	Routes []struct {
		Summary struct {
			LengthInMeters      int `json:"lengthInMeters"`
			TravelTimeInSeconds int `json:"travelTimeInSeconds"`
		} `json:"summary"`
		Legs []struct {
			Points []struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"points"`
		} `json:"legs"`
	} `json:"routes"`
}

type flowResponse struct {
	FlowSegmentData struct {
		CurrentSpeed  float64 `json:"currentSpeed"`
		FreeFlowSpeed float64 `json:"freeFlowSpeed"`
		Confidence    float64 `json:"confidence"`
	} `json:"flowSegmentData"`
}

type geocodeResponse struct {
	Results []struct {
		Address struct {
			FreeformAddress             string `json:"freeformAddress"`
			Municipality                string `json:"municipality"`
			CountrySecondarySubdivision string `json:"countrySecondarySubdivision"`
		} `json:"address"`
		Position struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"position"`
	} `json:"results"`
}

type reverseResponse struct {
	Addresses []struct {
		Address struct {
			Municipality                string `json:"municipality"`
			MunicipalitySubdivision     string `json:"municipalitySubdivision"`
			CountrySecondarySubdivision string `json:"countrySecondarySubdivision"`
			FreeformAddress             string `json:"freeformAddress"`
		} `json:"address"`
	} `json:"addresses"`
}

// ============================================================================
// MÉTODOS PRINCIPALES
// ============================================================================

// RoutePoints calcula la ruta por carretera entre dos puntos y devuelve
// la geometría completa. Reintenta una vez ante fallo de red.
func (c *Client) RoutePoints(origin, dest models.Coordinate) (*RouteSummary, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("TomTom sin API key")
	}

	endpoint := fmt.Sprintf("%s/routing/1/calculateRoute/%f,%f:%f,%f/json?key=%s&traffic=true",
		c.baseURL, origin.Lat, origin.Lon, dest.Lat, dest.Lon, url.QueryEscape(c.apiKey))

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		var parsed routeResponse
		if err := c.getJSON(c.routeClient, endpoint, &parsed); err != nil {
			lastErr = err
			continue
		}

		if len(parsed.Routes) == 0 {
			return nil, fmt.Errorf("TomTom no devolvió rutas")
		}

		route := parsed.Routes[0]
		summary := &RouteSummary{
			LengthM: route.Summary.LengthInMeters,
			TimeS:   route.Summary.TravelTimeInSeconds,
		}
		for _, leg := range route.Legs {
			for _, p := range leg.Points {
				summary.Points = append(summary.Points, models.Coordinate{Lat: p.Latitude, Lon: p.Longitude})
			}
		}
		return summary, nil
	}

	return nil, fmt.Errorf("error consultando ruta TomTom: %w", lastErr)
}

// FlowPoint consulta el flujo de tráfico en un punto. Sin reintentos:
// el caller cae al estimador horario si esto falla.
func (c *Client) FlowPoint(p models.Coordinate) (*FlowSample, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("TomTom sin API key")
	}

	endpoint := fmt.Sprintf("%s/traffic/services/4/flowSegmentData/absolute/10/json?point=%f,%f&key=%s",
		c.baseURL, p.Lat, p.Lon, url.QueryEscape(c.apiKey))

	var parsed flowResponse
	if err := c.getJSON(c.flowClient, endpoint, &parsed); err != nil {
		return nil, fmt.Errorf("error consultando flujo TomTom: %w", err)
	}

	data := parsed.FlowSegmentData
	if data.FreeFlowSpeed <= 0 {
		return nil, fmt.Errorf("flujo TomTom sin velocidad de referencia")
	}

	return &FlowSample{
		CurrentSpeed:  data.CurrentSpeed,
		FreeFlowSpeed: data.FreeFlowSpeed,
		Confidence:    data.Confidence,
	}, nil
}

// Geocode busca un lugar por texto libre
func (c *Client) Geocode(query string) (*GeocodeResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("TomTom sin API key")
	}

	endpoint := fmt.Sprintf("%s/search/2/geocode/%s.json?key=%s&limit=1",
		c.baseURL, url.PathEscape(query), url.QueryEscape(c.apiKey))

	var parsed geocodeResponse
	if err := c.getJSON(c.flowClient, endpoint, &parsed); err != nil {
		return nil, fmt.Errorf("error geocodificando %q: %w", query, err)
	}

	if len(parsed.Results) == 0 {
		return nil, fmt.Errorf("sin resultados para %q", query)
	}

	r := parsed.Results[0]
	name := r.Address.Municipality
	if name == "" {
		name = r.Address.FreeformAddress
	}
	return &GeocodeResult{
		Name: name,
		Lat:  r.Position.Lat,
		Lon:  r.Position.Lon,
	}, nil
}

// ReverseGeocode devuelve el nombre de la localidad más cercana a un punto
func (c *Client) ReverseGeocode(p models.Coordinate) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("TomTom sin API key")
	}

	endpoint := fmt.Sprintf("%s/search/2/reverseGeocode/%f,%f.json?key=%s",
		c.baseURL, p.Lat, p.Lon, url.QueryEscape(c.apiKey))

	var parsed reverseResponse
	if err := c.getJSON(c.flowClient, endpoint, &parsed); err != nil {
		return "", fmt.Errorf("error en geocodificación inversa: %w", err)
	}

	if len(parsed.Addresses) == 0 {
		return "", fmt.Errorf("sin dirección para %.4f,%.4f", p.Lat, p.Lon)
	}

	addr := parsed.Addresses[0].Address
	for _, candidate := range []string{addr.Municipality, addr.MunicipalitySubdivision, addr.CountrySecondarySubdivision} {
		if candidate != "" {
			return candidate, nil
		}
	}
	if addr.FreeformAddress != "" {
		return addr.FreeformAddress, nil
	}
	return "", fmt.Errorf("dirección vacía para %.4f,%.4f", p.Lat, p.Lon)
}

// getJSON ejecuta un GET y decodifica la respuesta JSON
func (c *Client) getJSON(client *http.Client, endpoint string, out any) error {
	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("TomTom error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}

	return nil
}
