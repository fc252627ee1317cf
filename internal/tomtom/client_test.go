package tomtom

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yourorg/velora/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c := NewClientWithKey("test-key")
	c.SetBaseURL(srv.URL)
	return c, srv
}

func TestRoutePoints(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"routes": [{
				"summary": {"lengthInMeters": 182000, "travelTimeInSeconds": 10800},
				"legs": [{"points": [
					{"latitude": 9.93, "longitude": 76.26},
					{"latitude": 9.50, "longitude": 76.40},
					{"latitude": 8.52, "longitude": 76.93}
				]}]
			}]
		}`))
	})
	defer srv.Close()

	got, err := c.RoutePoints(models.Coordinate{Lat: 9.93, Lon: 76.26}, models.Coordinate{Lat: 8.52, Lon: 76.93})
	if err != nil {
		t.Fatalf("RoutePoints: %v", err)
	}
	if got.LengthM != 182000 {
		t.Errorf("LengthM = %d, esperado 182000", got.LengthM)
	}
	if got.TimeS != 10800 {
		t.Errorf("TimeS = %d, esperado 10800", got.TimeS)
	}
	if len(got.Points) != 3 {
		t.Errorf("len(Points) = %d, esperado 3", len(got.Points))
	}
	if got.Points[0].Lat != 9.93 || got.Points[2].Lon != 76.93 {
		t.Errorf("geometría mal mapeada: %+v", got.Points)
	}
}

func TestRoutePointsEmptyRoutes(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"routes": []}`))
	})
	defer srv.Close()

	if _, err := c.RoutePoints(models.Coordinate{}, models.Coordinate{}); err == nil {
		t.Error("respuesta sin rutas debe retornar error")
	}
}

func TestFlowPoint(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"flowSegmentData": {"currentSpeed": 28, "freeFlowSpeed": 56, "confidence": 0.95}}`))
	})
	defer srv.Close()

	got, err := c.FlowPoint(models.Coordinate{Lat: 9.93, Lon: 76.26})
	if err != nil {
		t.Fatalf("FlowPoint: %v", err)
	}
	if got.CurrentSpeed != 28 || got.FreeFlowSpeed != 56 {
		t.Errorf("velocidades = %v/%v, esperado 28/56", got.CurrentSpeed, got.FreeFlowSpeed)
	}
	if got.Confidence != 0.95 {
		t.Errorf("Confidence = %v, esperado 0.95", got.Confidence)
	}
}

func TestFlowPointZeroFreeFlow(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"flowSegmentData": {"currentSpeed": 28, "freeFlowSpeed": 0}}`))
	})
	defer srv.Close()

	if _, err := c.FlowPoint(models.Coordinate{}); err == nil {
		t.Error("freeFlowSpeed=0 debe retornar error")
	}
}

func TestFlowPointServerError(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	defer srv.Close()

	if _, err := c.FlowPoint(models.Coordinate{}); err == nil {
		t.Error("status 403 debe retornar error")
	}
}

func TestGeocode(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{
			"address": {"freeformAddress": "Kochi, Kerala", "municipality": "Kochi"},
			"position": {"lat": 9.9312, "lon": 76.2673}
		}]}`))
	})
	defer srv.Close()

	got, err := c.Geocode("Kochi")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if got.Name != "Kochi" {
		t.Errorf("Name = %q, esperado Kochi", got.Name)
	}
	if got.Lat != 9.9312 || got.Lon != 76.2673 {
		t.Errorf("posición = %v,%v", got.Lat, got.Lon)
	}
}

func TestReverseGeocodeFallbackFields(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"addresses": [{
			"address": {"municipality": "", "municipalitySubdivision": "Cherthala", "freeformAddress": "NH66"}
		}]}`))
	})
	defer srv.Close()

	got, err := c.ReverseGeocode(models.Coordinate{Lat: 9.68, Lon: 76.33})
	if err != nil {
		t.Fatalf("ReverseGeocode: %v", err)
	}
	if got != "Cherthala" {
		t.Errorf("nombre = %q, esperado Cherthala", got)
	}
}

func TestNoAPIKey(t *testing.T) {
	c := NewClientWithKey("")
	if _, err := c.FlowPoint(models.Coordinate{}); err == nil {
		t.Error("cliente sin key debe fallar sin hacer red")
	}
	if _, err := c.RoutePoints(models.Coordinate{}, models.Coordinate{}); err == nil {
		t.Error("cliente sin key debe fallar sin hacer red")
	}
}
