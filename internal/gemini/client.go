// ============================================================================
// Gemini Client - Velora
// ============================================================================
// Cliente mínimo para generación de JSON estructurado. Se usa como último
// recurso: estimación de tráfico sin cobertura TomTom, inferencia de
// operadores y sugerencia de paradas cuando la BD no tiene datos.
//
// El modelo a veces envuelve el JSON en fences de markdown o antepone BOM;
// se limpia antes de deserializar y se reintenta una vez con una
// instrucción más estricta.
// ============================================================================

package gemini

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

const jsonOnlyInstruction = "Respond with ONLY valid JSON. No markdown, no code fences, no explanation, no text before or after the JSON."

const strictRetryInstruction = "Your previous answer was not parseable. Output STRICTLY a single JSON value and absolutely nothing else."

// Client para la API Generative Language de Google
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient crea un cliente Gemini leyendo GEMINI_KEY del entorno
func NewClient() *Client {
	return NewClientWithKey(os.Getenv("GEMINI_KEY"))
}

// NewClientWithKey crea un cliente con una API key explícita
func NewClientWithKey(apiKey string) *Client {
	baseURL := os.Getenv("GEMINI_URL")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   "gemini-1.5-flash",
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
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

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateJSON envía el prompt con instrucción JSON-only y deserializa la
// respuesta en out. Ante JSON inválido reintenta una vez con una
// instrucción más dura.
func (c *Client) GenerateJSON(prompt string, out any) error {
	if c.apiKey == "" {
		return fmt.Errorf("Gemini sin API key")
	}

	raw, err := c.generate(jsonOnlyInstruction + "\n\n" + prompt)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(cleanJSON(raw)), out); err == nil {
		return nil
	}
	log.Printf("[Gemini] respuesta no parseable, reintentando: %.200s", raw)

	raw, err = c.generate(strictRetryInstruction + "\n\n" + jsonOnlyInstruction + "\n\n" + prompt)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(cleanJSON(raw)), out); err != nil {
		log.Printf("[Gemini] segundo intento no parseable: %.200s", raw)
		return fmt.Errorf("respuesta Gemini no es JSON válido: %w", err)
	}

	return nil
}

// generate hace una llamada generateContent y devuelve el texto crudo
func (c *Client) generate(prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("error serializando request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	resp, err := c.httpClient.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("Gemini error %d: %s", resp.StatusCode, string(msg))
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("error decoding response: %w", err)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("Gemini no devolvió candidatos")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// cleanJSON elimina fences de markdown, BOM y espacio alrededor del JSON
func cleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "\ufeff")

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}

	return strings.TrimSpace(s)
}
