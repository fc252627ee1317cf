package gemini

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func candidateBody(text string) []byte {
	resp := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	b, _ := json.Marshal(resp)
	return b
}

func TestGenerateJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(candidateBody(`{"delay_min": 12, "severity": "medium"}`))
	}))
	defer srv.Close()

	c := NewClientWithKey("test-key")
	c.SetBaseURL(srv.URL)

	var out struct {
		DelayMin float64 `json:"delay_min"`
		Severity string  `json:"severity"`
	}
	if err := c.GenerateJSON("estimate traffic", &out); err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if out.DelayMin != 12 || out.Severity != "medium" {
		t.Errorf("out = %+v", out)
	}
}

func TestGenerateJSONStripsCodeFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(candidateBody("```json\n{\"name\": \"KSRTC\"}\n```"))
	}))
	defer srv.Close()

	c := NewClientWithKey("test-key")
	c.SetBaseURL(srv.URL)

	var out struct {
		Name string `json:"name"`
	}
	if err := c.GenerateJSON("operator", &out); err != nil {
		t.Fatalf("GenerateJSON con fences: %v", err)
	}
	if out.Name != "KSRTC" {
		t.Errorf("Name = %q", out.Name)
	}
}

func TestGenerateJSONRetriesOnGarbage(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write(candidateBody("Sure! Here is the JSON you asked for: delay is low"))
			return
		}
		w.Write(candidateBody(`{"delay_min": 3}`))
	}))
	defer srv.Close()

	c := NewClientWithKey("test-key")
	c.SetBaseURL(srv.URL)

	var out struct {
		DelayMin float64 `json:"delay_min"`
	}
	if err := c.GenerateJSON("traffic", &out); err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if calls != 2 {
		t.Errorf("llamadas = %d, esperado 2 (un reintento)", calls)
	}
	if out.DelayMin != 3 {
		t.Errorf("DelayMin = %v", out.DelayMin)
	}
}

func TestGenerateJSONGivesUpAfterRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(candidateBody("not json, never json"))
	}))
	defer srv.Close()

	c := NewClientWithKey("test-key")
	c.SetBaseURL(srv.URL)

	var out map[string]any
	if err := c.GenerateJSON("x", &out); err == nil {
		t.Error("dos respuestas no-JSON deben producir error")
	}
}

func TestCleanJSON(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[1,2]\n```", `[1,2]`},
		{"\ufeff{\"a\":1}", `{"a":1}`},
		{"  \n {\"a\":1} \n", `{"a":1}`},
	}
	for _, tc := range cases {
		if got := cleanJSON(tc.in); got != tc.want {
			t.Errorf("cleanJSON(%q) = %q, esperado %q", tc.in, got, tc.want)
		}
	}
}

func TestNoAPIKey(t *testing.T) {
	c := NewClientWithKey("")
	var out map[string]any
	if err := c.GenerateJSON("x", &out); err == nil {
		t.Error("cliente sin key debe fallar sin hacer red")
	}
}
