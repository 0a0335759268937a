package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/hourlog/internal/models"
)

var today = time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local)

// chatServer answers /api/chat with content as the model message.
func chatServer(t *testing.T, content string) (*httptest.Server, *chatRequest) {
	t.Helper()
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"role": "assistant", "content": content},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestExtractSuccess(t *testing.T) {
	srv, req := chatServer(t, "```json\n{\"date\": \"2024-03-14\", \"customer\": \"Acme\", \"hours\": 1.5, \"description\": \"Fixed login bug\"}\n```")

	c := New(srv.URL, "llama3.2", 5*time.Second)
	got, err := c.Extract(context.Background(), "an hour and a half on the acme login bug yesterday", []string{"Acme", "Globex"}, today)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := models.Candidate{Date: "2024-03-14", Customer: "Acme", Hours: "1.5", Description: "Fixed login bug"}
	if got != want {
		t.Errorf("Extract() = %+v, want %+v", got, want)
	}

	if req.Model != "llama3.2" || req.Stream || req.Format != "json" {
		t.Errorf("request = %+v", req)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
		t.Fatalf("request messages = %+v", req.Messages)
	}
	if !strings.Contains(req.Messages[0].Content, "Today's date is 2024-03-15.") {
		t.Errorf("system prompt missing today's date: %q", req.Messages[0].Content)
	}
	if !strings.Contains(req.Messages[0].Content, "Known customers: Acme, Globex.") {
		t.Errorf("system prompt missing customers: %q", req.Messages[0].Content)
	}
}

func TestSystemPromptWithoutCustomers(t *testing.T) {
	if p := SystemPrompt(today, nil); !strings.Contains(p, "Known customers: (none).") {
		t.Errorf("SystemPrompt() = %q", p)
	}
}

func TestExtractHoursAsString(t *testing.T) {
	srv, _ := chatServer(t, `{"date": "", "customer": "Acme", "hours": " 2 ", "description": "Review"}`)

	got, err := New(srv.URL, "", 0).Extract(context.Background(), "two hours review", nil, today)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got.Hours != "2" || got.Date != "" {
		t.Errorf("Extract() = %+v", got)
	}
}

func TestExtractContentFailures(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantKind Kind
		wantMsg  string
	}{
		{"invalid json", "not json at all", KindMalformedResponse, "Model returned invalid JSON: "},
		{"missing field", `{"date": "2024-03-15", "customer": "Acme", "hours": 1}`, KindMissingField, "Model response missing field: 'description'"},
		{"missing first field wins", `{"hours": 1}`, KindMissingField, "Model response missing field: 'date'"},
		{"non-numeric string", `{"date": "", "customer": "A", "hours": "lots", "description": "d"}`, KindNonNumericHours, `Model returned non-numeric hours: "lots"`},
		{"non-numeric null", `{"date": "", "customer": "A", "hours": null, "description": "d"}`, KindNonNumericHours, "Model returned non-numeric hours: null"},
		{"zero hours", `{"date": "", "customer": "A", "hours": 0, "description": "d"}`, KindNonPositiveHours, "Model returned non-positive hours: 0"},
		{"negative hours", `{"date": "", "customer": "A", "hours": -2.5, "description": "d"}`, KindNonPositiveHours, "Model returned non-positive hours: -2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := chatServer(t, tt.content)
			_, err := New(srv.URL, "m", time.Second).Extract(context.Background(), "x", nil, today)
			if !IsKind(err, tt.wantKind) {
				t.Fatalf("Extract() error = %v, want kind %s", err, tt.wantKind)
			}
			if !strings.HasPrefix(err.Error(), tt.wantMsg) {
				t.Errorf("Extract() message = %q, want prefix %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestExtractTransportFailures(t *testing.T) {
	t.Run("bad status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := New(srv.URL, "m", time.Second).Extract(context.Background(), "x", nil, today)
		if !IsKind(err, KindBadStatus) || err.Error() != "Ollama returned HTTP 404." {
			t.Errorf("Extract() error = %v", err)
		}
	})

	t.Run("malformed envelope", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"done": true}`)
		}))
		defer srv.Close()

		_, err := New(srv.URL, "m", time.Second).Extract(context.Background(), "x", nil, today)
		if !IsKind(err, KindMalformedResponse) || !strings.HasPrefix(err.Error(), "Unexpected response from Ollama: ") {
			t.Errorf("Extract() error = %v", err)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := New(url, "m", time.Second).Extract(context.Background(), "x", nil, today)
		if !IsKind(err, KindUnreachable) || err.Error() != "Cannot reach Ollama. Is it running? Try: ollama serve" {
			t.Errorf("Extract() error = %v", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		defer srv.Close()
		defer close(release)

		_, err := New(srv.URL, "m", 50*time.Millisecond).Extract(context.Background(), "x", nil, today)
		if !IsKind(err, KindTimeout) || err.Error() != "Ollama request timed out after 0.05 s." {
			t.Errorf("Extract() error = %v", err)
		}
	})
}

func TestStripFences(t *testing.T) {
	tests := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range tests {
		if got := StripFences(in); got != want {
			t.Errorf("StripFences(%q) = %q, want %q", in, got, want)
		}
	}
}
