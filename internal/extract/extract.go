// Package extract turns a free-form work description into candidate entry
// fields using a local Ollama model. Results are untrusted and must be
// validated before they are stored.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/hourlog/internal/constants"
	"github.com/julianstephens/hourlog/internal/logger"
	"github.com/julianstephens/hourlog/internal/models"
)

// Kind classifies an extraction failure.
type Kind string

const (
	KindUnreachable       Kind = "unreachable"
	KindTimeout           Kind = "timeout"
	KindBadStatus         Kind = "bad-status"
	KindMalformedResponse Kind = "malformed-response"
	KindMissingField      Kind = "missing-field"
	KindNonNumericHours   Kind = "non-numeric-hours"
	KindNonPositiveHours  Kind = "non-positive-hours"
)

// Error is returned for every failed extraction. Msg is safe to show to
// the user.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// IsKind reports whether err is an extraction failure of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

const systemPromptTemplate = `You are a work-log entry extractor.
Today's date is %s.
Known customers: %s. Match to this list if similar; otherwise use as spoken.

Extract the four fields and return ONLY valid JSON, with no fences and no explanation:
{"date": "YYYY-MM-DD", "customer": "...", "hours": <float>, "description": "..."}

Rules:
- date: use mentioned date; default to today if none
- hours: "two hours"=2.0, "half a day"=4.0, "30 minutes"=0.5, "an hour and a half"=1.5
- description: concise task summary; do NOT repeat customer name or hours`

var requiredFields = []string{"date", "customer", "hours", "description"}

var (
	leadingFence  = regexp.MustCompile("^```[a-z]*\\s*")
	trailingFence = regexp.MustCompile("\\s*```$")
)

type Client struct {
	baseURL string
	model   string
	timeout time.Duration
	http    *http.Client
}

func New(baseURL, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = constants.DefaultOllamaURL
	}
	if model == "" {
		model = constants.DefaultOllamaModel
	}
	if timeout <= 0 {
		timeout = constants.DefaultOllamaTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		timeout: timeout,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Message *struct {
		Content *string `json:"content"`
	} `json:"message"`
}

// SystemPrompt builds the instruction message for the given day and
// customer list.
func SystemPrompt(today time.Time, customers []string) string {
	list := "(none)"
	if len(customers) > 0 {
		list = strings.Join(customers, ", ")
	}
	return fmt.Sprintf(systemPromptTemplate, today.Format(constants.DateFormat), list)
}

// Extract asks the model for entry fields describing message.
func (c *Client) Extract(ctx context.Context, message string, customers []string, today time.Time) (models.Candidate, error) {
	body, err := json.Marshal(chatRequest{
		Model:  c.model,
		Stream: false,
		Format: "json",
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt(today, customers)},
			{Role: "user", Content: message},
		},
	})
	if err != nil {
		return models.Candidate{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return models.Candidate{}, newError(KindUnreachable, err, "Cannot reach Ollama. Is it running? Try: ollama serve")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logger.Debug("Requesting extraction", "model", c.model, "url", c.baseURL)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return models.Candidate{}, newError(KindTimeout, err, "Ollama request timed out after %s s.", strconv.FormatFloat(c.timeout.Seconds(), 'f', -1, 64))
		}
		return models.Candidate{}, newError(KindUnreachable, err, "Cannot reach Ollama. Is it running? Try: ollama serve")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return models.Candidate{}, newError(KindBadStatus, nil, "Ollama returned HTTP %d.", resp.StatusCode)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		if isTimeout(err) {
			return models.Candidate{}, newError(KindTimeout, err, "Ollama request timed out after %s s.", strconv.FormatFloat(c.timeout.Seconds(), 'f', -1, 64))
		}
		return models.Candidate{}, newError(KindMalformedResponse, err, "Unexpected response from Ollama: %v", err)
	}
	if chat.Message == nil || chat.Message.Content == nil {
		return models.Candidate{}, newError(KindMalformedResponse, nil, "Unexpected response from Ollama: missing message content")
	}

	logger.Debug("Extraction finished", "elapsed", time.Since(start))

	return parseContent(*chat.Message.Content)
}

// StripFences removes an accidental ``` or ```json wrapper from model output.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = leadingFence.ReplaceAllString(text, "")
	text = trailingFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func parseContent(raw string) (models.Candidate, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(StripFences(raw)), &data); err != nil {
		return models.Candidate{}, newError(KindMalformedResponse, err, "Model returned invalid JSON: %v\n\nRaw output:\n%s", err, raw)
	}

	for _, field := range requiredFields {
		if _, ok := data[field]; !ok {
			return models.Candidate{}, newError(KindMissingField, nil, "Model response missing field: '%s'", field)
		}
	}

	hours, err := toHours(data["hours"])
	if err != nil {
		return models.Candidate{}, newError(KindNonNumericHours, err, "Model returned non-numeric hours: %s", describe(data["hours"]))
	}
	if hours <= 0 {
		return models.Candidate{}, newError(KindNonPositiveHours, nil, "Model returned non-positive hours: %s", strconv.FormatFloat(hours, 'f', -1, 64))
	}

	return models.Candidate{
		Date:        text(data["date"]),
		Customer:    text(data["customer"]),
		Hours:       strconv.FormatFloat(hours, 'f', -1, 64),
		Description: text(data["description"]),
	}, nil
}

func toHours(v interface{}) (float64, error) {
	switch h := v.(type) {
	case float64:
		return h, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(h), 64)
	default:
		return 0, fmt.Errorf("unsupported hours type %T", v)
	}
}

func text(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func describe(v interface{}) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
