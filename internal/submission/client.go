package submission

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/launchlist/waitlist-service/internal/waitlist"
)

// TimestampLayout is ISO 8601 with millisecond precision in UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrEndpointNotConfigured is returned before any network call when no
// endpoint address was supplied.
var ErrEndpointNotConfigured = errors.New("waitlist endpoint not configured")

// EndpointError reports a non-2xx response. Body is kept for diagnostics only.
type EndpointError struct {
	StatusCode int
	Body       string
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("waitlist endpoint responded %d", e.StatusCode)
}

// Endpoint is the remote collection endpoint.
type Endpoint struct {
	URL     string
	Timeout time.Duration
}

// Request is the JSON body sent to the endpoint.
type Request struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Timestamp string `json:"timestamp"`
}

// Payload is the success payload of an accepted submission.
type Payload struct {
	Message string
	Success bool
	Raw     []byte
}

// Sender delivers an accepted entry to the endpoint.
type Sender interface {
	Send(entry waitlist.Entry, at time.Time) (*Payload, error)
}

// Client posts entries to the configured endpoint.
type Client struct {
	endpoint Endpoint
	logger   *zap.Logger
}

// NewClient builds a client. An empty endpoint URL is allowed; Send then fails
// with ErrEndpointNotConfigured.
func NewClient(endpoint Endpoint, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{endpoint: endpoint, logger: logger}
}

// Send issues one POST for entry stamped with at.
func (c *Client) Send(entry waitlist.Entry, at time.Time) (*Payload, error) {
	url := strings.TrimSpace(c.endpoint.URL)
	if url == "" {
		return nil, ErrEndpointNotConfigured
	}

	body, err := gojson.Marshal(Request{
		Name:      entry.Name,
		Email:     entry.Email,
		Timestamp: at.UTC().Format(TimestampLayout),
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	resp := fiber.AcquireResponse()
	defer fiber.ReleaseResponse(resp)

	agent := fiber.Post(url).
		ContentType(fiber.MIMEApplicationJSON).
		Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON).
		Body(body).
		SetResponse(resp)
	if c.endpoint.Timeout > 0 {
		agent.Timeout(c.endpoint.Timeout)
	}

	status, respBody, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("post waitlist entry: %w", errors.Join(errs...))
	}

	if status < 200 || status > 299 {
		return nil, &EndpointError{StatusCode: status, Body: string(respBody)}
	}

	contentType := string(resp.Header.ContentType())
	c.logger.Debug("waitlist endpoint accepted entry",
		zap.Int("status", status),
		zap.String("content_type", contentType))

	return parsePayload(contentType, respBody), nil
}

// parsePayload treats any body as success. JSON bodies are read leniently;
// anything else becomes {message: <text>, success: true}.
func parsePayload(contentType string, body []byte) *Payload {
	if strings.Contains(contentType, fiber.MIMEApplicationJSON) && gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		success := true
		if s := parsed.Get("success"); s.Exists() {
			success = s.Bool()
		}
		return &Payload{
			Message: parsed.Get("message").String(),
			Success: success,
			Raw:     append([]byte(nil), body...),
		}
	}

	text := string(body)
	raw, err := gojson.Marshal(map[string]any{"message": text, "success": true})
	if err != nil {
		raw = nil
	}
	return &Payload{Message: text, Success: true, Raw: raw}
}
