package submission

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tidwall/gjson"
)

// FetchCount reads the number of people already on the list from a count
// endpoint answering {"count": N}.
func FetchCount(url string, timeout time.Duration) (int, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return 0, ErrEndpointNotConfigured
	}

	agent := fiber.Get(url).Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if timeout > 0 {
		agent.Timeout(timeout)
	}

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return 0, fmt.Errorf("fetch waitlist count: %w", errors.Join(errs...))
	}
	if status < 200 || status > 299 {
		return 0, &EndpointError{StatusCode: status, Body: string(body)}
	}

	count := gjson.GetBytes(body, "count")
	if !count.Exists() {
		return 0, fmt.Errorf("fetch waitlist count: no count in response")
	}
	return int(count.Int()), nil
}
