// Package telemetry sends opt-in usage events for the smoke-test runs.
// Without an API key every call is a no-op, and failures are swallowed:
// telemetry must never affect the setup sequence.
package telemetry

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/posthog/posthog-go"
)

// appID salts the hashed machine ID so it can't be correlated with other
// applications' telemetry.
const appID = "atksmoke"

// Client records smoke-test events. The zero value is a disabled client.
type Client struct {
	ph         posthog.Client
	distinctID string
}

// New returns a telemetry client, disabled when apiKey is empty or the
// backend client cannot be constructed.
func New(apiKey string) *Client {
	if apiKey == "" {
		return &Client{}
	}
	ph, err := posthog.NewWithConfig(apiKey, posthog.Config{})
	if err != nil {
		return &Client{}
	}
	return &Client{ph: ph, distinctID: distinctID()}
}

// distinctID returns a stable, app-scoped hash of the machine ID, or a
// fixed placeholder when the platform offers none.
func distinctID() string {
	id, err := machineid.ProtectedID(appID)
	if err != nil {
		return "unknown"
	}
	return id
}

// Capture records one event with optional properties.
func (c *Client) Capture(event string, props map[string]any) {
	if c.ph == nil {
		return
	}
	p := posthog.NewProperties()
	for k, v := range props {
		p.Set(k, v)
	}
	_ = c.ph.Enqueue(posthog.Capture{
		DistinctId: c.distinctID,
		Event:      event,
		Properties: p,
	})
}

// Close flushes queued events.
func (c *Client) Close() {
	if c.ph != nil {
		_ = c.ph.Close()
	}
}
