package stage

import (
	"context"
	"net/http"
	"time"

	"tripplanner/config"
	"tripplanner/models"
)

// Input carries the trip spec plus the prior stage payloads a provider
// declared as dependencies. Providers treat prior payloads as opaque
// except for the fields they read.
type Input struct {
	Spec            models.TripSpec
	Recommendations map[string]any
	Flights         map[string]any
	Hotels          map[string]any
	Itinerary       map[string]any
}

// Provider is one unit of the planning pipeline. Run never returns an
// error for external-data failures; those are absorbed by substituting
// synthetic data of the same shape. An error return always means the
// input violated the provider's contract.
type Provider interface {
	Name() string
	Run(ctx context.Context, in Input) (map[string]any, error)
}

// newHTTPClient returns a client with the configured per-call timeout
// so a stalled upstream can never hang a worker.
func newHTTPClient() *http.Client {
	timeout := time.Duration(config.AppConfig.StageTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
