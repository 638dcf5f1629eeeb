package vehicle

import (
	"context"
	"time"

	"github.com/teslamotors/climate-agent/internal/clock"
)

const (
	DefaultFetchAttempts = 5
	DefaultFetchDelay    = 10 * time.Second
)

// API sends authenticated requests to the owner API. [account.Account] implements this interface.
type API interface {
	Get(ctx context.Context, endpoint string) ([]byte, error)
	Post(ctx context.Context, endpoint string, command interface{}) ([]byte, error)
}

// A Vehicle represents a Tesla vehicle reachable through the owner API.
type Vehicle struct {
	// FetchAttempts bounds the number of vehicle_data requests made by Snapshot.
	FetchAttempts int
	// FetchDelay is the pause after waking the vehicle and before the next vehicle_data request.
	FetchDelay time.Duration

	id    string
	api   API
	clock clock.Clock
}

// New returns a Vehicle with the given API identifier. Pass a nil clk to use the system clock.
func New(id string, api API, clk clock.Clock) *Vehicle {
	if clk == nil {
		clk = clock.System{}
	}
	return &Vehicle{
		FetchAttempts: DefaultFetchAttempts,
		FetchDelay:    DefaultFetchDelay,
		id:            id,
		api:           api,
		clock:         clk,
	}
}

// ID returns the vehicle identifier used in API paths.
func (v *Vehicle) ID() string {
	return v.id
}
