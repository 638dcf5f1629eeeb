package vehicle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/teslamotors/climate-agent/internal/clock"
	"github.com/teslamotors/climate-agent/internal/log"
	"github.com/teslamotors/climate-agent/pkg/protocol"
)

// Snapshot is a single point-in-time read of vehicle telemetry. Readings the vehicle did not
// report are nil.
type Snapshot struct {
	State       string
	OutsideTemp *float64 // Celsius
	InsideTemp  *float64 // Celsius
	Speed       *float64 // Nil or zero when the vehicle is stationary.
	FetchedAt   time.Time
}

// Moving returns true if the vehicle reported a non-zero speed.
func (s *Snapshot) Moving() bool {
	return s.Speed != nil && *s.Speed != 0
}

func formatReading(v *float64) string {
	if v == nil {
		return "None"
	}
	return fmt.Sprintf("%g", *v)
}

func (s *Snapshot) String() string {
	return fmt.Sprintf("state=%s speed=%s outside=%s°C inside=%s°C",
		s.State, formatReading(s.Speed), formatReading(s.OutsideTemp), formatReading(s.InsideTemp))
}

/*
The vehicle_data endpoint nests the readings we care about:

	{
	  "response": {
	    "state": "online",
	    "climate_state": {"outside_temp": 2.5, "inside_temp": 19.0},
	    "drive_state": {"speed": null}
	  }
	}
*/
type vehicleData struct {
	Response *struct {
		State        string `json:"state"`
		ClimateState struct {
			OutsideTemp *float64 `json:"outside_temp"`
			InsideTemp  *float64 `json:"inside_temp"`
		} `json:"climate_state"`
		DriveState struct {
			Speed *float64 `json:"speed"`
		} `json:"drive_state"`
	} `json:"response"`
}

func parseSnapshot(body []byte, fetchedAt time.Time) (*Snapshot, error) {
	var data vehicleData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: %s", protocol.ErrBadResponse, err)
	}
	if data.Response == nil {
		return nil, fmt.Errorf("%w: empty vehicle_data response", protocol.ErrBadResponse)
	}
	return &Snapshot{
		State:       data.Response.State,
		OutsideTemp: data.Response.ClimateState.OutsideTemp,
		InsideTemp:  data.Response.ClimateState.InsideTemp,
		Speed:       data.Response.DriveState.Speed,
		FetchedAt:   fetchedAt,
	}, nil
}

// Snapshot fetches vehicle telemetry.
//
// Vehicles in deep sleep do not answer telemetry requests, so each failed or empty fetch is
// followed by a wake_up request and a pause of v.FetchDelay before the next attempt. If all
// v.FetchAttempts attempts fail, the returned error wraps [protocol.ErrTelemetryUnavailable].
func (v *Vehicle) Snapshot(ctx context.Context) (*Snapshot, error) {
	attempts := v.FetchAttempts
	if attempts < 1 {
		attempts = 1
	}
	endpoint := fmt.Sprintf("/vehicles/%s/vehicle_data", v.id)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := v.api.Get(ctx, endpoint)
		if err == nil {
			var snapshot *Snapshot
			if snapshot, err = parseSnapshot(body, v.clock.Now()); err == nil {
				log.Info("Vehicle data fetched successfully on attempt %d.", attempt)
				return snapshot, nil
			}
		}
		lastErr = err
		log.Warning("Vehicle data not ready, retry %d/%d. Waiting %s...", attempt, attempts, v.FetchDelay)
		v.Wakeup(ctx)
		if err := clock.Sleep(ctx, v.clock, v.FetchDelay); err != nil {
			lastErr = err
			break
		}
	}
	log.Error("Failed to fetch vehicle data after %d attempts.", attempts)
	return nil, fmt.Errorf("%w: %w", protocol.ErrTelemetryUnavailable, lastErr)
}
