// File implements commands that change vehicle state.

package vehicle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/teslamotors/climate-agent/internal/log"
	"github.com/teslamotors/climate-agent/pkg/action"
	"github.com/teslamotors/climate-agent/pkg/protocol"
)

type commandResult struct {
	Response *struct {
		Result bool   `json:"result"`
		Reason string `json:"reason"`
	} `json:"response"`
}

// ExecuteAction sends cmd to the vehicle.
//
// The vehicle's reply is logged but not verified beyond the result flag; callers must not assume
// the vehicle reached the requested state. A failed request or a reply with result=false returns
// an error wrapping [protocol.ErrCommandFailure].
func (v *Vehicle) ExecuteAction(ctx context.Context, cmd action.Command) error {
	body, err := v.api.Post(ctx, cmd.Endpoint(v.id), cmd.Body)
	if err != nil {
		log.Warning("Command %s failed: %s", cmd.Name, err)
		return fmt.Errorf("%w: %s: %w", protocol.ErrCommandFailure, cmd.Name, err)
	}
	var reply commandResult
	if err := json.Unmarshal(body, &reply); err != nil || reply.Response == nil {
		log.Info("Command %s response: %s", cmd.Name, body)
		return nil
	}
	log.Info("Command %s response: result=%t reason=%q", cmd.Name, reply.Response.Result, reply.Response.Reason)
	if !reply.Response.Result {
		return fmt.Errorf("%w: %s: %s", protocol.ErrCommandFailure, cmd.Name, reply.Response.Reason)
	}
	return nil
}

// Wakeup asks the vehicle to wake from sleep. It does not wait for the vehicle to come online;
// the outcome is only logged.
func (v *Vehicle) Wakeup(ctx context.Context) {
	var reply struct {
		Response struct {
			State string `json:"state"`
		} `json:"response"`
	}
	cmd := action.WakeUp()
	body, err := v.api.Post(ctx, cmd.Endpoint(v.id), cmd.Body)
	if err != nil {
		log.Warning("Wake_up command failed or no response: %s", err)
		return
	}
	if err := json.Unmarshal(body, &reply); err == nil && reply.Response.State != "" {
		log.Info("Sent wake_up command to vehicle (state: %s).", reply.Response.State)
		return
	}
	log.Info("Sent wake_up command to vehicle.")
}

// StartClimate turns on climate control and sets both driver and passenger temperatures to
// targetCelsius. Both commands are always sent.
func (v *Vehicle) StartClimate(ctx context.Context, targetCelsius float64) error {
	errStart := v.ExecuteAction(ctx, action.ClimateOn())
	errTemp := v.ExecuteAction(ctx, action.ChangeClimateTemp(targetCelsius, targetCelsius))
	if err := errors.Join(errStart, errTemp); err != nil {
		return err
	}
	log.Info("HVAC started with target temperature %g°C.", targetCelsius)
	return nil
}

// StopClimate turns off climate control.
func (v *Vehicle) StopClimate(ctx context.Context) error {
	if err := v.ExecuteAction(ctx, action.ClimateOff()); err != nil {
		return err
	}
	log.Info("HVAC stopped.")
	return nil
}
