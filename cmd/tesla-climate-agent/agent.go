package main

import (
	"github.com/teslamotors/climate-agent/internal/clock"
	"github.com/teslamotors/climate-agent/internal/log"
	"github.com/teslamotors/climate-agent/internal/scheduler"
	"github.com/teslamotors/climate-agent/pkg/account"
	"github.com/teslamotors/climate-agent/pkg/cli"
	"github.com/teslamotors/climate-agent/pkg/climate"
	"github.com/teslamotors/climate-agent/pkg/oauth"
	"github.com/teslamotors/climate-agent/pkg/vehicle"
)

const dailyJobTag = "hvac_job"

// setup wires the agent's components together and registers the daily job. The returned
// scheduler has not been started.
func setup(config *cli.Config, clk clock.Clock) (*scheduler.Scheduler, error) {
	at, days, err := config.Schedule()
	if err != nil {
		return nil, err
	}

	tokens := oauth.NewTokenSource(config.ClientID, config.RefreshToken, clk)
	tokens.URL = config.AuthURL
	if config.UsesKeyring() {
		tokens.OnRotate = config.SaveTokenToKeyring
	}

	acct := account.New(tokens, "", clk)
	acct.BaseURL = config.APIURL
	tokens.UserAgent = acct.UserAgent

	car := vehicle.New(config.VehicleID, acct, clk)
	sched := scheduler.New(clk)
	controller := climate.NewController(car, sched, config.Settings())

	log.Info("Vehicle %s, start %s on %s, check after %s, thresholds outside < %g°C or inside > %g°C, target %g°C",
		car.ID(), at, days, config.CheckDelay, config.OutdoorThreshold, config.IndoorThreshold, config.TargetTemp)
	sched.Daily(dailyJobTag, at, days, controller.RunDailyJob)
	return sched, nil
}
