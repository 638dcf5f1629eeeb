// Agent that preconditions a vehicle's cabin on a daily schedule.
//
// At the configured start time on each active day the agent reads the vehicle's inside and outside
// temperatures. If it is cold outside or hot inside, it starts climate conditioning and checks back
// later, stopping conditioning again if the vehicle has not moved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslamotors/climate-agent/internal/log"
	"github.com/teslamotors/climate-agent/pkg/cli"
)

func writeErr(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintf(os.Stderr, "\n")
}

func main() {
	status := 1
	defer func() {
		os.Exit(status)
	}()

	config, err := cli.Load("")
	if err != nil {
		writeErr("Failed to load configuration: %s", err)
		return
	}
	level, err := log.ParseLevel(config.LogLevel)
	if err != nil {
		writeErr("Invalid configuration: %s", err)
		return
	}
	if err := log.Init(log.Options{Level: level, File: config.LogFile}); err != nil {
		writeErr("Failed to open log file: %s", err)
		return
	}
	defer log.Sync()

	if err := config.LoadCredentials(); err != nil {
		log.Error("Failed to load refresh token: %s", err)
		return
	}
	if err := config.Validate(); err != nil {
		log.Error("Invalid configuration: %s", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, err := setup(config, nil)
	if err != nil {
		log.Error("Failed to start: %s", err)
		return
	}

	log.Info("Tesla HVAC script started")
	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Scheduler stopped: %s", err)
		return
	}
	log.Info("Received signal, shutting down")
	status = 0
}
