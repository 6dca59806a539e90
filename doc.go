/*
Package bngenvs orchestrates automated vehicle test environments on top of an external
driving simulator reached through its automation API.

Three environments are provided: a crash test against fixed obstacles, a drag strip
acceleration run and an AI-driven lap of a race track. Each environment composes a
scenario paradigm (scenario setup and termination logic), a simulation session (the
simulator connection), a telemetry history and a persisted run record.

# Architecture

The simulator is never imported directly. The core depends on the capability
interfaces in pkg/ports, so any simulator client, or the deterministic fake in
pkg/adapters/fake, can drive the paradigms.

  - pkg/bngsim: one simulator connection and its time/step primitives.
  - pkg/paradigm: per-environment scenario state machines.
  - pkg/history: per-step telemetry sequences.
  - pkg/results: on-disk run records with load and flattening helpers.
  - pkg/workerpool: allocation of independent simulator instances.
  - pkg/env: runnable environments exposing Step, Run and Reset.

# Usage

	cfg, err := domain.NewConfig(domain.TrackTestConfig()...)
	if err != nil {
		log.Fatal(err)
	}

	e, err := env.NewTrackTest(cfg, domain.Params{"driver_aggression": 1.1}, connector)
	if err != nil {
		log.Fatal(err)
	}

	res, hist, err := e.Run(ctx, nil)

Records written by Run can be reopened with results.Load and projected into one scalar
row per run or one time-series row per step.
*/
package bngenvs
