package env

import (
	"context"
	"fmt"
	"path"

	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/history"
	"github.com/aretw0/bngenvs/pkg/results"
	"github.com/google/uuid"
)

// Run resets the environment and steps it to completion, recording every step.
// The summary and history are then saved as a run record under the config's output
// path and the session is closed as the config dictates.
//
// A failure at any point force-closes the session and nothing is persisted. An
// out-of-time error (ErrorOnOutOfTime) is such a failure.
func (e *Environment) Run(ctx context.Context, modifiers Modifiers) (domain.Results, *history.History, error) {
	runID := uuid.NewString()
	logger := e.logger.With("run_id", runID)

	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(ctx, &domain.RunEvent{
			EventBase: e.event(domain.EventRunStart),
			RunID:     runID,
		})
	}
	logger.Debug("run started")

	res, err := e.run(ctx, runID, modifiers)
	if err != nil {
		if cerr := e.sim.Close(ctx, true); cerr != nil {
			logger.Warn("failed to close session after failure", "err", cerr)
		}
	}

	if e.hooks.OnRunEnd != nil {
		ev := &domain.RunEvent{
			EventBase: e.event(domain.EventRunEnd),
			RunID:     runID,
			Steps:     e.paradigm.CurrentStep(),
			Time:      e.sim.RealTime(e.paradigm.CurrentStep()),
			Finished:  e.paradigm.Finished(),
			Err:       err,
		}
		if e.record != nil {
			ev.Path = e.record.Path()
		}
		e.hooks.OnRunEnd(ctx, ev)
	}

	if err != nil {
		logger.Error("run failed", "step", e.paradigm.CurrentStep(), "err", err)
		return nil, e.history, err
	}
	logger.Info("run complete",
		"steps", e.paradigm.CurrentStep(),
		"finished", e.paradigm.Finished(),
		"path", e.record.Path())
	return res, e.history, nil
}

func (e *Environment) run(ctx context.Context, runID string, modifiers Modifiers) (domain.Results, error) {
	if err := e.Reset(ctx); err != nil {
		return nil, err
	}
	if e.paradigm.Done() {
		return nil, domain.ErrAlreadyFinished
	}

	vehicle := e.paradigm.Vehicle()
	if err := e.sim.StartLogging(ctx, vehicle, path.Join(e.name, runID)); err != nil {
		return nil, err
	}

	actions := modifiers["action"]
	var timeS float64
	for i := 0; !e.paradigm.Done(); i++ {
		var action any
		if i < len(actions) {
			action = actions[i]
		}
		out, err := e.paradigm.Step(ctx, e.sim, action)
		if err != nil {
			return nil, err
		}

		step := e.paradigm.CurrentStep()
		timeS = e.sim.RealTime(step)
		if err := e.history.AppendStep(step, timeS, out.Observation, nil); err != nil {
			return nil, err
		}

		if e.hooks.OnStep != nil {
			e.hooks.OnStep(ctx, &domain.StepEvent{
				EventBase: e.event(domain.EventStep),
				Step:      step,
				Time:      timeS,
				Done:      out.Done,
			})
		}
	}

	if over, _ := e.sim.CheckTimeLimit(e.paradigm.CurrentStep()); over && !e.paradigm.Finished() {
		e.logger.Warn("out of time",
			"run_id", runID,
			"step", e.paradigm.CurrentStep(),
			"max_time", e.cfg.MaxTime,
			"fps", e.cfg.FPS)
	}

	logsPath, ok, err := e.sim.StopLogging(ctx, vehicle)
	if err != nil {
		return nil, err
	}
	if !ok {
		logsPath = ""
	}

	res := domain.Results{
		history.KeyTime: timeS,
		"finished":      e.paradigm.Finished(),
	}
	extra, err := e.paradigm.Results(ctx, e.history)
	if err != nil {
		return nil, fmt.Errorf("failed to compute results: %w", err)
	}
	for k, v := range extra {
		res[k] = v
	}

	record, err := results.New(e.name, e.cfg, e.params, res, e.history, logsPath,
		results.WithRunID(runID), results.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	if err := record.Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to save run record: %w", err)
	}
	e.record = record
	e.results = res
	e.register(ctx, record)

	if err := e.sim.Close(ctx, false); err != nil {
		return nil, fmt.Errorf("failed to close session: %w", err)
	}
	return res, nil
}

// register adds record to the run index. The record is already on disk, so a
// failure is only logged.
func (e *Environment) register(ctx context.Context, record *results.Record) {
	if e.index == nil {
		return
	}
	scalars, err := record.ScalarMap()
	if err != nil {
		e.logger.Warn("failed to flatten run record", "run_id", record.RunID, "err", err)
		scalars = nil
	}
	entry := domain.RunEntry{
		RunID:     record.RunID,
		Env:       record.EnvName,
		Version:   record.Outcome.Version,
		Complete:  record.Outcome.Complete,
		Finished:  e.paradigm.Finished(),
		Path:      record.Path(),
		CreatedAt: e.now(),
		Scalars:   scalars,
	}
	if err := e.index.Put(ctx, entry); err != nil {
		e.logger.Warn("failed to index run record", "run_id", record.RunID, "err", err)
	}
}

func (e *Environment) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), Type: t, Env: e.name}
}
