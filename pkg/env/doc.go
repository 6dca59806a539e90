/*
Package env composes a simulation session (bngsim) with a scenario paradigm into a
runnable test environment.

An Environment is either stepped manually:

	e, _ := env.NewDragStrip(params, cfg, connect)
	for !e.Done() {
		res, err := e.Step(ctx, nil)
		...
	}

or run to completion, which records the telemetry history and saves a run record:

	res, h, err := e.Run(ctx, nil)

Run resets the environment, starts the simulator's raw logging under
"<EnvName>/<run id>", steps until the paradigm is done, assembles the summary
(time_s, finished and the variant's own values), saves the record and closes the
session.
*/
package env
