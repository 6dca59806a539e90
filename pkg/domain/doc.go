/*
Package domain contains the core value types shared by the simulator session, the
scenario paradigms and result persistence.

It is kept free of I/O so every other package can depend on it.

# Key Entities

  - Config: immutable per-run settings (time budget, step rate, output path).
  - BeamNGConfig: the simulator connection sub-config.
  - Params: caller-supplied experiment inputs.
  - Results: scalar summary of one finished run.
  - Outcome: the completion marker of a persisted run record.
  - PartConfig: a named set of vehicle part selections and setpoints.
*/
package domain
