/*
Package ports defines the driven ports (interfaces) of the environments.

These interfaces decouple the session manager and paradigms from the concrete
simulator client, the run index and the cross-process lock backend, so tests can
substitute in-memory doubles.

# Key Interfaces

  - Simulator: one connection to a simulator instance (scenario, stepping, debug draw).
  - Vehicle: per-vehicle capabilities (sensors, part config, AI, logging).
  - Connector: creates a Simulator for a connection config.
  - RunIndex: queryable index of persisted run records.
  - DistributedLocker: distributed locking used to lease workers across processes.
*/
package ports
