/*
Package bngsim manages one simulator connection on behalf of a scenario paradigm.

A Sim launches and closes the connection, starts scenarios in a paused state and is
the single authority for converting steps into simulated time and for enforcing the
time budget. It also owns the sensor set attached to vehicles, the simulator's own
per-vehicle logging and the debug path overlay.

Operations are not retried; errors from the simulator propagate to the caller.
*/
package bngsim
