/*
Package paradigm implements the scenario state machines behind each environment.

A Paradigm builds its scenario and vehicle, then advances the simulator exactly one
physics step per Step call until its termination predicate holds:

	UNINITIALIZED --Reset--> READY --Step--> ... --Step--> DONE

Step on an uninitialized paradigm resets it first; Step on a done paradigm fails with
domain.ErrAlreadyFinished. The time budget is always evaluated through the session's
CheckTimeLimit.

# Variants

  - CrashTest: drives a car down a straight approach into a barrier until the step budget runs out.
  - DragStrip: scripted acceleration run, done once the car passes the finish coordinate.
  - TrackTest: AI lap over six waypoints, done once every waypoint is reached and the car is back at the line.
*/
package paradigm
