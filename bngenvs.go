package bngenvs

// Version is the software version stamped into every run record.
var Version = "0.6.0"

// SimulatorDataVersion is the simulator's versioned user-data directory name.
// Raw in-game logs are written below <user path>/<SimulatorDataVersion>/.
const SimulatorDataVersion = "0.27"
