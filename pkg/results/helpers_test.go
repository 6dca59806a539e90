package results_test

import (
	"io"
	"log/slog"

	"github.com/aretw0/bngenvs/internal/logging"
)

func jsonLogger(w io.Writer) *slog.Logger {
	return logging.NewJSON(slog.LevelDebug, w)
}
