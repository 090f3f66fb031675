package app

import (
	"io"

	"github.com/charmbracelet/log"
)

// NewLogger builds the application logger at the named level.
func NewLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		Prefix:          "attention-tracker",
	}), nil
}
