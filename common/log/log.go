// Package log configures the process-wide logger used by every other
// package in rcsniff2.
package log

import (
	"os"

	"github.com/op/go-logging"
)

var Log = logging.MustGetLogger("")

var stderrFormat = logging.MustStringFormatter(
	`%{color}rcsniff2 ▶ %{time:15:04:05.000} %{level:.5s} %{message}%{color:reset}`,
)

// SetupLogging wires Log to a stderr backend at the given default level,
// overridable with RCSNIFF2_LOG_LEVEL (CRITICAL, ERROR, WARNING, NOTICE,
// INFO, DEBUG).
func SetupLogging(defaultLevel logging.Level) *logging.Logger {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	logging.SetFormatter(stderrFormat)

	leveled := logging.AddModuleLevel(backend)
	switch os.Getenv("RCSNIFF2_LOG_LEVEL") {
	case "CRITICAL":
		leveled.SetLevel(logging.CRITICAL, "")
	case "ERROR":
		leveled.SetLevel(logging.ERROR, "")
	case "WARNING":
		leveled.SetLevel(logging.WARNING, "")
	case "NOTICE":
		leveled.SetLevel(logging.NOTICE, "")
	case "INFO":
		leveled.SetLevel(logging.INFO, "")
	case "DEBUG":
		leveled.SetLevel(logging.DEBUG, "")
	default:
		leveled.SetLevel(defaultLevel, "")
	}

	logging.SetBackend(leveled)
	return Log
}
