// Package log holds the package-level logger used across zkless-kafka.
//
// Every package takes a go-kit/log.Logger explicitly (for testability), but
// the CLI and any code that does not have one handy can fall back to this
// package-level Logger, the same way grafana/tempo's modules do.
package log

import (
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Logger is the fallback logger used where no logger has been threaded in
// explicitly. InitLogger replaces it once the desired level is known.
var Logger = level.NewFilter(log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr)), level.AllowInfo())

// InitLogger rebuilds the package-level Logger at the given level ("debug",
// "info", "warn", "error"). Unrecognized levels fall back to "info".
func InitLogger(lvl string) {
	base := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	base = log.With(base, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	var opt level.Option
	switch lvl {
	case "debug":
		opt = level.AllowDebug()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		opt = level.AllowInfo()
	}
	Logger = level.NewFilter(base, opt)
}
