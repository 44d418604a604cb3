package canvas

import (
	"log/slog"
	"sync/atomic"

	"github.com/chrisuehlinger/canvashim/render"
)

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(slog.DiscardHandler))
}

// SetLogger configures logging for the shim and the render layer beneath
// it. Pass nil to silence both again.
//
// The shim logs image loads at debug level and dropped stale decode
// results at warn level.
func SetLogger(l *slog.Logger) {
	render.SetLogger(l)
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	loggerPtr.Store(l)
}

// Logger returns the current shim logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
