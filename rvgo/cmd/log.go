package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
)

func Logger(w io.Writer, lvl slog.Level) log.Logger {
	return log.NewLogger(log.LogfmtHandlerWithLevel(w, lvl))
}

// parseLevel accepts debug, info, warn and error, in any case.
func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}

// LoggingWriter routes one output stream of the guest program into the logger.
// Printable chunks are logged as text, anything else as hex.
type LoggingWriter struct {
	Name string
	Log  log.Logger
}

func printable(b []byte) bool {
	for _, c := range string(b) {
		if c == '\n' || c == '\t' {
			continue
		}
		if c < 0x20 || c >= 0x7F {
			return false
		}
	}
	return true
}

func (lw *LoggingWriter) Write(b []byte) (int, error) {
	if printable(b) {
		lw.Log.Info("program output", "stream", lw.Name, "text", string(b))
	} else {
		lw.Log.Info("program output", "stream", lw.Name, "data", hexutil.Bytes(b))
	}
	return len(b), nil
}
