package launcher

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/log"
)

// setupLogging installs the root log handler.
func setupLogging(cfg LoggingConfig, w io.Writer) error {
	var format log.Format
	switch cfg.Format {
	case "", "text":
		format = log.TerminalFormat(cfg.Color)
	case "json":
		format = log.JSONFormat()
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", cfg.Format)
	}
	if cfg.Verbosity < int(log.LvlCrit) || cfg.Verbosity > int(log.LvlTrace) {
		return fmt.Errorf("log verbosity %d out of range 0..5", cfg.Verbosity)
	}
	glogger := log.NewGlogHandler(log.StreamHandler(w, format))
	glogger.Verbosity(log.Lvl(cfg.Verbosity))
	log.Root().SetHandler(glogger)
	return nil
}
