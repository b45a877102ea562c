package logger

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

// Setup configures the process-wide logrus logger.
func Setup(w io.Writer, level string, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetOutput(w)
	log.SetLevel(lvl)

	switch format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", format)
	}
	return nil
}
