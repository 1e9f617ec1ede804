package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Version is stamped into every log line.
var Version = "dev"

type Opts struct {
	JSON    bool
	Debug   bool
	UID     bool
	Service string
	Output  io.Writer
}

// Setup builds the process logger.
func Setup(o Opts) *slog.Logger {
	out := o.Output
	if out == nil {
		out = os.Stderr
	}
	level := slog.LevelInfo
	if o.Debug {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if o.JSON {
		handler = slog.NewJSONHandler(out, hopts)
	} else {
		handler = slog.NewTextHandler(out, hopts)
	}

	log := slog.New(handler).With("version", Version)
	if o.Service != "" {
		log = log.With("service", o.Service)
	}
	if o.UID {
		log = log.With("uid", uuid.Must(uuid.NewRandom()).String())
	}
	return log
}
