package utils

import (
	"io"
	"log"
	"os"
)

// LoggerConfig configures the application logger.
type LoggerConfig struct {
	// Prefix is prepended to every line; defaults to "[AI Tutor] ".
	Prefix string
	// Format is "text" or "plain". Plain drops file:line and colours so
	// that log shippers get a stable prefix.
	Format string
	Output io.Writer
	// EnableColors colours the prefix for terminals.
	EnableColors bool
}

// InitLogger builds the *log.Logger shared by middleware, services and
// commands.
func InitLogger(config ...LoggerConfig) *log.Logger {
	var cfg LoggerConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "[AI Tutor] "
	}

	if cfg.Format == "plain" {
		return log.New(cfg.Output, prefix, log.LstdFlags|log.LUTC|log.Lmsgprefix)
	}
	if cfg.EnableColors {
		prefix = "\033[36m" + prefix + "\033[0m"
	}
	return log.New(cfg.Output, prefix, log.LstdFlags|log.Lshortfile|log.LUTC)
}

// DiscardLogger is used by tests and by commands that must stay quiet.
func DiscardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
