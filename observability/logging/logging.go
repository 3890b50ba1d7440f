package logging

import (
	"log"
	"log/slog"
	"os"
	"strings"
)

// levelEnvVar overrides the minimum log level at process start.
const levelEnvVar = "SYNTHVAULT_LOG_LEVEL"

// Setup installs a JSON slog handler as the process default and returns a
// logger tagged with the service name and, when provided, the environment.
// The minimum level is read from SYNTHVAULT_LOG_LEVEL (debug, info, warn,
// error) and defaults to info.
func Setup(service, env string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       levelFromEnv(os.Getenv(levelEnvVar)),
		ReplaceAttr: renameAttr,
	})

	base := slog.New(handler).With(slog.String("service", strings.TrimSpace(service)))
	if env = strings.TrimSpace(env); env != "" {
		base = base.With(slog.String("env", env))
	}
	slog.SetDefault(base)

	// Route the stdlib logger through the same handler so dependencies that
	// still use package log show up in the structured stream.
	bridge := slog.NewLogLogger(base.Handler(), slog.LevelInfo)
	bridge.SetFlags(0)
	log.SetOutput(bridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}

func levelFromEnv(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// renameAttr maps slog's default keys onto the field names the log pipeline
// indexes on.
func renameAttr(groups []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "timestamp"
	case slog.LevelKey:
		return slog.String("severity", strings.ToUpper(attr.Value.String()))
	case slog.MessageKey:
		attr.Key = "message"
	}
	return attr
}
