package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

// Mode selects the output format of the global logger.
type Mode string

const (
	ModePretty Mode = "pretty"
	ModeDebug  Mode = "debug"
	ModeInfo   Mode = "info"
	ModeProd   Mode = "prod"
	ModeTest   Mode = "test"
)

func Init() {
	InitWithMode(ModePretty)
}

// InitWithMode configures the global logger. Pretty and debug modes write
// colorized console output; prod writes JSON; test discards everything.
func InitWithMode(mode Mode) {
	zerolog.TimeFieldFormat = time.RFC3339

	switch mode {
	case ModeProd:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log = zerolog.New(os.Stdout).With().Timestamp().Logger()
	case ModeTest:
		zerolog.SetGlobalLevel(zerolog.Disabled)
		log = zerolog.Nop()
	case ModeInfo:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log = zerolog.New(consoleWriter()).With().Timestamp().Logger()
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log = zerolog.New(consoleWriter()).With().Timestamp().Logger()
	}

	zerolog.DefaultContextLogger = &log
}

func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    false,
		FormatLevel: func(i interface{}) string {
			return colorizeLevel(i.(string))
		},
		FormatMessage: func(i interface{}) string {
			return colorize(i.(string), cyan)
		},
		FormatFieldName: func(i interface{}) string {
			return colorize(i.(string)+":", gray)
		},
		FormatFieldValue: func(i interface{}) string {
			switch v := i.(type) {
			case string:
				return colorize(v, blue)
			case json.Number:
				return colorize(v.String(), blue)
			default:
				return colorize(fmt.Sprint(v), blue)
			}
		},
	}
}

// ANSI color codes
const (
	gray  = "\x1b[37m"
	blue  = "\x1b[34m"
	cyan  = "\x1b[36m"
	red   = "\x1b[31m"
	reset = "\x1b[0m"
)

func colorize(s, color string) string {
	return color + s + reset
}

func colorizeLevel(level string) string {
	switch level {
	case "debug":
		return colorize("DBG", gray)
	case "info":
		return colorize("INF", blue)
	case "warn":
		return colorize("WRN", cyan)
	case "error":
		return colorize("ERR", red)
	default:
		return colorize(level, blue)
	}
}

// Get returns the logger instance
func Get() zerolog.Logger {
	return log
}

// WithComponent returns a child logger tagged with a component name
func WithComponent(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
